package models

import "time"

// Class represents a class section offered within a semester.
type Class struct {
	ID         string          `db:"id" json:"id"`
	SemesterID string          `db:"semester_id" json:"semester_id"`
	Code       string          `db:"code" json:"code"`
	Status     LifecycleStatus `db:"status" json:"status"`
	LecturerID *string         `db:"lecturer_id" json:"lecturer_id,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// EntityID returns the primary key.
func (c Class) EntityID() string { return c.ID }

// ClassView enriches a class with its semester code and lecturer identity.
type ClassView struct {
	Class
	SemesterCode string          `json:"semester_code,omitempty"`
	Lecturer     *AccountSummary `json:"lecturer,omitempty"`
}

// ClassFilter captures filtering criteria for listing classes.
type ClassFilter struct {
	SemesterID string
	Status     LifecycleStatus
	Search     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
