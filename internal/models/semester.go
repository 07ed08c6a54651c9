package models

import "time"

// SemesterTerm enumerates the academic terms of a year.
type SemesterTerm string

const (
	TermSpring SemesterTerm = "SPRING"
	TermSummer SemesterTerm = "SUMMER"
	TermFall   SemesterTerm = "FALL"
)

// Semester represents one academic term instance (e.g. Spring 2025).
type Semester struct {
	ID        string          `db:"id" json:"id"`
	Code      string          `db:"code" json:"code"`
	Term      SemesterTerm    `db:"term" json:"term"`
	Year      int             `db:"year" json:"year"`
	Status    LifecycleStatus `db:"status" json:"status"`
	StartDate *time.Time      `db:"start_date" json:"start_date,omitempty"`
	EndDate   *time.Time      `db:"end_date" json:"end_date,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// EntityID returns the primary key.
func (s Semester) EntityID() string { return s.ID }

// SemesterFilter captures filtering criteria for listing semesters.
type SemesterFilter struct {
	Term      SemesterTerm
	Year      int
	Status    LifecycleStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
