package models

import "time"

// Group is a working group that exists only under a class.
type Group struct {
	ID          string          `db:"id" json:"id"`
	ClassID     string          `db:"class_id" json:"class_id"`
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description"`
	Status      LifecycleStatus `db:"status" json:"status"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// EntityID returns the primary key.
func (g Group) EntityID() string { return g.ID }

// GroupView is a group together with its current member roster.
type GroupView struct {
	Group
	Members []MemberView `json:"members"`
}
