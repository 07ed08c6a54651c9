package models

import "time"

// Document is class material metadata. The binary itself lives in external
// object storage; this service only tracks the reference.
type Document struct {
	ID        string          `db:"id" json:"id"`
	ClassID   string          `db:"class_id" json:"class_id"`
	Name      string          `db:"name" json:"name"`
	Link      string          `db:"link" json:"link"`
	Status    LifecycleStatus `db:"status" json:"status"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// EntityID returns the primary key.
func (d Document) EntityID() string { return d.ID }

// DocumentFilter captures filtering criteria for listing documents.
type DocumentFilter struct {
	ClassID  string
	Status   LifecycleStatus
	Page     int
	PageSize int
}
