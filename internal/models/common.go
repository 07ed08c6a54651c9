package models

// LifecycleStatus is the shared lifecycle state for semesters, classes,
// groups and documents. Records are never hard-deleted while referenced;
// removal flips the status to Disabled instead.
type LifecycleStatus string

const (
	StatusActive   LifecycleStatus = "ACTIVE"
	StatusPending  LifecycleStatus = "PENDING"
	StatusDisabled LifecycleStatus = "DISABLED"
)

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
