package models

import "time"

// EnrollmentStatus represents the lifecycle of a class enrollment.
type EnrollmentStatus string

// Possible enrollment statuses. Removal from a class disables the row
// rather than deleting it.
const (
	EnrollmentStatusActive   EnrollmentStatus = "ACTIVE"
	EnrollmentStatusDisabled EnrollmentStatus = "DISABLED"
)

// ClassRole is the role a user holds inside one class.
type ClassRole string

const (
	ClassRoleStudent  ClassRole = "STUDENT"
	ClassRoleLecturer ClassRole = "LECTURER"
	ClassRoleTA       ClassRole = "TA"
)

// ClassEnrollment ties one user to one class, optionally to one group of
// that class. A user enrolls in a class at most once.
type ClassEnrollment struct {
	ID          string           `db:"id" json:"id"`
	ClassID     string           `db:"class_id" json:"class_id"`
	GroupID     *string          `db:"group_id" json:"group_id,omitempty"`
	UserID      string           `db:"user_id" json:"user_id"`
	Status      EnrollmentStatus `db:"status" json:"status"`
	RoleInClass ClassRole        `db:"role_in_class" json:"role_in_class"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
}

// EntityID returns the primary key.
func (e ClassEnrollment) EntityID() string { return e.ID }

// EnrollmentView enriches an enrollment with account identity fields.
type EnrollmentView struct {
	ClassEnrollment
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	StudentID string `json:"student_id"`
}

// MemberView is one group member as exposed in roster responses.
type MemberView struct {
	EnrollmentID string    `json:"enrollment_id"`
	UserID       string    `json:"user_id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	StudentID    string    `json:"student_id"`
	RoleInClass  ClassRole `json:"role_in_class"`
}
