package models

import "github.com/golang-jwt/jwt/v5"

// AccountRole represents the platform-wide role of an account.
type AccountRole string

const (
	RoleAdmin    AccountRole = "ADMIN"
	RoleLecturer AccountRole = "LECTURER"
	RoleStudent  AccountRole = "STUDENT"
)

// Account is the read model used to decorate membership responses.
// Account management itself lives outside this service.
type Account struct {
	ID        string          `db:"id" json:"id"`
	FirstName string          `db:"first_name" json:"first_name"`
	LastName  string          `db:"last_name" json:"last_name"`
	Email     string          `db:"email" json:"email"`
	StudentID string          `db:"student_id" json:"student_id"`
	Role      AccountRole     `db:"role" json:"role"`
	Status    LifecycleStatus `db:"status" json:"status"`
}

// AccountSummary is the identity subset embedded in views.
type AccountSummary struct {
	ID        string      `json:"id"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Email     string      `json:"email"`
	Role      AccountRole `json:"role"`
}

// Summary projects the account into its embeddable form.
func (a Account) Summary() AccountSummary {
	return AccountSummary{ID: a.ID, FirstName: a.FirstName, LastName: a.LastName, Email: a.Email, Role: a.Role}
}

// JWTClaims represents the JWT payload for access tokens issued by the
// identity service.
type JWTClaims struct {
	UserID string      `json:"user_id"`
	Role   AccountRole `json:"role"`
	Email  string      `json:"email"`
	jwt.RegisteredClaims
}
