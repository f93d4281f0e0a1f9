package models

import (
	"strings"
	"time"
)

const (
	RoleLearner = "learner"
	RoleAdmin   = "admin"
)

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Avatar    string    `json:"avatar"`
	Role      string    `json:"role"` // learner, admin
	CreatedAt time.Time `json:"createdAt"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// ValidRole reports whether role is one a user can hold.
func ValidRole(role string) bool {
	return role == RoleLearner || role == RoleAdmin
}

// Credential is a password identity, keyed by normalized email.
type Credential struct {
	UID          string    `json:"uid"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"displayName,omitempty"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

// FederatedLink maps an external provider subject to a user id.
type FederatedLink struct {
	UID       string    `json:"uid"`
	Provider  string    `json:"provider"`
	Subject   string    `json:"subject"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
