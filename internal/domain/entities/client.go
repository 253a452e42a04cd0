package entities

import "time"

// ClientProfile is owned by the identity provider; the service only reads it.
type ClientProfile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
}

type Role string

const (
	RoleClient Role = "client"
	RoleAdmin  Role = "admin"
)

// Caller is the authenticated principal of a request.
type Caller struct {
	ClientID string
	Role     Role
}

func (c Caller) IsAdmin() bool { return c.Role == RoleAdmin }

// CanAccess reports whether the caller owns the estimation or is an admin.
func (c Caller) CanAccess(e Estimation) bool {
	if c.IsAdmin() {
		return true
	}
	return c.ClientID != "" && c.ClientID == e.ClientID
}
