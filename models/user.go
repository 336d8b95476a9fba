package models

// UserRole - роль из JWT claims.
type UserRole string

const (
	RoleOrganizer UserRole = "organizer"
	RoleViewer    UserRole = "viewer"
)

type Credentials struct {
	Password string `json:"password"`
}
