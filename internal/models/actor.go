package models

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID string
	Role   Role
}

func (a Actor) Authenticated() bool {
	return a.UserID != ""
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
