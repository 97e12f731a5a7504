package models

import (
	"time"
)

// Role determines which capabilities a user is offered.
type Role string

const (
	RoleTenant Role = "tenant"
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleTenant, RoleOwner, RoleAdmin:
		return true
	}
	return false
}

// StudentInfo only applies to tenants.
type StudentInfo struct {
	University string `bson:"university" json:"university" validate:"required"`
	StudentID  string `bson:"student_id" json:"student_id" validate:"required"`
	Year       int    `bson:"year" json:"year" validate:"required,min=1950,max=2100"`
}

type Profile struct {
	Name             string       `bson:"name" json:"name"`
	Photo            string       `bson:"photo,omitempty" json:"photo,omitempty"`
	IdentityVerified bool         `bson:"identity_verified" json:"identity_verified"`
	StudentInfo      *StudentInfo `bson:"student_info,omitempty" json:"student_info,omitempty"`
}

// User represents an account holder. Email is the login key and is unique.
type User struct {
	Base         `bson:",inline"`
	Email        string    `bson:"email" json:"email"`
	Phone        string    `bson:"phone,omitempty" json:"phone,omitempty"`
	PasswordHash string    `bson:"password" json:"-"`
	Role         Role      `bson:"role" json:"role"`
	Profile      Profile   `bson:"profile" json:"profile"`
	IsActive     bool      `bson:"is_active" json:"is_active"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}

// ProfilePatch carries the profile fields a user may change. Nil fields are left as they are.
type ProfilePatch struct {
	Name        *string      `json:"name,omitempty"`
	Photo       *string      `json:"photo,omitempty"`
	Phone       *string      `json:"phone,omitempty"`
	StudentInfo *StudentInfo `json:"student_info,omitempty"`
}
