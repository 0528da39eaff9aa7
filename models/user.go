package models

import (
	"time"
)

// Role defines the role kinds a user can be granted
type Role string

const (
	RoleDiner      Role = "diner"
	RoleFranchisee Role = "franchisee"
	RoleAdmin      Role = "admin"
)

type User struct {
	ID           uint        `json:"id" gorm:"primaryKey"`
	Name         string      `json:"name" gorm:"not null"`
	Email        string      `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string      `json:"-" gorm:"not null"`
	Roles        []RoleGrant `json:"roles" gorm:"foreignKey:UserID"`
	CreatedAt    time.Time   `json:"-"`
	UpdatedAt    time.Time   `json:"-"`
}

// RoleGrant ties one role to a user. Franchisee grants carry the
// franchise they are scoped to in ObjectID; other roles are global.
type RoleGrant struct {
	ID       uint `json:"-" gorm:"primaryKey"`
	UserID   uint `json:"-" gorm:"index;not null"`
	Role     Role `json:"role" gorm:"not null"`
	ObjectID uint `json:"objectId,omitempty"`
}
