package models

import "time"

type Franchise struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"uniqueIndex;not null"`
	Stores    []Store   `json:"stores" gorm:"foreignKey:FranchiseID"`
	Admins    []UserRef `json:"admins" gorm:"-"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// A Store is exclusively owned by its franchise and is deleted with it.
type Store struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	FranchiseID uint      `json:"franchiseId" gorm:"index;not null"`
	Name        string    `json:"name" gorm:"not null"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

// UserRef is the slim user view embedded in franchise responses.
// Franchise admins are not stored on the franchise row; they are the
// users holding a franchisee grant scoped to it.
type UserRef struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
