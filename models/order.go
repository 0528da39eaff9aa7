package models

import "time"

// OrderStatus represents the states of the order fulfillment pipeline
type OrderStatus string

const (
	StatusDraft     OrderStatus = "DRAFT"
	StatusPriced    OrderStatus = "PRICED"
	StatusSubmitted OrderStatus = "SUBMITTED"
	StatusFulfilled OrderStatus = "FULFILLED"
	StatusRejected  OrderStatus = "REJECTED"
)

type Order struct {
	ID             uint        `json:"id" gorm:"primaryKey"`
	DinerID        uint        `json:"dinerId" gorm:"index;not null"`
	FranchiseID    uint        `json:"franchiseId" gorm:"not null"`
	StoreID        uint        `json:"storeId" gorm:"not null"`
	Status         OrderStatus `json:"status" gorm:"not null;default:'DRAFT'"`
	TotalPrice     float64     `json:"totalPrice"`
	FulfillmentJWT string      `json:"-"`
	Items          []OrderItem `json:"items" gorm:"foreignKey:OrderID"`
	CreatedAt      time.Time   `json:"date"`
	UpdatedAt      time.Time   `json:"-"`
}

// OrderItem snapshots the menu item's price and description at order
// time, so later menu edits never change an existing order's total
type OrderItem struct {
	ID          uint    `json:"-" gorm:"primaryKey"`
	OrderID     uint    `json:"-" gorm:"index;not null"`
	MenuID      uint    `json:"menuId" gorm:"not null"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity" gorm:"not null;default:1"`
	Price       float64 `json:"price" gorm:"not null"`
}
