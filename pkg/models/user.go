package models

import "time"

const (
	RoleCustomer  = "customer"
	RoleVendor    = "vendor"
	RoleWarehouse = "warehouse"
	RoleLogistics = "logistics"
	RoleSupport   = "support"
	RoleAdmin     = "admin"
)

// User is a minimal local account row. Authentication lives outside the
// core; other entities only need something to reference.
type User struct {
	ID        uint   `gorm:"primaryKey"`
	Username  string `gorm:"size:80;not null;uniqueIndex"`
	Email     string `gorm:"size:200"`
	FirstName string `gorm:"size:100"`
	LastName  string `gorm:"size:100"`
	Role      string `gorm:"size:20;default:'customer'"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
