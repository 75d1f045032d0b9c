package model

import "time"

const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

type User struct {
	ID        string `gorm:"primaryKey"`
	Email     string `gorm:"uniqueIndex;not null"`
	Name      string
	Role      string `gorm:"default:user"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Sessions []Session `gorm:"foreignKey:UserID"`
}
