package model

import "time"

// AuthToken backs the link-based admin login. One row per email,
// replaced on every request and deleted on use.
type AuthToken struct {
	ID        int    `gorm:"primaryKey;autoIncrement"`
	Email     string `gorm:"index;not null"`
	Token     string `gorm:"uniqueIndex;not null"`
	ExpiresAt time.Time
	CreatedAt time.Time
}
