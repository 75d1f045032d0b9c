package model

import "time"

// Admin is the allow-list table. Emails are stored encrypted and
// looked up by a deterministic keyed hash so the plaintext never
// touches the database.
type Admin struct {
	ID             int    `gorm:"primaryKey;autoIncrement"`
	EmailEncrypted string `gorm:"not null"`
	EmailHash      string `gorm:"uniqueIndex;not null"`
	Role           string `gorm:"default:admin"`
	IsActive       bool   `gorm:"default:true"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
