package model

import "time"

// Session stores admin panel logins. Expiry is fixed at creation
// time and never extended by use.
type Session struct {
	ID        string    `gorm:"primaryKey;size:64"`
	UserID    string    `gorm:"index;not null"`
	UserAgent string    `gorm:"size:512"`
	ExpiresAt time.Time `gorm:"index;not null"`
	CreatedAt time.Time
}
