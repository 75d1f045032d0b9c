package model

import "time"

// VerificationCode holds a one-time 6-digit login code. At most one
// active code exists per email, issuing a new one deletes the rest.
type VerificationCode struct {
	ID        int    `gorm:"primaryKey;autoIncrement"`
	Email     string `gorm:"index;not null"`
	Code      string `gorm:"not null"`
	ExpiresAt time.Time
	Used      bool `gorm:"default:false"`
	Attempts  int  `gorm:"default:0"`
	CreatedAt time.Time
}
