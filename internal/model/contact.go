package model

import "time"

type Contact struct {
	ID        string `gorm:"primaryKey;type:uuid"`
	Prenom    string
	Nom       string
	Email     string `gorm:"uniqueIndex;not null"`
	Telephone string
	Projet    string `gorm:"not null"`
	Whatsapp  bool   `gorm:"default:false"`
	CreatedAt time.Time
}
