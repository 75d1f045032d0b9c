package service

import (
	"deogratias/contact-api/internal/model"
	"errors"
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const userIDCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// GetOrCreateUser returns the user for an allow-listed email,
// creating it lazily on first login. The default name is the local
// part of the address.
func GetOrCreateUser(db *gorm.DB, email, role string) (*model.User, error) {
	var user model.User

	err := db.Where("email = ?", email).First(&user).Error
	if err == nil {
		return &user, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up user, %w", err)
	}

	id, err := gonanoid.Generate(userIDCharset, 16)
	if err != nil {
		return nil, fmt.Errorf("failed to generate user ID, %w", err)
	}

	if role == "" {
		role = model.RoleUser
	}

	user = model.User{
		ID:    id,
		Email: email,
		Name:  strings.SplitN(email, "@", 2)[0],
		Role:  role,
	}

	if err := db.Create(&user).Error; err != nil {
		// Another login for the same email may have won the insert
		// race, the unique index makes that loser path safe.
		var existing model.User

		if retryErr := db.Where("email = ?", email).First(&existing).Error; retryErr == nil {
			return &existing, nil
		}

		return nil, fmt.Errorf("failed to create user, %w", err)
	}

	zap.L().Info("New user created", zap.String("userID", user.ID))

	return &user, nil
}
