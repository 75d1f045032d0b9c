// Package db contains things related to the relational store
package db

import (
	"deogratias/contact-api/internal/model"
	"deogratias/contact-api/pkg/util"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func New() (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch viper.GetString("database.type") {
	case "postgres":
		dialector = postgres.Open(viper.GetString("database.dsn"))
	default:
		path := viper.GetString("database.path")

		// If running in a docker container don't allow the sqlite file to be created.
		// The host should instead mount it using volumes
		if util.IsRunningInDocker() {
			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("SQLite database file not mounted, please use docker volumes to mount it to /app/%s", path)
			}
		}

		dialector = sqlite.Open(path)
	}

	// TranslateError maps dialect-specific unique violations to
	// gorm.ErrDuplicatedKey, which the duplicate checks rely on
	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}

	err = db.AutoMigrate(
		model.Contact{},
		model.User{},
		model.Session{},
		model.VerificationCode{},
		model.AuthToken{},
		model.Admin{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to automigrate tables, %w", err)
	}

	return db, nil
}
