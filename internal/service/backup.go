package service

import (
	"context"
	"deogratias/contact-api/cloudflare"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const backupTimeout = 5 * time.Minute

// BackupService copies the sqlite database file to an R2 bucket on a
// schedule. Postgres deployments rely on their own backup tooling so
// Setup rejects backup.enabled for anything but sqlite.
type BackupService struct {
	R2     *cloudflare.R2Client
	DBPath string
}

func NewBackupService() (*BackupService, error) {
	r2, err := cloudflare.NewR2()
	if err != nil {
		return nil, fmt.Errorf("failed to create R2 client, %w", err)
	}

	return &BackupService{
		R2:     r2,
		DBPath: viper.GetString("database.path"),
	}, nil
}

// Run uploads a timestamped snapshot of the database file.
func (s *BackupService) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, backupTimeout)
	defer cancel()

	f, err := os.Open(s.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database file, %w", err)
	}
	defer f.Close()

	key := fmt.Sprintf("backups/%s-%s", time.Now().UTC().Format("2006-01-02T15-04-05"), path.Base(s.DBPath))

	if err := s.R2.Upload(ctx, key, f, "application/octet-stream"); err != nil {
		return err
	}

	zap.L().Info("Database backup uploaded", zap.String("key", key))

	return nil
}
