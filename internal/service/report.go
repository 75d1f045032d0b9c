package service

import (
	"deogratias/contact-api/internal/model"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReportService mails the admins a summary of the contacts received
// over the past week.
type ReportService struct {
	DB     *gorm.DB
	Mailer Mailer

	recipients []string
}

func NewReportService(db *gorm.DB, m Mailer, recipients []string) *ReportService {
	return &ReportService{
		DB:         db,
		Mailer:     m,
		recipients: recipients,
	}
}

// Run queries the last seven days of contacts and dispatches one
// report mail per recipient. An empty week still sends a report so
// admins can tell the job ran.
func (s *ReportService) Run() error {
	weekStart := time.Now().AddDate(0, 0, -7)

	var contacts []model.Contact

	err := s.DB.
		Where("created_at >= ?", weekStart).
		Order("created_at DESC").
		Find(&contacts).
		Error
	if err != nil {
		return fmt.Errorf("failed to query weekly contacts, %w", err)
	}

	if len(s.recipients) == 0 {
		zap.L().Warn("No report recipients configured, skipping weekly report")
		return nil
	}

	for _, to := range s.recipients {
		Dispatch(s.Mailer, WeeklyReportMail(to, contacts, weekStart), "weekly-report")
	}

	zap.L().Info("Weekly report dispatched",
		zap.Int("contacts", len(contacts)),
		zap.Int("recipients", len(s.recipients)),
	)

	return nil
}
