// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	sendReport = pflag.Bool("send-report", false, "Sends the weekly contact report and exits")

	validLogLevels = []string{"debug", "info", "warn", "error", "fatal"}
	validEnvs      = []string{"development", "production"}
)

// SendReportRequested reports whether the --send-report flag was passed.
func SendReportRequested() bool {
	return *sendReport
}

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that. Secrets have no fallbacks: a missing secret aborts startup
// instead of silently running with a default.
func Setup() error {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")

	v.AutomaticEnv()

	//
	// ENVS
	//
	v.BindEnv("app.log_level", "APP_LOG_LEVEL")
	v.BindEnv("app.env", "NODE_ENV")

	v.BindEnv("host.port", "PORT")
	v.BindEnv("host.cors", "HOST_CORS")
	v.BindEnv("host.frontend_url", "FRONTEND_URL")

	v.BindEnv("database.type", "DATABASE_TYPE")
	v.BindEnv("database.path", "DATABASE_PATH")
	v.BindEnv("database.dsn", "DATABASE_DSN")

	v.BindEnv("security.jwt_secret", "JWT_SECRET")
	v.BindEnv("security.encryption_key", "ENCRYPTION_KEY")
	v.BindEnv("security.email_salt", "EMAIL_SALT")

	v.BindEnv("admin.email_1", "ADMIN_EMAIL_1")
	v.BindEnv("admin.email_2", "ADMIN_EMAIL_2")

	v.BindEnv("auth.single_session", "AUTH_SINGLE_SESSION")

	v.BindEnv("mail.provider", "MAIL_PROVIDER")
	v.BindEnv("mail.brevo.api_key", "BREVO_API_KEY")
	v.BindEnv("mail.brevo.sender_email", "BREVO_SENDER_EMAIL")
	v.BindEnv("mail.brevo.sender_name", "BREVO_SENDER_NAME")
	v.BindEnv("mail.smtp.host", "MAIL_HOST")
	v.BindEnv("mail.smtp.port", "MAIL_PORT")
	v.BindEnv("mail.smtp.password", "MAIL_PASSWORD")
	v.BindEnv("mail.smtp.sender", "MAIL_SENDER_ADDRESS")

	v.BindEnv("cloudflare.account_id", "CLOUDFLARE_ACCOUNT_ID")
	v.BindEnv("cloudflare.access_key_id", "CLOUDFLARE_ACCESS_KEY_ID")
	v.BindEnv("cloudflare.secret_access_key", "CLOUDFLARE_SECRET_ACCESS_KEY")
	v.BindEnv("cloudflare.bucket", "CLOUDFLARE_BUCKET")

	v.BindEnv("turnstile.enabled", "TURNSTILE_ENABLED")
	v.BindEnv("turnstile.secret_token", "TURNSTILE_SECRET_TOKEN")

	//
	// Defaults
	//
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.env", "development")

	v.SetDefault("host.port", 3000)
	v.SetDefault("host.cors", []string{"http://localhost:5173"})

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.path", "database.db")

	v.SetDefault("auth.single_session", true)
	v.SetDefault("auth.code_ttl_minutes", 15)
	v.SetDefault("auth.max_attempts", 5)
	v.SetDefault("auth.session_ttl_days", 7)
	v.SetDefault("auth.link_token_ttl_minutes", 15)
	v.SetDefault("auth.jwt_ttl_hours", 24)

	v.SetDefault("mail.provider", "brevo")

	v.SetDefault("ratelimit.global_rps", 20)
	v.SetDefault("ratelimit.contact_max", 10)
	v.SetDefault("ratelimit.login_max", 5)
	v.SetDefault("ratelimit.window_minutes", 15)
	v.SetDefault("ratelimit.contact_email_max", 3)
	v.SetDefault("ratelimit.contact_email_window_hours", 24)

	v.SetDefault("report.enabled", false)
	v.SetDefault("report.schedule", "0 8 * * 1")

	v.SetDefault("backup.enabled", false)
	v.SetDefault("backup.schedule", "0 3 * * *")

	v.SetDefault("turnstile.enabled", false)

	if err := v.ReadInConfig(); err != nil {
		// A config file is optional as long as the environment
		// provides the required values
		if _, ok := err.(v.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file, %w", err)
		}
	}

	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if !slices.Contains(validEnvs, v.GetString("app.env")) {
		return errors.New("app.env must be either development or production")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if v.GetString("security.jwt_secret") == "" {
		return errors.New("security.jwt_secret is required")
	}

	key := v.GetString("security.encryption_key")
	if key == "" {
		return errors.New("security.encryption_key is required")
	}

	raw, err := hex.DecodeString(key)
	if err != nil {
		return errors.New("security.encryption_key must be hex encoded")
	}

	switch len(raw) {
	case 16, 24, 32:
	default:
		return errors.New("security.encryption_key must decode to 16, 24 or 32 bytes")
	}

	if v.GetString("security.email_salt") == "" {
		return errors.New("security.email_salt is required")
	}

	switch v.GetString("database.type") {
	case "sqlite":
		if v.GetString("database.path") == "" {
			return errors.New("no sqlite database path provided")
		}
	case "postgres":
		if v.GetString("database.dsn") == "" {
			return errors.New("no postgres DSN provided")
		}
	default:
		return errors.New("invalid database type provided")
	}

	if len(AdminEmails()) == 0 {
		zap.L().Warn("No admin emails configured, the admin panel will be unreachable")
	}

	switch v.GetString("mail.provider") {
	case "brevo":
		{
			if v.GetString("mail.brevo.api_key") == "" {
				return errors.New("brevo api key can't be empty")
			}
			if v.GetString("mail.brevo.sender_email") == "" {
				return errors.New("brevo sender email can't be empty")
			}
		}
	case "smtp":
		{
			if v.GetString("mail.smtp.host") == "" {
				return errors.New("smtp host can't be empty")
			}
			if v.GetInt("mail.smtp.port") <= 0 {
				return errors.New("invalid smtp port provided")
			}
			if v.GetString("mail.smtp.sender") == "" {
				return errors.New("smtp sender address can't be empty")
			}
		}
	default:
		return errors.New("invalid mail provider provided")
	}

	if v.GetBool("backup.enabled") {
		if v.GetString("database.type") != "sqlite" {
			return errors.New("backups are only supported for sqlite databases")
		}
		if v.GetString("cloudflare.account_id") == "" {
			return errors.New("account id can't be empty")
		}
		if v.GetString("cloudflare.access_key_id") == "" {
			return errors.New("account access id can't be empty")
		}
		if v.GetString("cloudflare.secret_access_key") == "" {
			return errors.New("secret access key can't be empty")
		}
		if v.GetString("cloudflare.bucket") == "" {
			return errors.New("bucket can't be empty")
		}
	}

	if v.GetBool("turnstile.enabled") && v.GetString("turnstile.secret_token") == "" {
		return errors.New("turnstile secret token is missing")
	}

	return nil
}

// EncryptionKey returns the decoded AES key. Setup validates it at
// startup so decoding can't fail here.
func EncryptionKey() []byte {
	raw, _ := hex.DecodeString(v.GetString("security.encryption_key"))
	return raw
}

// EmailSalt returns the keyed-hash salt for admin email lookups.
func EmailSalt() []byte {
	return []byte(v.GetString("security.email_salt"))
}

// JWTSecret returns the HS256 signing secret.
func JWTSecret() []byte {
	return []byte(v.GetString("security.jwt_secret"))
}

// AdminEmails returns the configured allow-list seeds. The first
// entry gets the super_admin role.
func AdminEmails() []string {
	var emails []string

	for _, k := range []string{"admin.email_1", "admin.email_2"} {
		if e := v.GetString(k); e != "" {
			emails = append(emails, e)
		}
	}

	return emails
}
