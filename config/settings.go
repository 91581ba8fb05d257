package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ediltrentini/site-backend/errs"
)

// Storage backends for uploaded images.
const (
	StorageDisk = "disk"
	StorageS3   = "s3"
)

type S3Settings struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Prefix    string
	PublicURL string
}

type TwilioSettings struct {
	AccountSID string
	AuthToken  string
	From       string
	To         string
}

// Enabled reports whether every Twilio key is present.
func (t TwilioSettings) Enabled() bool {
	return t.AccountSID != "" && t.AuthToken != "" && t.From != "" && t.To != ""
}

// Settings is the typed view of the environment the server runs with.
type Settings struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	DBType string
	DBPath string
	DBDSN  string

	AdminUsername string
	AdminPassword string
	SessionSecret string
	CookieSecure  bool

	AcceptedOrigins []string

	StorageBackend string
	UploadsDir     string
	S3             S3Settings

	ResendAPIKey     string
	ResendFromEmail  string
	ResendBaseURL    string
	ContactRecipient string
	Twilio           TwilioSettings

	PublicDir string
	AdminDir  string

	LogLevel  string
	LogFormat string

	GenerateModels       bool
	GenerateColumnReport bool
	GeneratedQueryPath   string
}

var requiredKeys = []string{
	"ADMIN_PASSWORD",
	"SESSION_SECRET",
	"RESEND_API_KEY",
	"RESEND_FROM_EMAIL",
	"CONTACT_RECIPIENT",
}

// Load builds Settings from a config map. Every missing required key is
// reported in a single error.
func Load(c map[string]string) (Settings, error) {
	var missing []string
	for _, key := range requiredKeys {
		if strings.TrimSpace(GetString(c, key, "")) == "" {
			missing = append(missing, key)
		}
	}

	s := Settings{
		Port:         GetString(c, "PORT", "3000"),
		ReadTimeout:  time.Duration(GetInt(c, "READ_TIMEOUT_SECONDS", 180)) * time.Second,
		WriteTimeout: time.Duration(GetInt(c, "WRITE_TIMEOUT_SECONDS", 180)) * time.Second,
		IdleTimeout:  time.Duration(GetInt(c, "IDLE_TIMEOUT_SECONDS", 180)) * time.Second,

		DBType: strings.ToLower(GetString(c, "DB_TYPE", "sqlite")),
		DBPath: GetString(c, "DB_PATH", "db/database.sqlite"),

		AdminUsername: GetString(c, "ADMIN_USERNAME", "admin"),
		AdminPassword: GetString(c, "ADMIN_PASSWORD", ""),
		SessionSecret: GetString(c, "SESSION_SECRET", ""),
		CookieSecure:  GetBool(c, "COOKIE_SECURE", false),

		AcceptedOrigins: GetList(c, "ACCEPTED_ORIGINS"),

		StorageBackend: strings.ToLower(GetString(c, "STORAGE_BACKEND", StorageDisk)),
		UploadsDir:     GetString(c, "UPLOADS_DIR", "uploads"),
		S3: S3Settings{
			Bucket:    GetString(c, "S3_BUCKET", ""),
			Region:    GetString(c, "S3_REGION", "eu-south-1"),
			Endpoint:  GetString(c, "S3_ENDPOINT", ""),
			AccessKey: GetString(c, "S3_ACCESS_KEY_ID", ""),
			SecretKey: GetString(c, "S3_SECRET_ACCESS_KEY", ""),
			Prefix:    GetString(c, "S3_PREFIX", "uploads/"),
			PublicURL: GetString(c, "S3_PUBLIC_URL", ""),
		},

		ResendAPIKey:     GetString(c, "RESEND_API_KEY", ""),
		ResendFromEmail:  GetString(c, "RESEND_FROM_EMAIL", ""),
		ResendBaseURL:    GetString(c, "RESEND_BASE_URL", ""),
		ContactRecipient: GetString(c, "CONTACT_RECIPIENT", ""),
		Twilio: TwilioSettings{
			AccountSID: GetString(c, "TWILIO_ACCOUNT_SID", ""),
			AuthToken:  GetString(c, "TWILIO_AUTH_TOKEN", ""),
			From:       GetString(c, "TWILIO_FROM_NUMBER", ""),
			To:         GetString(c, "TWILIO_TO_NUMBER", ""),
		},

		PublicDir: GetString(c, "PUBLIC_DIR", ""),
		AdminDir:  GetString(c, "ADMIN_DIR", ""),

		LogLevel:  GetString(c, "LOG_LEVEL", "info"),
		LogFormat: GetString(c, "LOG_FORMAT", "json"),

		GenerateModels:       GetBool(c, "GENERATE_MODELS", false),
		GenerateColumnReport: GetBool(c, "GENERATE_COLUMN_REPORT", false),
		GeneratedQueryPath:   GetString(c, "GENERATED_QUERY_PATH", "./query"),
	}

	switch s.DBType {
	case "sqlite":
	case "postgres":
		s.DBDSN = GetString(c, "DATABASE_URL", "")
		if s.DBDSN == "" {
			missing = append(missing, "DATABASE_URL")
		}
	case "supa":
		s.DBDSN = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=require",
			GetString(c, "SUPABASE_DB_HOST", ""),
			GetString(c, "SUPABASE_DB_USER", ""),
			GetString(c, "SUPABASE_DB_PASSWORD", ""),
			GetString(c, "SUPABASE_DB_NAME", ""),
			GetString(c, "SUPABASE_DB_PORT", "5432"),
		)
		if GetString(c, "SUPABASE_DB_HOST", "") == "" {
			missing = append(missing, "SUPABASE_DB_HOST")
		}
	default:
		return Settings{}, errs.NewConfigInvalidError("DB_TYPE", fmt.Sprintf("unsupported value %q", s.DBType))
	}

	switch s.StorageBackend {
	case StorageDisk:
	case StorageS3:
		if s.S3.Bucket == "" {
			missing = append(missing, "S3_BUCKET")
		}
	default:
		return Settings{}, errs.NewConfigInvalidError("STORAGE_BACKEND", fmt.Sprintf("unsupported value %q", s.StorageBackend))
	}

	if len(missing) > 0 {
		return Settings{}, errs.NewConfigMissingError(missing)
	}
	return s, nil
}
