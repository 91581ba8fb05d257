package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm/logger"

	"github.com/ediltrentini/site-backend/api"
	"github.com/ediltrentini/site-backend/config"
	"github.com/ediltrentini/site-backend/database"
	"github.com/ediltrentini/site-backend/models"
	"github.com/ediltrentini/site-backend/services"
	"github.com/ediltrentini/site-backend/storage"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: Error loading .env file: %v\n", err)
	}

	cfg := config.New()
	if path := config.GetString(cfg, "SSM_PARAMETER_PATH", ""); path != "" {
		if err := overlaySSM(ctx, cfg, path); err != nil {
			fmt.Printf("Error loading settings from SSM: %v\n", err)
			os.Exit(1)
		}
	}

	settings, err := config.Load(cfg)
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	setupLogging(settings)
	log.Info().Str("dbType", settings.DBType).Str("storage", settings.StorageBackend).Msg("Initializing app...")

	db, err := database.Open(database.OpenConfig{
		Type:     settings.DBType,
		Path:     settings.DBPath,
		DSN:      settings.DBDSN,
		LogLevel: logger.Warn,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Error connecting to database")
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Error migrating database")
	}

	currentDB := database.New(db)
	defer currentDB.Close()

	// If generating models, run generation and exit
	if settings.GenerateModels {
		log.Info().Str("outPath", settings.GeneratedQueryPath).Msg("Generating models and query helpers...")
		if err := models.GenerateModels(db, settings.GeneratedQueryPath); err != nil {
			log.Fatal().Err(err).Msg("Error generating models")
		}
		return
	}

	// If generating column mismatch report, run report and exit
	if settings.GenerateColumnReport {
		log.Info().Msg("Generating column mismatch report...")
		if n := models.GenerateColumnMismatchReport(db); n > 0 {
			log.Warn().Int("tables", n).Msg("Column mismatches found")
		}
		return
	}

	images, err := newImageStore(ctx, settings)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing image store")
	}

	sessions := services.NewSessionStore()
	auth, err := services.NewAuthService(currentDB.UserRepo(), sessions, settings.SessionSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing auth")
	}
	if err := auth.EnsureAdmin(ctx, settings.AdminUsername, settings.AdminPassword); err != nil {
		log.Fatal().Err(err).Msg("Error seeding admin user")
	}
	go auth.RunJanitor(ctx, time.Hour)

	mailer, err := services.NewResendMailer(settings.ResendAPIKey, settings.ResendFromEmail, settings.ResendBaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing mailer")
	}

	var notifier services.Notifier
	if settings.Twilio.Enabled() {
		notifier, err = services.NewTwilioNotifier(settings.Twilio.AccountSID, settings.Twilio.AuthToken, settings.Twilio.From, settings.Twilio.To)
		if err != nil {
			log.Fatal().Err(err).Msg("Error initializing SMS notifier")
		}
		log.Info().Msg("SMS alerts for inquiries enabled")
	}

	deps := api.Dependencies{
		Catalog:   services.NewCatalogService(currentDB.ProjectRepo(), currentDB.ProjectImageRepo(), images, services.DefaultUploadPolicy()),
		Auth:      auth,
		Inquiries: services.NewInquiryService(mailer, settings.ContactRecipient, notifier),
		Images:    images,
	}

	errChannel := make(chan error)
	defer close(errChannel)

	server, err := api.NewServer(deps, settings)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing server")
	}

	go server.Start(errChannel)

	// Listen for interrupt signals to gracefully shutdown the server
	go listenToInterrupt(errChannel)

	fatalErr := <-errChannel
	log.Info().Msgf("Closing server: %v", fatalErr)

	server.ShutdownGracefully(30 * time.Second)
}

// setupLogging applies LOG_LEVEL and LOG_FORMAT to the global zerolog logger.
func setupLogging(settings config.Settings) {
	level, err := zerolog.ParseLevel(strings.ToLower(settings.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if settings.LogFormat == "console" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
		return
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func overlaySSM(ctx context.Context, cfg map[string]string, path string) error {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}
	_, err = config.OverlaySSM(ctx, cfg, ssm.NewFromConfig(awsCfg), path)
	return err
}

func newImageStore(ctx context.Context, settings config.Settings) (storage.ImageStore, error) {
	if settings.StorageBackend == config.StorageS3 {
		return storage.NewS3Store(ctx, storage.S3Config{
			Bucket:    settings.S3.Bucket,
			Region:    settings.S3.Region,
			Endpoint:  settings.S3.Endpoint,
			AccessKey: settings.S3.AccessKey,
			SecretKey: settings.S3.SecretKey,
			Prefix:    settings.S3.Prefix,
			PublicURL: settings.S3.PublicURL,
		})
	}
	return storage.NewDiskStore(settings.UploadsDir)
}

// listenToInterrupt waits for SIGINT or SIGTERM and then sends an error to the error channel.
func listenToInterrupt(errChannel chan<- error) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	errChannel <- fmt.Errorf("%s", <-c)
}
