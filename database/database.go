package database

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ediltrentini/site-backend/errs"
	"github.com/ediltrentini/site-backend/models"
)

// Supported DB_TYPE values.
const (
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
	TypeSupabase = "supa"
)

// OpenConfig describes which backing store to open.
type OpenConfig struct {
	Type string
	// Path is the database file for sqlite.
	Path string
	// DSN is the connection string for postgres/supa.
	DSN      string
	LogLevel logger.LogLevel
}

type Database struct {
	db               *gorm.DB
	userRepo         *UserRepo
	projectRepo      *ProjectRepo
	projectImageRepo *ProjectImageRepo
}

// New initializes a new Database struct with each repository using a shared GORM database instance
func New(db *gorm.DB) Database {
	return Database{
		db:               db,
		userRepo:         NewUserRepo(db),
		projectRepo:      NewProjectRepo(db),
		projectImageRepo: NewProjectImageRepo(db),
	}
}

// Accessor methods for each repository

func (d Database) UserRepo() *UserRepo {
	return d.userRepo
}

func (d Database) ProjectRepo() *ProjectRepo {
	return d.projectRepo
}

func (d Database) ProjectImageRepo() *ProjectImageRepo {
	return d.projectImageRepo
}

// Open connects to the configured store and verifies it answers queries.
func Open(cfg OpenConfig) (*gorm.DB, error) {
	if cfg.LogLevel == 0 {
		cfg.LogLevel = logger.Warn
	}
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             10 * time.Second,
			LogLevel:                  cfg.LogLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)
	gormConfig := &gorm.Config{
		PrepareStmt: false,
		Logger:      newLogger,
	}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Type {
	case "", TypeSQLite:
		if cfg.Path == "" {
			return nil, errs.NewConfigInvalidError("DB_PATH", "sqlite requires a database file path")
		}
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		db, err = gorm.Open(sqlite.Open(sqliteDSN(cfg.Path)), gormConfig)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.Path, err)
		}
		// One connection keeps every writer in line behind the file lock.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("sqlite handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	case TypePostgres, TypeSupabase:
		db, err = gorm.Open(postgres.New(postgres.Config{
			DSN:                  cfg.DSN,
			PreferSimpleProtocol: true,
		}), gormConfig)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
	default:
		return nil, errs.NewConfigInvalidError("DB_TYPE", fmt.Sprintf("unsupported value %q", cfg.Type))
	}

	// Test database connection
	var result int
	if err := db.Raw("SELECT 1").Scan(&result).Error; err != nil {
		return nil, fmt.Errorf("testing database connection: %w", err)
	}

	return db, nil
}

// Migrate creates the tables if they are missing. Nothing beyond table creation is done.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func sqliteDSN(path string) string {
	return fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", path)
}

// Close releases the underlying connection pool.
func (d Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
