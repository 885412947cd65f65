// Package database manages the catalog store connection and owns the
// shared GORM models.
package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mantonx/vidvault/internal/config"
	"github.com/mantonx/vidvault/internal/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var db *gorm.DB

// Initialize sets up the database connection based on the loaded
// configuration. SQLite is the default backend; Postgres can be selected
// with DATABASE_TYPE=postgres.
func Initialize() error {
	cfg := config.Get()

	var err error
	switch cfg.Database.Type {
	case "postgres":
		db, err = connectPostgres(&cfg.Database)
	case "sqlite", "":
		db, err = connectSQLite(&cfg.Database)
	default:
		return fmt.Errorf("unsupported database type: %s", cfg.Database.Type)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	logger.Info("Database initialized with %s backend", cfg.Database.Type)
	return nil
}

func connectPostgres(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
		cfg.Host, cfg.Username, cfg.Password, cfg.Database, cfg.Port)

	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormLogMode(cfg.LogQueries),
		TranslateError: true,
	})
}

func connectSQLite(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dbPath := cfg.DatabasePath
	if dbPath == "" {
		dbPath = filepath.Join(cfg.DataDir, "vidvault.db")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	gdb, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger:         gormLogMode(cfg.LogQueries),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	// SQLite allows a single writer; constrain the pool so concurrent
	// scan workers serialize on the store instead of failing with
	// SQLITE_BUSY.
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	return gdb, nil
}

func gormLogMode(logQueries bool) gormlogger.Interface {
	if logQueries {
		return gormlogger.Default.LogMode(gormlogger.Info)
	}
	return gormlogger.Default.LogMode(gormlogger.Warn)
}

// GetDB returns the database instance.
func GetDB() *gorm.DB {
	return db
}

// SetDB replaces the database instance. Used by tests.
func SetDB(gdb *gorm.DB) {
	db = gdb
}
