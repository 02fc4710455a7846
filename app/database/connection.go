package database

import (
	"EstoqueApp/app/config"
	"EstoqueApp/app/models"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var db *gorm.DB

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return db
}

// buildPostgresDSN constructs the connection string
// Priority: URL > individual fields
func buildPostgresDSN(cfg config.DatabaseConfig) string {
	if cfg.URL != "" {
		log.Printf("Using DATABASE_URL for database connection")
		return cfg.URL
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.Username,
		cfg.Password,
		cfg.Database,
		cfg.SSLMode,
	)

	log.Printf("Built database connection from config: host=%s port=%d dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode)

	return dsn
}

// dialector picks the gorm driver for cfg.Driver
func dialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "", "sqlite":
		path := cfg.Path
		if path == "" {
			path = filepath.Join("data", "estoque.db")
		}
		if path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		// CGO-free driver
		return sqlite.Open(path), nil
	case "postgres":
		return postgres.Open(buildPostgresDSN(cfg)), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Open opens a connection for cfg and runs migrations without touching
// the global instance
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dial, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := gorm.Open(dial, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Driver == "postgres" {
		sqlDB, err := conn.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database instance: %w", err)
		}
		sqlDB.SetMaxIdleConns(2)
		sqlDB.SetMaxOpenConns(4)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	if err := RunMigrations(conn); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return conn, nil
}

// InitializeWithConfig sets up the global database connection
func InitializeWithConfig(appConfig *config.AppConfig) error {
	if appConfig == nil {
		appConfig = config.Default()
	}

	conn, err := Open(appConfig.Database)
	if err != nil {
		return err
	}
	db = conn
	return nil
}

// RunMigrations creates the key/value table
func RunMigrations(conn *gorm.DB) error {
	if err := conn.AutoMigrate(&models.KVEntry{}); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

// Close closes the database connection
func Close() error {
	if db == nil {
		return nil // Nothing to close
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	db = nil
	return sqlDB.Close()
}
