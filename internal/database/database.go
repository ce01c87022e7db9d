// Package database opens the gorm connection and migrates the schema.
package database

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/JAFletch-surg/dukes-club/internal/config"
	"github.com/JAFletch-surg/dukes-club/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Models lists every table the service owns, in migration order.
func Models() []any {
	return []any{
		&models.User{},
		&models.Profile{},
		&models.Event{},
		&models.Faculty{},
		&models.EventFaculty{},
		&models.Fellowship{},
		&models.Podcast{},
		&models.QuestionTopic{},
		&models.Question{},
		&models.QuestionFlag{},
		&models.Sponsor{},
		&models.TeamMember{},
		&models.Video{},
		&models.ActionLog{},
	}
}

// Connect opens the configured database, tunes the pool and migrates.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DBPath)
	default:
		dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
			cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)
		dialector = postgres.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if cfg.DBDriver == "sqlite" {
		// A single writer avoids SQLITE_BUSY under concurrent requests.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(time.Hour)
		sqlDB.SetConnMaxIdleTime(30 * time.Minute)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	slog.Info("Connected to database", "driver", cfg.DBDriver, "host", cfg.DBHost, "database", cfg.DBName)
	return db, nil
}

// Migrate creates or updates every table in Models.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
