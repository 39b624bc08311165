package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"objectcatalog/models"
)

// New opens the Postgres database and runs migrations for the catalog schema.
func New(dsn string) (*gorm.DB, error) {
	dbLogger := logger.New(
		log.New(os.Stdout, "", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: dbLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate wires the explicit join model into the many-to-many association and
// creates the three catalog tables.
func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&models.Object{}, "Categories", &models.ObjectCategory{}); err != nil {
		return fmt.Errorf("setup join table: %w", err)
	}
	if err := db.AutoMigrate(&models.Category{}, &models.Object{}); err != nil {
		return fmt.Errorf("migrate db: %w", err)
	}
	return nil
}
