package db

import (
	"timeclock/internal/app/absence"
	"timeclock/internal/app/mileage"
	"timeclock/internal/app/tracker"
	"timeclock/internal/config"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	dsn := cfg.PostgresDSN()
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}

	logger.Info("Connected to PostgreSQL",
		zap.String("host", cfg.DBHost),
		zap.String("database", cfg.DBName),
	)

	return db, nil
}

// Migrate creates the four tracking tables, including the uniqueness
// constraint on (user_id, date, kind) for absences.
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	err := db.AutoMigrate(
		&tracker.WorkSession{},
		&tracker.UserState{},
		&mileage.Record{},
		&absence.Record{},
	)
	if err != nil {
		return err
	}

	logger.Info("Database migrated")
	return nil
}
