// Package database reads activity rows from a PostgreSQL table through gorm.
package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/chrissnell/shiftline/internal/log"
	"go.uber.org/zap"
)

// newGormLogger routes gorm's log output through the package zap logger.
func newGormLogger() logger.Interface {
	return logger.New(
		zap.NewStdLog(log.GetZapLogger()),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// CreateConnection opens a gorm connection to PostgreSQL with the standard logger.
func CreateConnection(connectionString string) (*gorm.DB, error) {
	log.Info("connecting to PostgreSQL...")
	db, err := gorm.Open(postgres.Open(connectionString), &gorm.Config{Logger: newGormLogger()})
	if err != nil {
		log.Warn("warning: unable to create a PostgreSQL connection:", err)
		return nil, fmt.Errorf("failed to connect to activity database: %w", err)
	}
	log.Info("PostgreSQL connection successful")
	return db, nil
}
