package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/menjil-org/menjil-backend/internal/logger"
	"github.com/menjil-org/menjil-backend/internal/types"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(dsn string, log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	serviceLog.Info("Attempting to connect to Postgres DB now...")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to Postgres DB", "error", err)
		return nil, fmt.Errorf("failed to connect to Postgres DB: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB from gorm: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	serviceLog.Info("Successfully Connected to Postgres DB :)")

	return &PostgresService{db: db, log: serviceLog}, nil
}

// NewPostgresServiceFromDB wraps an already opened gorm handle.
func NewPostgresServiceFromDB(db *gorm.DB, log *logger.Logger) *PostgresService {
	return &PostgresService{db: db, log: log.With("service", "PostgresService")}
}

// AutoMigrateAll creates the room table (with its unique mentee/mentor index)
// and, when includeMessages is set, the chat_message table.
func (s *PostgresService) AutoMigrateAll(includeMessages bool) error {
	s.log.Info("Starting AutoMigrateAll for all GORM models now...")
	models := []interface{}{&types.Room{}}
	if includeMessages {
		models = append(models, &types.ChatMessage{})
	}
	if err := s.db.AutoMigrate(models...); err != nil {
		s.log.Error("AutoMigrateAll failed :(", "error", err)
		return fmt.Errorf("auto migrate: %w", err)
	}
	s.log.Info("AutoMigrateAll completed successfully :)")
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}

func (s *PostgresService) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
