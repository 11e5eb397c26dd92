package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/estagio/estagio/pkg/apperr"
	"github.com/estagio/estagio/pkg/config"
	"github.com/estagio/estagio/pkg/model"
	"github.com/estagio/estagio/pkg/store"
)

type Store struct {
	db *gorm.DB
}

func NewStore(cfg *config.DatabaseConfig) (*Store, error) {
	level := logger.Warn
	if cfg.LogQueries {
		level = logger.Info
	}
	gormConfig := &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return &Store{db: db}, nil
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(
		&model.Account{},
		&model.Institution{},
		&model.Company{},
		&model.Supervisor{},
		&model.Coordinator{},
		&model.Internship{},
		&model.Student{},
		&model.Document{},
		&model.DocumentReview{},
		&model.DocumentHistory{},
		&model.Notification{},
		&model.HoursLog{},
	)
}

// Repositories bundles every repository over one connection and satisfies
// store.Store.
type Repositories struct {
	*Store
	*AccountRepository
	*ProfileRepository
	*CompanyRepository
	*SupervisorRepository
	*InternshipRepository
	*DocumentRepository
	*NotificationRepository
	*HoursRepository
}

var _ store.Store = (*Repositories)(nil)

func (s *Store) Repositories() *Repositories {
	return &Repositories{
		Store:                  s,
		AccountRepository:      NewAccountRepository(s.db),
		ProfileRepository:      NewProfileRepository(s.db),
		CompanyRepository:      NewCompanyRepository(s.db),
		SupervisorRepository:   NewSupervisorRepository(s.db),
		InternshipRepository:   NewInternshipRepository(s.db),
		DocumentRepository:     NewDocumentRepository(s.db),
		NotificationRepository: NewNotificationRepository(s.db),
		HoursRepository:        NewHoursRepository(s.db),
	}
}

// Open connects, optionally migrates, and returns the repositories.
func Open(cfg *config.DatabaseConfig, log *zap.Logger) (*Repositories, error) {
	s, err := NewStore(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		start := time.Now()
		if err := s.AutoMigrate(); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
		log.Info("database migrated", zap.Duration("took", time.Since(start)))
	}
	return s.Repositories(), nil
}

func notFound(err error, entity string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(entity, id)
	}
	return err
}

func inTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(fn)
}
