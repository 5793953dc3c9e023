package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"escrow/internal/config"
	apperrors "escrow/internal/errors"
	"escrow/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OutboxChannel is the LISTEN/NOTIFY channel signalled when outbox rows commit.
const OutboxChannel = "escrow_outbox"

// OpenPostgres connects to PostgreSQL and configures the connection pool.
func OpenPostgres(cfg config.DatabaseConfig, log *logrus.Logger) (*gorm.DB, error) {
	gormLogger := logger.New(
		log,
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

// AutoMigrate creates or updates the escrow schema.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Wallet{},
		&models.EscrowWallet{},
		&models.EscrowTransaction{},
		&models.Milestone{},
		&models.PaymentRecord{},
		&models.Review{},
		&models.OutboxEvent{},
		&models.Notification{},
	)
}

type postgresStore struct {
	db *gorm.DB
}

// NewPostgresStore returns a Store backed by db. Units of work run in a
// database transaction; row locks are taken with SELECT ... FOR UPDATE.
func NewPostgresStore(db *gorm.DB) Store {
	return &postgresStore{db: db}
}

func newGormRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Wallets:       &walletRepository{db: db},
		Escrows:       &escrowRepository{db: db},
		Payments:      &paymentRepository{db: db},
		Reviews:       &reviewRepository{db: db},
		Outbox:        &outboxRepository{db: db},
		Notifications: &notificationRepository{db: db},
		Users:         &userRepository{db: db},
	}
}

func (s *postgresStore) Repositories() *Repositories {
	return newGormRepositories(s.db)
}

func (s *postgresStore) ExecuteInTransaction(ctx context.Context, fn func(r *Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newGormRepositories(tx))
	})
}

func (s *postgresStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// notFound maps gorm's missing-row error onto the given domain error.
func notFound(err error, domainErr *apperrors.DomainError) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainErr
	}
	return err
}
