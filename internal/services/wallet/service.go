// Package wallet implements the ledger: balance mutations inside a unit of
// work, and cached balance reads.
package wallet

import (
	"context"

	"escrow/internal/models"
	"escrow/internal/repositories"
	"escrow/internal/repositories/cache"

	"github.com/sirupsen/logrus"
)

// Service serves wallet reads and drops cached balances after commits.
type Service interface {
	GetWallet(ctx context.Context, userID uint) (*models.Wallet, error)
	Invalidate(ctx context.Context, userIDs ...uint)
	Metrics() MetricsCollector
}

type service struct {
	store   repositories.Store
	cache   cache.WalletCache
	metrics MetricsCollector
	log     *logrus.Logger
}

// NewService creates a new wallet service
func NewService(store repositories.Store, walletCache cache.WalletCache, metrics MetricsCollector, log *logrus.Logger) Service {
	if store == nil {
		panic("store is required")
	}
	if log == nil {
		panic("logger is required")
	}
	if walletCache == nil {
		walletCache = cache.NoopCache{}
	}
	// Metrics is optional, create no-op collector if nil
	if metrics == nil {
		metrics = &NoopMetricsCollector{}
	}
	return &service{store: store, cache: walletCache, metrics: metrics, log: log}
}

func (s *service) GetWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	// Try cache first
	if w, found, err := s.cache.GetWallet(ctx, userID); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("wallet cache read failed")
	} else if found {
		s.metrics.RecordCacheHit("get_wallet")
		return w, nil
	}
	s.metrics.RecordCacheMiss("get_wallet")

	// The generation is read before the load so a commit landing in between
	// makes the fill below a no-op.
	gen, genErr := s.cache.Generation(ctx, userID)
	if genErr != nil {
		s.log.WithError(genErr).WithField("user_id", userID).Warn("wallet cache generation read failed")
	}

	w, err := s.store.Repositories().Wallets.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if genErr == nil {
		if _, err := s.cache.FillWallet(ctx, w, gen); err != nil {
			s.log.WithError(err).WithField("user_id", userID).Warn("wallet cache write failed")
		}
	}
	return w, nil
}

// Invalidate drops cached wallets. Failures are logged; the TTL bounds any
// staleness they leave behind.
func (s *service) Invalidate(ctx context.Context, userIDs ...uint) {
	if len(userIDs) == 0 {
		return
	}
	if err := s.cache.InvalidateWallets(ctx, userIDs...); err != nil {
		s.log.WithError(err).WithField("user_ids", userIDs).Warn("wallet cache invalidation failed")
	}
}

func (s *service) Metrics() MetricsCollector {
	return s.metrics
}
