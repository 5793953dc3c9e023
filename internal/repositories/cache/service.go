// Package cache provides the Redis-backed read cache for wallet balances.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"escrow/internal/config"
	"escrow/internal/models"

	"github.com/redis/go-redis/v9"
)

// WalletCache caches wallet reads. Every invalidation bumps a per-user
// generation; a fill only lands when the generation it read before loading
// the wallet is still current, so a load that raced a commit is discarded
// instead of outliving the invalidation.
type WalletCache interface {
	GetWallet(ctx context.Context, userID uint) (*models.Wallet, bool, error)
	Generation(ctx context.Context, userID uint) (int64, error)
	FillWallet(ctx context.Context, wallet *models.Wallet, generation int64) (bool, error)
	InvalidateWallets(ctx context.Context, userIDs ...uint) error
	Ping(ctx context.Context) error
}

// fillScript writes KEYS[1] only while KEYS[2] still holds ARGV[1]. A missing
// generation key reads as 0.
var fillScript = redis.NewScript(`
local gen = redis.call('GET', KEYS[2]) or '0'
if gen ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

type CacheService struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient opens a client for cfg without dialing.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// DefaultTTL applies when no positive TTL is configured.
const DefaultTTL = 5 * time.Minute

func NewCacheService(client *redis.Client, defaultTTL time.Duration) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &CacheService{
		client: client,
		ttl:    defaultTTL,
	}
}

func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("failed to get cache value: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, nil
}

func GenerateKey(entityType, keyType string, value interface{}) string {
	return fmt.Sprintf("%s:%s:%v", entityType, keyType, value)
}

func walletKey(userID uint) string {
	return GenerateKey("wallet", "user", userID)
}

// Generation keys carry no TTL; expiring one could hand a reader's
// generation back to a later invalidation.
func generationKey(userID uint) string {
	return GenerateKey("wallet", "gen", userID)
}

// Wallet caching
func (s *CacheService) GetWallet(ctx context.Context, userID uint) (*models.Wallet, bool, error) {
	var wallet models.Wallet
	found, err := s.Get(ctx, walletKey(userID), &wallet)
	if err != nil || !found {
		return nil, false, err
	}
	return &wallet, true, nil
}

func (s *CacheService) Generation(ctx context.Context, userID uint) (int64, error) {
	gen, err := s.client.Get(ctx, generationKey(userID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read wallet generation: %w", err)
	}
	return gen, nil
}

// FillWallet stores wallet if no invalidation happened since generation was
// read. It reports whether the entry was written.
func (s *CacheService) FillWallet(ctx context.Context, wallet *models.Wallet, generation int64) (bool, error) {
	data, err := json.Marshal(wallet)
	if err != nil {
		return false, fmt.Errorf("failed to marshal cache value: %w", err)
	}
	keys := []string{walletKey(wallet.UserID), generationKey(wallet.UserID)}
	written, err := fillScript.Run(ctx, s.client, keys, strconv.FormatInt(generation, 10), data, s.ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("failed to fill wallet cache: %w", err)
	}
	return written == 1, nil
}

// InvalidateWallets bumps each generation and drops each entry in one MULTI,
// so an in-flight fill either lands before the delete or is refused.
func (s *CacheService) InvalidateWallets(ctx context.Context, userIDs ...uint) error {
	if len(userIDs) == 0 {
		return nil
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range userIDs {
			pipe.Incr(ctx, generationKey(id))
			pipe.Del(ctx, walletKey(id))
		}
		return nil
	})
	return err
}

func (s *CacheService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis client connection
func (s *CacheService) Close() error {
	return s.client.Close()
}

// NoopCache is used when no Redis host is configured.
type NoopCache struct{}

func (NoopCache) GetWallet(context.Context, uint) (*models.Wallet, bool, error) {
	return nil, false, nil
}

func (NoopCache) Generation(context.Context, uint) (int64, error) { return 0, nil }

func (NoopCache) FillWallet(context.Context, *models.Wallet, int64) (bool, error) { return false, nil }

func (NoopCache) InvalidateWallets(context.Context, ...uint) error { return nil }

func (NoopCache) Ping(context.Context) error { return nil }
