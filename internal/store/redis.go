package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/BTreeMap/Brenda/internal/models"
)

// DefaultRedisKeyPrefix namespaces lead records in a shared Redis.
const DefaultRedisKeyPrefix = "brenda:lead:"

// RedisStore keeps each lead as a JSON string under prefix+userID. Records do
// not expire.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	logger    *slog.Logger
}

// NewRedisStore parses a redis:// DSN, connects and pings the server.
func NewRedisStore(opts ...Option) (*RedisStore, error) {
	cfg := applyOpts(opts)
	redisOpts, err := redis.ParseURL(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("invalid redis DSN: %w", err)
	}
	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		cfg.Logger.Error("RedisStore: ping failed", "error", err, "addr", redisOpts.Addr)
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	cfg.Logger.Debug("RedisStore: connected", "addr", redisOpts.Addr, "db", redisOpts.DB)
	return NewRedisStoreWithClient(client, DefaultRedisKeyPrefix, cfg.Logger), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, keyPrefix string, logger *slog.Logger) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = DefaultRedisKeyPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix, logger: logger}
}

func (s *RedisStore) key(userID string) string {
	return s.keyPrefix + userID
}

func (s *RedisStore) GetLead(ctx context.Context, userID string) (*models.LeadMemory, error) {
	if userID == "" {
		return nil, models.ErrEmptyUserID
	}
	data, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("RedisStore.GetLead: get failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to get lead %s: %w", userID, err)
	}
	var lead models.LeadMemory
	if err := json.Unmarshal(data, &lead); err != nil {
		return nil, fmt.Errorf("failed to decode lead %s: %w", userID, err)
	}
	return &lead, nil
}

func (s *RedisStore) SaveLead(ctx context.Context, lead *models.LeadMemory) error {
	if err := validateLead(lead); err != nil {
		return err
	}
	data, err := json.Marshal(lead)
	if err != nil {
		return fmt.Errorf("failed to encode lead %s: %w", lead.UserID, err)
	}
	if err := s.client.Set(ctx, s.key(lead.UserID), data, 0).Err(); err != nil {
		s.logger.Error("RedisStore.SaveLead: set failed", "error", err, "userID", lead.UserID)
		return fmt.Errorf("failed to save lead %s: %w", lead.UserID, err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
