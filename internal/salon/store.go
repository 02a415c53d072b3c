package salon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Store provides persistence for salon configurations.
type Store struct {
	redis *redis.Client
}

// NewStore creates a new salon config store.
func NewStore(redisClient *redis.Client) *Store {
	return &Store{redis: redisClient}
}

func (s *Store) key(salonID string) string {
	return fmt.Sprintf("salon:config:%s", salonID)
}

// Get retrieves salon config, returning the default if none was saved.
// Saved fields are layered over the defaults so older records pick up new settings.
func (s *Store) Get(ctx context.Context, salonID string) (*Config, error) {
	data, err := s.redis.Get(ctx, s.key(salonID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return DefaultConfig(salonID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("salon: get config: %w", err)
	}

	cfg := DefaultConfig(salonID)
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("salon: unmarshal config: %w", err)
	}
	cfg.SalonID = salonID
	return cfg, nil
}

// Set saves salon config.
func (s *Store) Set(ctx context.Context, cfg *Config) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("salon: marshal config: %w", err)
	}
	if err := s.redis.Set(ctx, s.key(cfg.SalonID), data, 0).Err(); err != nil {
		return fmt.Errorf("salon: set config: %w", err)
	}
	return nil
}

// Delete removes a saved config so the salon falls back to defaults.
func (s *Store) Delete(ctx context.Context, salonID string) error {
	if err := s.redis.Del(ctx, s.key(salonID)).Err(); err != nil {
		return fmt.Errorf("salon: delete config: %w", err)
	}
	return nil
}
