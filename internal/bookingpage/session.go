// Package bookingpage serves the booking wizard that runs inside the widget
// iframe, keeping each visitor's progress in Redis.
package bookingpage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/salonbooker/salonbooker/internal/wizard"
)

// Record is one visitor session.
type Record struct {
	SalonID  string          `json:"salon_id"`
	Snapshot wizard.Snapshot `json:"snapshot"`
	Flash    string          `json:"flash,omitempty"`
	// Outbox holds encoded frame messages not yet rendered to the page.
	Outbox []json.RawMessage `json:"outbox,omitempty"`
}

// SessionStore keeps Records in Redis with a sliding TTL.
type SessionStore struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewSessionStore creates a session store. A zero ttl means two hours.
func NewSessionStore(redisClient *redis.Client, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &SessionStore{redis: redisClient, ttl: ttl}
}

func (s *SessionStore) key(sessionID string) string {
	return fmt.Sprintf("booking:session:%s", sessionID)
}

// Load returns the session, or ok=false when it does not exist or expired.
func (s *SessionStore) Load(ctx context.Context, sessionID string) (*Record, bool, error) {
	data, err := s.redis.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("bookingpage: load session: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, false, fmt.Errorf("bookingpage: decode session: %w", err)
	}
	return &rec, true, nil
}

// Save writes the session and refreshes its TTL.
func (s *SessionStore) Save(ctx context.Context, sessionID string, rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("bookingpage: encode session: %w", err)
	}
	if err := s.redis.Set(ctx, s.key(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("bookingpage: save session: %w", err)
	}
	return nil
}

// Delete removes the session.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.redis.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("bookingpage: delete session: %w", err)
	}
	return nil
}
