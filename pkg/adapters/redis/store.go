// Package redis provides Redis-backed session status storage and a
// distributed lock for active/standby controller pairs.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/warden/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultHistoryLimit caps the stored transition history per instance.
const DefaultHistoryLimit = 100

// Store implements ports.StatusStore using Redis.
type Store struct {
	client       *backend.Client
	prefix       string
	ttl          time.Duration
	historyLimit int64
}

// Option configures the Redis store.
type Option func(*Store)

// WithPrefix sets the key prefix (default "warden:").
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithTTL expires saved state after d. Zero keeps it forever.
func WithTTL(d time.Duration) Option {
	return func(s *Store) {
		s.ttl = d
	}
}

// WithHistoryLimit caps the number of transitions kept per instance.
func WithHistoryLimit(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.historyLimit = int64(n)
		}
	}
}

// New connects to addr and returns a store.
func New(addr, password string, db int, opts ...Option) *Store {
	client := backend.NewClient(&backend.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewFromClient(client, opts...)
}

// NewFromClient wraps an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	s := &Store{
		client:       client,
		prefix:       "warden:",
		historyLimit: DefaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Client exposes the underlying client, e.g. to build a Locker on the same connection.
func (s *Store) Client() *backend.Client {
	return s.client
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) stateKey(instance string) string {
	return s.prefix + "status:" + instance
}

func (s *Store) historyKey(instance string) string {
	return s.prefix + "history:" + instance
}

// Save replaces the state for an instance.
func (s *Store) Save(ctx context.Context, instance string, state domain.SessionState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}
	if err := s.client.Set(ctx, s.stateKey(instance), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save status: %w", err)
	}
	return nil
}

// Load retrieves the state for an instance.
func (s *Store) Load(ctx context.Context, instance string) (domain.SessionState, error) {
	data, err := s.client.Get(ctx, s.stateKey(instance)).Bytes()
	if errors.Is(err, backend.Nil) {
		return domain.SessionState{}, domain.ErrStatusNotFound
	}
	if err != nil {
		return domain.SessionState{}, fmt.Errorf("load status: %w", err)
	}
	var state domain.SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return domain.SessionState{}, fmt.Errorf("decode status: %w", err)
	}
	return state, nil
}

// Record prepends a transition and trims the history in one round trip.
func (s *Store) Record(ctx context.Context, instance string, ev domain.TransitionEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal transition: %w", err)
	}
	key := s.historyKey(instance)
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, s.historyLimit-1)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record transition: %w", err)
	}
	return nil
}

// History returns up to limit transitions, newest first.
func (s *Store) History(ctx context.Context, instance string, limit int) ([]domain.TransitionEvent, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	raw, err := s.client.LRange(ctx, s.historyKey(instance), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	out := make([]domain.TransitionEvent, 0, len(raw))
	for _, item := range raw {
		var ev domain.TransitionEvent
		if err := json.Unmarshal([]byte(item), &ev); err != nil {
			return nil, fmt.Errorf("decode transition: %w", err)
		}
		out = append(out, ev)
	}
	return out, nil
}
