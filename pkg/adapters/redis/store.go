// Package redis stores session histories in Redis so that several processes
// can share them. Moves are broadcast over pub/sub, which makes notifications
// asynchronous and visible to every replica.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// Store manages session histories kept in Redis.
type Store struct {
	client     *backend.Client
	prefix     string
	ttl        time.Duration
	maxEntries int
	logger     *slog.Logger
}

type Option func(*Store)

// WithTTL sets the expiration for sessions. Every write refreshes it.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for sessions.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithMaxEntries caps the number of entries per session. Zero means unlimited.
func WithMaxEntries(n int) Option {
	return func(s *Store) {
		s.maxEntries = n
	}
}

// WithLogger sets the logger used by subscription goroutines.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "waypoint:history:",
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Client returns the underlying Redis client.
func (s *Store) Client() *backend.Client {
	return s.client
}

func (s *Store) entriesKey(sessionID string) string {
	return s.prefix + sessionID + ":entries"
}

func (s *Store) pointerKey(sessionID string) string {
	return s.prefix + sessionID + ":index"
}

func (s *Store) channel(sessionID string) string {
	return s.prefix + sessionID + ":popstate"
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Session returns the history stored under sessionID.
func (s *Store) Session(sessionID string) ports.SessionHistory {
	return s.Open(sessionID)
}

// touch records sessionID in the session index.
// Score = Now + TTL, or a far future date without TTL.
func (s *Store) touch(ctx context.Context, sessionID string) error {
	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = 4102444800 // 2100-01-01
	}
	err := s.client.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: sessionID}).Err()
	if err != nil {
		return fmt.Errorf("failed to index session: %w", err)
	}
	return nil
}

// Delete removes the session.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.entriesKey(sessionID), s.pointerKey(sessionID))
	pipe.ZRem(ctx, s.indexKey(), sessionID)

	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// List returns active sessions, pruning expired ones from the index first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired sessions: %w", err)
	}

	sessions, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

func rootEntry() string {
	data, _ := json.Marshal(domain.Entry{URL: domain.DefaultPathname})
	return string(data)
}
