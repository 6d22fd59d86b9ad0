package session

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/waypoint"
	"github.com/aretw0/waypoint/internal/logging"
	"github.com/aretw0/waypoint/pkg/adapters/hash"
	"github.com/aretw0/waypoint/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed session lock survives a
// crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates per-session histories, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.HistoryStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	hmu       sync.Mutex
	histories map[string]*waypoint.History

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger

	hashMode    bool
	hashOpts    []hash.Option
	historyOpts []waypoint.Option
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks (default DefaultLockTTL).
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager and the histories it opens.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithHashMode makes the manager open hash-fragment histories instead of
// durable-URL ones.
func WithHashMode(opts ...hash.Option) Option {
	return func(m *Manager) {
		m.hashMode = true
		m.hashOpts = opts
	}
}

// WithHistoryOptions adds options applied to every history the manager opens.
func WithHistoryOptions(opts ...waypoint.Option) Option {
	return func(m *Manager) {
		m.historyOpts = append(m.historyOpts, opts...)
	}
}

// NewManager creates a new Session Manager over the given history store.
func NewManager(store ports.HistoryStore, opts ...Option) *Manager {
	m := &Manager{
		store:     store,
		locks:     make(map[string]*lockEntry),
		histories: make(map[string]*waypoint.History),
		lockTTL:   DefaultLockTTL,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// History returns the history of sessionID, opening it on first use.
// Callers that mutate it should go through Do to serialize with other writers.
func (m *Manager) History(ctx context.Context, sessionID string) (*waypoint.History, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("sessionID cannot be empty")
	}

	m.hmu.Lock()
	defer m.hmu.Unlock()

	if h, ok := m.histories[sessionID]; ok {
		return h, nil
	}

	opts := append([]waypoint.Option{
		waypoint.WithLogger(m.logger),
		waypoint.WithName(sessionID),
	}, m.historyOpts...)

	sh := m.store.Session(sessionID)
	var (
		h   *waypoint.History
		err error
	)
	if m.hashMode {
		h, err = waypoint.NewHash(ctx, sh, m.hashOpts, opts...)
	} else {
		h, err = waypoint.NewBrowser(ctx, sh, opts...)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open session %s: %w", sessionID, err)
	}

	m.histories[sessionID] = h
	return h, nil
}

// Do runs fn with the history of sessionID while holding the session lock.
func (m *Manager) Do(ctx context.Context, sessionID string, fn func(context.Context, *waypoint.History) error) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		h, err := m.History(ctx, sessionID)
		if err != nil {
			return err
		}
		return fn(ctx, h)
	})
}

// Delete closes and removes the session.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		m.hmu.Lock()
		h, ok := m.histories[sessionID]
		delete(m.histories, sessionID)
		m.hmu.Unlock()

		if ok {
			if err := h.Close(); err != nil {
				m.logger.Warn("failed to close history", "session_id", sessionID, "err", err)
			}
		}
		return m.store.Delete(ctx, sessionID)
	})
}

// List returns the stored session ids merged with the ones open in this process.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	stored, err := m.store.List(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(stored))
	ids := make([]string, 0, len(stored))
	for _, id := range stored {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	m.hmu.Lock()
	for id := range m.histories {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	m.hmu.Unlock()

	sort.Strings(ids)
	return ids, nil
}

// Store returns the underlying history store.
func (m *Manager) Store() ports.HistoryStore {
	return m.store
}

// Close closes every open history.
func (m *Manager) Close() error {
	m.hmu.Lock()
	histories := m.histories
	m.histories = make(map[string]*waypoint.History)
	m.hmu.Unlock()

	for id, h := range histories {
		if err := h.Close(); err != nil {
			m.logger.Warn("failed to close history", "session_id", id, "err", err)
		}
	}
	return nil
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
