package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/events"
	backend "github.com/redis/go-redis/v9"
)

// SessionHistory implements ports.SessionHistory in Redis.
// Writes are atomic Lua scripts; Go publishes the new pointer and subscribers
// are notified from a pub/sub goroutine.
type SessionHistory struct {
	store *Store
	id    string

	mu          sync.Mutex
	subscribers *events.Dispatcher[context.Context]
	pubsub      *backend.PubSub
}

// Open returns the history stored under sessionID.
func (s *Store) Open(sessionID string) *SessionHistory {
	return &SessionHistory{
		store:       s,
		id:          sessionID,
		subscribers: events.New[context.Context](),
	}
}

func (h *SessionHistory) keys() []string {
	return []string{h.store.entriesKey(h.id), h.store.pointerKey(h.id)}
}

func (h *SessionHistory) ttlMillis() int64 {
	return h.store.ttl.Milliseconds()
}

// Current returns the entry at the pointer.
func (h *SessionHistory) Current(ctx context.Context) (domain.Entry, error) {
	raw, err := currentScript.Run(ctx, h.store.client, h.keys()).Text()
	if err == backend.Nil {
		return domain.Entry{URL: domain.DefaultPathname}, nil
	}
	if err != nil {
		return domain.Entry{}, fmt.Errorf("failed to read history from redis: %w", err)
	}
	return decodeEntry(raw)
}

// PushState appends an entry after the pointer, discarding forward entries.
func (h *SessionHistory) PushState(ctx context.Context, state *domain.HistoryState, url string) error {
	data, err := json.Marshal(domain.Entry{URL: url, State: state})
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}
	idx, err := pushScript.Run(ctx, h.store.client, h.keys(),
		rootEntry(), string(data), h.store.maxEntries, h.ttlMillis()).Int()
	if err != nil {
		return fmt.Errorf("failed to push to redis: %w", err)
	}
	if idx < 0 {
		return domain.ErrWriteQuota
	}
	return h.store.touch(ctx, h.id)
}

// ReplaceState overwrites the entry at the pointer.
func (h *SessionHistory) ReplaceState(ctx context.Context, state *domain.HistoryState, url string) error {
	data, err := json.Marshal(domain.Entry{URL: url, State: state})
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}
	if err := replaceScript.Run(ctx, h.store.client, h.keys(), rootEntry(), string(data), h.ttlMillis()).Err(); err != nil {
		return fmt.Errorf("failed to replace in redis: %w", err)
	}
	return h.store.touch(ctx, h.id)
}

// Go moves the pointer and publishes the move. Out-of-range moves are ignored.
func (h *SessionHistory) Go(ctx context.Context, delta int) error {
	idx, err := goScript.Run(ctx, h.store.client, h.keys(), rootEntry(), delta, h.ttlMillis()).Int()
	if err != nil {
		return fmt.Errorf("failed to move history in redis: %w", err)
	}
	if idx < 0 {
		return nil
	}
	if err := h.store.client.Publish(ctx, h.store.channel(h.id), idx).Err(); err != nil {
		return fmt.Errorf("failed to publish move: %w", err)
	}
	return nil
}

// Assign navigates to url with no state. A quota does not apply.
func (h *SessionHistory) Assign(ctx context.Context, url string) error {
	data, err := json.Marshal(domain.Entry{URL: url})
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}
	if err := pushScript.Run(ctx, h.store.client, h.keys(), rootEntry(), string(data), 0, h.ttlMillis()).Err(); err != nil {
		return fmt.Errorf("failed to assign in redis: %w", err)
	}
	return h.store.touch(ctx, h.id)
}

// Len returns the number of entries.
func (h *SessionHistory) Len(ctx context.Context) (int, error) {
	n, err := h.store.client.LLen(ctx, h.store.entriesKey(h.id)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	if n == 0 {
		return 1, nil
	}
	return int(n), nil
}

// Entries returns all entries and the pointer.
func (h *SessionHistory) Entries(ctx context.Context) ([]domain.Entry, int, error) {
	pipe := h.store.client.Pipeline()
	rangeCmd := pipe.LRange(ctx, h.store.entriesKey(h.id), 0, -1)
	idxCmd := pipe.Get(ctx, h.store.pointerKey(h.id))
	if _, err := pipe.Exec(ctx); err != nil && err != backend.Nil {
		return nil, 0, fmt.Errorf("failed to read entries: %w", err)
	}

	raw := rangeCmd.Val()
	if len(raw) == 0 {
		return []domain.Entry{{URL: domain.DefaultPathname}}, 0, nil
	}

	entries := make([]domain.Entry, 0, len(raw))
	for _, r := range raw {
		e, err := decodeEntry(r)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}

	idx, _ := strconv.Atoi(idxCmd.Val())
	return entries, idx, nil
}

// Subscribe registers fn for moves published for this session, including
// moves made by other processes. The pub/sub connection is opened with the
// first subscriber and closed with the last.
func (h *SessionHistory) Subscribe(fn func(context.Context)) func() {
	unregister := h.subscribers.Register(fn)
	h.ensureListening()

	var once sync.Once
	return func() {
		once.Do(func() {
			unregister()
			if h.subscribers.Len() == 0 {
				h.stopListening()
			}
		})
	}
}

func (h *SessionHistory) ensureListening() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pubsub != nil {
		return
	}

	ctx := context.Background()
	ps := h.store.client.Subscribe(ctx, h.store.channel(h.id))
	// Wait for the subscription to be confirmed so no publish is missed.
	if _, err := ps.Receive(ctx); err != nil {
		h.store.logger.Error("failed to subscribe to history moves", "session_id", h.id, "err", err)
		_ = ps.Close()
		return
	}

	h.pubsub = ps
	go h.listen(ps.Channel())
}

// listen runs until the subscription is closed, which closes ch.
func (h *SessionHistory) listen(ch <-chan *backend.Message) {
	for range ch {
		h.subscribers.Broadcast(context.Background())
	}
}

func (h *SessionHistory) stopListening() {
	h.mu.Lock()
	ps := h.pubsub
	h.pubsub = nil
	h.mu.Unlock()

	if ps == nil {
		return
	}
	if err := ps.Close(); err != nil {
		h.store.logger.Warn("failed to close history subscription", "session_id", h.id, "err", err)
	}
}

func decodeEntry(raw string) (domain.Entry, error) {
	var e domain.Entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return domain.Entry{}, fmt.Errorf("failed to unmarshal entry: %w", err)
	}
	return e, nil
}
