package chat

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/vijaynimmakayala9/techsterker-mentor-sub000/pkg/logger"
)

// Fetcher fetches the current message snapshot for a conversation.
type Fetcher interface {
	FetchMessages(ctx context.Context, conv Conversation) ([]Message, []Member, error)
}

// Persister is the optional local history store behind the cache.
type Persister interface {
	SaveSnapshot(conversationID string, msgs []Message) error
	LoadSnapshot(conversationID string) ([]Message, error)
}

// Synchronizer keeps the message cache of the selected conversation fresh:
// one immediate fetch on selection, then a fixed-period poll until the
// selection changes or the synchronizer is closed. At most one poll loop is
// live at any instant; results from a superseded selection are dropped.
type Synchronizer struct {
	fetcher  Fetcher
	cache    *Cache
	clock    clockwork.Clock
	interval time.Duration

	history  Persister
	onUpdate func(conversationID string)
	onError  func(err error)

	mu     sync.Mutex
	gen    uint64
	active *Conversation
	cancel context.CancelFunc
}

func NewSynchronizer(fetcher Fetcher, cache *Cache, interval time.Duration, clock clockwork.Clock) *Synchronizer {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Synchronizer{
		fetcher:  fetcher,
		cache:    cache,
		clock:    clock,
		interval: interval,
	}
}

// SetHistory attaches a local history store. Committed snapshots are written
// through to it and selections warm the cache from it before the first fetch.
func (s *Synchronizer) SetHistory(h Persister) {
	s.history = h
}

// OnUpdate registers the callback invoked after a cache entry changes.
func (s *Synchronizer) OnUpdate(fn func(conversationID string)) {
	s.onUpdate = fn
}

// OnError registers the callback for user-visible fetch failures (only the
// initial fetch of a selection; poll tick failures stay silent).
func (s *Synchronizer) OnError(fn func(err error)) {
	s.onError = fn
}

// Select makes conv the active conversation. The previous poll loop is
// cancelled before the new snapshot fetch is issued.
func (s *Synchronizer) Select(ctx context.Context, conv Conversation) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	active := conv
	s.active = &active
	s.mu.Unlock()

	// Show last-known history while the first fetch is in flight.
	if s.history != nil {
		if msgs, err := s.history.LoadSnapshot(conv.ID); err == nil && len(msgs) > 0 {
			if s.cache.Warm(conv.ID, msgs) {
				s.notify(conv.ID)
			}
		}
	}

	go s.run(runCtx, gen, conv)
}

// Deselect stops polling without selecting anything else.
func (s *Synchronizer) Deselect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
	s.active = nil
}

// Close releases the synchronizer on teardown.
func (s *Synchronizer) Close() {
	s.Deselect()
}

// Active returns a copy of the currently selected conversation, if any.
func (s *Synchronizer) Active() (Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return Conversation{}, false
	}
	return *s.active, true
}

func (s *Synchronizer) run(ctx context.Context, gen uint64, conv Conversation) {
	msgs, _, err := s.fetcher.FetchMessages(ctx, conv)
	if err != nil {
		if ctx.Err() == nil && s.current(gen) {
			logger.Warn().Err(err).Str("conversation", conv.ID).Msg("message fetch failed")
			if s.onError != nil {
				s.onError(err)
			}
		}
	} else if s.current(gen) {
		s.commit(conv.ID, msgs)
	}
	if ctx.Err() != nil {
		return
	}

	// Polling starts only after the immediate fetch has resolved, and keeps
	// going through transient failures.
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if ctx.Err() != nil {
				// Cancellation and a tick can race; never fetch again
				// for a superseded selection.
				return
			}
			msgs, _, err := s.fetcher.FetchMessages(ctx, conv)
			if err != nil {
				logger.Debug().Err(err).Str("conversation", conv.ID).Msg("poll tick failed")
				continue
			}
			if !s.current(gen) {
				// Selection changed while this fetch was in flight.
				return
			}
			s.commit(conv.ID, msgs)
		}
	}
}

func (s *Synchronizer) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen == gen
}

func (s *Synchronizer) commit(conversationID string, msgs []Message) {
	if !s.cache.Commit(conversationID, msgs) {
		return
	}
	if s.history != nil {
		if snap, ok := s.cache.Get(conversationID); ok {
			if err := s.history.SaveSnapshot(conversationID, snap); err != nil {
				logger.Debug().Err(err).Str("conversation", conversationID).Msg("history write failed")
			}
		}
	}
	s.notify(conversationID)
}

func (s *Synchronizer) notify(conversationID string) {
	if s.onUpdate != nil {
		s.onUpdate(conversationID)
	}
}
