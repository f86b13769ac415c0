package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

type fakeFetcher struct {
	mu        sync.Mutex
	calls     []string
	responses map[string][]Message
	rosters   map[string][]Member
	errs      map[string]error
	gates     map[string]chan struct{}
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		responses: map[string][]Message{},
		rosters:   map[string][]Member{},
		errs:      map[string]error{},
		gates:     map[string]chan struct{}{},
	}
}

func (f *fakeFetcher) FetchMessages(ctx context.Context, conv Conversation) ([]Message, []Member, error) {
	f.mu.Lock()
	gate := f.gates[conv.ID]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, conv.ID)
	if err := f.errs[conv.ID]; err != nil {
		return nil, nil, err
	}
	return f.responses[conv.ID], f.rosters[conv.ID], nil
}

func (f *fakeFetcher) callCount(conversationID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, id := range f.calls {
		if id == conversationID {
			n++
		}
	}
	return n
}

func (f *fakeFetcher) setError(conversationID string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, conversationID)
	} else {
		f.errs[conversationID] = err
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func groupConv(id string) Conversation {
	return Conversation{ID: id, Kind: KindGroup, DisplayName: id}
}

func TestSelectFetchesImmediately(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.responses["G1"] = []Message{msg("S1", "hi")}
	cache := NewCache()
	clock := clockwork.NewFakeClock()
	s := NewSynchronizer(fetcher, cache, 2*time.Second, clock)
	defer s.Close()

	s.Select(context.Background(), groupConv("G1"))

	waitFor(t, "initial snapshot", func() bool {
		msgs, ok := cache.Get("G1")
		return ok && len(msgs) == 1
	})
	// No clock advance happened: exactly the immediate fetch ran.
	assert.Equal(t, 1, fetcher.callCount("G1"))
}

func TestPollTickRefetches(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.responses["G1"] = []Message{msg("S1", "hi")}
	cache := NewCache()
	clock := clockwork.NewFakeClock()
	s := NewSynchronizer(fetcher, cache, 2*time.Second, clock)
	defer s.Close()

	s.Select(context.Background(), groupConv("G1"))
	waitFor(t, "initial fetch", func() bool { return fetcher.callCount("G1") == 1 })

	clock.BlockUntil(1) // poll timer armed only after the immediate fetch
	clock.Advance(2 * time.Second)
	waitFor(t, "first poll tick", func() bool { return fetcher.callCount("G1") == 2 })
}

func TestIdenticalSnapshotDoesNotNotify(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.responses["G1"] = []Message{msg("S1", "hi")}
	cache := NewCache()
	clock := clockwork.NewFakeClock()
	s := NewSynchronizer(fetcher, cache, 2*time.Second, clock)
	defer s.Close()

	var mu sync.Mutex
	updates := 0
	s.OnUpdate(func(string) {
		mu.Lock()
		updates++
		mu.Unlock()
	})

	s.Select(context.Background(), groupConv("G1"))
	waitFor(t, "initial fetch", func() bool { return fetcher.callCount("G1") == 1 })

	clock.BlockUntil(1)
	clock.Advance(2 * time.Second)
	waitFor(t, "poll tick", func() bool { return fetcher.callCount("G1") == 2 })

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, updates, "identical snapshot must not re-render")
}

func TestSwitchingMovesPollingToNewConversation(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.responses["A"] = []Message{msg("S1", "a")}
	fetcher.responses["B"] = []Message{msg("S2", "b")}
	cache := NewCache()
	clock := clockwork.NewFakeClock()
	s := NewSynchronizer(fetcher, cache, 2*time.Second, clock)
	defer s.Close()

	ctx := context.Background()
	s.Select(ctx, groupConv("A"))
	s.Select(ctx, groupConv("B"))
	s.Select(ctx, groupConv("A"))
	s.Select(ctx, groupConv("B"))

	active, ok := s.Active()
	assert.True(t, ok)
	assert.Equal(t, "B", active.ID)

	waitFor(t, "B snapshot", func() bool {
		msgs, ok := cache.Get("B")
		return ok && len(msgs) == 1
	})

	// Only the last selection's loop keeps polling.
	before := fetcher.callCount("A")
	waitFor(t, "B poll tick", func() bool {
		clock.Advance(2 * time.Second)
		return fetcher.callCount("B") >= 3
	})
	assert.Equal(t, before, fetcher.callCount("A"), "superseded loop must not keep fetching")

	msgs, _ := cache.Get("B")
	assert.Equal(t, "b", msgs[0].Text)
}

func TestStaleResultIsDropped(t *testing.T) {
	fetcher := newFakeFetcher()
	gate := make(chan struct{})
	fetcher.gates["A"] = gate
	fetcher.responses["A"] = []Message{msg("S1", "for A")}
	fetcher.responses["B"] = []Message{msg("S2", "for B")}
	cache := NewCache()
	clock := clockwork.NewFakeClock()
	s := NewSynchronizer(fetcher, cache, 2*time.Second, clock)
	defer s.Close()

	ctx := context.Background()
	s.Select(ctx, groupConv("A")) // fetch hangs on the gate
	s.Select(ctx, groupConv("B"))

	waitFor(t, "B snapshot", func() bool {
		msgs, ok := cache.Get("B")
		return ok && len(msgs) == 1
	})

	// A's fetch finally resolves, long after the switch; its result must
	// not land anywhere.
	close(gate)
	waitFor(t, "A fetch drained", func() bool { return fetcher.callCount("A") == 1 })
	time.Sleep(20 * time.Millisecond)

	_, ok := cache.Get("A")
	assert.False(t, ok, "stale fetch must not populate the cache")
	msgs, _ := cache.Get("B")
	assert.Equal(t, "for B", msgs[0].Text)
}

func TestInitialFetchErrorSurfacesAndPollingRecovers(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.setError("G1", errors.New("boom"))
	cache := NewCache()
	clock := clockwork.NewFakeClock()
	s := NewSynchronizer(fetcher, cache, 2*time.Second, clock)
	defer s.Close()

	errCh := make(chan error, 1)
	s.OnError(func(err error) { errCh <- err })

	s.Select(context.Background(), groupConv("G1"))

	select {
	case err := <-errCh:
		assert.EqualError(t, err, "boom")
	case <-time.After(2 * time.Second):
		t.Fatal("initial fetch error was not surfaced")
	}
	_, ok := cache.Get("G1")
	assert.False(t, ok)

	// The conversation stays selected and the next tick can recover.
	fetcher.setError("G1", nil)
	fetcher.mu.Lock()
	fetcher.responses["G1"] = []Message{msg("S1", "back")}
	fetcher.mu.Unlock()

	clock.BlockUntil(1)
	clock.Advance(2 * time.Second)
	waitFor(t, "recovered snapshot", func() bool {
		msgs, ok := cache.Get("G1")
		return ok && len(msgs) == 1
	})
}

func TestPollTickFailureIsSilent(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.responses["G1"] = []Message{msg("S1", "hi")}
	cache := NewCache()
	clock := clockwork.NewFakeClock()
	s := NewSynchronizer(fetcher, cache, 2*time.Second, clock)
	defer s.Close()

	errCh := make(chan error, 8)
	s.OnError(func(err error) { errCh <- err })

	s.Select(context.Background(), groupConv("G1"))
	waitFor(t, "initial fetch", func() bool { return fetcher.callCount("G1") == 1 })

	fetcher.setError("G1", errors.New("transient"))
	clock.BlockUntil(1)
	clock.Advance(2 * time.Second)
	waitFor(t, "failed tick", func() bool { return fetcher.callCount("G1") == 2 })

	assert.Empty(t, errCh, "poll tick failures must stay silent")
	msgs, _ := cache.Get("G1")
	assert.Len(t, msgs, 1, "existing messages survive a failed tick")

	// Timer keeps running.
	fetcher.setError("G1", nil)
	clock.BlockUntil(1)
	clock.Advance(2 * time.Second)
	waitFor(t, "next tick", func() bool { return fetcher.callCount("G1") >= 3 })
}

func TestDeselectStopsPolling(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.responses["G1"] = []Message{msg("S1", "hi")}
	cache := NewCache()
	clock := clockwork.NewFakeClock()
	s := NewSynchronizer(fetcher, cache, 2*time.Second, clock)

	s.Select(context.Background(), groupConv("G1"))
	waitFor(t, "initial fetch", func() bool { return fetcher.callCount("G1") == 1 })
	clock.BlockUntil(1)

	s.Deselect()
	_, ok := s.Active()
	assert.False(t, ok)

	clock.Advance(2 * time.Second)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, fetcher.callCount("G1"))
}

func TestHistoryWarmsCacheBeforeFirstFetch(t *testing.T) {
	fetcher := newFakeFetcher()
	gate := make(chan struct{})
	fetcher.gates["G1"] = gate
	fetcher.responses["G1"] = []Message{msg("S1", "fresh")}
	cache := NewCache()
	clock := clockwork.NewFakeClock()
	s := NewSynchronizer(fetcher, cache, 2*time.Second, clock)
	defer s.Close()
	defer close(gate)

	s.SetHistory(&memoryHistory{snapshots: map[string][]Message{
		"G1": {msg("S1", "from history")},
	}})

	s.Select(context.Background(), groupConv("G1"))

	msgs, ok := cache.Get("G1")
	assert.True(t, ok, "history snapshot shown while the fetch is in flight")
	assert.Equal(t, "from history", msgs[0].Text)
}

type memoryHistory struct {
	mu        sync.Mutex
	snapshots map[string][]Message
}

func (m *memoryHistory) SaveSnapshot(conversationID string, msgs []Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[conversationID] = msgs
	return nil
}

func (m *memoryHistory) LoadSnapshot(conversationID string) ([]Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshots[conversationID], nil
}
