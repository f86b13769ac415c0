package chat

import (
	"reflect"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// cacheSize bounds how many conversations keep their messages in memory.
// Far beyond what one mentor session touches; eviction is a formality.
const cacheSize = 256

// Cache maps conversation ids to ordered message sequences. It is the only
// state shared between the synchronizer (poll commits) and the composer
// (optimistic appends), so every composite update happens under one lock.
type Cache struct {
	mu      sync.Mutex
	entries *lru.Cache[string, []Message]
}

func NewCache() *Cache {
	entries, err := lru.New[string, []Message](cacheSize)
	if err != nil {
		// only reachable with a non-positive size
		panic(err)
	}
	return &Cache{entries: entries}
}

// Get returns the cached sequence for a conversation. Callers must treat the
// slice as read-only.
func (c *Cache) Get(conversationID string) ([]Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Get(conversationID)
}

// Warm seeds a conversation from local history, but never over live data.
func (c *Cache) Warm(conversationID string, msgs []Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries.Get(conversationID); ok {
		return false
	}
	c.entries.Add(conversationID, msgs)
	return true
}

// Append adds one optimistic message to the end of a conversation's sequence.
func (c *Cache) Append(conversationID string, msg Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev, _ := c.entries.Get(conversationID)
	next := make([]Message, len(prev), len(prev)+1)
	copy(next, prev)
	c.entries.Add(conversationID, append(next, msg))
}

// Commit replaces a conversation's sequence with an authoritative snapshot.
// Optimistic messages the snapshot has not confirmed yet are carried over to
// the tail so a send does not flicker away between poll ticks. Returns false
// when the result is structurally identical to what is already cached, in
// which case the cached value (and its identity) is left untouched.
func (c *Cache) Commit(conversationID string, snapshot []Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev, seen := c.entries.Get(conversationID)

	merged := snapshot
	for _, m := range prev {
		if m.LocalID != "" && !confirms(snapshot, m) {
			if len(merged) == len(snapshot) {
				// copy before the first carry-over so the snapshot's
				// backing array is never mutated
				merged = make([]Message, len(snapshot), len(snapshot)+1)
				copy(merged, snapshot)
			}
			merged = append(merged, m)
		}
	}

	if seen && messagesEqual(prev, merged) {
		return false
	}
	c.entries.Add(conversationID, merged)
	return true
}

// confirms reports whether the snapshot already contains the server-side
// counterpart of an optimistic message. Matching is by self-authorship, text
// and attachment count; the server does not echo our local id back.
func confirms(snapshot []Message, opt Message) bool {
	for i := len(snapshot) - 1; i >= 0; i-- {
		m := snapshot[i]
		if m.IsSelf && m.Text == opt.Text && len(m.Attachments) == len(opt.Attachments) {
			return true
		}
	}
	return false
}

func messagesEqual(a, b []Message) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}
