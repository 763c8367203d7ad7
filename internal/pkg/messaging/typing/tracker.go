// Package typing tracks ephemeral per-(conversation, user) typing state.
// Nothing here is persisted; entries outlive neither the process nor the
// expiry window, and clients apply their own local timeout since a stop
// signal may never arrive (e.g. ungraceful disconnect).
package typing

import (
	"sync"
	"time"
)

// DefaultTTL is how long a typing entry survives without a refreshed start
// signal before the sweeper drops it.
const DefaultTTL = 8 * time.Second

type key struct {
	conversationID string
	userID         string
}

// Tracker is a concurrency-safe map of live typing entries with TTL expiry.
type Tracker struct {
	mu      sync.Mutex
	entries map[key]time.Time

	ttl  time.Duration
	stop chan struct{}
	once sync.Once

	now func() time.Time
}

// NewTracker builds a tracker and starts its sweep loop. ttl <= 0 selects
// DefaultTTL. Call Stop when done.
func NewTracker(ttl time.Duration) *Tracker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	t := &Tracker{
		entries: make(map[key]time.Time),
		ttl:     ttl,
		stop:    make(chan struct{}),
		now:     time.Now,
	}
	go t.sweep()
	return t
}

// Start upserts the typing entry; every keystroke-level signal refreshes the
// deadline. Returns true when the entry is new, i.e. the state flipped from
// not-typing to typing.
func (t *Tracker) Start(conversationID, userID string) bool {
	k := key{conversationID, userID}
	t.mu.Lock()
	defer t.mu.Unlock()
	_, existed := t.entries[k]
	t.entries[k] = t.now().Add(t.ttl)
	return !existed
}

// Stop removes the entry. Returns true when an entry was actually present,
// so duplicate stops produce no duplicate broadcasts.
func (t *Tracker) StopTyping(conversationID, userID string) bool {
	k := key{conversationID, userID}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[k]; !ok {
		return false
	}
	delete(t.entries, k)
	return true
}

// Typing lists the users with a live entry for the conversation.
func (t *Tracker) Typing(conversationID string) []string {
	now := t.now()
	t.mu.Lock()
	defer t.mu.Unlock()
	var users []string
	for k, deadline := range t.entries {
		if k.conversationID == conversationID && deadline.After(now) {
			users = append(users, k.userID)
		}
	}
	return users
}

// StopAllFor drops every entry the user holds, returning the affected
// conversation ids. Used on session disconnect to avoid stuck indicators.
func (t *Tracker) StopAllFor(userID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	var conversations []string
	for k := range t.entries {
		if k.userID == userID {
			delete(t.entries, k)
			conversations = append(conversations, k.conversationID)
		}
	}
	return conversations
}

// Stop halts the sweep loop.
func (t *Tracker) Stop() {
	t.once.Do(func() { close(t.stop) })
}

func (t *Tracker) sweep() {
	ticker := time.NewTicker(t.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			now := t.now()
			t.mu.Lock()
			for k, deadline := range t.entries {
				if !deadline.After(now) {
					delete(t.entries, k)
				}
			}
			t.mu.Unlock()
		}
	}
}
