package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	cache "github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/infrastructure/cache/port"
	connections "github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/pkg/connections/port"
	messaging "github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/pkg/messaging/application/domain"
	repository "github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/pkg/messaging/persistence/repository/port"
)

var (
	_ repository.MessagingRepository = (*memRepo)(nil)
	_ connections.Gate               = (*fakeGate)(nil)
	_ cache.Cache                    = (*fakeCache)(nil)
)

// memRepo is an in-memory MessagingRepository with the same semantics the
// Postgres adapter provides: pair-key uniqueness resolved in favor of the
// first creator, idempotent receipts, and monotonic delivery status.
type memRepo struct {
	mu sync.Mutex

	conversations map[string]*messaging.Conversation
	participants  map[string][]string            // conversationID -> userIDs
	messages      []*messaging.Message           // in creation order
	receipts      map[string]map[string]struct{} // messageID -> readers

	nextID  int
	failAll bool
}

func newMemRepo() *memRepo {
	return &memRepo{
		conversations: make(map[string]*messaging.Conversation),
		participants:  make(map[string][]string),
		receipts:      make(map[string]map[string]struct{}),
	}
}

func (r *memRepo) genID() string {
	r.nextID++
	return fmt.Sprintf("id-%d", r.nextID)
}

var errStoreDown = fmt.Errorf("store down")

func (r *memRepo) FindDirectConversation(_ context.Context, pairKey string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return "", errStoreDown
	}
	for id, c := range r.conversations {
		if c.Type == messaging.ConversationTypeDirect && c.PairKey != nil && *c.PairKey == pairKey {
			return id, nil
		}
	}
	return "", messaging.ErrNotFound
}

func (r *memRepo) CreateDirectConversation(_ context.Context, userA, userB string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return "", errStoreDown
	}
	pairKey := messaging.DirectPairKey(userA, userB)
	// Uniqueness constraint stand-in: a concurrent creator's row wins.
	for id, c := range r.conversations {
		if c.Type == messaging.ConversationTypeDirect && c.PairKey != nil && *c.PairKey == pairKey {
			return id, nil
		}
	}
	id := r.genID()
	r.conversations[id] = &messaging.Conversation{
		ID:        id,
		Type:      messaging.ConversationTypeDirect,
		PairKey:   &pairKey,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	r.participants[id] = []string{userA, userB}
	return id, nil
}

func (r *memRepo) FindAIConversation(_ context.Context, userID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.conversations {
		if c.Type == messaging.ConversationTypeAI && c.PairKey != nil && *c.PairKey == userID {
			return id, nil
		}
	}
	return "", messaging.ErrNotFound
}

func (r *memRepo) CreateAIConversation(_ context.Context, userID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.conversations {
		if c.Type == messaging.ConversationTypeAI && c.PairKey != nil && *c.PairKey == userID {
			return id, nil
		}
	}
	id := r.genID()
	key := userID
	r.conversations[id] = &messaging.Conversation{
		ID:        id,
		Type:      messaging.ConversationTypeAI,
		PairKey:   &key,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	r.participants[id] = []string{userID}
	return id, nil
}

func (r *memRepo) GetConversation(_ context.Context, conversationID string) (*messaging.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[conversationID]
	if !ok {
		return nil, messaging.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (r *memRepo) ListConversationSummaries(_ context.Context, userID string) ([]messaging.ConversationSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []messaging.ConversationSummary
	for id, c := range r.conversations {
		if !contains(r.participants[id], userID) {
			continue
		}
		out = append(out, messaging.ConversationSummary{
			ID:             id,
			Type:           c.Type,
			UpdatedAt:      c.UpdatedAt,
			ParticipantIDs: append([]string(nil), r.participants[id]...),
			UnreadCount:    r.unreadLocked(userID, id),
		})
	}
	return out, nil
}

func (r *memRepo) IsParticipant(_ context.Context, conversationID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return false, errStoreDown
	}
	return contains(r.participants[conversationID], userID), nil
}

func (r *memRepo) ListParticipantIDs(_ context.Context, conversationID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.participants[conversationID]...), nil
}

func (r *memRepo) SaveMessage(_ context.Context, m messaging.Message) (*messaging.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return nil, errStoreDown
	}
	m.ID = r.genID()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	stored := m
	r.messages = append(r.messages, &stored)
	if c, ok := r.conversations[m.ConversationID]; ok {
		c.UpdatedAt = m.CreatedAt
	}
	return &m, nil
}

// GetMessagesByConversation returns the newest messages up to limit in
// ascending order, same as the Postgres adapter.
func (r *memRepo) GetMessagesByConversation(_ context.Context, conversationID string, limit int) ([]messaging.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit <= 0 || limit > 500 {
		limit = 500
	}
	var out []messaging.Message
	for _, m := range r.messages {
		if m.ConversationID == conversationID && m.DeletedAt == nil {
			out = append(out, *m)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (r *memRepo) GetMessage(_ context.Context, messageID string) (*messaging.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages {
		if m.ID == messageID {
			copied := *m
			return &copied, nil
		}
	}
	return nil, messaging.ErrNotFound
}

func (r *memRepo) MarkDelivered(_ context.Context, messageID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages {
		if m.ID == messageID && m.DeletedAt == nil {
			if m.DeliveryStatus >= messaging.DeliveryDelivered {
				return false, nil
			}
			m.DeliveryStatus = messaging.DeliveryDelivered
			now := time.Now()
			m.DeliveredAt = &now
			return true, nil
		}
	}
	return false, nil
}

func (r *memRepo) MarkConversationRead(_ context.Context, conversationID, readerID string) (*messaging.ReadResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := &messaging.ReadResult{}
	for _, m := range r.messages {
		if m.ConversationID != conversationID || m.DeletedAt != nil {
			continue
		}
		if m.SenderID != nil && *m.SenderID == readerID {
			continue
		}
		readers := r.receipts[m.ID]
		if readers == nil {
			readers = make(map[string]struct{})
			r.receipts[m.ID] = readers
		}
		if _, seen := readers[readerID]; seen {
			continue
		}
		readers[readerID] = struct{}{}
		result.ReceiptMessageIDs = append(result.ReceiptMessageIDs, m.ID)

		if m.DeliveryStatus < messaging.DeliveryRead && r.fullyReadLocked(m) {
			m.DeliveryStatus = messaging.DeliveryRead
			now := time.Now()
			if m.DeliveredAt == nil {
				m.DeliveredAt = &now
			}
			m.ReadAt = &now
			result.ReadMessageIDs = append(result.ReadMessageIDs, m.ID)
		}
	}
	return result, nil
}

// fullyReadLocked is the completion rule: every participant other than the
// sender holds a receipt.
func (r *memRepo) fullyReadLocked(m *messaging.Message) bool {
	for _, p := range r.participants[m.ConversationID] {
		if m.SenderID != nil && p == *m.SenderID {
			continue
		}
		if _, ok := r.receipts[m.ID][p]; !ok {
			return false
		}
	}
	return true
}

func (r *memRepo) UnreadCount(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return 0, errStoreDown
	}
	var total int64
	for id := range r.conversations {
		if contains(r.participants[id], userID) {
			total += r.unreadLocked(userID, id)
		}
	}
	return total, nil
}

func (r *memRepo) unreadLocked(userID, conversationID string) int64 {
	var n int64
	for _, m := range r.messages {
		if m.ConversationID != conversationID || m.DeletedAt != nil {
			continue
		}
		if m.SenderID != nil && *m.SenderID == userID {
			continue
		}
		if _, ok := r.receipts[m.ID][userID]; !ok {
			n++
		}
	}
	return n
}

func (r *memRepo) SoftDeleteMessage(_ context.Context, messageID, requesterID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages {
		if m.ID != messageID {
			continue
		}
		if m.SenderID == nil || *m.SenderID != requesterID {
			return messaging.ErrNotSender
		}
		if m.DeletedAt == nil {
			now := time.Now()
			m.DeletedAt = &now
		}
		return nil
	}
	return messaging.ErrNotFound
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// fakeGate is a canned connection gate.
type fakeGate struct {
	allowed map[string]bool
	calls   int
}

func (g *fakeGate) CanConverse(_ context.Context, a, b string) (bool, error) {
	g.calls++
	return g.allowed[messaging.DirectPairKey(a, b)], nil
}

// fakeCache records sets and deletes for cache-interaction assertions.
type fakeCache struct {
	mu      sync.Mutex
	values  map[string]string
	deleted []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: make(map[string]string)}
}

func (c *fakeCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	if !ok {
		return "", cache.ErrMiss
	}
	return v, nil
}

func (c *fakeCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

func (c *fakeCache) Del(_ context.Context, keys ...string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := c.values[k]; ok {
			delete(c.values, k)
			n++
		}
		c.deleted = append(c.deleted, k)
	}
	return n, nil
}

func (c *fakeCache) Ping(context.Context) error { return nil }
func (c *fakeCache) Close() error               { return nil }
