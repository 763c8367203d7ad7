package realtime

import (
	"sync"

	"go.uber.org/zap"
)

// Hub owns all live websocket sessions for the process. It maps users to
// their presence set (a user may be connected from several devices), routes
// sessions in and out of conversation rooms, and fans events out to them.
// Delivery is best-effort to currently joined sessions only: no queuing, no
// replay.
type Hub struct {
	mu           sync.RWMutex
	sessions     map[string]*Connection            // sessionID -> connection
	userSessions map[string]map[string]*Connection // userID -> sessionID -> connection
	rooms        map[string]map[string]*Connection // conversationID -> sessionID -> connection
	sessionRooms map[string]map[string]struct{}    // sessionID -> set of conversationIDs

	logger *zap.Logger
}

// NewHub constructs an initialized Hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		sessions:     make(map[string]*Connection),
		userSessions: make(map[string]map[string]*Connection),
		rooms:        make(map[string]map[string]*Connection),
		sessionRooms: make(map[string]map[string]struct{}),
		logger:       logger,
	}
}

// Attach registers a session into the user's presence set and starts its
// write loop. The first session for a user announces user:online to everyone
// else; later sessions for the same user do not.
func (h *Hub) Attach(conn *Connection) {
	h.mu.Lock()
	h.sessions[conn.ID] = conn
	set := h.userSessions[conn.UserID]
	first := len(set) == 0
	if set == nil {
		set = make(map[string]*Connection)
		h.userSessions[conn.UserID] = set
	}
	set[conn.ID] = conn
	h.sessionRooms[conn.ID] = make(map[string]struct{})
	h.mu.Unlock()

	conn.Start()

	h.logger.Debug("session attached",
		zap.String("session_id", conn.ID),
		zap.String("user_id", conn.UserID),
		zap.Bool("first", first))

	if first {
		h.broadcastAll(Encode(EventUserOnline, PresencePayload{UserID: conn.UserID}), conn.UserID)
	}
}

// Detach removes a session from the hub and all its rooms. When the last
// session for the user goes away, user:offline is announced.
func (h *Hub) Detach(conn *Connection) {
	h.mu.Lock()
	last := h.detachLocked(conn.ID)
	h.mu.Unlock()

	h.logger.Debug("session detached",
		zap.String("session_id", conn.ID),
		zap.String("user_id", conn.UserID),
		zap.Bool("last", last))

	if last {
		h.broadcastAll(Encode(EventUserOffline, PresencePayload{UserID: conn.UserID}), conn.UserID)
	}
}

// JoinConversation adds the session to the conversation room. Pure routing;
// membership checks happen before this is called.
func (h *Hub) JoinConversation(conversationID string, conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.sessions[conn.ID]; !ok {
		return
	}

	room := h.rooms[conversationID]
	if room == nil {
		room = make(map[string]*Connection)
		h.rooms[conversationID] = room
	}
	room[conn.ID] = conn
	h.sessionRooms[conn.ID][conversationID] = struct{}{}
}

// LeaveConversation removes the session from the conversation room.
func (h *Hub) LeaveConversation(conversationID string, conn *Connection) {
	h.mu.Lock()
	h.leaveLocked(conversationID, conn.ID)
	h.mu.Unlock()
}

// IsOnline reports whether the user has at least one live session.
func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userSessions[userID]) > 0
}

// OnlineAmong filters userIDs down to those currently online, preserving
// input order.
func (h *Hub) OnlineAmong(userIDs []string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var online []string
	for _, id := range userIDs {
		if len(h.userSessions[id]) > 0 {
			online = append(online, id)
		}
	}
	return online
}

// Broadcast writes payload to every session in the conversation room.
// excludeSessionID, when non-empty, skips that session (a typing sender
// should not see its own indicator). Returns the number of sessions the
// payload was queued for.
func (h *Hub) Broadcast(conversationID string, payload []byte, excludeSessionID string) int {
	h.mu.RLock()
	room := h.rooms[conversationID]
	conns := make([]*Connection, 0, len(room))
	for _, conn := range room {
		if excludeSessionID != "" && conn.ID == excludeSessionID {
			continue
		}
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, conn := range conns {
		if err := conn.Send(payload); err == nil {
			delivered++
		}
	}
	return delivered
}

// NotifyUser delivers payload to every live session of the given user.
func (h *Hub) NotifyUser(userID string, payload []byte) int {
	h.mu.RLock()
	set := h.userSessions[userID]
	conns := make([]*Connection, 0, len(set))
	for _, conn := range set {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, conn := range conns {
		if err := conn.Send(payload); err == nil {
			delivered++
		}
	}
	return delivered
}

// Close terminates all tracked connections and clears hub state.
func (h *Hub) Close() {
	h.mu.Lock()
	sessions := make([]*Connection, 0, len(h.sessions))
	for _, conn := range h.sessions {
		sessions = append(sessions, conn)
	}
	h.sessions = make(map[string]*Connection)
	h.userSessions = make(map[string]map[string]*Connection)
	h.rooms = make(map[string]map[string]*Connection)
	h.sessionRooms = make(map[string]map[string]struct{})
	h.mu.Unlock()

	for _, conn := range sessions {
		conn.Close(1001, "hub shutdown")
	}
}

// PresencePayload is the body of user:online / user:offline events.
type PresencePayload struct {
	UserID string `json:"user_id"`
}

// broadcastAll sends payload to every session except those of excludeUserID.
// Presence changes are announced process-wide; a multi-node deployment backs
// this with a shared pub/sub layer instead.
func (h *Hub) broadcastAll(payload []byte, excludeUserID string) {
	h.mu.RLock()
	conns := make([]*Connection, 0, len(h.sessions))
	for _, conn := range h.sessions {
		if conn.UserID == excludeUserID {
			continue
		}
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		_ = conn.Send(payload)
	}
}

// detachLocked removes the session and reports whether it was the user's
// last one.
func (h *Hub) detachLocked(sessionID string) bool {
	conn, ok := h.sessions[sessionID]
	if !ok {
		return false
	}
	delete(h.sessions, sessionID)

	last := false
	if set, ok := h.userSessions[conn.UserID]; ok {
		delete(set, sessionID)
		if len(set) == 0 {
			delete(h.userSessions, conn.UserID)
			last = true
		}
	}

	for roomID := range h.sessionRooms[sessionID] {
		h.leaveLocked(roomID, sessionID)
	}
	delete(h.sessionRooms, sessionID)
	return last
}

func (h *Hub) leaveLocked(conversationID string, sessionID string) {
	room := h.rooms[conversationID]
	if room == nil {
		return
	}
	delete(room, sessionID)
	if len(room) == 0 {
		delete(h.rooms, conversationID)
	}
	if memberships, ok := h.sessionRooms[sessionID]; ok {
		delete(memberships, conversationID)
	}
}
