package realtime

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Subscriber is anything that can receive a ServerMessage. A future
// websocket transport implements this over its own connection; tests use
// a simple recording fake.
type Subscriber interface {
	Deliver(msg ServerMessage)
}

type session struct {
	token  uuid.UUID
	userID int64
	gameID int64
	sub    Subscriber
}

// gameBucket is one game's session set, locked independently of every
// other game's bucket — the Go adaptation of ws/hub.rs's
// DashMap<game_id, SessionMap>, which has no lock-free equivalent in the
// standard library.
type gameBucket struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*session
}

// Registry tracks live sessions by game topic and by user id, and counts
// active connections, mirroring GameSessionRegistry from ws/hub.rs.
type Registry struct {
	bucketsMu sync.RWMutex
	buckets   map[int64]*gameBucket

	usersMu sync.RWMutex
	byUser  map[int64]map[uuid.UUID]*session

	tokensMu sync.RWMutex
	tokens   map[uuid.UUID]*session

	active atomic.Int64
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		buckets: make(map[int64]*gameBucket),
		byUser:  make(map[int64]map[uuid.UUID]*session),
		tokens:  make(map[uuid.UUID]*session),
	}
}

func (r *Registry) bucketFor(gameID int64) *gameBucket {
	r.bucketsMu.RLock()
	b, ok := r.buckets[gameID]
	r.bucketsMu.RUnlock()
	if ok {
		return b
	}
	r.bucketsMu.Lock()
	defer r.bucketsMu.Unlock()
	if b, ok := r.buckets[gameID]; ok {
		return b
	}
	b = &gameBucket{sessions: make(map[uuid.UUID]*session)}
	r.buckets[gameID] = b
	return b
}

// Register subscribes sub to gameID's topic on behalf of userID and
// returns a session token, the analogue of Uuid::new_v4() in
// GameSessionRegistry::register.
func (r *Registry) Register(gameID, userID int64, sub Subscriber) uuid.UUID {
	token := uuid.New()
	s := &session{token: token, userID: userID, gameID: gameID, sub: sub}

	bucket := r.bucketFor(gameID)
	bucket.mu.Lock()
	bucket.sessions[token] = s
	bucket.mu.Unlock()

	r.usersMu.Lock()
	if r.byUser[userID] == nil {
		r.byUser[userID] = make(map[uuid.UUID]*session)
	}
	r.byUser[userID][token] = s
	r.usersMu.Unlock()

	r.tokensMu.Lock()
	r.tokens[token] = s
	r.tokensMu.Unlock()

	r.active.Add(1)
	return token
}

// Unregister removes a session by token, the analogue of
// GameSessionRegistry::unregister. It is a no-op if token is unknown.
func (r *Registry) Unregister(token uuid.UUID) {
	r.tokensMu.Lock()
	s, ok := r.tokens[token]
	if ok {
		delete(r.tokens, token)
	}
	r.tokensMu.Unlock()
	if !ok {
		return
	}

	bucket := r.bucketFor(s.gameID)
	bucket.mu.Lock()
	delete(bucket.sessions, token)
	empty := len(bucket.sessions) == 0
	bucket.mu.Unlock()
	if empty {
		r.bucketsMu.Lock()
		if b, ok := r.buckets[s.gameID]; ok && len(b.sessions) == 0 {
			delete(r.buckets, s.gameID)
		}
		r.bucketsMu.Unlock()
	}

	r.usersMu.Lock()
	if byToken, ok := r.byUser[s.userID]; ok {
		delete(byToken, token)
		if len(byToken) == 0 {
			delete(r.byUser, s.userID)
		}
	}
	r.usersMu.Unlock()

	r.active.Add(-1)
}

// BroadcastGameState delivers msg to every session subscribed to gameID's
// topic, without holding any lock across delivery — the broadcast only
// holds the bucket's read lock long enough to snapshot the recipients.
func (r *Registry) BroadcastGameState(gameID int64, msg ServerMessage) {
	bucket := r.bucketFor(gameID)
	bucket.mu.RLock()
	recipients := make([]Subscriber, 0, len(bucket.sessions))
	for _, s := range bucket.sessions {
		recipients = append(recipients, s.sub)
	}
	bucket.mu.RUnlock()
	for _, sub := range recipients {
		sub.Deliver(msg)
	}
}

// BroadcastToUser delivers msg to every session registered under userID,
// regardless of which game topic (if any) it is also subscribed to.
func (r *Registry) BroadcastToUser(userID int64, msg ServerMessage) {
	r.usersMu.RLock()
	recipients := make([]Subscriber, 0, len(r.byUser[userID]))
	for _, s := range r.byUser[userID] {
		recipients = append(recipients, s.sub)
	}
	r.usersMu.RUnlock()
	for _, sub := range recipients {
		sub.Deliver(msg)
	}
}

// BroadcastToUserExclTopic delivers msg to userID's sessions except those
// already subscribed to excludeGameID, the behavior HubEvent::excl_topic
// gives YourTurn: a session already watching the game will see the new
// state via game_state and doesn't need the out-of-band nudge too.
func (r *Registry) BroadcastToUserExclTopic(userID, excludeGameID int64, msg ServerMessage) {
	r.usersMu.RLock()
	recipients := make([]Subscriber, 0, len(r.byUser[userID]))
	for _, s := range r.byUser[userID] {
		if s.gameID == excludeGameID {
			continue
		}
		recipients = append(recipients, s.sub)
	}
	r.usersMu.RUnlock()
	for _, sub := range recipients {
		sub.Deliver(msg)
	}
}

// ActiveConnections returns the current number of registered sessions.
func (r *Registry) ActiveConnections() int64 {
	return r.active.Load()
}
