package activity

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"skillmart/internal/services/users"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Subscriber is one live stream owned by a user
type Subscriber struct {
	UserID bson.ObjectID
	Ch     chan users.Event
	Done   chan struct{}
}

type conn struct {
	id          ulid.ULID
	connectedAt time.Time
	sub         *Subscriber
}

// userConns holds the open streams of one user
type userConns struct {
	mu sync.RWMutex
	m  map[ulid.ULID]conn
}

// Hub fans profile activity out to the streams of the addressed user.
// It satisfies users.Bus.
type Hub struct {
	mu         sync.RWMutex
	byUser     map[bson.ObjectID]*userConns
	connIndex  map[ulid.ULID]bson.ObjectID
	bufferSize int
	dropped    atomic.Uint64
	log        *slog.Logger
}

var _ users.Bus = (*Hub)(nil)

// NewHub creates a hub whose per-connection outbox holds bufferSize events
func NewHub(bufferSize int, log *slog.Logger) *Hub {
	return &Hub{
		byUser:     make(map[bson.ObjectID]*userConns),
		connIndex:  make(map[ulid.ULID]bson.ObjectID),
		bufferSize: bufferSize,
		log:        log,
	}
}

// Subscribe registers connID for userID. The returned func unsubscribes.
func (h *Hub) Subscribe(connID ulid.ULID, userID bson.ObjectID) (*Subscriber, func()) {
	h.log.Debug("subscribing connection", "conn_id", connID.String(), "user_id", userID.Hex())

	sub := &Subscriber{
		UserID: userID,
		Ch:     make(chan users.Event, h.bufferSize),
		Done:   make(chan struct{}),
	}

	h.mu.Lock()
	bucket, ok := h.byUser[userID]
	if !ok {
		bucket = &userConns{m: make(map[ulid.ULID]conn)}
		h.byUser[userID] = bucket
	}
	h.connIndex[connID] = userID
	// bucket lock is taken under h.mu so Unsubscribe cannot drop an empty
	// bucket between lookup and insert
	bucket.mu.Lock()
	bucket.m[connID] = conn{id: connID, connectedAt: time.Now(), sub: sub}
	bucket.mu.Unlock()
	h.mu.Unlock()

	return sub, func() { h.Unsubscribe(connID) }
}

// Unsubscribe removes connID and closes its channels. Unknown ids are ignored.
func (h *Hub) Unsubscribe(connID ulid.ULID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	uid, ok := h.connIndex[connID]
	if !ok {
		return
	}
	delete(h.connIndex, connID)

	bucket := h.byUser[uid]
	if bucket == nil {
		return
	}

	bucket.mu.Lock()
	c, exists := bucket.m[connID]
	delete(bucket.m, connID)
	empty := len(bucket.m) == 0
	if exists {
		close(c.sub.Ch)
		close(c.sub.Done)
	}
	bucket.mu.Unlock()

	if empty {
		delete(h.byUser, uid)
	}

	h.log.Debug("unsubscribed connection", "conn_id", connID.String(), "user_id", uid.Hex(),
		"lifetime", time.Since(c.connectedAt).Round(time.Millisecond))
}

// Broadcast delivers ev to every stream of ev.UserID without blocking.
// A full outbox drops the event for that stream only.
func (h *Hub) Broadcast(_ context.Context, ev users.Event) {
	if ev.UserID.IsZero() {
		return
	}

	h.mu.RLock()
	bucket := h.byUser[ev.UserID]
	h.mu.RUnlock()
	if bucket == nil {
		return
	}

	bucket.mu.RLock()
	defer bucket.mu.RUnlock()
	for _, c := range bucket.m {
		select {
		case c.sub.Ch <- ev:
		default:
			h.dropped.Add(1)
			h.log.Warn("outbox full, dropping event",
				"conn_id", c.id.String(), "user_id", ev.UserID.Hex(), "event_type", ev.Type)
		}
	}
}

// SubscriberCount returns the number of open streams
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connIndex)
}

// Stats returns live streams and total dropped events.
func (h *Hub) Stats() (subscribers int, dropped uint64) {
	return h.SubscriberCount(), h.dropped.Load()
}

// Collectors exposes hub state to Prometheus.
func (h *Hub) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "activity_stream_subscribers",
			Help: "Open activity WebSocket streams",
		}, func() float64 { return float64(h.SubscriberCount()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "activity_events_dropped_total",
			Help: "Activity events dropped because a stream outbox was full",
		}, func() float64 { return float64(h.dropped.Load()) }),
	}
}
