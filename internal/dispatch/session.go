package dispatch

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/agrisafe/crop-risk-advisory/internal/domain"
	"github.com/agrisafe/crop-risk-advisory/internal/store"
)

// DefaultNotifiedCap bounds the notified-set. The cap trades a possible
// re-notification after many distinct advisories for bounded memory.
const DefaultNotifiedCap = 1000

// Session holds all mutable dispatcher state for one farmer: the offline
// queue, sync queue, notified-set, fired reminders, and preferences. Every
// session has its own lock so concurrent cycles for different farmers never
// contend, while access within a farmer stays sequential.
type Session struct {
	farmerID string
	store    store.Store
	logger   *slog.Logger

	mu        sync.Mutex
	notified  *notifiedSet
	reminders map[string]struct{}
	queue     *OfflineQueue
	syncQueue *SyncQueue
	prefs     domain.Preferences
}

// Sessions is the registry of per-farmer sessions.
type Sessions struct {
	store  store.Store
	logger *slog.Logger

	queueMaxEntries int
	queueMaxAge     time.Duration
	notifiedCap     int

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessions creates a registry backed by the given store. Non-positive
// bounds fall back to defaults.
func NewSessions(st store.Store, logger *slog.Logger, queueMaxEntries int, queueMaxAge time.Duration, notifiedCap int) *Sessions {
	if notifiedCap <= 0 {
		notifiedCap = DefaultNotifiedCap
	}
	return &Sessions{
		store:           st,
		logger:          logger,
		queueMaxEntries: queueMaxEntries,
		queueMaxAge:     queueMaxAge,
		notifiedCap:     notifiedCap,
		sessions:        make(map[string]*Session),
	}
}

// Get returns the farmer's session, creating and restoring it from the
// store on first access. A failed load degrades to empty state: the worst
// outcome is a duplicated notification, never a lost session.
func (s *Sessions) Get(farmerID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[farmerID]; ok {
		return sess
	}

	sess := &Session{
		farmerID:  farmerID,
		store:     s.store,
		logger:    s.logger,
		notified:  newNotifiedSet(s.notifiedCap),
		reminders: make(map[string]struct{}),
		queue:     NewOfflineQueue(s.queueMaxEntries, s.queueMaxAge),
		syncQueue: &SyncQueue{},
	}

	state, err := s.store.Load(farmerID)
	switch {
	case err == nil:
		sess.notified.restore(state.Notified)
		for _, key := range state.Reminders {
			sess.reminders[key] = struct{}{}
		}
		sess.queue.Restore(state.Queue)
		sess.syncQueue.Restore(state.SyncQueue)
		sess.prefs = state.Preferences
	case errors.Is(err, store.ErrNotFound):
		// first contact with this farmer
	default:
		s.logger.Error("load farmer state failed, starting empty",
			"farmer_id", farmerID, "error", err)
	}

	s.sessions[farmerID] = sess
	return sess
}

// All returns the currently materialized sessions.
func (s *Sessions) All() []*Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out
}

// Preferences returns the farmer's notification preferences.
func (s *Session) Preferences() domain.Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs
}

// SetPreferences updates and persists the farmer's preferences.
func (s *Session) SetPreferences(prefs domain.Preferences) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs = prefs
	s.persistLocked()
}

// persistLocked writes the session state through the store. Persistence
// failures are logged and swallowed; the in-memory state stays
// authoritative for the rest of the session.
func (s *Session) persistLocked() {
	state := store.FarmerState{
		Queue:       s.queue.Entries(),
		SyncQueue:   s.syncQueue.Actions(),
		Notified:    s.notified.keys(),
		Reminders:   make([]string, 0, len(s.reminders)),
		Preferences: s.prefs,
	}
	for key := range s.reminders {
		state.Reminders = append(state.Reminders, key)
	}

	if err := s.store.Save(s.farmerID, state); err != nil {
		s.logger.Error("persist farmer state failed", "farmer_id", s.farmerID, "error", err)
	}
}

// notifiedSet is a capped set of delivered advisory keys with LRU eviction.
type notifiedSet struct {
	cap     int
	entries map[string]*setEntry
	head    *setEntry // most recently used
	tail    *setEntry // least recently used
}

type setEntry struct {
	key  string
	prev *setEntry
	next *setEntry
}

func newNotifiedSet(cap int) *notifiedSet {
	return &notifiedSet{cap: cap, entries: make(map[string]*setEntry)}
}

func (n *notifiedSet) contains(key string) bool {
	e, ok := n.entries[key]
	if ok {
		n.moveToFront(e)
	}
	return ok
}

func (n *notifiedSet) add(key string) {
	if e, ok := n.entries[key]; ok {
		n.moveToFront(e)
		return
	}

	e := &setEntry{key: key}
	n.entries[key] = e
	n.addToFront(e)

	if len(n.entries) > n.cap {
		n.evictTail()
	}
}

// keys returns keys oldest-first so restore preserves recency order.
func (n *notifiedSet) keys() []string {
	out := make([]string, 0, len(n.entries))
	for e := n.tail; e != nil; e = e.prev {
		out = append(out, e.key)
	}
	return out
}

func (n *notifiedSet) restore(keys []string) {
	for _, key := range keys {
		n.add(key)
	}
}

func (n *notifiedSet) moveToFront(e *setEntry) {
	if e == n.head {
		return
	}
	n.remove(e)
	n.addToFront(e)
}

func (n *notifiedSet) addToFront(e *setEntry) {
	e.next = n.head
	e.prev = nil
	if n.head != nil {
		n.head.prev = e
	}
	n.head = e
	if n.tail == nil {
		n.tail = e
	}
}

func (n *notifiedSet) remove(e *setEntry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		n.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		n.tail = e.prev
	}
}

func (n *notifiedSet) evictTail() {
	if n.tail == nil {
		return
	}
	delete(n.entries, n.tail.key)
	n.remove(n.tail)
}
