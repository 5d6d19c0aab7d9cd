package session

import (
	"container/list"
	"net"
	"sync"
	"time"
)

// DefaultMaxSessions bounds the session table absent an explicit
// Config.MaxSessions (spec.md §9 open question 1: the base design has no
// eviction policy; duskwire adds an LRU capped by peer count).
const DefaultMaxSessions = 4096

// Table is a peer-address-keyed session map with bounded LRU eviction.
// The kernel is single-threaded but Table carries its own mutex so it can
// also be read from monitoring/metrics goroutines without racing the
// poll loop.
type Table struct {
	mu      sync.Mutex
	cap     int
	entries map[string]*list.Element // key -> element in order
	order   *list.List                // front = most recently used
}

type tableEntry struct {
	key     string
	session *Session
}

// NewTable returns an empty table capped at maxSessions (0 means
// DefaultMaxSessions).
func NewTable(maxSessions int) *Table {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	return &Table{
		cap:     maxSessions,
		entries: make(map[string]*list.Element),
		order:   list.New(),
	}
}

func keyOf(peer net.Addr) string {
	return peer.String()
}

// Get returns the session for peer and marks it most-recently-used, or
// (nil, false) if absent.
func (t *Table) Get(peer net.Addr) (*Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	el, ok := t.entries[keyOf(peer)]
	if !ok {
		return nil, false
	}
	t.order.MoveToFront(el)
	return el.Value.(*tableEntry).session, true
}

// GetOrCreate returns the existing session for peer, or creates, inserts,
// and returns a new one via New(peer, now). Evicts the least-recently-used
// entry if inserting would exceed capacity.
func (t *Table) GetOrCreate(peer net.Addr, now time.Time) *Session {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := keyOf(peer)
	if el, ok := t.entries[key]; ok {
		t.order.MoveToFront(el)
		return el.Value.(*tableEntry).session
	}

	s := New(peer, now)
	el := t.order.PushFront(&tableEntry{key: key, session: s})
	t.entries[key] = el

	if t.order.Len() > t.cap {
		t.evictOldestLocked()
	}
	return s
}

// evictOldestLocked drops the least-recently-used session. Caller holds mu.
func (t *Table) evictOldestLocked() {
	back := t.order.Back()
	if back == nil {
		return
	}
	entry := back.Value.(*tableEntry)
	entry.session.AbandonHandshake()
	delete(t.entries, entry.key)
	t.order.Remove(back)
}

// Evict removes peer's session unconditionally, e.g. on an auth failure
// the kernel treats as terminal for that peer.
func (t *Table) Evict(peer net.Addr) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := keyOf(peer)
	el, ok := t.entries[key]
	if !ok {
		return
	}
	el.Value.(*tableEntry).session.AbandonHandshake()
	delete(t.entries, key)
	t.order.Remove(el)
}

// All returns a snapshot of every live session, most-recently-used first.
// The kernel uses this to walk sessions with outstanding egress work.
func (t *Table) All() []*Session {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]*Session, 0, t.order.Len())
	for el := t.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(*tableEntry).session)
	}
	return out
}

// Len returns the number of live sessions.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.order.Len()
}
