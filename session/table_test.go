package session

import (
	"net"
	"testing"
	"time"
)

func addr(s string) net.Addr {
	return &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: mustPort(s)}
}

func mustPort(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}

func TestGetOrCreateReturnsSameSession(t *testing.T) {
	tbl := NewTable(4)
	now := time.Now()
	a := addr("1")

	s1 := tbl.GetOrCreate(a, now)
	s2 := tbl.GetOrCreate(a, now)
	if s1 != s2 {
		t.Fatal("expected GetOrCreate to return the existing session on the second call")
	}
	if tbl.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", tbl.Len())
	}
}

func TestLRUEvictsOldestOnOverflow(t *testing.T) {
	tbl := NewTable(2)
	now := time.Now()

	tbl.GetOrCreate(addr("1"), now)
	tbl.GetOrCreate(addr("2"), now)
	tbl.GetOrCreate(addr("3"), now) // should evict peer 1

	if _, ok := tbl.Get(addr("1")); ok {
		t.Fatal("expected peer 1 to be evicted")
	}
	if _, ok := tbl.Get(addr("2")); !ok {
		t.Fatal("expected peer 2 to still be present")
	}
	if _, ok := tbl.Get(addr("3")); !ok {
		t.Fatal("expected peer 3 to still be present")
	}
	if tbl.Len() != 2 {
		t.Fatalf("expected table capped at 2, got %d", tbl.Len())
	}
}

func TestGetRefreshesRecency(t *testing.T) {
	tbl := NewTable(2)
	now := time.Now()

	tbl.GetOrCreate(addr("1"), now)
	tbl.GetOrCreate(addr("2"), now)
	tbl.Get(addr("1")) // touch 1, making 2 the LRU victim
	tbl.GetOrCreate(addr("3"), now)

	if _, ok := tbl.Get(addr("2")); ok {
		t.Fatal("expected peer 2 to be evicted after peer 1 was refreshed")
	}
	if _, ok := tbl.Get(addr("1")); !ok {
		t.Fatal("expected peer 1 to survive since it was touched")
	}
}

func TestEvictRemovesSession(t *testing.T) {
	tbl := NewTable(4)
	now := time.Now()
	a := addr("1")
	tbl.GetOrCreate(a, now)
	tbl.Evict(a)
	if _, ok := tbl.Get(a); ok {
		t.Fatal("expected session to be gone after Evict")
	}
}

func TestDefaultCapacityUsedWhenZero(t *testing.T) {
	tbl := NewTable(0)
	if tbl.cap != DefaultMaxSessions {
		t.Fatalf("expected default cap %d, got %d", DefaultMaxSessions, tbl.cap)
	}
}
