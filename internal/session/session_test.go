package session

import (
	"context"
	"fmt"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
)

func newRedisTestStore(t *testing.T) *RedisStore {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(func() { mr.Close() })
	s, err := NewRedisStore(fmt.Sprintf("redis://%s/0", mr.Addr()))
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRedisStoreRoundtrip(t *testing.T) {
	s := newRedisTestStore(t)
	ctx := context.Background()

	sid, err := NewSID()
	if err != nil {
		t.Fatalf("NewSID: %v", err)
	}
	data := NewData()
	if data.UserUUID == "" || data.Username == "" {
		t.Fatalf("NewData produced empty identity: %+v", data)
	}

	if err := s.Put(ctx, sid, data); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get(ctx, sid)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.UserUUID != data.UserUUID || got.Username != data.Username {
		t.Fatalf("roundtrip mismatch: %+v vs %+v", got, data)
	}
}

func TestRedisStoreMissingSession(t *testing.T) {
	s := newRedisTestStore(t)
	got, err := s.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Fatalf("missing session should resolve to nil, got %+v", got)
	}
}

func TestMemoryStore(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	if got, err := m.Get(ctx, "nope"); err != nil || got != nil {
		t.Fatalf("missing session: got %+v, err %v", got, err)
	}

	data := NewData()
	if err := m.Put(ctx, "sid1", data); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := m.Get(ctx, "sid1")
	if err != nil || got == nil || got.UserUUID != data.UserUUID {
		t.Fatalf("roundtrip: got %+v, err %v", got, err)
	}

	// returned values are copies
	got.Username = "tampered"
	again, _ := m.Get(ctx, "sid1")
	if again.Username != data.Username {
		t.Fatalf("store leaked mutable state")
	}
}

func TestNewSIDUnique(t *testing.T) {
	a, err := NewSID()
	if err != nil {
		t.Fatalf("NewSID: %v", err)
	}
	b, err := NewSID()
	if err != nil {
		t.Fatalf("NewSID: %v", err)
	}
	if a == b || len(a) != 32 {
		t.Fatalf("sids a=%q b=%q", a, b)
	}
}
