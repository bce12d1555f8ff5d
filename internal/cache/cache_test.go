package cache

import (
	"log/slog"
	"os"
	"testing"
	"time"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	c, err := New(t.TempDir(), logger)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestSetGetRoundTrip(t *testing.T) {
	c := newTestCache(t)

	in := payload{Name: "Earth", Count: 3}
	if err := c.Set("planet_data_Earth", in, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	var out payload
	if err := c.Get("planet_data_Earth", &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if out != in {
		t.Errorf("got %+v, want %+v", out, in)
	}
}

func TestGetMissing(t *testing.T) {
	c := newTestCache(t)

	var out payload
	if err := c.Get("absent", &out); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSetOverwrites(t *testing.T) {
	c := newTestCache(t)

	if err := c.Set("k", payload{Name: "old"}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := c.Set("k", payload{Name: "new"}, time.Minute); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	var out payload
	if err := c.Get("k", &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if out.Name != "new" {
		t.Errorf("got %q, want new", out.Name)
	}
}

func TestDelete(t *testing.T) {
	c := newTestCache(t)

	if err := c.Set("k", payload{Name: "Earth"}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := c.Delete("k"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var out payload
	if err := c.Get("k", &out); err != ErrNotFound {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	// Deleting again is fine.
	if err := c.Delete("k"); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

func TestTTLExpiry(t *testing.T) {
	c := newTestCache(t)

	if err := c.Set("k", payload{Name: "Earth"}, 50*time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}

	ok, err := c.Has("k")
	if err != nil {
		t.Fatalf("has: %v", err)
	}
	if !ok {
		t.Fatal("expected live entry before expiry")
	}

	time.Sleep(100 * time.Millisecond)

	ok, err = c.Has("k")
	if err != nil {
		t.Fatalf("has after expiry: %v", err)
	}
	if ok {
		t.Error("expected entry to expire")
	}
}

func TestPlanetKey(t *testing.T) {
	if got := PlanetKey("Earth"); got != "planet_data_Earth" {
		t.Errorf("PlanetKey = %q", got)
	}
}
