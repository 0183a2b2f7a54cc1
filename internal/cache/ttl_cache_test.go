package cache

import (
	"testing"
	"time"
)

func TestSetGetDelete(t *testing.T) {
	c := NewTTLCache[string, string](time.Minute)

	c.Set("invoice:1", "<html>")
	if got, ok := c.Get("invoice:1"); !ok || got != "<html>" {
		t.Fatalf("Get = %q, %v", got, ok)
	}

	c.Delete("invoice:1")
	if _, ok := c.Get("invoice:1"); ok {
		t.Fatal("entry should be gone after Delete")
	}
}

func TestExpiry(t *testing.T) {
	c := NewTTLCache[string, int](10 * time.Millisecond)

	c.Set("k", 1)
	time.Sleep(25 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatal("entry should have expired")
	}
	if c.Len() != 0 {
		t.Fatalf("len = %d, want 0 after lazy sweep", c.Len())
	}
}

func TestZeroTTLNeverExpires(t *testing.T) {
	c := NewTTLCache[string, int](0)

	c.Set("k", 1)
	time.Sleep(5 * time.Millisecond)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("zero-ttl entry should persist")
	}
}

func TestMiss(t *testing.T) {
	c := NewTTLCache[string, int](time.Minute)
	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss")
	}
}
