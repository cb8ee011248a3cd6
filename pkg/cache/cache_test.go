package cache

import (
	"context"
	"testing"
	"time"
)

func TestFileCacheRoundTrip(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if _, hit, _ := c.Get(ctx, "card:abc"); hit {
		t.Error("empty cache should miss")
	}
	if err := c.Set(ctx, "card:abc", []byte("payload"), time.Hour); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	data, hit, err := c.Get(ctx, "card:abc")
	if err != nil || !hit {
		t.Fatalf("Get() = hit=%v err=%v", hit, err)
	}
	if string(data) != "payload" {
		t.Errorf("data = %q", data)
	}

	if err := c.Delete(ctx, "card:abc"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, hit, _ := c.Get(ctx, "card:abc"); hit {
		t.Error("deleted key should miss")
	}
	// Deleting again is not an error.
	if err := c.Delete(ctx, "card:abc"); err != nil {
		t.Errorf("second Delete() error = %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), -time.Second); err != nil {
		t.Fatal(err)
	}
	// Negative ttl means no expiration.
	if _, hit, _ := c.Get(ctx, "k"); !hit {
		t.Error("non-positive ttl should mean no expiry")
	}

	if err := c.Set(ctx, "short", []byte("v"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "short"); hit {
		t.Error("expired entry should miss")
	}
}

func TestNullCacheNeverStores(t *testing.T) {
	c := NewNullCache()
	ctx := context.Background()
	if err := c.Set(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("null cache must always miss")
	}
}

func TestCardKeyStableAndDistinct(t *testing.T) {
	base := CardKeyOpts{ProfileHash: "p", EffectHash: "e", Format: "gif", FPS: 10, Duration: 2, Scale: 0.25}

	if CardKey(base) != CardKey(base) {
		t.Error("identical inputs must produce identical keys")
	}

	variants := []CardKeyOpts{base, base, base, base}
	variants[1].Format = "png"
	variants[2].EffectHash = "e2"
	variants[3].FPS = 20
	seen := map[string]bool{}
	for _, v := range variants[1:] {
		k := CardKey(v)
		if k == CardKey(base) || seen[k] {
			t.Errorf("key collision for %+v", v)
		}
		seen[k] = true
	}
}

func TestTTLFor(t *testing.T) {
	if TTLFor("gif") != TTLAnimation {
		t.Error("gif should use the animation ttl")
	}
	if TTLFor("svg") != TTLStill || TTLFor("png") != TTLStill {
		t.Error("stills should use the still ttl")
	}
}
