package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/geotours/tourhub/internal/cache"
)

func TestMemoryGetSetDelete(t *testing.T) {
	ctx := context.Background()

	c := cache.NewMemory(time.Minute)

	if _, ok := c.Get(ctx, "missing"); ok {
		t.Fatal("got a value for a missing key")
	}

	c.Set(ctx, "k", []byte("v"))

	got, ok := c.Get(ctx, "k")

	if !ok || string(got) != "v" {
		t.Fatalf("get = %q/%v, want v/true", got, ok)
	}

	c.Delete(ctx, "k")

	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatal("value survived delete")
	}
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()

	c := cache.NewMemory(10 * time.Millisecond)

	c.Set(ctx, "k", []byte("v"))

	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatal("value survived past its ttl")
	}
}
