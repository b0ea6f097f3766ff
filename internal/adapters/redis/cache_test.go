package redisad_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"

	redisad "volcano_camping/internal/adapters/redis"
	"volcano_camping/internal/domain"
)

func newCache(t *testing.T) (*redisad.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestCache_SetGetRoundTripsDates(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	d, _ := domain.ParseDate("2026-10-20")
	if err := c.Set(ctx, "availability:a:b", []domain.Date{d, d.AddDays(1)}, 30); err != nil {
		t.Fatalf("set: %v", err)
	}
	if ttl := mr.TTL("availability:a:b"); ttl.Seconds() != 30 {
		t.Fatalf("ttl = %v", ttl)
	}

	var got []domain.Date
	ok, err := c.Get(ctx, "availability:a:b", &got)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if len(got) != 2 || got[1].String() != "2026-10-21" {
		t.Fatalf("unexpected: %v", got)
	}
}

func TestCache_MissIsNotAnError(t *testing.T) {
	c, _ := newCache(t)
	var got []domain.Date
	ok, err := c.Get(context.Background(), "nope", &got)
	if ok || err != nil {
		t.Fatalf("expected clean miss, ok=%v err=%v", ok, err)
	}
}

func TestCache_DelPrefix(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()
	for _, k := range []string{"availability:1", "availability:2", "other:1"} {
		if err := c.Set(ctx, k, []string{"x"}, 60); err != nil {
			t.Fatalf("set %s: %v", k, err)
		}
	}
	if err := c.DelPrefix(ctx, "availability:"); err != nil {
		t.Fatalf("DelPrefix: %v", err)
	}
	if mr.Exists("availability:1") || mr.Exists("availability:2") {
		t.Fatalf("prefixed keys should be gone")
	}
	if !mr.Exists("other:1") {
		t.Fatalf("unrelated key must survive")
	}
}
