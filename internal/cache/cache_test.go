package cache

import (
	"context"
	"testing"
	"time"

	"BitcoinAdvisor/internal/model"
)

func sampleObs() []model.Observation {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return []model.Observation{
		{Time: base, Price: 42000},
		{Time: base.Add(24 * time.Hour), Price: 43000, Volume: 5},
	}
}

func TestKey(t *testing.T) {
	if got := Key("BTC-USD", model.Period1Y); got != "series:BTC-USD:1y" {
		t.Errorf("Key = %q", got)
	}
}

func TestMemoryCache_SetGet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute)

	if _, ok, _ := c.Get(ctx, "BTC-USD", model.Period1Y); ok {
		t.Fatal("expected miss on empty cache")
	}
	if err := c.Set(ctx, "BTC-USD", model.Period1Y, sampleObs()); err != nil {
		t.Fatal(err)
	}
	got, ok, err := c.Get(ctx, "BTC-USD", model.Period1Y)
	if err != nil || !ok {
		t.Fatalf("expected hit, ok=%v err=%v", ok, err)
	}
	if len(got) != 2 || got[1].Price != 43000 {
		t.Errorf("unexpected cached series %+v", got)
	}
	if _, ok, _ := c.Get(ctx, "BTC-USD", model.Period6M); ok {
		t.Error("different period must miss")
	}
}

func TestMemoryCache_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute)
	obs := sampleObs()
	c.Set(ctx, "BTC-USD", model.Period1Y, obs)
	obs[0].Price = 1

	got, _, _ := c.Get(ctx, "BTC-USD", model.Period1Y)
	got[1].Price = 2
	again, _, _ := c.Get(ctx, "BTC-USD", model.Period1Y)
	if again[0].Price != 42000 || again[1].Price != 43000 {
		t.Errorf("cache shares memory with callers: %+v", again)
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	c.Set(ctx, "BTC-USD", model.Period1Y, sampleObs())

	now = now.Add(2 * time.Minute)
	if _, ok, _ := c.Get(ctx, "BTC-USD", model.Period1Y); ok {
		t.Error("expected expired entry to miss")
	}
}

func TestOpen_FallsBackToMemory(t *testing.T) {
	if c := Open(RedisConfig{TTL: time.Minute}); c.Name() != "memory" {
		t.Errorf("empty addr: got %s", c.Name())
	}
	if c := Open(RedisConfig{Addr: "127.0.0.1:1", TTL: time.Minute}); c.Name() != "memory" {
		t.Errorf("unreachable redis: got %s", c.Name())
	}
}
