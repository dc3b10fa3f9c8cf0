package middleware

import (
	"testing"
	"time"
)

func TestRateLimiterEvictsIdleKeys(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Requests: 5, Window: time.Minute, EntryTTL: time.Minute})

	first := rl.getLimiter("business:a")
	if again := rl.getLimiter("business:a"); again != first {
		t.Fatalf("expected the same limiter for one key")
	}
	rl.getLimiter("business:b")
	if rl.Size() != 2 {
		t.Fatalf("expected 2 keys, got %d", rl.Size())
	}

	rl.cleanup(time.Now().Add(2 * time.Minute))
	if rl.Size() != 0 {
		t.Fatalf("expected idle keys to be evicted, got %d", rl.Size())
	}
}

func TestRateLimiterBurstMatchesRequests(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Requests: 3, Window: time.Hour})
	l := rl.getLimiter("ip:127.0.0.1")
	for i := 0; i < 3; i++ {
		if !l.Allow() {
			t.Fatalf("expected request %d to pass", i+1)
		}
	}
	if l.Allow() {
		t.Fatalf("expected the fourth request to be limited")
	}
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":  "abc",
		"bearer  abc": "abc",
		"Basic abc":   "",
		"Bearer":      "",
		"":            "",
	}
	for header, want := range cases {
		if got := bearerToken(header); got != want {
			t.Fatalf("bearerToken(%q): expected %q, got %q", header, want, got)
		}
	}
}
