package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestDisabledLimiterAllows(t *testing.T) {
	tests := []struct {
		name    string
		limiter *RedisLimiter
	}{
		{name: "nil limiter", limiter: nil},
		{name: "no client", limiter: NewRedisLimiter(nil, "", 5, time.Minute)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, retry, err := tt.limiter.Allow(context.Background(), "login", "a@b.c")
			if err != nil || !ok || retry != 0 {
				t.Fatalf("Allow() = %v, %v, %v; want true, 0, nil", ok, retry, err)
			}
		})
	}
}

func TestNewRedisLimiterPrefix(t *testing.T) {
	if got := NewRedisLimiter(nil, " custom: ", 1, time.Second).prefix; got != "custom" {
		t.Errorf("prefix = %q, want custom", got)
	}
	if got := NewRedisLimiter(nil, "", 1, time.Second).prefix; got != "gym:rate_limit" {
		t.Errorf("prefix = %q, want default", got)
	}
}
