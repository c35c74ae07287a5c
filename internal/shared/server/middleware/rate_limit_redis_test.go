package middleware

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisLimiter(t *testing.T) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisLimiter(client, "test:ratelimit"), mr
}

func TestRedisLimiterCountsWithinWindow(t *testing.T) {
	limiter, _ := newRedisLimiter(t)
	rule := RateLimitRule{Max: 3, Window: time.Minute}

	for i := 0; i < 3; i++ {
		if allowed, _ := limiter.Allow("u1|general", rule); !allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	allowed, retryAfter := limiter.Allow("u1|general", rule)
	if allowed {
		t.Fatal("fourth request should be denied")
	}
	if retryAfter <= 0 || retryAfter > time.Minute {
		t.Fatalf("unexpected retry-after: %v", retryAfter)
	}
}

func TestRedisLimiterSeparateKeys(t *testing.T) {
	limiter, _ := newRedisLimiter(t)
	rule := RateLimitRule{Max: 1, Window: time.Minute}

	if allowed, _ := limiter.Allow("u1|ai", rule); !allowed {
		t.Fatal("u1 first request should be allowed")
	}
	if allowed, _ := limiter.Allow("u1|ai", rule); allowed {
		t.Fatal("u1 second request should be denied")
	}
	if allowed, _ := limiter.Allow("u2|ai", rule); !allowed {
		t.Fatal("u2 must not share u1's counter")
	}
}

func TestRedisLimiterFailsClosedWhenRedisDown(t *testing.T) {
	limiter, mr := newRedisLimiter(t)
	mr.Close()

	allowed, retryAfter := limiter.Allow("u1|general", RateLimitRule{Max: 10, Window: time.Minute})
	if allowed {
		t.Fatal("expected denial when redis is unreachable")
	}
	if retryAfter != time.Minute {
		t.Fatalf("expected full-window retry-after, got %v", retryAfter)
	}
}

func TestRedisLimiterKeyExpires(t *testing.T) {
	limiter, mr := newRedisLimiter(t)
	rule := RateLimitRule{Max: 1, Window: 50 * time.Millisecond}

	if allowed, _ := limiter.Allow("u1|general", rule); !allowed {
		t.Fatal("first request should be allowed")
	}
	// fast-forward past the window; miniredis expires the counter key
	mr.FastForward(time.Second)
	time.Sleep(60 * time.Millisecond)
	if allowed, _ := limiter.Allow("u1|general", rule); !allowed {
		t.Fatal("request in the next window should be allowed")
	}
}
