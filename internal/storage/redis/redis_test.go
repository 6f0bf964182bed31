package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestNew_UnreachableServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(t.Context(), 2*time.Second)
	defer cancel()

	if _, err := New(ctx, Options{Addr: "127.0.0.1:1"}); err == nil {
		t.Fatal("expected error for unreachable Redis")
	}
}

func TestKeyPrefix(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()

	s := NewWithClient(client, "diet-planner:")
	if got := s.key("diet-planner-v1"); got != "diet-planner:diet-planner-v1" {
		t.Errorf("key = %q", got)
	}
}
