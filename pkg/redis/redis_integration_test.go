//go:build integration

package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"course-planner/config"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	c, err := NewClient(&config.RedisConfig{Addr: addr, DB: 15}, zap.NewNop())
	if err != nil {
		t.Skipf("Redis 不可用: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestLock_ExclusiveAndTokenChecked(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	key := "test:timetable:" + time.Now().Format(time.RFC3339Nano)

	token, ok, err := c.TryLock(ctx, key, 5*time.Second)
	if err != nil || !ok {
		t.Fatalf("首次加锁应成功: ok=%v err=%v", ok, err)
	}
	if _, ok, _ := c.TryLock(ctx, key, 5*time.Second); ok {
		t.Fatal("锁被持有时不应再次加锁成功")
	}
	// 错误 token 不能释放
	if err := c.Unlock(ctx, key, "other"); err != nil {
		t.Fatalf("Unlock 不应报错: %v", err)
	}
	if _, ok, _ := c.TryLock(ctx, key, 5*time.Second); ok {
		t.Fatal("错误 token 不应释放锁")
	}
	if err := c.Unlock(ctx, key, token); err != nil {
		t.Fatalf("Unlock 失败: %v", err)
	}
	if _, ok, _ := c.TryLock(ctx, key, time.Second); !ok {
		t.Error("释放后应可再次加锁")
	}
}

func TestCache_JSONRoundTrip(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	type payload struct{ Year, Semester int }
	var got payload
	hit, err := c.GetJSON(ctx, "test:missing", &got)
	if err != nil || hit {
		t.Fatalf("未命中应返回 false，hit=%v err=%v", hit, err)
	}
	if err := c.SetJSON(ctx, "test:book", payload{2024, 3}, time.Minute); err != nil {
		t.Fatalf("SetJSON 失败: %v", err)
	}
	hit, err = c.GetJSON(ctx, "test:book", &got)
	if err != nil || !hit || got.Year != 2024 {
		t.Errorf("期望命中 2024，hit=%v got=%+v err=%v", hit, got, err)
	}

	if err := c.DeleteJSON(ctx, "test:book", "test:missing"); err != nil {
		t.Fatalf("DeleteJSON 失败: %v", err)
	}
	if hit, _ := c.GetJSON(ctx, "test:book", &got); hit {
		t.Error("删除后不应命中")
	}
}

func TestCheckRateLimit(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	key := "test:rate:" + time.Now().Format(time.RFC3339Nano)

	for i := 0; i < 3; i++ {
		ok, err := c.CheckRateLimit(ctx, key, 3, time.Minute)
		if err != nil || !ok {
			t.Fatalf("第 %d 次请求应放行: ok=%v err=%v", i+1, ok, err)
		}
	}
	if ok, _ := c.CheckRateLimit(ctx, key, 3, time.Minute); ok {
		t.Error("超过上限应被拒绝")
	}
}
