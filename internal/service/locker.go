package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	pkgerrors "course-planner/pkg/errors"
)

// Locker 按 key 互斥（同一时间表的写操作串行，不同时间表互不等待）
type Locker interface {
	// Lock 阻塞直到取得锁或 ctx 结束，返回释放函数
	Lock(ctx context.Context, key string) (func(), error)
}

// ════════════════════════════════════════════════════════════
// 进程内实现（Redis 不可用时降级使用）
// ════════════════════════════════════════════════════════════

type keyedLock struct {
	ch   chan struct{}
	refs int
}

type localLocker struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

// NewLocalLocker 创建进程内按 key 互斥锁
func NewLocalLocker() Locker {
	return &localLocker{locks: make(map[string]*keyedLock)}
}

func (l *localLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyedLock{ch: make(chan struct{}, 1)}
		l.locks[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	select {
	case kl.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-kl.ch
				l.release(key, kl)
			})
		}, nil
	case <-ctx.Done():
		l.release(key, kl)
		return nil, ctx.Err()
	}
}

func (l *localLocker) release(key string, kl *keyedLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, key)
	}
}

// ════════════════════════════════════════════════════════════
// Redis 实现
// ════════════════════════════════════════════════════════════

// LockClient Redis 锁原语（pkg/redis.Client 实现）
type LockClient interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Unlock(ctx context.Context, key, token string) error
}

type redisLocker struct {
	client LockClient
	ttl    time.Duration
	wait   time.Duration
	logger *zap.Logger
}

const (
	lockRetryMin = 20 * time.Millisecond
	lockRetryMax = 200 * time.Millisecond
)

// NewRedisLocker 创建基于 Redis 的互斥锁；wait 内未取得锁返回 ErrLockNotAcquired
func NewRedisLocker(client LockClient, ttl, wait time.Duration, logger *zap.Logger) Locker {
	return &redisLocker{client: client, ttl: ttl, wait: wait, logger: logger}
}

func (l *redisLocker) Lock(ctx context.Context, key string) (func(), error) {
	deadline := time.Now().Add(l.wait)
	backoff := lockRetryMin

	for {
		token, ok, err := l.client.TryLock(ctx, key, l.ttl)
		if err != nil {
			return nil, fmt.Errorf("获取锁失败: %w", err)
		}
		if ok {
			return func() {
				// 请求 ctx 可能已取消，释放使用独立超时
				releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				if err := l.client.Unlock(releaseCtx, key, token); err != nil {
					l.logger.Warn("释放锁失败", zap.String("key", key), zap.Error(err))
				}
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, pkgerrors.ErrLockNotAcquired
		}

		timer := time.NewTimer(backoff)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
		if backoff *= 2; backoff > lockRetryMax {
			backoff = lockRetryMax
		}
	}
}
