package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// ── 分布式互斥锁 ──
//
// SET NX PX 加锁，值为随机 token；释放时用 Lua 比较 token 后删除，
// 避免误删已过期后被他人重新持有的锁。

const lockPrefix = "lock:"

var releaseLockScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// TryLock 尝试加锁，成功返回持有 token
func (c *Client) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := c.rdb.SetNX(ctx, lockPrefix+key, token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

// Unlock 仅当 token 匹配时释放锁
func (c *Client) Unlock(ctx context.Context, key, token string) error {
	return releaseLockScript.Run(ctx, c.rdb, []string{lockPrefix + key}, token).Err()
}
