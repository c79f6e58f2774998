package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var clickGuardScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// AllowAffiliateClick 按 IP 统计窗口内点击次数，超过上限返回 false；未启用 Redis 时始终放行
func AllowAffiliateClick(ctx context.Context, ip string, window time.Duration, maxClicks int) (bool, error) {
	ip = strings.TrimSpace(ip)
	if !Enabled() || ip == "" || window <= 0 || maxClicks <= 0 {
		return true, nil
	}
	seconds := int(window / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	key := buildKey(fmt.Sprintf("affiliate:click_guard:%s", ip))
	count, err := clickGuardScript.Run(ctx, redisClient, []string{key}, seconds).Int64()
	if err != nil {
		return true, err
	}
	return count <= int64(maxClicks), nil
}
