package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/affiliate-engine/internal/http/response"
	"github.com/affiliate-engine/internal/i18n"
	"github.com/affiliate-engine/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimitKeyFunc 生成限流 key 的函数
type RateLimitKeyFunc func(*gin.Context) string

// RateLimitRule 限流规则；BlockSeconds > 0 时超限后封禁该 key 一段时间
type RateLimitRule struct {
	Prefix        string
	WindowSeconds int
	MaxRequests   int
	BlockSeconds  int
	MessageKey    string
}

// KEYS[1] 计数 key，KEYS[2] 封禁 key；ARGV: 窗口秒数、上限、封禁秒数
var rateLimitScript = redis.NewScript(`
local blocked = redis.call("TTL", KEYS[2])
if blocked > 0 then
	return {-1, blocked}
end
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
local limit = tonumber(ARGV[2])
local block = tonumber(ARGV[3])
if current > limit and block > 0 then
	redis.call("SET", KEYS[2], "1", "EX", block)
	redis.call("DEL", KEYS[1])
	return {current, block}
end
local ttl = redis.call("TTL", KEYS[1])
return {current, ttl}
`)

// rateLimitDecision 单次限流判定结果
type rateLimitDecision struct {
	Allowed     bool
	WaitSeconds int
}

// RateLimitMiddleware Redis 频率限制中间件；未配置 Redis 时直接放行
func RateLimitMiddleware(client *redis.Client, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	if keyFunc == nil {
		keyFunc = KeyByIP
	}
	messageKey := strings.TrimSpace(rule.MessageKey)
	if messageKey == "" {
		messageKey = "error.too_many_requests"
	}
	enabled := client != nil && rule.WindowSeconds > 0 && rule.MaxRequests > 0

	return func(c *gin.Context) {
		if !enabled {
			c.Next()
			return
		}
		key := strings.TrimSpace(keyFunc(c))
		if key == "" {
			key = c.ClientIP()
		}
		if rule.Prefix != "" {
			key = rule.Prefix + ":" + key
		}

		decision, err := evaluateRateLimit(c.Request.Context(), client, rule, key)
		locale := i18n.ResolveLocale(c)
		switch {
		case err != nil:
			logger.Warnw("rate_limit_eval_failed", "key", key, "error", err)
			response.Error(c, response.CodeInternal, i18n.T(locale, "error.rate_limit_unavailable"))
			c.Abort()
		case !decision.Allowed:
			logger.Infow("rate_limit_rejected", "key", key, "wait_seconds", decision.WaitSeconds)
			response.Error(c, response.CodeTooManyRequests, i18n.Sprintf(locale, messageKey, decision.WaitSeconds))
			c.Abort()
		default:
			c.Next()
		}
	}
}

func evaluateRateLimit(ctx context.Context, client *redis.Client, rule RateLimitRule, key string) (rateLimitDecision, error) {
	keys := []string{key, key + ":blocked"}
	result, err := rateLimitScript.Run(ctx, client, keys, rule.WindowSeconds, rule.MaxRequests, rule.BlockSeconds).Result()
	if err != nil {
		return rateLimitDecision{}, err
	}
	return parseRateLimitResult(result, rule)
}

// parseRateLimitResult 解析脚本返回的 {计数, 剩余秒数}；计数为 -1 表示处于封禁期
func parseRateLimitResult(result interface{}, rule RateLimitRule) (rateLimitDecision, error) {
	values, ok := result.([]interface{})
	if !ok || len(values) != 2 {
		return rateLimitDecision{}, fmt.Errorf("rate limit script returned %T", result)
	}
	count, ok := toInt64(values[0])
	if !ok {
		return rateLimitDecision{}, fmt.Errorf("rate limit count is %T", values[0])
	}
	if count >= 0 && count <= int64(rule.MaxRequests) {
		return rateLimitDecision{Allowed: true}, nil
	}
	ttl, _ := toInt64(values[1])
	return rateLimitDecision{WaitSeconds: resolveWaitSeconds(ttl, rule)}, nil
}

// resolveWaitSeconds 优先使用 Redis 剩余 TTL，缺失时按封禁时长、窗口时长兜底
func resolveWaitSeconds(ttlSeconds int64, rule RateLimitRule) int {
	for _, candidate := range []int{int(ttlSeconds), rule.BlockSeconds, rule.WindowSeconds} {
		if candidate > 0 {
			return candidate
		}
	}
	return 1
}

// KeyByIP 使用 IP 作为限流 key
func KeyByIP(c *gin.Context) string {
	return c.ClientIP()
}

// KeyByUserID 使用登录用户 ID 作为限流 key，未登录时回退到 IP
func KeyByUserID(c *gin.Context) string {
	if value, ok := c.Get("user_id"); ok {
		if userID, ok := value.(uint); ok && userID > 0 {
			return fmt.Sprintf("user:%d", userID)
		}
	}
	return c.ClientIP()
}

// KeyByIPAndJSONField 使用 IP + JSON 字段作为限流 key
func KeyByIPAndJSONField(field string) RateLimitKeyFunc {
	return func(c *gin.Context) string {
		value := strings.ToLower(strings.TrimSpace(readJSONField(c, field)))
		if value == "" {
			return c.ClientIP()
		}
		return fmt.Sprintf("%s|%s", value, c.ClientIP())
	}
}

// readJSONField 读取 JSON 请求体的字符串字段，读取后还原请求体
func readJSONField(c *gin.Context, field string) string {
	if c == nil || c.Request == nil || c.Request.Body == nil {
		return ""
	}
	body, err := c.GetRawData()
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil || len(body) == 0 {
		return ""
	}
	var payload map[string]interface{}
	if json.Unmarshal(body, &payload) != nil {
		return ""
	}
	text, _ := payload[field].(string)
	return strings.TrimSpace(text)
}

func toInt64(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return parsed, err == nil
	default:
		return 0, false
	}
}
