package shared

import (
	"strconv"

	"github.com/affiliate-engine/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ContextIDKeys 上下文主体 ID 的键与错误文案
type ContextIDKeys struct {
	Key         string
	InvalidKey  string
	TypeInvalid string
}

// AdminIDKeys 管理员身份
var AdminIDKeys = ContextIDKeys{Key: "admin_id", InvalidKey: "error.admin_id_invalid", TypeInvalid: "error.context_type_invalid"}

// UserIDKeys 终端用户身份
var UserIDKeys = ContextIDKeys{Key: "user_id", InvalidKey: "error.user_id_invalid", TypeInvalid: "error.user_id_type_invalid"}

// RequireContextID 读取中间件写入的主体 ID，失败时已写出响应
func RequireContextID(c *gin.Context, keys ContextIDKeys) (uint, bool) {
	value, exists := c.Get(keys.Key)
	if !exists {
		RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return 0, false
	}
	id, valid, known := contextUint(value)
	if !known {
		RespondError(c, response.CodeInternal, keys.TypeInvalid, nil)
		return 0, false
	}
	if !valid {
		RespondError(c, response.CodeBadRequest, keys.InvalidKey, nil)
		return 0, false
	}
	return id, true
}

// contextUint 返回 (值, 是否为正数, 类型是否可识别)
func contextUint(value interface{}) (uint, bool, bool) {
	switch v := value.(type) {
	case uint:
		return v, v > 0, true
	case uint64:
		return uint(v), v > 0, true
	case int:
		return uint(v), v > 0, true
	case int64:
		return uint(v), v > 0, true
	case float64:
		return uint(v), v >= 1, true
	case string:
		parsed, err := strconv.ParseUint(v, 10, 64)
		return uint(parsed), err == nil && parsed > 0, true
	default:
		return 0, false, false
	}
}
