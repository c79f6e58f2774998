package admin

import (
	handlershared "github.com/affiliate-engine/internal/http/handlers/shared"
	"github.com/affiliate-engine/internal/provider"
	"github.com/affiliate-engine/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 推广后台接口
type Handler struct {
	*provider.Container
}

// New 创建后台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

// audit 记录后台操作审计，写入失败只记日志不影响响应
func (h *Handler) audit(c *gin.Context, action, targetType string, targetID uint, detail map[string]interface{}) {
	err := h.AuditService.Record(service.AuditEntry{
		AdminID:    currentAdminID(c),
		Username:   currentUsername(c),
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		RequestID:  c.GetString("request_id"),
		Detail:     detail,
	})
	if err != nil {
		requestLog(c).Warnw("admin_audit_record_failed", "action", action, "error", err)
	}
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}
