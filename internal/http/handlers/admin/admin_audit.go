package admin

import (
	"strconv"
	"strings"
	"time"

	handlershared "github.com/affiliate-engine/internal/http/handlers/shared"
	"github.com/affiliate-engine/internal/http/response"
	"github.com/affiliate-engine/internal/models"
	"github.com/affiliate-engine/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListAuditLogs 查询后台操作审计日志
func (h *Handler) ListAuditLogs(c *gin.Context) {
	limit, offset := handlershared.ParseLimitOffset(c)
	filter := repository.AdminAuditLogFilter{
		AdminID:    parseQueryUint(c, "admin_id"),
		Action:     strings.TrimSpace(c.Query("action")),
		TargetType: strings.TrimSpace(c.Query("target_type")),
		TargetID:   parseQueryUint(c, "target_id"),
		Limit:      limit,
		Offset:     offset,
	}
	var ok bool
	if filter.From, ok = parseQueryDate(c, "start_date", false); !ok {
		respondError(c, response.CodeBadRequest, "error.date_range_invalid", nil)
		return
	}
	if filter.To, ok = parseQueryDate(c, "end_date", true); !ok {
		respondError(c, response.CodeBadRequest, "error.date_range_invalid", nil)
		return
	}
	rows, total, err := h.AuditService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.List(c, "logs", rows, total)
}

func parseQueryUint(c *gin.Context, key string) uint {
	value, err := strconv.ParseUint(strings.TrimSpace(c.Query(key)), 10, 64)
	if err != nil {
		return 0
	}
	return uint(value)
}

// parseQueryDate 解析 YYYY-MM-DD；endOfDay 为 true 时取当天最后一刻
func parseQueryDate(c *gin.Context, key string, endOfDay bool) (*time.Time, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, true
	}
	day, err := time.Parse(models.StatDateLayout, raw)
	if err != nil {
		return nil, false
	}
	if endOfDay {
		day = day.Add(24*time.Hour - time.Nanosecond)
	}
	return &day, true
}
