package admin

import (
	"strings"

	handlershared "github.com/affiliate-engine/internal/http/handlers/shared"
	"github.com/affiliate-engine/internal/http/response"
	"github.com/affiliate-engine/internal/repository"
	"github.com/affiliate-engine/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// UpdateAffiliateRequest 后台更新推广用户请求
type UpdateAffiliateRequest struct {
	CommissionRate *decimal.Decimal `json:"commission_rate"`
	RateOverride   *bool            `json:"rate_override"`
	Status         *string          `json:"status"`
}

// GetAffiliateSettings 获取推广计划设置
func (h *Handler) GetAffiliateSettings(c *gin.Context) {
	setting, err := h.SettingService.GetAffiliateSetting()
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, setting)
}

// UpdateAffiliateSettings 更新推广计划设置
func (h *Handler) UpdateAffiliateSettings(c *gin.Context) {
	var req service.AffiliateSetting
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	setting, err := h.SettingService.UpdateAffiliateSetting(req)
	if err != nil {
		respondAdminAffiliateError(c, err)
		return
	}
	requestLog(c).Infow("admin_affiliate_settings_updated",
		"admin_id", currentAdminID(c),
		"setting", service.AffiliateSettingToMap(setting),
	)
	h.audit(c, service.AuditSettingsUpdated, "setting", 0, service.AffiliateSettingToMap(setting))
	response.Success(c, setting)
}

// ResetAffiliateSettings 恢复默认推广计划设置
func (h *Handler) ResetAffiliateSettings(c *gin.Context) {
	setting, err := h.SettingService.ResetAffiliateSetting()
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	requestLog(c).Infow("admin_affiliate_settings_reset", "admin_id", currentAdminID(c))
	h.audit(c, service.AuditSettingsReset, "setting", 0, nil)
	response.Success(c, setting)
}

// ListAffiliates 后台推广用户列表
func (h *Handler) ListAffiliates(c *gin.Context) {
	limit, offset := handlershared.ParseLimitOffset(c)
	rows, total, err := h.AffiliateService.ListAffiliates(repository.AffiliateListFilter{
		Status:  strings.TrimSpace(c.Query("status")),
		Keyword: strings.TrimSpace(c.Query("keyword")),
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		respondAdminAffiliateError(c, err)
		return
	}
	response.List(c, "affiliates", rows, total)
}

// UpdateAffiliate 后台调整推广用户佣金比例或状态
func (h *Handler) UpdateAffiliate(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	var req UpdateAffiliateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	affiliate, err := h.AffiliateService.UpdateAffiliate(id, service.UpdateAffiliateInput{
		CommissionRate: req.CommissionRate,
		RateOverride:   req.RateOverride,
		Status:         req.Status,
	})
	if err != nil {
		respondAdminAffiliateError(c, err)
		return
	}
	requestLog(c).Infow("admin_affiliate_updated", "admin_id", currentAdminID(c), "affiliate_id", id)
	h.audit(c, service.AuditAffiliateUpdated, "affiliate", id, map[string]interface{}{
		"commission_rate": affiliate.CommissionRate.String(),
		"rate_override":   affiliate.RateOverride,
		"status":          affiliate.Status,
	})
	response.Success(c, gin.H{"affiliate": affiliate})
}

// GetAffiliateStats 查看推广用户日统计
func (h *Handler) GetAffiliateStats(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	report, err := h.StatsService.DailyStats(id, service.AnalyticsQuery{
		Period:    c.Query("period"),
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
	})
	if err != nil {
		respondAdminAffiliateError(c, err)
		return
	}
	response.Success(c, report)
}
