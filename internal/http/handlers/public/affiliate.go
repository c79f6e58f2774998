package public

import (
	"strconv"
	"strings"

	"github.com/affiliate-engine/internal/constants"
	handlershared "github.com/affiliate-engine/internal/http/handlers/shared"
	"github.com/affiliate-engine/internal/http/response"
	"github.com/affiliate-engine/internal/models"
	"github.com/affiliate-engine/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CreateAffiliateLinkRequest 创建推广链接请求
type CreateAffiliateLinkRequest struct {
	Alias       string `json:"alias"`
	UTMSource   string `json:"utm_source"`
	UTMMedium   string `json:"utm_medium"`
	UTMCampaign string `json:"utm_campaign"`
}

// UpdateAffiliateLinkRequest 更新推广链接请求
type UpdateAffiliateLinkRequest struct {
	Alias    *string `json:"alias"`
	IsActive *bool   `json:"is_active"`
}

// AffiliatePayoutRequest 提现申请请求
type AffiliatePayoutRequest struct {
	Amount        decimal.Decimal                     `json:"amount"`
	Method        string                              `json:"method" binding:"required"`
	PayoutDetails map[string]interface{}              `json:"payout_details"`
	Captcha       handlershared.CaptchaPayloadRequest `json:"captcha_payload"`
}

// CreateAffiliate 开通推广账户（已开通时直接返回）
func (h *Handler) CreateAffiliate(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	affiliate, err := h.AffiliateService.CreateOrGetAffiliate(uid)
	if err != nil {
		respondAffiliateError(c, err)
		return
	}
	response.Success(c, gin.H{"affiliate": affiliate})
}

// GetAffiliateDashboard 推广看板
func (h *Handler) GetAffiliateDashboard(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	dashboard, err := h.AffiliateService.GetDashboard(uid)
	if err != nil {
		respondAffiliateError(c, err)
		return
	}
	response.Success(c, dashboard)
}

// CreateAffiliateLink 创建推广链接
func (h *Handler) CreateAffiliateLink(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CreateAffiliateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	link, err := h.AffiliateService.CreateLink(uid, service.CreateLinkInput{
		Alias:       req.Alias,
		UTMSource:   req.UTMSource,
		UTMMedium:   req.UTMMedium,
		UTMCampaign: req.UTMCampaign,
	})
	if err != nil {
		respondAffiliateLinkError(c, err)
		return
	}
	response.Created(c, gin.H{"link": link})
}

// ListAffiliateLinks 推广链接列表
func (h *Handler) ListAffiliateLinks(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	links, err := h.AffiliateService.ListLinks(uid)
	if err != nil {
		respondAffiliateLinkError(c, err)
		return
	}
	response.Success(c, gin.H{"links": links})
}

// UpdateAffiliateLink 更新推广链接别名或启用状态
func (h *Handler) UpdateAffiliateLink(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	linkID, ok := handlershared.ParseUintParam(c, "linkId")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	var req UpdateAffiliateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	link, err := h.AffiliateService.UpdateLink(uid, linkID, service.UpdateLinkInput{
		Alias:    req.Alias,
		IsActive: req.IsActive,
	})
	if err != nil {
		respondAffiliateLinkError(c, err)
		return
	}
	response.Success(c, gin.H{"link": link})
}

// DeleteAffiliateLink 停用推广链接（默认链接不可停用）
func (h *Handler) DeleteAffiliateLink(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	linkID, ok := handlershared.ParseUintParam(c, "linkId")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	if err := h.AffiliateService.DeactivateLink(uid, linkID); err != nil {
		respondAffiliateLinkError(c, err)
		return
	}
	response.Success(c, gin.H{"id": linkID})
}

// ListAffiliateReferrals 推荐用户列表
func (h *Handler) ListAffiliateReferrals(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	rows, total, err := h.AffiliateService.ListReferrals(uid, parseListQuery(c))
	if err != nil {
		respondAffiliateError(c, err)
		return
	}
	response.List(c, "referrals", rows, total)
}

// ListAffiliateCommissions 佣金列表
func (h *Handler) ListAffiliateCommissions(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	rows, total, err := h.AffiliateService.ListCommissions(uid, parseListQuery(c))
	if err != nil {
		respondAffiliateError(c, err)
		return
	}
	response.List(c, "commissions", rows, total)
}

// ListAffiliatePayouts 提现记录列表
func (h *Handler) ListAffiliatePayouts(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	rows, total, err := h.AffiliateService.ListPayouts(uid, parseListQuery(c))
	if err != nil {
		respondAffiliateError(c, err)
		return
	}
	response.List(c, "payouts", rows, total)
}

// RequestAffiliatePayout 提交提现申请
func (h *Handler) RequestAffiliatePayout(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req AffiliatePayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if h.CaptchaService != nil {
		if err := h.CaptchaService.Verify(constants.CaptchaScenePayoutRequest, req.Captcha.ToServicePayload()); err != nil {
			respondAffiliatePayoutError(c, err)
			return
		}
	}
	payout, err := h.PayoutService.RequestPayout(uid, service.PayoutRequestInput{
		Amount:        req.Amount,
		Method:        req.Method,
		PayoutDetails: req.PayoutDetails,
	})
	if err != nil {
		respondAffiliatePayoutError(c, err)
		return
	}
	response.Created(c, gin.H{"payout": payout})
}

// GetAffiliateAnalytics 推广分析
func (h *Handler) GetAffiliateAnalytics(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	analytics, err := h.ReportService.Analytics(uid, service.AnalyticsQuery{
		Period:    c.Query("period"),
		StartDate: queryFirst(c, "start_date", "startDate"),
		EndDate:   queryFirst(c, "end_date", "endDate"),
	})
	if err != nil {
		respondAffiliateReportError(c, err)
		return
	}
	response.Success(c, analytics)
}

// GetAffiliateSubIDReport 子渠道报表
func (h *Handler) GetAffiliateSubIDReport(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	rows, err := h.ReportService.SubIDReport(uid, c.Query("timeframe"), c.Query("search"))
	if err != nil {
		respondAffiliateReportError(c, err)
		return
	}
	response.Success(c, rows)
}

// GetAffiliateLeaderboard 公开排行榜
func (h *Handler) GetAffiliateLeaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(strings.TrimSpace(c.Query("limit")))
	entries, err := h.ReportService.Leaderboard(c.Request.Context(), c.Query("period"), limit)
	if err != nil {
		respondAffiliateReportError(c, err)
		return
	}
	response.Success(c, gin.H{"leaderboard": entries})
}

// BindAffiliateAttribution 注册后按追踪 Cookie 绑定推荐关系，失败不影响调用方
func (h *Handler) BindAffiliateAttribution(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	code, _ := c.Cookie(constants.TrackingCookieCode)
	clickRaw, _ := c.Cookie(constants.TrackingCookieClick)
	referral := h.bindReferral(c, uid, code, parseClickID(clickRaw))
	response.Success(c, gin.H{"referral": referral})
}

// bindReferral 绑定推荐关系，任何错误只记录日志
func (h *Handler) bindReferral(c *gin.Context, userID uint, code string, clickID *uint) *models.AffiliateReferral {
	if strings.TrimSpace(code) == "" {
		return nil
	}
	referral, err := h.TrackingService.TrackReferral(userID, code, clickID)
	if err != nil {
		handlershared.RequestLog(c).Warnw("affiliate_referral_tracking_failed",
			"user_id", userID,
			"code", code,
			"error", err,
		)
		return nil
	}
	return referral
}

func parseListQuery(c *gin.Context) service.ListQuery {
	limit, offset := handlershared.ParseLimitOffset(c)
	return service.ListQuery{
		Status: strings.TrimSpace(c.Query("status")),
		Limit:  limit,
		Offset: offset,
	}
}

func parseClickID(raw string) *uint {
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || value == 0 {
		return nil
	}
	id := uint(value)
	return &id
}
