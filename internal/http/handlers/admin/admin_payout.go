package admin

import (
	"strconv"
	"strings"

	handlershared "github.com/affiliate-engine/internal/http/handlers/shared"
	"github.com/affiliate-engine/internal/http/response"
	"github.com/affiliate-engine/internal/models"
	"github.com/affiliate-engine/internal/repository"
	"github.com/affiliate-engine/internal/service"

	"github.com/gin-gonic/gin"
)

// PayoutActionRequest 提现处理请求
type PayoutActionRequest struct {
	TransactionID string `json:"transaction_id"`
	Reason        string `json:"reason"`
}

// ListPayouts 后台提现单列表
func (h *Handler) ListPayouts(c *gin.Context) {
	limit, offset := handlershared.ParseLimitOffset(c)
	affiliateID, _ := strconv.ParseUint(strings.TrimSpace(c.Query("affiliate_id")), 10, 64)
	rows, total, err := h.PayoutService.ListPayouts(repository.AffiliatePayoutListFilter{
		AffiliateID: uint(affiliateID),
		Status:      strings.TrimSpace(c.Query("status")),
		Keyword:     strings.TrimSpace(c.Query("keyword")),
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		respondAdminAffiliateError(c, err)
		return
	}
	response.List(c, "payouts", rows, total)
}

// ProcessPayout 开始处理提现
func (h *Handler) ProcessPayout(c *gin.Context) {
	h.handlePayoutAction(c, service.AuditPayoutProcessed, func(id uint, req PayoutActionRequest) (*models.AffiliatePayout, error) {
		return h.PayoutService.ProcessPayout(id, req.TransactionID)
	})
}

// CompletePayout 确认提现到账
func (h *Handler) CompletePayout(c *gin.Context) {
	h.handlePayoutAction(c, service.AuditPayoutCompleted, func(id uint, req PayoutActionRequest) (*models.AffiliatePayout, error) {
		return h.PayoutService.CompletePayout(id, req.TransactionID)
	})
}

// FailPayout 标记提现失败
func (h *Handler) FailPayout(c *gin.Context) {
	h.handlePayoutAction(c, service.AuditPayoutFailed, func(id uint, req PayoutActionRequest) (*models.AffiliatePayout, error) {
		return h.PayoutService.FailPayout(id, req.Reason)
	})
}

func (h *Handler) handlePayoutAction(c *gin.Context, auditAction string, action func(uint, PayoutActionRequest) (*models.AffiliatePayout, error)) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	var req PayoutActionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
	}
	payout, err := action(id, req)
	if err != nil {
		respondAdminAffiliateError(c, err)
		return
	}
	requestLog(c).Infow("admin_payout_transition", "admin_id", currentAdminID(c), "payout_id", id, "status", payout.Status)
	h.audit(c, auditAction, "payout", id, map[string]interface{}{
		"amount":         payout.Amount.String(),
		"transaction_id": req.TransactionID,
		"reason":         req.Reason,
	})
	response.Success(c, gin.H{"payout": payout})
}
