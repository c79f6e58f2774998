package admin

import (
	"strconv"
	"strings"

	handlershared "github.com/affiliate-engine/internal/http/handlers/shared"
	"github.com/affiliate-engine/internal/http/response"
	"github.com/affiliate-engine/internal/repository"
	"github.com/affiliate-engine/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CancelCommissionRequest 取消佣金请求
type CancelCommissionRequest struct {
	Reason string `json:"reason"`
}

// BonusCommissionRequest 发放奖励佣金请求
type BonusCommissionRequest struct {
	AffiliateID uint            `json:"affiliate_id" binding:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Note        string          `json:"note"`
}

// ReverseCommissionRequest 按订单冲正佣金请求
type ReverseCommissionRequest struct {
	OrderID string `json:"order_id" binding:"required"`
	Reason  string `json:"reason"`
}

// ListCommissions 后台佣金列表
func (h *Handler) ListCommissions(c *gin.Context) {
	limit, offset := handlershared.ParseLimitOffset(c)
	affiliateID, _ := strconv.ParseUint(strings.TrimSpace(c.Query("affiliate_id")), 10, 64)
	rows, total, err := h.CommissionService.ListCommissions(repository.AffiliateCommissionListFilter{
		AffiliateID: uint(affiliateID),
		Status:      strings.TrimSpace(c.Query("status")),
		OrderID:     strings.TrimSpace(c.Query("order_id")),
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		respondAdminAffiliateError(c, err)
		return
	}
	response.List(c, "commissions", rows, total)
}

// ApproveCommission 审核通过佣金
func (h *Handler) ApproveCommission(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	commission, err := h.CommissionService.ApproveCommission(id)
	if err != nil {
		respondAdminAffiliateError(c, err)
		return
	}
	requestLog(c).Infow("admin_commission_approved", "admin_id", currentAdminID(c), "commission_id", id)
	h.audit(c, service.AuditCommissionApproved, "commission", id, map[string]interface{}{
		"amount": commission.Amount.String(),
	})
	response.Success(c, gin.H{"commission": commission})
}

// CancelCommission 取消佣金
func (h *Handler) CancelCommission(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	var req CancelCommissionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
	}
	commission, err := h.CommissionService.CancelCommission(id, req.Reason)
	if err != nil {
		respondAdminAffiliateError(c, err)
		return
	}
	requestLog(c).Infow("admin_commission_cancelled", "admin_id", currentAdminID(c), "commission_id", id)
	h.audit(c, service.AuditCommissionCancelled, "commission", id, map[string]interface{}{
		"reason": req.Reason,
	})
	response.Success(c, gin.H{"commission": commission})
}

// CreateBonusCommission 发放奖励佣金
func (h *Handler) CreateBonusCommission(c *gin.Context) {
	var req BonusCommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	commission, err := h.CommissionService.CreateBonusCommission(req.AffiliateID, req.Amount, req.Note)
	if err != nil {
		respondAdminAffiliateError(c, err)
		return
	}
	requestLog(c).Infow("admin_bonus_commission_created",
		"admin_id", currentAdminID(c),
		"affiliate_id", req.AffiliateID,
		"amount", req.Amount.String(),
	)
	h.audit(c, service.AuditCommissionBonus, "affiliate", req.AffiliateID, map[string]interface{}{
		"commission_id": commission.ID,
		"amount":        commission.Amount.String(),
		"note":          req.Note,
	})
	response.Created(c, gin.H{"commission": commission})
}

// ReverseCommissions 按订单冲正佣金
func (h *Handler) ReverseCommissions(c *gin.Context) {
	var req ReverseCommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	reversed, err := h.CommissionService.ReverseOrderCommissions(req.OrderID, req.Reason)
	if err != nil {
		respondAdminAffiliateError(c, err)
		return
	}
	if len(reversed) > 0 {
		h.audit(c, service.AuditCommissionsReversed, "order", 0, map[string]interface{}{
			"order_id": req.OrderID,
			"reason":   req.Reason,
			"count":    len(reversed),
		})
	}
	response.List(c, "commissions", reversed, int64(len(reversed)))
}
