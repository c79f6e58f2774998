package public

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"strings"

	"github.com/affiliate-engine/internal/constants"
	handlershared "github.com/affiliate-engine/internal/http/handlers/shared"
	"github.com/affiliate-engine/internal/http/response"
	"github.com/affiliate-engine/internal/queue"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const maxEventBodyBytes = 64 << 10

// UserRegisteredEvent 用户注册事件
type UserRegisteredEvent struct {
	UserID        uint   `json:"user_id"`
	AffiliateCode string `json:"affiliate_code"`
	ClickID       *uint  `json:"click_id"`
}

// PaymentSucceededEvent 支付成功事件
type PaymentSucceededEvent struct {
	UserID  uint            `json:"user_id"`
	OrderID string          `json:"order_id"`
	Amount  decimal.Decimal `json:"amount"`
}

// PaymentRefundedEvent 退款事件
type PaymentRefundedEvent struct {
	OrderID string `json:"order_id"`
	Reason  string `json:"reason"`
}

// ReferralStatusEvent 推荐关系状态事件
type ReferralStatusEvent struct {
	UserID uint   `json:"user_id"`
	Status string `json:"status"`
}

// HandleUserRegistered 注册事件：绑定推荐关系，始终返回成功
func (h *Handler) HandleUserRegistered(c *gin.Context) {
	var event UserRegisteredEvent
	if !h.bindSignedEvent(c, &event) {
		return
	}
	if event.UserID == 0 {
		respondError(c, response.CodeBadRequest, "error.user_id_invalid", nil)
		return
	}
	referral := h.bindReferral(c, event.UserID, event.AffiliateCode, event.ClickID)
	response.Success(c, gin.H{"referral": referral})
}

// HandlePaymentSucceeded 支付成功事件：计佣失败返回 500 由调用方重试
func (h *Handler) HandlePaymentSucceeded(c *gin.Context) {
	var event PaymentSucceededEvent
	if !h.bindSignedEvent(c, &event) {
		return
	}
	if event.UserID == 0 {
		respondError(c, response.CodeBadRequest, "error.user_id_invalid", nil)
		return
	}
	if strings.TrimSpace(event.OrderID) == "" {
		respondError(c, response.CodeBadRequest, "error.order_id_required", nil)
		return
	}

	if h.QueueClient.Enabled() {
		err := h.QueueClient.EnqueueAffiliateConversion(queue.AffiliateConversionPayload{
			UserID:  event.UserID,
			OrderID: strings.TrimSpace(event.OrderID),
			Amount:  event.Amount.String(),
		})
		if err != nil {
			respondError(c, response.CodeInternal, "error.internal", err)
			return
		}
		response.Success(c, gin.H{"queued": true})
		return
	}

	commission, err := h.CommissionService.ConvertReferralToCustomer(event.UserID, event.OrderID, event.Amount)
	if err != nil {
		respondAffiliateEventError(c, err)
		return
	}
	response.Success(c, gin.H{"queued": false, "commission": commission})
}

// HandlePaymentRefunded 退款事件：冲正订单佣金
func (h *Handler) HandlePaymentRefunded(c *gin.Context) {
	var event PaymentRefundedEvent
	if !h.bindSignedEvent(c, &event) {
		return
	}
	if strings.TrimSpace(event.OrderID) == "" {
		respondError(c, response.CodeBadRequest, "error.order_id_required", nil)
		return
	}

	if h.QueueClient.Enabled() {
		err := h.QueueClient.EnqueueAffiliateRefund(queue.AffiliateRefundPayload{
			OrderID: strings.TrimSpace(event.OrderID),
			Reason:  event.Reason,
		})
		if err != nil {
			respondError(c, response.CodeInternal, "error.internal", err)
			return
		}
		response.Success(c, gin.H{"queued": true})
		return
	}

	reversed, err := h.CommissionService.ReverseOrderCommissions(event.OrderID, event.Reason)
	if err != nil {
		respondAffiliateEventError(c, err)
		return
	}
	response.Success(c, gin.H{"queued": false, "reversed": len(reversed)})
}

// HandleReferralStatus 推荐关系状态事件（试用/流失）
func (h *Handler) HandleReferralStatus(c *gin.Context) {
	var event ReferralStatusEvent
	if !h.bindSignedEvent(c, &event) {
		return
	}
	status := strings.ToLower(strings.TrimSpace(event.Status))
	if status != constants.ReferralStatusTrial && status != constants.ReferralStatusChurned {
		respondError(c, response.CodeConflict, "error.referral_status_invalid", nil)
		return
	}

	if h.QueueClient.Enabled() {
		err := h.QueueClient.EnqueueAffiliateReferral(queue.AffiliateReferralPayload{UserID: event.UserID, Status: status})
		if err != nil {
			respondError(c, response.CodeInternal, "error.internal", err)
			return
		}
		response.Success(c, gin.H{"queued": true})
		return
	}

	referral, err := h.TrackingService.TransitionReferral(event.UserID, status)
	if err != nil {
		respondAffiliateEventError(c, err)
		return
	}
	response.Success(c, gin.H{"referral": referral})
}

// bindSignedEvent 校验事件签名并解析请求体
func (h *Handler) bindSignedEvent(c *gin.Context, dest interface{}) bool {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxEventBodyBytes))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return false
	}
	if !VerifyEventSignature(h.webhookSecret, body, c.GetHeader(constants.WebhookSignatureHeader)) {
		handlershared.RequestLog(c).Warnw("affiliate_event_signature_rejected", "path", c.FullPath())
		respondError(c, response.CodeUnauthorized, "error.webhook_signature_invalid", nil)
		return false
	}
	if err := json.Unmarshal(body, dest); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return false
	}
	return true
}

// SignEventBody 计算事件签名（十六进制 HMAC-SHA256）
func SignEventBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyEventSignature 校验事件签名，未配置密钥时一律拒绝
func VerifyEventSignature(secret string, body []byte, signature string) bool {
	if strings.TrimSpace(secret) == "" {
		return false
	}
	signature = strings.TrimPrefix(strings.TrimSpace(signature), "sha256=")
	provided, err := hex.DecodeString(signature)
	if err != nil || len(provided) == 0 {
		return false
	}
	expected, _ := hex.DecodeString(SignEventBody(secret, body))
	return hmac.Equal(provided, expected)
}
