package queue

import (
	"encoding/json"

	"github.com/affiliate-engine/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskAffiliateConversion 订单支付成功后的佣金转化任务
	TaskAffiliateConversion = constants.TaskAffiliateConversion
	// TaskAffiliateRefund 订单退款后的佣金冲正任务
	TaskAffiliateRefund = constants.TaskAffiliateRefund
	// TaskAffiliateReferral 推荐关系状态流转任务
	TaskAffiliateReferral = constants.TaskAffiliateReferral
)

// AffiliateConversionPayload 佣金转化任务载荷（金额以字符串传递避免精度丢失）
type AffiliateConversionPayload struct {
	UserID  uint   `json:"user_id"`
	OrderID string `json:"order_id"`
	Amount  string `json:"amount"`
}

// AffiliateRefundPayload 佣金冲正任务载荷
type AffiliateRefundPayload struct {
	OrderID string `json:"order_id"`
	Reason  string `json:"reason"`
}

// AffiliateReferralPayload 推荐关系状态任务载荷
type AffiliateReferralPayload struct {
	UserID uint   `json:"user_id"`
	Status string `json:"status"`
}

// NewAffiliateConversionTask 创建佣金转化任务
func NewAffiliateConversionTask(payload AffiliateConversionPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAffiliateConversion, body), nil
}

// NewAffiliateRefundTask 创建佣金冲正任务
func NewAffiliateRefundTask(payload AffiliateRefundPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAffiliateRefund, body), nil
}

// NewAffiliateReferralTask 创建推荐关系状态任务
func NewAffiliateReferralTask(payload AffiliateReferralPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAffiliateReferral, body), nil
}
