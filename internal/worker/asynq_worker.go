package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/affiliate-engine/internal/logger"
	"github.com/affiliate-engine/internal/provider"
	"github.com/affiliate-engine/internal/queue"
	"github.com/affiliate-engine/internal/service"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskAffiliateConversion, c.handleAffiliateConversion)
	mux.HandleFunc(queue.TaskAffiliateRefund, c.handleAffiliateRefund)
	mux.HandleFunc(queue.TaskAffiliateReferral, c.handleAffiliateReferral)
}

func (c *Consumer) handleAffiliateConversion(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil || c.CommissionService == nil {
		logger.Debugw("worker_affiliate_conversion_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.AffiliateConversionPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_affiliate_conversion_unmarshal_failed", "error", err)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(payload.Amount))
	if err != nil || payload.UserID == 0 {
		logger.Warnw("worker_affiliate_conversion_invalid_payload",
			"user_id", payload.UserID,
			"order_id", payload.OrderID,
			"amount", payload.Amount,
		)
		return fmt.Errorf("invalid conversion payload: %w", asynq.SkipRetry)
	}
	commission, err := c.CommissionService.ConvertReferralToCustomer(payload.UserID, payload.OrderID, amount)
	if err != nil {
		if errors.Is(err, service.ErrOrderIDRequired) || errors.Is(err, service.ErrInvalidCommissionRate) {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		logger.Warnw("worker_affiliate_conversion_failed",
			"user_id", payload.UserID,
			"order_id", payload.OrderID,
			"error", err,
		)
		return err
	}
	if commission == nil {
		logger.Debugw("worker_affiliate_conversion_no_commission", "user_id", payload.UserID, "order_id", payload.OrderID)
	}
	return nil
}

func (c *Consumer) handleAffiliateRefund(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil || c.CommissionService == nil {
		logger.Debugw("worker_affiliate_refund_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.AffiliateRefundPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_affiliate_refund_unmarshal_failed", "error", err)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if _, err := c.CommissionService.ReverseOrderCommissions(payload.OrderID, payload.Reason); err != nil {
		if errors.Is(err, service.ErrOrderIDRequired) {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		logger.Warnw("worker_affiliate_refund_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	return nil
}

func (c *Consumer) handleAffiliateReferral(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil || c.TrackingService == nil {
		logger.Debugw("worker_affiliate_referral_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.AffiliateReferralPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_affiliate_referral_unmarshal_failed", "error", err)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if _, err := c.TrackingService.TransitionReferral(payload.UserID, payload.Status); err != nil {
		if errors.Is(err, service.ErrReferralNotFound) || errors.Is(err, service.ErrReferralStatusInvalid) {
			logger.Debugw("worker_affiliate_referral_skip",
				"user_id", payload.UserID,
				"status", payload.Status,
				"reason", err.Error(),
			)
			return nil
		}
		logger.Warnw("worker_affiliate_referral_failed", "user_id", payload.UserID, "error", err)
		return err
	}
	return nil
}
