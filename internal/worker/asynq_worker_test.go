package worker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/affiliate-engine/internal/config"
	"github.com/affiliate-engine/internal/constants"
	"github.com/affiliate-engine/internal/models"
	"github.com/affiliate-engine/internal/provider"
	"github.com/affiliate-engine/internal/queue"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupWorkerTest(t *testing.T) *Consumer {
	t.Helper()
	dsn := fmt.Sprintf("file:worker_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	cfg := &config.Config{}
	cfg.Affiliate.FrontendURL = "https://app.example.com"
	cfg.Affiliate.SessionSecret = "worker-test-secret"
	return NewConsumer(provider.NewContainerWithDB(cfg, db, nil))
}

func seedReferral(t *testing.T, c *Consumer, affiliateUserID, referredUserID uint) *models.Affiliate {
	t.Helper()
	affiliate, err := c.AffiliateService.CreateOrGetAffiliate(affiliateUserID)
	if err != nil {
		t.Fatalf("open affiliate failed: %v", err)
	}
	if _, err := c.TrackingService.TrackReferral(referredUserID, affiliate.Code, nil); err != nil {
		t.Fatalf("track referral failed: %v", err)
	}
	return affiliate
}

func TestHandleAffiliateConversionCreatesCommissionOnce(t *testing.T) {
	c := setupWorkerTest(t)
	affiliate := seedReferral(t, c, 1, 2)

	task, err := queue.NewAffiliateConversionTask(queue.AffiliateConversionPayload{UserID: 2, OrderID: "ORD-1", Amount: "100.00"})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := c.handleAffiliateConversion(context.Background(), task); err != nil {
			t.Fatalf("handle conversion #%d failed: %v", i+1, err)
		}
	}

	reloaded, err := c.AffiliateRepo.GetAffiliateByID(affiliate.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload affiliate failed: %v", err)
	}
	if !reloaded.TotalEarnings.Decimal.Equal(decimal.RequireFromString("20")) {
		t.Fatalf("expected total earnings 20, got %s", reloaded.TotalEarnings.String())
	}
}

func TestHandleAffiliateConversionSkipsRetryOnBadPayload(t *testing.T) {
	c := setupWorkerTest(t)

	bad := asynq.NewTask(queue.TaskAffiliateConversion, []byte("{"))
	if err := c.handleAffiliateConversion(context.Background(), bad); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected skip retry for malformed payload, got %v", err)
	}

	task, err := queue.NewAffiliateConversionTask(queue.AffiliateConversionPayload{UserID: 2, OrderID: " ", Amount: "10"})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := c.handleAffiliateConversion(context.Background(), task); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected skip retry for empty order id, got %v", err)
	}

	task, err = queue.NewAffiliateConversionTask(queue.AffiliateConversionPayload{UserID: 2, OrderID: "ORD-2", Amount: "abc"})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := c.handleAffiliateConversion(context.Background(), task); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected skip retry for invalid amount, got %v", err)
	}
}

func TestHandleAffiliateRefundReversesCommission(t *testing.T) {
	c := setupWorkerTest(t)
	affiliate := seedReferral(t, c, 1, 2)
	if _, err := c.CommissionService.ConvertReferralToCustomer(2, "ORD-9", decimal.RequireFromString("50")); err != nil {
		t.Fatalf("convert failed: %v", err)
	}

	task, err := queue.NewAffiliateRefundTask(queue.AffiliateRefundPayload{OrderID: "ORD-9", Reason: "refund"})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := c.handleAffiliateRefund(context.Background(), task); err != nil {
		t.Fatalf("handle refund failed: %v", err)
	}

	reloaded, err := c.AffiliateRepo.GetAffiliateByID(affiliate.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload affiliate failed: %v", err)
	}
	if !reloaded.TotalEarnings.Decimal.IsZero() || !reloaded.PendingPayouts.Decimal.IsZero() {
		t.Fatalf("expected balances restored, got earnings=%s pending=%s", reloaded.TotalEarnings.String(), reloaded.PendingPayouts.String())
	}
}

func TestHandleAffiliateReferralIgnoresUnknownUser(t *testing.T) {
	c := setupWorkerTest(t)
	seedReferral(t, c, 1, 2)

	unknown, err := queue.NewAffiliateReferralTask(queue.AffiliateReferralPayload{UserID: 99, Status: constants.ReferralStatusTrial})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := c.handleAffiliateReferral(context.Background(), unknown); err != nil {
		t.Fatalf("expected unknown referral to be ignored, got %v", err)
	}

	trial, err := queue.NewAffiliateReferralTask(queue.AffiliateReferralPayload{UserID: 2, Status: constants.ReferralStatusTrial})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := c.handleAffiliateReferral(context.Background(), trial); err != nil {
		t.Fatalf("handle referral failed: %v", err)
	}
	referral, err := c.AffiliateRepo.GetReferralByUserID(2)
	if err != nil || referral == nil {
		t.Fatalf("load referral failed: %v", err)
	}
	if referral.Status != constants.ReferralStatusTrial {
		t.Fatalf("expected trial status, got %s", referral.Status)
	}
}

func TestApproveDueOnceWithoutService(t *testing.T) {
	var c *Consumer
	if got := c.approveDueOnce(time.Now()); got != 0 {
		t.Fatalf("expected 0 approvals for nil consumer, got %d", got)
	}
	if got := resolveApproveInterval(nil); got != defaultApproveInterval {
		t.Fatalf("expected default interval, got %s", got)
	}
}
