package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/affiliate-engine/internal/constants"
	"github.com/affiliate-engine/internal/logger"
	"github.com/affiliate-engine/internal/models"
	"github.com/affiliate-engine/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PayoutService 佣金提现服务
type PayoutService struct {
	repo           repository.AffiliateRepository
	settingService *SettingService
}

// NewPayoutService 创建提现服务
func NewPayoutService(repo repository.AffiliateRepository, settingService *SettingService) *PayoutService {
	return &PayoutService{repo: repo, settingService: settingService}
}

// PayoutRequestInput 提现申请输入
type PayoutRequestInput struct {
	Amount        decimal.Decimal
	Method        string
	PayoutDetails map[string]interface{}
}

// RequestPayout 提交提现申请；可提现 = 待提现余额 - 待审核佣金 - 未处理申请，余额在处理时才扣减
func (s *PayoutService) RequestPayout(userID uint, input PayoutRequestInput) (*models.AffiliatePayout, error) {
	setting, err := s.settingService.GetAffiliateSetting()
	if err != nil {
		return nil, err
	}
	if !setting.Enabled {
		return nil, ErrAffiliateDisabled
	}

	amount := input.Amount.Round(models.MoneyDisplayPlaces)
	minimum := setting.MinPayout()
	if amount.LessThan(minimum) {
		return nil, fmt.Errorf("%w: %s", ErrPayoutBelowMinimum, minimum.StringFixed(models.MoneyDisplayPlaces))
	}
	if !amount.IsPositive() {
		return nil, ErrAmountInvalid
	}
	method := strings.ToLower(strings.TrimSpace(input.Method))
	if !setting.AllowsPayoutMethod(method) {
		return nil, ErrPayoutMethodInvalid
	}

	var payout *models.AffiliatePayout
	err = s.repo.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		owner, err := repo.GetAffiliateByUserID(userID)
		if err != nil {
			return err
		}
		if owner == nil {
			return ErrAffiliateNotFound
		}
		affiliate, err := repo.GetAffiliateByIDForUpdate(owner.ID)
		if err != nil {
			return err
		}
		if affiliate == nil {
			return ErrAffiliateNotFound
		}
		if affiliate.Status != constants.AffiliateStatusActive {
			return ErrAffiliateSuspended
		}

		settled, err := settledBalance(repo, affiliate)
		if err != nil {
			return err
		}
		requested, err := repo.SumPayoutAmount(affiliate.ID, []string{constants.PayoutStatusPending})
		if err != nil {
			return err
		}
		if amount.GreaterThan(settled.Sub(requested)) {
			return ErrInsufficientBalance
		}

		details := models.JSON(input.PayoutDetails)
		if len(details) == 0 {
			details = affiliate.PayoutDetails
		}
		now := time.Now().UTC()
		payout = &models.AffiliatePayout{
			AffiliateID:   affiliate.ID,
			Amount:        models.NewMoneyFromDecimal(amount),
			Method:        method,
			PayoutDetails: details,
			Status:        constants.PayoutStatusPending,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		return repo.CreatePayout(payout)
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("affiliate_payout_requested",
		"affiliate_id", payout.AffiliateID,
		"payout_id", payout.ID,
		"amount", payout.Amount.String(),
		"method", payout.Method,
	)
	return payout, nil
}

// ProcessPayout 开始处理提现：扣减待提现余额、累加已提现并将已审核佣金关联到提现单
func (s *PayoutService) ProcessPayout(payoutID uint, transactionID string) (*models.AffiliatePayout, error) {
	err := s.repo.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		payout, err := lockPayout(repo, payoutID, constants.PayoutStatusPending)
		if err != nil {
			return err
		}
		affiliate, err := repo.GetAffiliateByIDForUpdate(payout.AffiliateID)
		if err != nil {
			return err
		}
		if affiliate == nil {
			return ErrAffiliateNotFound
		}
		amount := payout.Amount.Decimal
		settled, err := settledBalance(repo, affiliate)
		if err != nil {
			return err
		}
		if amount.GreaterThan(settled) {
			return ErrInsufficientBalance
		}

		now := time.Now().UTC()
		if err := repo.AdjustAffiliateBalances(affiliate.ID, repository.AffiliateBalanceDelta{
			PendingPayouts: amount.Neg(),
			PaidAmount:     amount,
		}, now); err != nil {
			return err
		}
		if _, err := repo.MarkApprovedCommissionsPaid(affiliate.ID, payout.ID, now); err != nil {
			return err
		}
		updates := map[string]interface{}{
			"status":       constants.PayoutStatusProcessing,
			"processed_at": now,
			"updated_at":   now,
		}
		if txID := strings.TrimSpace(transactionID); txID != "" {
			updates["transaction_id"] = txID
		}
		return repo.UpdatePayoutFields(payout.ID, updates)
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("affiliate_payout_processing", "payout_id", payoutID)
	return s.repo.GetPayoutByID(payoutID)
}

// CompletePayout 提现到账
func (s *PayoutService) CompletePayout(payoutID uint, transactionID string) (*models.AffiliatePayout, error) {
	err := s.repo.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		payout, err := lockPayout(repo, payoutID, constants.PayoutStatusProcessing)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		updates := map[string]interface{}{
			"status":       constants.PayoutStatusCompleted,
			"completed_at": now,
			"updated_at":   now,
		}
		if txID := strings.TrimSpace(transactionID); txID != "" {
			updates["transaction_id"] = txID
		}
		return repo.UpdatePayoutFields(payout.ID, updates)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetPayoutByID(payoutID)
}

// FailPayout 提现失败；处理中的提现回退余额并释放已关联佣金
func (s *PayoutService) FailPayout(payoutID uint, reason string) (*models.AffiliatePayout, error) {
	err := s.repo.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		payout, err := lockPayout(repo, payoutID, constants.PayoutStatusPending, constants.PayoutStatusProcessing)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		if payout.Status == constants.PayoutStatusProcessing {
			amount := payout.Amount.Decimal
			if err := repo.AdjustAffiliateBalances(payout.AffiliateID, repository.AffiliateBalanceDelta{
				PendingPayouts: amount,
				PaidAmount:     amount.Neg(),
			}, now); err != nil {
				return err
			}
			if _, err := repo.ReleasePaidCommissions(payout.ID, now); err != nil {
				return err
			}
		}
		return repo.UpdatePayoutFields(payout.ID, map[string]interface{}{
			"status":         constants.PayoutStatusFailed,
			"failure_reason": truncateString(reason, 255),
			"failed_at":      now,
			"updated_at":     now,
		})
	})
	if err != nil {
		return nil, err
	}
	logger.Warnw("affiliate_payout_failed", "payout_id", payoutID, "reason", reason)
	return s.repo.GetPayoutByID(payoutID)
}

// ListPayouts 后台查询提现单
func (s *PayoutService) ListPayouts(filter repository.AffiliatePayoutListFilter) ([]models.AffiliatePayout, int64, error) {
	filter.Limit, filter.Offset = repository.NormalizeLimitOffset(filter.Limit, filter.Offset)
	return s.repo.ListPayouts(filter)
}

// settledBalance 待提现余额中已过审核的部分（扣除仍可冲正的待审核佣金）
func settledBalance(repo repository.AffiliateRepository, affiliate *models.Affiliate) (decimal.Decimal, error) {
	unapproved, err := repo.SumCommissionAmount(affiliate.ID, []string{constants.CommissionStatusPending})
	if err != nil {
		return decimal.Zero, err
	}
	settled := affiliate.PendingPayouts.Decimal.Sub(unapproved)
	if settled.IsNegative() {
		return decimal.Zero, nil
	}
	return settled, nil
}

func lockPayout(repo repository.AffiliateRepository, payoutID uint, allowed ...string) (*models.AffiliatePayout, error) {
	payout, err := repo.GetPayoutByIDForUpdate(payoutID)
	if err != nil {
		return nil, err
	}
	if payout == nil {
		return nil, ErrPayoutNotFound
	}
	for _, status := range allowed {
		if payout.Status == status {
			return payout, nil
		}
	}
	return nil, ErrPayoutStatusInvalid
}
