package service

import (
	"errors"
	"strings"
	"time"

	"github.com/affiliate-engine/internal/constants"
	"github.com/affiliate-engine/internal/logger"
	"github.com/affiliate-engine/internal/models"
	"github.com/affiliate-engine/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const bonusOrderPrefix = "bonus:"

var (
	hundred = decimal.NewFromInt(100)

	// 累计销售额阶梯（下限含）
	affiliateTierLadder = []struct {
		minSales decimal.Decimal
		tier     string
		rate     decimal.Decimal
	}{
		{decimal.NewFromInt(15000), constants.AffiliateTierPlatinum, decimal.NewFromInt(30)},
		{decimal.NewFromInt(5000), constants.AffiliateTierGold, decimal.NewFromInt(25)},
		{decimal.NewFromInt(1000), constants.AffiliateTierSilver, decimal.NewFromInt(22)},
		{decimal.Zero, constants.AffiliateTierBase, decimal.NewFromInt(20)},
	}

	// 不计入累计销售额的佣金状态
	tierExcludedStatuses = []string{constants.CommissionStatusReversed, constants.CommissionStatusCancelled}
)

// CommissionService 转化计佣与佣金状态流转
type CommissionService struct {
	repo           repository.AffiliateRepository
	settingService *SettingService
}

// NewCommissionService 创建佣金服务
func NewCommissionService(repo repository.AffiliateRepository, settingService *SettingService) *CommissionService {
	return &CommissionService{repo: repo, settingService: settingService}
}

// CalculateCommission 佣金 = 金额 × 比例 / 100；金额非正时为 0
func CalculateCommission(amount, rate decimal.Decimal) (decimal.Decimal, error) {
	if !validCommissionRate(rate) {
		return decimal.Zero, ErrInvalidCommissionRate
	}
	if !amount.IsPositive() {
		return decimal.Zero, nil
	}
	return amount.Mul(rate).Div(hundred).Round(models.MoneyStoragePlaces), nil
}

func validCommissionRate(rate decimal.Decimal) bool {
	return !rate.IsNegative() && !rate.GreaterThan(hundred)
}

// TierForSales 按累计销售额推导等级
func TierForSales(sales decimal.Decimal) string {
	for _, step := range affiliateTierLadder {
		if sales.GreaterThanOrEqual(step.minSales) {
			return step.tier
		}
	}
	return constants.AffiliateTierBase
}

// RateForTier 等级对应的佣金比例
func RateForTier(tier string) decimal.Decimal {
	for _, step := range affiliateTierLadder {
		if step.tier == tier {
			return step.rate
		}
	}
	return affiliateTierLadder[len(affiliateTierLadder)-1].rate
}

// ConvertReferralToCustomer 被推荐用户付款后计佣；同一推广用户同一订单只计一次
func (s *CommissionService) ConvertReferralToCustomer(userID uint, orderID string, amount decimal.Decimal) (*models.AffiliateCommission, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, ErrOrderIDRequired
	}
	if !amount.IsPositive() {
		return nil, nil
	}
	setting, err := s.settingService.GetAffiliateSetting()
	if err != nil {
		return nil, err
	}
	if !setting.Enabled {
		return nil, nil
	}

	referral, err := s.repo.GetReferralByUserID(userID)
	if err != nil {
		return nil, err
	}
	if referral == nil {
		return nil, nil
	}

	var result *models.AffiliateCommission
	err = s.repo.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		now := time.Now().UTC()

		locked, err := repo.GetReferralByUserIDForUpdate(userID)
		if err != nil {
			return err
		}
		if locked == nil || locked.Status == constants.ReferralStatusChurned {
			return nil
		}
		if attributionExpired(locked.CreatedAt, setting.AttributionWindowDays, now) {
			logger.Debugw("affiliate_conversion_outside_window",
				"user_id", userID,
				"referral_id", locked.ID,
				"order_id", orderID,
			)
			return nil
		}

		affiliate, err := repo.GetAffiliateByIDForUpdate(locked.AffiliateID)
		if err != nil {
			return err
		}
		if !isAffiliateActive(affiliate) {
			return nil
		}
		existing, err := repo.GetCommissionByOrder(affiliate.ID, orderID)
		if err != nil {
			return err
		}
		if existing != nil {
			result = existing
			return nil
		}

		rate := affiliate.CommissionRate.Decimal
		if !validCommissionRate(rate) {
			return ErrInvalidCommissionRate
		}
		tier := affiliate.Tier
		priorSales := decimal.Zero
		if setting.TieredRatesEnabled {
			priorSales, err = repo.SumCommissionBase(affiliate.ID, tierExcludedStatuses)
			if err != nil {
				return err
			}
			tier = TierForSales(priorSales)
			if !affiliate.RateOverride {
				rate = RateForTier(tier)
			}
		}
		commissionAmount, err := CalculateCommission(amount, rate)
		if err != nil {
			return err
		}

		firstPayment := locked.FirstPaymentDate == nil
		referralUpdates := map[string]interface{}{
			"status":            constants.ReferralStatusCustomer,
			"last_payment_date": now,
			"updated_at":        now,
		}
		if firstPayment {
			referralUpdates["first_payment_date"] = now
		}
		if locked.ConversionDate == nil {
			referralUpdates["conversion_date"] = now
		}
		if err := repo.IncrementReferralLifetimeValue(locked.ID, amount, referralUpdates); err != nil {
			return err
		}

		statDelta := StatDelta{Revenue: amount}
		if firstPayment {
			statDelta.Customers = 1
			if locked.ClickID != nil {
				if click, err := repo.GetClickByID(*locked.ClickID); err != nil {
					return err
				} else if click != nil {
					if err := repo.IncrementLinkCounters(click.LinkID, 0, 1); err != nil {
						return err
					}
				}
			}
		}

		if commissionAmount.IsPositive() {
			commissionType := constants.CommissionTypeRecurring
			if firstPayment {
				commissionType = constants.CommissionTypeSale
			}
			referralID := locked.ID
			commission := &models.AffiliateCommission{
				AffiliateID:    affiliate.ID,
				ReferralID:     &referralID,
				OrderID:        orderID,
				Type:           commissionType,
				Amount:         models.NewMoneyFromDecimal(commissionAmount),
				BaseAmount:     models.NewMoneyFromDecimal(amount),
				CommissionRate: models.NewMoneyFromDecimal(rate),
				Tier:           tier,
				Status:         constants.CommissionStatusPending,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if err := repo.CreateCommission(commission); err != nil {
				if isUniqueViolation(err) {
					return errCommissionAlreadyRecorded
				}
				return err
			}
			if err := repo.AdjustAffiliateBalances(affiliate.ID, repository.AffiliateBalanceDelta{
				TotalEarnings:  commissionAmount,
				PendingPayouts: commissionAmount,
			}, now); err != nil {
				return err
			}
			statDelta.Commissions = commissionAmount
			result = commission
		}

		if setting.TieredRatesEnabled {
			if nextTier := TierForSales(priorSales.Add(amount)); nextTier != affiliate.Tier {
				if err := repo.UpdateAffiliateFields(affiliate.ID, map[string]interface{}{
					"tier":       nextTier,
					"updated_at": now,
				}); err != nil {
					return err
				}
			}
		}
		return updateDailyStats(repo, affiliate.ID, now, statDelta)
	})
	if err != nil {
		if errors.Is(err, errCommissionAlreadyRecorded) {
			return s.repo.GetCommissionByOrder(referral.AffiliateID, orderID)
		}
		return nil, err
	}
	if result != nil {
		logger.Infow("affiliate_commission_recorded",
			"affiliate_id", result.AffiliateID,
			"commission_id", result.ID,
			"order_id", orderID,
			"amount", result.Amount.String(),
		)
	}
	return result, nil
}

// ReverseOrderCommissions 订单退款时冲正佣金并回退余额
func (s *CommissionService) ReverseOrderCommissions(orderID, reason string) ([]models.AffiliateCommission, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, ErrOrderIDRequired
	}
	reason = truncateString(reason, 255)
	reversed := make([]models.AffiliateCommission, 0)
	err := s.repo.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		now := time.Now().UTC()
		rows, err := repo.ListCommissionsByOrderForUpdate(orderID, []string{
			constants.CommissionStatusPending,
			constants.CommissionStatusApproved,
			constants.CommissionStatusPaid,
		})
		if err != nil {
			return err
		}
		for _, row := range rows {
			amount := row.Amount.Decimal
			delta := repository.AffiliateBalanceDelta{TotalEarnings: amount.Neg()}
			if row.Status != constants.CommissionStatusPaid {
				delta.PendingPayouts = amount.Neg()
			}
			if err := repo.UpdateCommissionFields(row.ID, map[string]interface{}{
				"status":         constants.CommissionStatusReversed,
				"reversed_at":    now,
				"reverse_reason": reason,
				"updated_at":     now,
			}); err != nil {
				return err
			}
			if err := repo.AdjustAffiliateBalances(row.AffiliateID, delta, now); err != nil {
				return err
			}
			if err := updateDailyStats(repo, row.AffiliateID, row.CreatedAt, StatDelta{Commissions: amount.Neg()}); err != nil {
				return err
			}
			row.Status = constants.CommissionStatusReversed
			row.ReversedAt = &now
			row.ReverseReason = reason
			reversed = append(reversed, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(reversed) > 0 {
		logger.Infow("affiliate_commissions_reversed", "order_id", orderID, "count", len(reversed))
	}
	return reversed, nil
}

// ApproveCommission 审核通过待审核佣金
func (s *CommissionService) ApproveCommission(id uint) (*models.AffiliateCommission, error) {
	err := s.repo.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		row, err := repo.GetCommissionByIDForUpdate(id)
		if err != nil {
			return err
		}
		if row == nil {
			return ErrCommissionNotFound
		}
		if row.Status != constants.CommissionStatusPending {
			return ErrCommissionStatusInvalid
		}
		now := time.Now().UTC()
		return repo.UpdateCommissionFields(row.ID, map[string]interface{}{
			"status":      constants.CommissionStatusApproved,
			"approved_at": now,
			"updated_at":  now,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetCommissionByID(id)
}

// CancelCommission 取消未发放佣金并回退余额
func (s *CommissionService) CancelCommission(id uint, reason string) (*models.AffiliateCommission, error) {
	err := s.repo.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		row, err := repo.GetCommissionByIDForUpdate(id)
		if err != nil {
			return err
		}
		if row == nil {
			return ErrCommissionNotFound
		}
		if row.Status != constants.CommissionStatusPending && row.Status != constants.CommissionStatusApproved {
			return ErrCommissionStatusInvalid
		}
		now := time.Now().UTC()
		amount := row.Amount.Decimal
		if err := repo.UpdateCommissionFields(row.ID, map[string]interface{}{
			"status":     constants.CommissionStatusCancelled,
			"note":       truncateString(reason, 255),
			"updated_at": now,
		}); err != nil {
			return err
		}
		if err := repo.AdjustAffiliateBalances(row.AffiliateID, repository.AffiliateBalanceDelta{
			TotalEarnings:  amount.Neg(),
			PendingPayouts: amount.Neg(),
		}, now); err != nil {
			return err
		}
		return updateDailyStats(repo, row.AffiliateID, row.CreatedAt, StatDelta{Commissions: amount.Neg()})
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetCommissionByID(id)
}

// ApproveDueCommissions 批量审核超过观察期的待审核佣金
func (s *CommissionService) ApproveDueCommissions(now time.Time) (int64, error) {
	setting, err := s.settingService.GetAffiliateSetting()
	if err != nil {
		return 0, err
	}
	now = now.UTC()
	before := now.AddDate(0, 0, -setting.ApprovalHoldDays)
	approved, err := s.repo.ApprovePendingCommissions(before, now)
	if err != nil {
		return 0, err
	}
	if approved > 0 {
		logger.Infow("affiliate_commissions_auto_approved", "count", approved, "before", before)
	}
	return approved, nil
}

// ListCommissions 后台查询佣金
func (s *CommissionService) ListCommissions(filter repository.AffiliateCommissionListFilter) ([]models.AffiliateCommission, int64, error) {
	filter.Limit, filter.Offset = repository.NormalizeLimitOffset(filter.Limit, filter.Offset)
	return s.repo.ListCommissions(filter)
}

// CreateBonusCommission 后台发放奖励佣金（直接为已审核）
func (s *CommissionService) CreateBonusCommission(affiliateID uint, amount decimal.Decimal, note string) (*models.AffiliateCommission, error) {
	if !amount.IsPositive() {
		return nil, ErrAmountInvalid
	}
	var commission *models.AffiliateCommission
	err := s.repo.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		affiliate, err := repo.GetAffiliateByIDForUpdate(affiliateID)
		if err != nil {
			return err
		}
		if affiliate == nil {
			return ErrAffiliateNotFound
		}
		now := time.Now().UTC()
		commission = &models.AffiliateCommission{
			AffiliateID:    affiliate.ID,
			OrderID:        bonusOrderPrefix + uuid.NewString(),
			Type:           constants.CommissionTypeBonus,
			Amount:         models.NewMoneyFromDecimal(amount),
			BaseAmount:     models.NewMoneyFromDecimal(amount),
			CommissionRate: models.NewMoneyFromDecimal(hundred),
			Tier:           affiliate.Tier,
			Status:         constants.CommissionStatusApproved,
			Note:           truncateString(note, 255),
			ApprovedAt:     &now,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := repo.CreateCommission(commission); err != nil {
			return err
		}
		if err := repo.AdjustAffiliateBalances(affiliate.ID, repository.AffiliateBalanceDelta{
			TotalEarnings:  amount,
			PendingPayouts: amount,
		}, now); err != nil {
			return err
		}
		return updateDailyStats(repo, affiliate.ID, now, StatDelta{Commissions: amount})
	})
	if err != nil {
		return nil, err
	}
	return commission, nil
}

// attributionExpired 归因窗口自推荐关系创建起计算，含边界当天
func attributionExpired(referredAt time.Time, windowDays int, now time.Time) bool {
	if windowDays <= 0 {
		return false
	}
	return now.After(referredAt.UTC().AddDate(0, 0, windowDays))
}
