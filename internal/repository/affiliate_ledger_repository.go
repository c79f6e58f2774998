package repository

import (
	"strings"
	"time"

	"github.com/affiliate-engine/internal/constants"
	"github.com/affiliate-engine/internal/models"

	"github.com/shopspring/decimal"
)

// CreateCommission 创建佣金记录
func (r *GormAffiliateRepository) CreateCommission(commission *models.AffiliateCommission) error {
	return r.db.Create(commission).Error
}

// GetCommissionByID 按ID获取佣金
func (r *GormAffiliateRepository) GetCommissionByID(id uint) (*models.AffiliateCommission, error) {
	if id == 0 {
		return nil, nil
	}
	return firstOrNil(r.db.Where("id = ?", id), &models.AffiliateCommission{})
}

// GetCommissionByIDForUpdate 按ID锁定佣金
func (r *GormAffiliateRepository) GetCommissionByIDForUpdate(id uint) (*models.AffiliateCommission, error) {
	if id == 0 {
		return nil, nil
	}
	return firstOrNil(forUpdate(r.db).Where("id = ?", id), &models.AffiliateCommission{})
}

// GetCommissionByOrder 按推广用户与订单号获取佣金
func (r *GormAffiliateRepository) GetCommissionByOrder(affiliateID uint, orderID string) (*models.AffiliateCommission, error) {
	order := strings.TrimSpace(orderID)
	if affiliateID == 0 || order == "" {
		return nil, nil
	}
	return firstOrNil(r.db.Where("affiliate_id = ? AND order_id = ?", affiliateID, order), &models.AffiliateCommission{})
}

// UpdateCommissionFields 更新佣金字段
func (r *GormAffiliateRepository) UpdateCommissionFields(id uint, updates map[string]interface{}) error {
	if id == 0 || len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.AffiliateCommission{}).Where("id = ?", id).Updates(updates).Error
}

// ListCommissions 查询佣金列表
func (r *GormAffiliateRepository) ListCommissions(filter AffiliateCommissionListFilter) ([]models.AffiliateCommission, int64, error) {
	query := r.db.Model(&models.AffiliateCommission{})
	if filter.AffiliateID != 0 {
		query = query.Where("affiliate_id = ?", filter.AffiliateID)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if orderID := strings.TrimSpace(filter.OrderID); orderID != "" {
		query = query.Where("order_id = ?", orderID)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	rows := make([]models.AffiliateCommission, 0)
	if err := applyLimitOffset(query, filter.Limit, filter.Offset).Order("created_at desc").Order("id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListCommissionsByOrderForUpdate 按订单号查询佣金并加锁
func (r *GormAffiliateRepository) ListCommissionsByOrderForUpdate(orderID string, statuses []string) ([]models.AffiliateCommission, error) {
	rows := make([]models.AffiliateCommission, 0)
	order := strings.TrimSpace(orderID)
	if order == "" {
		return rows, nil
	}
	query := forUpdate(r.db).Where("order_id = ?", order)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	if err := query.Order("id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// SumCommissionBase 汇总计佣基数（即推广带来的累计销售额）
func (r *GormAffiliateRepository) SumCommissionBase(affiliateID uint, excludeStatuses []string) (decimal.Decimal, error) {
	if affiliateID == 0 {
		return decimal.Zero, nil
	}
	query := r.db.Model(&models.AffiliateCommission{}).
		Where("affiliate_id = ? AND type <> ?", affiliateID, constants.CommissionTypeBonus)
	if len(excludeStatuses) > 0 {
		query = query.Where("status NOT IN ?", excludeStatuses)
	}
	var row struct {
		Total decimal.Decimal `gorm:"column:total"`
	}
	if err := query.Select("COALESCE(SUM(base_amount), 0) AS total").Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total.Round(models.MoneyStoragePlaces), nil
}

// SumCommissionAmount 汇总指定状态的佣金金额
func (r *GormAffiliateRepository) SumCommissionAmount(affiliateID uint, statuses []string) (decimal.Decimal, error) {
	if affiliateID == 0 || len(statuses) == 0 {
		return decimal.Zero, nil
	}
	var row struct {
		Total decimal.Decimal `gorm:"column:total"`
	}
	if err := r.db.Model(&models.AffiliateCommission{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("affiliate_id = ? AND status IN ?", affiliateID, statuses).
		Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total.Round(models.MoneyStoragePlaces), nil
}

// ApprovePendingCommissions 将创建时间早于 before 的待审核佣金批量转为已审核
func (r *GormAffiliateRepository) ApprovePendingCommissions(before, now time.Time) (int64, error) {
	result := r.db.Model(&models.AffiliateCommission{}).
		Where("status = ? AND created_at <= ?", constants.CommissionStatusPending, before).
		Updates(map[string]interface{}{
			"status":      constants.CommissionStatusApproved,
			"approved_at": now,
			"updated_at":  now,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// MarkApprovedCommissionsPaid 将未绑定提现单的已审核佣金标记为已发放并绑定提现单
func (r *GormAffiliateRepository) MarkApprovedCommissionsPaid(affiliateID, payoutID uint, now time.Time) (int64, error) {
	if affiliateID == 0 || payoutID == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.AffiliateCommission{}).
		Where("affiliate_id = ? AND status = ? AND payout_id IS NULL", affiliateID, constants.CommissionStatusApproved).
		Updates(map[string]interface{}{
			"status":     constants.CommissionStatusPaid,
			"payout_id":  payoutID,
			"paid_at":    now,
			"updated_at": now,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ReleasePaidCommissions 提现失败时将绑定的佣金恢复为已审核
func (r *GormAffiliateRepository) ReleasePaidCommissions(payoutID uint, now time.Time) (int64, error) {
	if payoutID == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.AffiliateCommission{}).
		Where("payout_id = ? AND status = ?", payoutID, constants.CommissionStatusPaid).
		Updates(map[string]interface{}{
			"status":     constants.CommissionStatusApproved,
			"payout_id":  nil,
			"paid_at":    nil,
			"updated_at": now,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// CreatePayout 创建提现单
func (r *GormAffiliateRepository) CreatePayout(payout *models.AffiliatePayout) error {
	return r.db.Create(payout).Error
}

// GetPayoutByID 按ID获取提现单
func (r *GormAffiliateRepository) GetPayoutByID(id uint) (*models.AffiliatePayout, error) {
	if id == 0 {
		return nil, nil
	}
	return firstOrNil(r.db.Where("id = ?", id), &models.AffiliatePayout{})
}

// GetPayoutByIDForUpdate 按ID锁定提现单
func (r *GormAffiliateRepository) GetPayoutByIDForUpdate(id uint) (*models.AffiliatePayout, error) {
	if id == 0 {
		return nil, nil
	}
	return firstOrNil(forUpdate(r.db).Where("id = ?", id), &models.AffiliatePayout{})
}

// UpdatePayoutFields 更新提现单字段
func (r *GormAffiliateRepository) UpdatePayoutFields(id uint, updates map[string]interface{}) error {
	if id == 0 || len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.AffiliatePayout{}).Where("id = ?", id).Updates(updates).Error
}

// ListPayouts 查询提现单列表
func (r *GormAffiliateRepository) ListPayouts(filter AffiliatePayoutListFilter) ([]models.AffiliatePayout, int64, error) {
	query := r.db.Model(&models.AffiliatePayout{})
	if filter.AffiliateID != 0 {
		query = query.Where("affiliate_payouts.affiliate_id = ?", filter.AffiliateID)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("affiliate_payouts.status = ?", status)
	}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		condition, args := dialectOf(r.db).keywordMatch(keyword,
			[]string{"affiliates.code", "affiliate_payouts.transaction_id"},
			"affiliate_payouts.payout_details",
			payoutDetailSearchKeys,
		)
		query = query.
			Joins("LEFT JOIN affiliates ON affiliates.id = affiliate_payouts.affiliate_id").
			Where(condition, args...)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	rows := make([]models.AffiliatePayout, 0)
	if err := applyLimitOffset(query, filter.Limit, filter.Offset).
		Order("affiliate_payouts.created_at desc").
		Order("affiliate_payouts.id desc").
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// SumPayoutAmount 汇总指定状态的提现金额
func (r *GormAffiliateRepository) SumPayoutAmount(affiliateID uint, statuses []string) (decimal.Decimal, error) {
	if affiliateID == 0 || len(statuses) == 0 {
		return decimal.Zero, nil
	}
	var row struct {
		Total decimal.Decimal `gorm:"column:total"`
	}
	if err := r.db.Model(&models.AffiliatePayout{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("affiliate_id = ? AND status IN ?", affiliateID, statuses).
		Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total.Round(models.MoneyStoragePlaces), nil
}
