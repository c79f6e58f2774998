package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/affiliate-engine/internal/constants"
	"github.com/affiliate-engine/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AffiliateRepository 推广归因与佣金数据访问接口
type AffiliateRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) AffiliateRepository

	GetAffiliateByID(id uint) (*models.Affiliate, error)
	GetAffiliateByIDForUpdate(id uint) (*models.Affiliate, error)
	GetAffiliateByUserID(userID uint) (*models.Affiliate, error)
	GetAffiliateByCode(code string) (*models.Affiliate, error)
	CreateAffiliate(affiliate *models.Affiliate) error
	UpdateAffiliateFields(id uint, updates map[string]interface{}) error
	AdjustAffiliateBalances(id uint, delta AffiliateBalanceDelta, now time.Time) error
	ListAffiliates(filter AffiliateListFilter) ([]models.Affiliate, int64, error)

	CreateLink(link *models.AffiliateLink) error
	GetLinkByID(id uint) (*models.AffiliateLink, error)
	GetLinkByAlias(alias string) (*models.AffiliateLink, error)
	GetDefaultLink(affiliateID uint) (*models.AffiliateLink, error)
	ListLinks(affiliateID uint, orderByClicks bool) ([]models.AffiliateLink, error)
	CountActiveLinks(affiliateID uint) (int64, error)
	UpdateLinkFields(id uint, updates map[string]interface{}) error
	IncrementLinkCounters(id uint, clicks, conversions int64) error

	CreateClick(click *models.AffiliateClick) error
	GetClickByID(id uint) (*models.AffiliateClick, error)
	HasSessionClick(affiliateID uint, sessionID string) (bool, error)

	CreateReferral(referral *models.AffiliateReferral) error
	GetReferralByUserID(userID uint) (*models.AffiliateReferral, error)
	GetReferralByUserIDForUpdate(userID uint) (*models.AffiliateReferral, error)
	UpdateReferralFields(id uint, updates map[string]interface{}) error
	IncrementReferralLifetimeValue(id uint, amount decimal.Decimal, updates map[string]interface{}) error
	ListReferrals(filter AffiliateReferralListFilter) ([]models.AffiliateReferral, int64, error)
	ListTopReferrals(affiliateID uint, limit int) ([]models.AffiliateReferral, error)

	CreateCommission(commission *models.AffiliateCommission) error
	GetCommissionByID(id uint) (*models.AffiliateCommission, error)
	GetCommissionByIDForUpdate(id uint) (*models.AffiliateCommission, error)
	GetCommissionByOrder(affiliateID uint, orderID string) (*models.AffiliateCommission, error)
	UpdateCommissionFields(id uint, updates map[string]interface{}) error
	ListCommissions(filter AffiliateCommissionListFilter) ([]models.AffiliateCommission, int64, error)
	ListCommissionsByOrderForUpdate(orderID string, statuses []string) ([]models.AffiliateCommission, error)
	SumCommissionBase(affiliateID uint, excludeStatuses []string) (decimal.Decimal, error)
	SumCommissionAmount(affiliateID uint, statuses []string) (decimal.Decimal, error)
	ApprovePendingCommissions(before, now time.Time) (int64, error)
	MarkApprovedCommissionsPaid(affiliateID, payoutID uint, now time.Time) (int64, error)
	ReleasePaidCommissions(payoutID uint, now time.Time) (int64, error)

	CreatePayout(payout *models.AffiliatePayout) error
	GetPayoutByID(id uint) (*models.AffiliatePayout, error)
	GetPayoutByIDForUpdate(id uint) (*models.AffiliatePayout, error)
	UpdatePayoutFields(id uint, updates map[string]interface{}) error
	ListPayouts(filter AffiliatePayoutListFilter) ([]models.AffiliatePayout, int64, error)
	SumPayoutAmount(affiliateID uint, statuses []string) (decimal.Decimal, error)

	UpsertDailyStats(affiliateID uint, statDate string, delta AffiliateStatDelta, now time.Time) error
	GetDailyStats(affiliateID uint, statDate string) (*models.AffiliateStatDaily, error)
	ListDailyStats(affiliateID uint, fromDate, toDate string) ([]models.AffiliateStatDaily, error)
	SumDailyStats(affiliateID uint, fromDate, toDate string) (AffiliateStatTotals, error)
	ListSubIDReport(affiliateID uint, from, to time.Time, search string) ([]AffiliateSubIDRow, error)
	ListLeaderboard(sinceDate string, limit int) ([]AffiliateLeaderboardRow, error)
}

// GormAffiliateRepository GORM 推广仓储
type GormAffiliateRepository struct {
	db *gorm.DB
}

// NewAffiliateRepository 创建推广仓储
func NewAffiliateRepository(db *gorm.DB) *GormAffiliateRepository {
	return &GormAffiliateRepository{db: db}
}

// WithTx 绑定事务
func (r *GormAffiliateRepository) WithTx(tx *gorm.DB) AffiliateRepository {
	if tx == nil {
		return r
	}
	return &GormAffiliateRepository{db: tx}
}

// Transaction 执行事务
func (r *GormAffiliateRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

func firstOrNil[T any](query *gorm.DB, dest *T) (*T, error) {
	if err := query.First(dest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return dest, nil
}

// GetAffiliateByID 按ID获取推广用户
func (r *GormAffiliateRepository) GetAffiliateByID(id uint) (*models.Affiliate, error) {
	if id == 0 {
		return nil, nil
	}
	return firstOrNil(r.db.Where("id = ?", id), &models.Affiliate{})
}

// GetAffiliateByIDForUpdate 按ID锁定推广用户行
func (r *GormAffiliateRepository) GetAffiliateByIDForUpdate(id uint) (*models.Affiliate, error) {
	if id == 0 {
		return nil, nil
	}
	return firstOrNil(forUpdate(r.db).Where("id = ?", id), &models.Affiliate{})
}

// GetAffiliateByUserID 按用户ID获取推广用户
func (r *GormAffiliateRepository) GetAffiliateByUserID(userID uint) (*models.Affiliate, error) {
	if userID == 0 {
		return nil, nil
	}
	return firstOrNil(r.db.Where("user_id = ?", userID), &models.Affiliate{})
}

// GetAffiliateByCode 按推广码获取推广用户
func (r *GormAffiliateRepository) GetAffiliateByCode(code string) (*models.Affiliate, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return nil, nil
	}
	return firstOrNil(r.db.Where("code = ?", normalized), &models.Affiliate{})
}

// CreateAffiliate 创建推广用户
func (r *GormAffiliateRepository) CreateAffiliate(affiliate *models.Affiliate) error {
	return r.db.Omit(clause.Associations).Create(affiliate).Error
}

// UpdateAffiliateFields 更新推广用户字段
func (r *GormAffiliateRepository) UpdateAffiliateFields(id uint, updates map[string]interface{}) error {
	if id == 0 || len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.Affiliate{}).Where("id = ?", id).Updates(updates).Error
}

// AdjustAffiliateBalances 以数据库原子增减方式调整推广用户余额
func (r *GormAffiliateRepository) AdjustAffiliateBalances(id uint, delta AffiliateBalanceDelta, now time.Time) error {
	if id == 0 {
		return nil
	}
	updates := map[string]interface{}{}
	if !delta.TotalEarnings.IsZero() {
		updates["total_earnings"] = gorm.Expr("total_earnings + ?", delta.TotalEarnings)
	}
	if !delta.PendingPayouts.IsZero() {
		updates["pending_payouts"] = gorm.Expr("pending_payouts + ?", delta.PendingPayouts)
	}
	if !delta.PaidAmount.IsZero() {
		updates["paid_amount"] = gorm.Expr("paid_amount + ?", delta.PaidAmount)
	}
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = now
	return r.db.Model(&models.Affiliate{}).Where("id = ?", id).Updates(updates).Error
}

// ListAffiliates 查询推广用户列表
func (r *GormAffiliateRepository) ListAffiliates(filter AffiliateListFilter) ([]models.Affiliate, int64, error) {
	query := r.db.Model(&models.Affiliate{})
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		query = query.Where("code "+dialectOf(r.db).like()+" ?", "%"+strings.ToUpper(keyword)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.Affiliate
	if err := applyLimitOffset(query, filter.Limit, filter.Offset).Order("id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// CreateLink 创建推广链接
func (r *GormAffiliateRepository) CreateLink(link *models.AffiliateLink) error {
	return r.db.Create(link).Error
}

// GetLinkByID 按ID获取推广链接
func (r *GormAffiliateRepository) GetLinkByID(id uint) (*models.AffiliateLink, error) {
	if id == 0 {
		return nil, nil
	}
	return firstOrNil(r.db.Where("id = ?", id), &models.AffiliateLink{})
}

// GetLinkByAlias 按别名获取推广链接
func (r *GormAffiliateRepository) GetLinkByAlias(alias string) (*models.AffiliateLink, error) {
	normalized := strings.TrimSpace(alias)
	if normalized == "" {
		return nil, nil
	}
	return firstOrNil(r.db.Where("alias = ?", normalized), &models.AffiliateLink{})
}

// GetDefaultLink 获取推广用户的默认链接
func (r *GormAffiliateRepository) GetDefaultLink(affiliateID uint) (*models.AffiliateLink, error) {
	if affiliateID == 0 {
		return nil, nil
	}
	return firstOrNil(r.db.Where("affiliate_id = ? AND is_default = ?", affiliateID, true).Order("id asc"), &models.AffiliateLink{})
}

// ListLinks 查询推广用户的全部链接
func (r *GormAffiliateRepository) ListLinks(affiliateID uint, orderByClicks bool) ([]models.AffiliateLink, error) {
	rows := make([]models.AffiliateLink, 0)
	if affiliateID == 0 {
		return rows, nil
	}
	query := r.db.Where("affiliate_id = ?", affiliateID)
	if orderByClicks {
		query = query.Order("click_count desc").Order("id asc")
	} else {
		query = query.Order("is_default desc").Order("id desc")
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CountActiveLinks 统计启用中的链接数量
func (r *GormAffiliateRepository) CountActiveLinks(affiliateID uint) (int64, error) {
	var total int64
	if err := r.db.Model(&models.AffiliateLink{}).
		Where("affiliate_id = ? AND is_active = ?", affiliateID, true).
		Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// UpdateLinkFields 更新推广链接字段
func (r *GormAffiliateRepository) UpdateLinkFields(id uint, updates map[string]interface{}) error {
	if id == 0 || len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.AffiliateLink{}).Where("id = ?", id).Updates(updates).Error
}

// IncrementLinkCounters 原子累加链接点击数与转化数
func (r *GormAffiliateRepository) IncrementLinkCounters(id uint, clicks, conversions int64) error {
	if id == 0 || (clicks == 0 && conversions == 0) {
		return nil
	}
	updates := map[string]interface{}{}
	if clicks != 0 {
		updates["click_count"] = gorm.Expr("click_count + ?", clicks)
	}
	if conversions != 0 {
		updates["conversion_count"] = gorm.Expr("conversion_count + ?", conversions)
	}
	return r.db.Model(&models.AffiliateLink{}).Where("id = ?", id).UpdateColumns(updates).Error
}

// CreateClick 创建点击记录
func (r *GormAffiliateRepository) CreateClick(click *models.AffiliateClick) error {
	return r.db.Create(click).Error
}

// GetClickByID 按ID获取点击记录
func (r *GormAffiliateRepository) GetClickByID(id uint) (*models.AffiliateClick, error) {
	if id == 0 {
		return nil, nil
	}
	return firstOrNil(r.db.Where("id = ?", id), &models.AffiliateClick{})
}

// HasSessionClick 查询该会话是否已为推广用户产生过点击
func (r *GormAffiliateRepository) HasSessionClick(affiliateID uint, sessionID string) (bool, error) {
	session := strings.TrimSpace(sessionID)
	if affiliateID == 0 || session == "" {
		return false, nil
	}
	var total int64
	if err := r.db.Model(&models.AffiliateClick{}).
		Where("affiliate_id = ? AND session_id = ?", affiliateID, session).
		Count(&total).Error; err != nil {
		return false, err
	}
	return total > 0, nil
}

// CreateReferral 创建推荐关系
func (r *GormAffiliateRepository) CreateReferral(referral *models.AffiliateReferral) error {
	return r.db.Create(referral).Error
}

// GetReferralByUserID 按被推荐用户获取推荐关系
func (r *GormAffiliateRepository) GetReferralByUserID(userID uint) (*models.AffiliateReferral, error) {
	if userID == 0 {
		return nil, nil
	}
	return firstOrNil(r.db.Where("user_id = ?", userID), &models.AffiliateReferral{})
}

// GetReferralByUserIDForUpdate 按被推荐用户锁定推荐关系
func (r *GormAffiliateRepository) GetReferralByUserIDForUpdate(userID uint) (*models.AffiliateReferral, error) {
	if userID == 0 {
		return nil, nil
	}
	return firstOrNil(forUpdate(r.db).Where("user_id = ?", userID), &models.AffiliateReferral{})
}

// UpdateReferralFields 更新推荐关系字段
func (r *GormAffiliateRepository) UpdateReferralFields(id uint, updates map[string]interface{}) error {
	if id == 0 || len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.AffiliateReferral{}).Where("id = ?", id).Updates(updates).Error
}

// IncrementReferralLifetimeValue 原子累加累计消费并同时更新其他字段
func (r *GormAffiliateRepository) IncrementReferralLifetimeValue(id uint, amount decimal.Decimal, updates map[string]interface{}) error {
	if id == 0 {
		return nil
	}
	merged := make(map[string]interface{}, len(updates)+1)
	for key, value := range updates {
		merged[key] = value
	}
	if !amount.IsZero() {
		merged["lifetime_value"] = gorm.Expr("lifetime_value + ?", amount)
	}
	if len(merged) == 0 {
		return nil
	}
	return r.db.Model(&models.AffiliateReferral{}).Where("id = ?", id).Updates(merged).Error
}

// ListReferrals 查询推荐关系列表
func (r *GormAffiliateRepository) ListReferrals(filter AffiliateReferralListFilter) ([]models.AffiliateReferral, int64, error) {
	query := r.db.Model(&models.AffiliateReferral{})
	if filter.AffiliateID != 0 {
		query = query.Where("affiliate_id = ?", filter.AffiliateID)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	rows := make([]models.AffiliateReferral, 0)
	if err := applyLimitOffset(query, filter.Limit, filter.Offset).Order("created_at desc").Order("id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListTopReferrals 按累计消费查询付费推荐用户
func (r *GormAffiliateRepository) ListTopReferrals(affiliateID uint, limit int) ([]models.AffiliateReferral, error) {
	rows := make([]models.AffiliateReferral, 0)
	if affiliateID == 0 {
		return rows, nil
	}
	if limit <= 0 {
		limit = 10
	}
	if err := r.db.Where("affiliate_id = ? AND status = ?", affiliateID, constants.ReferralStatusCustomer).
		Order("lifetime_value desc").
		Order("id asc").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
