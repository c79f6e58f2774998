package repository

import (
	"strings"
	"time"

	"github.com/affiliate-engine/internal/constants"
	"github.com/affiliate-engine/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpsertDailyStats 按 (affiliate_id, stat_date) 增量累加日统计，单条 INSERT .. ON CONFLICT 完成
func (r *GormAffiliateRepository) UpsertDailyStats(affiliateID uint, statDate string, delta AffiliateStatDelta, now time.Time) error {
	if affiliateID == 0 || strings.TrimSpace(statDate) == "" || delta.IsZero() {
		return nil
	}
	row := models.AffiliateStatDaily{
		AffiliateID:  affiliateID,
		StatDate:     statDate,
		Clicks:       delta.Clicks,
		UniqueClicks: delta.UniqueClicks,
		Signups:      delta.Signups,
		Customers:    delta.Customers,
		Revenue:      models.NewMoneyFromDecimal(delta.Revenue),
		Commissions:  models.NewMoneyFromDecimal(delta.Commissions),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	table := row.TableName()
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "affiliate_id"}, {Name: "stat_date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"clicks":        gorm.Expr(table+".clicks + ?", delta.Clicks),
			"unique_clicks": gorm.Expr(table+".unique_clicks + ?", delta.UniqueClicks),
			"signups":       gorm.Expr(table+".signups + ?", delta.Signups),
			"customers":     gorm.Expr(table+".customers + ?", delta.Customers),
			"revenue":       gorm.Expr(table+".revenue + ?", row.Revenue),
			"commissions":   gorm.Expr(table+".commissions + ?", row.Commissions),
			"updated_at":    now,
		}),
	}).Create(&row).Error
}

// GetDailyStats 获取某日统计
func (r *GormAffiliateRepository) GetDailyStats(affiliateID uint, statDate string) (*models.AffiliateStatDaily, error) {
	if affiliateID == 0 || strings.TrimSpace(statDate) == "" {
		return nil, nil
	}
	return firstOrNil(r.db.Where("affiliate_id = ? AND stat_date = ?", affiliateID, statDate), &models.AffiliateStatDaily{})
}

func (r *GormAffiliateRepository) statsRangeQuery(affiliateID uint, fromDate, toDate string) *gorm.DB {
	query := r.db.Model(&models.AffiliateStatDaily{}).Where("affiliate_id = ?", affiliateID)
	if fromDate != "" {
		query = query.Where("stat_date >= ?", fromDate)
	}
	if toDate != "" {
		query = query.Where("stat_date <= ?", toDate)
	}
	return query
}

// ListDailyStats 查询日期区间内的日统计（日期均为 YYYY-MM-DD，空串表示不限）
func (r *GormAffiliateRepository) ListDailyStats(affiliateID uint, fromDate, toDate string) ([]models.AffiliateStatDaily, error) {
	rows := make([]models.AffiliateStatDaily, 0)
	if affiliateID == 0 {
		return rows, nil
	}
	if err := r.statsRangeQuery(affiliateID, fromDate, toDate).Order("stat_date asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// SumDailyStats 汇总日期区间内的日统计
func (r *GormAffiliateRepository) SumDailyStats(affiliateID uint, fromDate, toDate string) (AffiliateStatTotals, error) {
	totals := AffiliateStatTotals{Revenue: decimal.Zero, Commissions: decimal.Zero}
	if affiliateID == 0 {
		return totals, nil
	}
	if err := r.statsRangeQuery(affiliateID, fromDate, toDate).
		Select("COALESCE(SUM(clicks), 0) AS clicks, " +
			"COALESCE(SUM(unique_clicks), 0) AS unique_clicks, " +
			"COALESCE(SUM(signups), 0) AS signups, " +
			"COALESCE(SUM(customers), 0) AS customers, " +
			"COALESCE(SUM(revenue), 0) AS revenue, " +
			"COALESCE(SUM(commissions), 0) AS commissions").
		Scan(&totals).Error; err != nil {
		return totals, err
	}
	totals.Revenue = totals.Revenue.Round(models.MoneyStoragePlaces)
	totals.Commissions = totals.Commissions.Round(models.MoneyStoragePlaces)
	return totals, nil
}

// ListSubIDReport 按子渠道聚合点击、推荐、付费与佣金
func (r *GormAffiliateRepository) ListSubIDReport(affiliateID uint, from, to time.Time, search string) ([]AffiliateSubIDRow, error) {
	result := make([]AffiliateSubIDRow, 0)
	if affiliateID == 0 {
		return result, nil
	}

	subIDExpr := "COALESCE(NULLIF(c.sub_id, ''), '" + constants.SubIDDirect + "')"
	query := r.db.Table(models.AffiliateClick{}.TableName()+" AS c").
		Where("c.affiliate_id = ? AND c.created_at >= ? AND c.created_at <= ?", affiliateID, from, to)
	if keyword := strings.TrimSpace(search); keyword != "" {
		condition, args := dialectOf(r.db).keywordMatch(keyword, []string{"c.sub_id"}, "", nil)
		query = query.Where(condition, args...)
	}

	var clickRows []struct {
		SubID  string `gorm:"column:sub_id"`
		Clicks int64  `gorm:"column:clicks"`
	}
	if err := query.Select(subIDExpr + " AS sub_id, COUNT(*) AS clicks").
		Group(subIDExpr).
		Scan(&clickRows).Error; err != nil {
		return nil, err
	}
	if len(clickRows) == 0 {
		return result, nil
	}

	var referralRows []struct {
		SubID     string          `gorm:"column:sub_id"`
		Referrals int64           `gorm:"column:referrals"`
		Customers int64           `gorm:"column:customers"`
		Earnings  decimal.Decimal `gorm:"column:earnings"`
	}
	earnedStatuses := []string{constants.CommissionStatusApproved, constants.CommissionStatusPaid}
	if err := r.db.Table(models.AffiliateReferral{}.TableName()+" AS rf").
		Joins("JOIN "+models.AffiliateClick{}.TableName()+" AS c ON c.id = rf.click_id").
		Joins("LEFT JOIN (SELECT referral_id, SUM(amount) AS amount FROM "+models.AffiliateCommission{}.TableName()+
			" WHERE status IN ? GROUP BY referral_id) AS cm ON cm.referral_id = rf.id", earnedStatuses).
		Where("rf.affiliate_id = ? AND c.created_at >= ? AND c.created_at <= ?", affiliateID, from, to).
		Select(subIDExpr+" AS sub_id, "+
			"COUNT(rf.id) AS referrals, "+
			"SUM(CASE WHEN rf.status = ? THEN 1 ELSE 0 END) AS customers, "+
			"COALESCE(SUM(cm.amount), 0) AS earnings", constants.ReferralStatusCustomer).
		Group(subIDExpr).
		Scan(&referralRows).Error; err != nil {
		return nil, err
	}

	byID := make(map[string]int, len(clickRows))
	for _, row := range clickRows {
		byID[row.SubID] = len(result)
		result = append(result, AffiliateSubIDRow{SubID: row.SubID, Clicks: row.Clicks, Earnings: decimal.Zero})
	}
	for _, row := range referralRows {
		idx, ok := byID[row.SubID]
		if !ok {
			continue
		}
		result[idx].Referrals = row.Referrals
		result[idx].Customers = row.Customers
		result[idx].Earnings = row.Earnings.Round(models.MoneyStoragePlaces)
	}
	return result, nil
}

// ListLeaderboard 查询活跃推广用户排行（sinceDate 为空时按累计佣金排序）
func (r *GormAffiliateRepository) ListLeaderboard(sinceDate string, limit int) ([]AffiliateLeaderboardRow, error) {
	rows := make([]AffiliateLeaderboardRow, 0)
	if limit <= 0 {
		return rows, nil
	}
	statsTable := models.AffiliateStatDaily{}.TableName()

	if strings.TrimSpace(sinceDate) == "" {
		if err := r.db.Table(models.Affiliate{}.TableName()+" AS a").
			Joins("LEFT JOIN (SELECT affiliate_id, SUM(signups) AS signups, SUM(clicks) AS clicks FROM "+statsTable+
				" GROUP BY affiliate_id) AS s ON s.affiliate_id = a.id").
			Where("a.status = ?", constants.AffiliateStatusActive).
			Select("a.id AS affiliate_id, a.code AS code, a.total_earnings AS earnings, " +
				"COALESCE(s.signups, 0) AS referrals, COALESCE(s.clicks, 0) AS clicks").
			Order("a.total_earnings desc").
			Order("a.id asc").
			Limit(limit).
			Scan(&rows).Error; err != nil {
			return nil, err
		}
		return rows, nil
	}

	if err := r.db.Table(statsTable+" AS s").
		Joins("JOIN "+models.Affiliate{}.TableName()+" AS a ON a.id = s.affiliate_id").
		Where("a.status = ? AND s.stat_date >= ?", constants.AffiliateStatusActive, sinceDate).
		Select("a.id AS affiliate_id, a.code AS code, COALESCE(SUM(s.commissions), 0) AS earnings, " +
			"COALESCE(SUM(s.signups), 0) AS referrals, COALESCE(SUM(s.clicks), 0) AS clicks").
		Group("a.id, a.code").
		Order("earnings desc").
		Order("a.id asc").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
