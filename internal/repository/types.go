package repository

import (
	"time"

	"github.com/shopspring/decimal"
)

// AffiliateListFilter 推广用户列表过滤条件
type AffiliateListFilter struct {
	Status  string
	Keyword string
	Limit   int
	Offset  int
}

// AffiliateReferralListFilter 推荐关系列表过滤条件
type AffiliateReferralListFilter struct {
	AffiliateID uint
	Status      string
	Limit       int
	Offset      int
}

// AffiliateCommissionListFilter 佣金列表过滤条件
type AffiliateCommissionListFilter struct {
	AffiliateID uint
	Status      string
	OrderID     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// AffiliatePayoutListFilter 提现列表过滤条件
type AffiliatePayoutListFilter struct {
	AffiliateID uint
	Status      string
	Keyword     string
	Limit       int
	Offset      int
}

// AffiliateBalanceDelta 推广用户余额增量（可为负数）
type AffiliateBalanceDelta struct {
	TotalEarnings  decimal.Decimal
	PendingPayouts decimal.Decimal
	PaidAmount     decimal.Decimal
}

// AffiliateStatDelta 日统计增量
type AffiliateStatDelta struct {
	Clicks       int64
	UniqueClicks int64
	Signups      int64
	Customers    int64
	Revenue      decimal.Decimal
	Commissions  decimal.Decimal
}

// IsZero 增量是否为空
func (d AffiliateStatDelta) IsZero() bool {
	return d.Clicks == 0 && d.UniqueClicks == 0 && d.Signups == 0 && d.Customers == 0 &&
		d.Revenue.IsZero() && d.Commissions.IsZero()
}

// AffiliateStatTotals 日统计区间汇总
type AffiliateStatTotals struct {
	Clicks       int64           `gorm:"column:clicks"`
	UniqueClicks int64           `gorm:"column:unique_clicks"`
	Signups      int64           `gorm:"column:signups"`
	Customers    int64           `gorm:"column:customers"`
	Revenue      decimal.Decimal `gorm:"column:revenue"`
	Commissions  decimal.Decimal `gorm:"column:commissions"`
}

// AffiliateSubIDRow 子渠道报表行
type AffiliateSubIDRow struct {
	SubID     string
	Clicks    int64
	Referrals int64
	Customers int64
	Earnings  decimal.Decimal
}

// AffiliateLeaderboardRow 排行榜原始行
type AffiliateLeaderboardRow struct {
	AffiliateID uint            `gorm:"column:affiliate_id"`
	Code        string          `gorm:"column:code"`
	Earnings    decimal.Decimal `gorm:"column:earnings"`
	Referrals   int64           `gorm:"column:referrals"`
	Clicks      int64           `gorm:"column:clicks"`
}
