package models

import "time"

// Affiliate 推广用户（每个用户至多一个）
type Affiliate struct {
	ID             uint      `gorm:"primarykey" json:"id"`                                         // 主键
	UserID         uint      `gorm:"not null;uniqueIndex" json:"user_id"`                          // 所属用户ID
	Code           string    `gorm:"type:varchar(32);not null;uniqueIndex" json:"code"`            // 推广码
	CommissionRate Money     `gorm:"type:decimal(7,4);not null;default:20" json:"commission_rate"` // 佣金比例（百分比）
	RateOverride   bool      `gorm:"not null;default:false" json:"rate_override"`                  // 后台指定比例，开启时不按等级取比例
	Tier           string    `gorm:"type:varchar(20);not null;default:'base'" json:"tier"`         // 等级（展示用，佣金计算按累计销售实时推导）
	Status         string    `gorm:"type:varchar(20);not null;index" json:"status"`                // 状态
	TotalEarnings  Money     `gorm:"type:decimal(20,4);not null;default:0" json:"total_earnings"`  // 累计佣金
	PendingPayouts Money     `gorm:"type:decimal(20,4);not null;default:0" json:"pending_payouts"` // 待提现余额
	PaidAmount     Money     `gorm:"type:decimal(20,4);not null;default:0" json:"paid_amount"`     // 已提现金额
	PayoutMethod   string    `gorm:"type:varchar(20)" json:"payout_method"`                        // 默认提现方式
	PayoutDetails  JSON      `gorm:"type:json" json:"payout_details,omitempty"`                    // 提现账户信息
	CreatedAt      time.Time `gorm:"index" json:"created_at"`                                      // 创建时间
	UpdatedAt      time.Time `gorm:"index" json:"updated_at"`                                      // 更新时间

	Links []AffiliateLink `gorm:"foreignKey:AffiliateID" json:"links,omitempty"` // 推广链接
}

// TableName 指定表名
func (Affiliate) TableName() string {
	return "affiliates"
}
