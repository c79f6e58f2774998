package models

import "time"

// AffiliateCommission 推广佣金记录
type AffiliateCommission struct {
	ID             uint       `gorm:"primarykey" json:"id"`                                                                  // 主键
	AffiliateID    uint       `gorm:"not null;index;uniqueIndex:uniq_affiliate_commission_order" json:"affiliate_id"`        // 推广用户ID
	ReferralID     *uint      `gorm:"index" json:"referral_id"`                                                              // 推荐关系ID（奖励佣金为空）
	OrderID        string     `gorm:"type:varchar(64);not null;uniqueIndex:uniq_affiliate_commission_order" json:"order_id"` // 订单号
	Type           string     `gorm:"type:varchar(20);not null;index" json:"type"`                                           // 佣金类型
	Amount         Money      `gorm:"type:decimal(20,4);not null" json:"amount"`                                             // 佣金金额
	BaseAmount     Money      `gorm:"type:decimal(20,4);not null" json:"base_amount"`                                        // 计佣基数
	CommissionRate Money      `gorm:"type:decimal(7,4);not null" json:"commission_rate"`                                     // 计佣比例快照
	Tier           string     `gorm:"type:varchar(20)" json:"tier"`                                                          // 计佣等级快照
	Status         string     `gorm:"type:varchar(20);not null;index" json:"status"`                                         // 状态
	PayoutID       *uint      `gorm:"index" json:"payout_id"`                                                                // 提现单ID
	Note           string     `gorm:"type:varchar(255)" json:"note"`                                                         // 备注
	ApprovedAt     *time.Time `json:"approved_at"`                                                                           // 审核通过时间
	PaidAt         *time.Time `json:"paid_at"`                                                                               // 发放时间
	ReversedAt     *time.Time `json:"reversed_at"`                                                                           // 冲正时间
	ReverseReason  string     `gorm:"type:varchar(255)" json:"reverse_reason"`                                               // 冲正原因
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`                                                               // 创建时间
	UpdatedAt      time.Time  `json:"updated_at"`                                                                            // 更新时间
}

// TableName 指定表名
func (AffiliateCommission) TableName() string {
	return "affiliate_commissions"
}
