package models

import "time"

// AffiliateReferral 推荐关系（一个用户终身只归属一个推广用户）
type AffiliateReferral struct {
	ID               uint       `gorm:"primarykey" json:"id"`                                        // 主键
	AffiliateID      uint       `gorm:"not null;index" json:"affiliate_id"`                          // 推广用户ID
	UserID           uint       `gorm:"not null;uniqueIndex" json:"user_id"`                         // 被推荐用户ID
	ClickID          *uint      `gorm:"index" json:"click_id"`                                       // 关联点击
	Status           string     `gorm:"type:varchar(20);not null;index" json:"status"`               // 状态
	FirstPaymentDate *time.Time `json:"first_payment_date"`                                          // 首次付款时间
	LastPaymentDate  *time.Time `json:"last_payment_date"`                                           // 最近付款时间
	ConversionDate   *time.Time `json:"conversion_date"`                                             // 转化时间
	TrialStartedAt   *time.Time `json:"trial_started_at"`                                            // 开始试用时间
	ChurnedAt        *time.Time `json:"churned_at"`                                                  // 流失时间
	LifetimeValue    Money      `gorm:"type:decimal(20,4);not null;default:0" json:"lifetime_value"` // 累计消费
	CreatedAt        time.Time  `gorm:"index" json:"created_at"`                                     // 创建时间
	UpdatedAt        time.Time  `json:"updated_at"`                                                  // 更新时间
}

// TableName 指定表名
func (AffiliateReferral) TableName() string {
	return "affiliate_referrals"
}
