package models

import "time"

// AffiliatePayout 推广佣金提现单
type AffiliatePayout struct {
	ID            uint       `gorm:"primarykey" json:"id"`                          // 主键
	AffiliateID   uint       `gorm:"not null;index" json:"affiliate_id"`            // 推广用户ID
	Amount        Money      `gorm:"type:decimal(20,4);not null" json:"amount"`     // 提现金额
	Method        string     `gorm:"type:varchar(20);not null" json:"method"`       // 提现方式
	PayoutDetails JSON       `gorm:"type:json" json:"payout_details,omitempty"`     // 收款信息
	Status        string     `gorm:"type:varchar(20);not null;index" json:"status"` // 状态
	TransactionID string     `gorm:"type:varchar(128)" json:"transaction_id"`       // 外部流水号
	FailureReason string     `gorm:"type:varchar(255)" json:"failure_reason"`       // 失败原因
	ProcessedAt   *time.Time `json:"processed_at"`                                  // 开始处理时间
	CompletedAt   *time.Time `json:"completed_at"`                                  // 完成时间
	FailedAt      *time.Time `json:"failed_at"`                                     // 失败时间
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`                       // 创建时间
	UpdatedAt     time.Time  `json:"updated_at"`                                    // 更新时间
}

// TableName 指定表名
func (AffiliatePayout) TableName() string {
	return "affiliate_payouts"
}
