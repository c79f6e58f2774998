package models

import "time"

// StatDateLayout 日统计日期格式（UTC 自然日）
const StatDateLayout = "2006-01-02"

// AffiliateStatDaily 推广日统计（增量累加，不做全量重算）
type AffiliateStatDaily struct {
	ID           uint      `gorm:"primarykey" json:"id"`                                                            // 主键
	AffiliateID  uint      `gorm:"not null;uniqueIndex:uniq_affiliate_stat_day" json:"affiliate_id"`                // 推广用户ID
	StatDate     string    `gorm:"type:varchar(10);not null;uniqueIndex:uniq_affiliate_stat_day;index" json:"date"` // 日期 YYYY-MM-DD
	Clicks       int64     `gorm:"not null;default:0" json:"clicks"`                                                // 点击
	UniqueClicks int64     `gorm:"not null;default:0" json:"unique_clicks"`                                         // 独立点击
	Signups      int64     `gorm:"not null;default:0" json:"signups"`                                               // 注册
	Customers    int64     `gorm:"not null;default:0" json:"customers"`                                             // 付费转化
	Revenue      Money     `gorm:"type:decimal(20,4);not null;default:0" json:"revenue"`                            // 带来的收入
	Commissions  Money     `gorm:"type:decimal(20,4);not null;default:0" json:"commissions"`                        // 产生的佣金
	CreatedAt    time.Time `json:"created_at"`                                                                      // 创建时间
	UpdatedAt    time.Time `json:"updated_at"`                                                                      // 更新时间
}

// TableName 指定表名
func (AffiliateStatDaily) TableName() string {
	return "affiliate_stats_daily"
}

// StatDateOf 归一化为 UTC 自然日字符串
func StatDateOf(t time.Time) string {
	return t.UTC().Format(StatDateLayout)
}
