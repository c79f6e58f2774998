package models

import "time"

// AffiliateLink 推广链接
type AffiliateLink struct {
	ID              uint      `gorm:"primarykey" json:"id"`                           // 主键
	AffiliateID     uint      `gorm:"not null;index" json:"affiliate_id"`             // 推广用户ID
	Alias           *string   `gorm:"type:varchar(50);uniqueIndex" json:"alias"`      // 自定义别名
	URL             string    `gorm:"type:varchar(1024);not null" json:"url"`         // 完整推广地址
	UTMSource       string    `gorm:"type:varchar(100)" json:"utm_source"`            // utm_source
	UTMMedium       string    `gorm:"type:varchar(100)" json:"utm_medium"`            // utm_medium
	UTMCampaign     string    `gorm:"type:varchar(100)" json:"utm_campaign"`          // utm_campaign
	IsDefault       bool      `gorm:"not null;default:false;index" json:"is_default"` // 是否默认链接
	IsActive        bool      `gorm:"not null;default:true;index" json:"is_active"`   // 是否启用
	ClickCount      int64     `gorm:"not null;default:0" json:"click_count"`          // 点击数
	ConversionCount int64     `gorm:"not null;default:0" json:"conversion_count"`     // 转化数
	CreatedAt       time.Time `gorm:"index" json:"created_at"`                        // 创建时间
	UpdatedAt       time.Time `json:"updated_at"`                                     // 更新时间
}

// TableName 指定表名
func (AffiliateLink) TableName() string {
	return "affiliate_links"
}

// AliasValue 返回别名（未设置时为空串）
func (l AffiliateLink) AliasValue() string {
	if l.Alias == nil {
		return ""
	}
	return *l.Alias
}
