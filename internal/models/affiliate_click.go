package models

import "time"

// AffiliateClick 推广点击记录（创建后不可变）
type AffiliateClick struct {
	ID          uint      `gorm:"primarykey" json:"id"`                                                        // 主键
	LinkID      uint      `gorm:"not null;index" json:"link_id"`                                               // 推广链接ID
	AffiliateID uint      `gorm:"not null;index;uniqueIndex:uniq_affiliate_click_session" json:"affiliate_id"` // 推广用户ID
	SessionID   *string   `gorm:"type:varchar(64);uniqueIndex:uniq_affiliate_click_session" json:"session_id"` // 访客会话
	IPAddress   string    `gorm:"type:varchar(64)" json:"ip_address"`                                          // 客户端IP
	UserAgent   string    `gorm:"type:varchar(1024)" json:"user_agent"`                                        // 客户端UA
	Referer     string    `gorm:"type:varchar(1024)" json:"referer"`                                           // 来源地址
	LandingPage string    `gorm:"type:varchar(1024)" json:"landing_page"`                                      // 落地页
	SubID       *string   `gorm:"type:varchar(100);index" json:"sub_id"`                                       // 子渠道标记
	UTMSource   string    `gorm:"type:varchar(100)" json:"utm_source"`                                         // utm_source
	UTMMedium   string    `gorm:"type:varchar(100)" json:"utm_medium"`                                         // utm_medium
	UTMCampaign string    `gorm:"type:varchar(100)" json:"utm_campaign"`                                       // utm_campaign
	UTMTerm     string    `gorm:"type:varchar(100)" json:"utm_term"`                                           // utm_term
	UTMContent  string    `gorm:"type:varchar(100)" json:"utm_content"`                                        // utm_content
	Country     string    `gorm:"type:varchar(8)" json:"country"`                                              // 国家
	City        string    `gorm:"type:varchar(100)" json:"city"`                                               // 城市
	DeviceType  string    `gorm:"type:varchar(20)" json:"device_type"`                                         // 设备类型
	CreatedAt   time.Time `gorm:"index;not null" json:"created_at"`                                            // 创建时间
}

// TableName 指定表名
func (AffiliateClick) TableName() string {
	return "affiliate_clicks"
}
