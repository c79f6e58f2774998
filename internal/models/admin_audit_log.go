package models

import "time"

// AdminAuditLog 后台操作审计（佣金、提现、设置与权限变更）
type AdminAuditLog struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	AdminID    uint      `gorm:"index;not null" json:"admin_id"`
	Username   string    `gorm:"type:varchar(100);not null;default:''" json:"username"`
	Action     string    `gorm:"type:varchar(64);index;not null" json:"action"`
	TargetType string    `gorm:"type:varchar(32);index:idx_admin_audit_target;not null;default:''" json:"target_type"`
	TargetID   uint      `gorm:"index:idx_admin_audit_target;not null;default:0" json:"target_id"`
	RequestID  string    `gorm:"type:varchar(64);not null;default:''" json:"request_id"`
	Detail     JSON      `gorm:"type:json" json:"detail,omitempty"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (AdminAuditLog) TableName() string {
	return "admin_audit_logs"
}
