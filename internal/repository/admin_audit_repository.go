package repository

import (
	"strings"
	"time"

	"github.com/affiliate-engine/internal/models"

	"gorm.io/gorm"
)

// AdminAuditLogFilter 审计日志查询条件
type AdminAuditLogFilter struct {
	AdminID    uint
	Action     string
	TargetType string
	TargetID   uint
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// AdminAuditRepository 后台审计日志存取
type AdminAuditRepository interface {
	Create(entry *models.AdminAuditLog) error
	List(filter AdminAuditLogFilter) ([]models.AdminAuditLog, int64, error)
}

// GormAdminAuditRepository 基于 admin_audit_logs 表
type GormAdminAuditRepository struct {
	db *gorm.DB
}

// NewAdminAuditRepository 创建审计日志仓库
func NewAdminAuditRepository(db *gorm.DB) *GormAdminAuditRepository {
	return &GormAdminAuditRepository{db: db}
}

// Create 写入一条审计日志
func (r *GormAdminAuditRepository) Create(entry *models.AdminAuditLog) error {
	return r.db.Create(entry).Error
}

// List 按条件倒序分页查询
func (r *GormAdminAuditRepository) List(filter AdminAuditLogFilter) ([]models.AdminAuditLog, int64, error) {
	query := r.db.Model(&models.AdminAuditLog{})
	if filter.AdminID > 0 {
		query = query.Where("admin_id = ?", filter.AdminID)
	}
	if action := strings.TrimSpace(filter.Action); action != "" {
		query = query.Where("action = ?", action)
	}
	if targetType := strings.TrimSpace(filter.TargetType); targetType != "" {
		query = query.Where("target_type = ?", targetType)
		if filter.TargetID > 0 {
			query = query.Where("target_id = ?", filter.TargetID)
		}
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at <= ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	rows := make([]models.AdminAuditLog, 0)
	if err := applyLimitOffset(query, filter.Limit, filter.Offset).Order("id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
