package service

import (
	"strings"
	"time"

	"github.com/affiliate-engine/internal/models"
	"github.com/affiliate-engine/internal/repository"
)

// 审计动作
const (
	AuditAffiliateUpdated     = "affiliate.updated"
	AuditCommissionApproved   = "commission.approved"
	AuditCommissionCancelled  = "commission.cancelled"
	AuditCommissionBonus      = "commission.bonus_created"
	AuditCommissionsReversed  = "commission.reversed"
	AuditPayoutProcessed      = "payout.processing"
	AuditPayoutCompleted      = "payout.completed"
	AuditPayoutFailed         = "payout.failed"
	AuditSettingsUpdated      = "settings.updated"
	AuditSettingsReset        = "settings.reset"
	AuditAdminRolesChanged    = "admin.roles_changed"
	AuditAdminSessionsRevoked = "admin.sessions_revoked"
	AuditAdminPasswordChanged = "admin.password_changed"
)

// AuditEntry 一条待记录的后台操作
type AuditEntry struct {
	AdminID    uint
	Username   string
	Action     string
	TargetType string
	TargetID   uint
	RequestID  string
	Detail     map[string]interface{}
}

// AdminAuditService 后台操作审计
type AdminAuditService struct {
	repo repository.AdminAuditRepository
}

// NewAdminAuditService 创建审计服务
func NewAdminAuditService(repo repository.AdminAuditRepository) *AdminAuditService {
	return &AdminAuditService{repo: repo}
}

// Record 写入审计日志；缺少操作人或动作时忽略
func (s *AdminAuditService) Record(entry AuditEntry) error {
	if s == nil || s.repo == nil {
		return nil
	}
	action := strings.TrimSpace(entry.Action)
	if entry.AdminID == 0 || action == "" {
		return nil
	}
	return s.repo.Create(&models.AdminAuditLog{
		AdminID:    entry.AdminID,
		Username:   truncateString(strings.TrimSpace(entry.Username), 100),
		Action:     action,
		TargetType: strings.TrimSpace(entry.TargetType),
		TargetID:   entry.TargetID,
		RequestID:  truncateString(strings.TrimSpace(entry.RequestID), 64),
		Detail:     models.JSON(entry.Detail),
		CreatedAt:  time.Now().UTC(),
	})
}

// List 查询审计日志
func (s *AdminAuditService) List(filter repository.AdminAuditLogFilter) ([]models.AdminAuditLog, int64, error) {
	if s == nil || s.repo == nil {
		return []models.AdminAuditLog{}, 0, nil
	}
	filter.Limit, filter.Offset = repository.NormalizeLimitOffset(filter.Limit, filter.Offset)
	return s.repo.List(filter)
}
