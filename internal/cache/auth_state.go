package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/affiliate-engine/internal/logger"
	"github.com/affiliate-engine/internal/models"
)

const (
	adminAuthStateTTL         = 10 * time.Minute
	adminAuthStateKeyTemplate = "auth:admin:%d"
)

// AdminAuthState 管理员令牌校验所需的最小快照
type AdminAuthState struct {
	AdminID      uint   `json:"admin_id"`
	Username     string `json:"username"`
	TokenVersion uint64 `json:"token_version"`
	IsSuper      bool   `json:"is_super"`
	CachedAt     int64  `json:"cached_at"`
}

// Accepts 令牌版本是否仍然有效
func (s *AdminAuthState) Accepts(tokenVersion uint64) bool {
	return s != nil && s.TokenVersion == tokenVersion
}

// BuildAdminAuthState 由管理员记录生成快照
func BuildAdminAuthState(admin *models.Admin) *AdminAuthState {
	if admin == nil {
		return nil
	}
	return &AdminAuthState{
		AdminID:      admin.ID,
		Username:     admin.Username,
		TokenVersion: admin.TokenVersion,
		IsSuper:      admin.IsSuper,
		CachedAt:     time.Now().Unix(),
	}
}

// GetAdminAuthState 读取快照，第二个返回值表示是否命中
func GetAdminAuthState(ctx context.Context, adminID uint) (*AdminAuthState, bool, error) {
	if adminID == 0 {
		return nil, false, nil
	}
	state := &AdminAuthState{}
	hit, err := GetJSON(ctx, fmt.Sprintf(adminAuthStateKeyTemplate, adminID), state)
	if err != nil || !hit {
		return nil, false, err
	}
	return state, true, nil
}

// SetAdminAuthState 写入快照
func SetAdminAuthState(ctx context.Context, state *AdminAuthState) error {
	if state == nil || state.AdminID == 0 {
		return nil
	}
	return SetJSON(ctx, fmt.Sprintf(adminAuthStateKeyTemplate, state.AdminID), state, adminAuthStateTTL)
}

// DelAdminAuthState 使快照失效，改密或吊销后调用
func DelAdminAuthState(ctx context.Context, adminID uint) error {
	if adminID == 0 {
		return nil
	}
	return Del(ctx, fmt.Sprintf(adminAuthStateKeyTemplate, adminID))
}

// LoadAdminAuthState 先读缓存，未命中时回源并回填；管理员不存在返回 nil
func LoadAdminAuthState(ctx context.Context, adminID uint, load func() (*models.Admin, error)) (*AdminAuthState, error) {
	state, hit, err := GetAdminAuthState(ctx, adminID)
	if err != nil {
		logger.Warnw("admin_auth_state_read_failed", "admin_id", adminID, "error", err)
	}
	if hit {
		return state, nil
	}
	admin, err := load()
	if err != nil || admin == nil {
		return nil, err
	}
	state = BuildAdminAuthState(admin)
	if err := SetAdminAuthState(ctx, state); err != nil {
		logger.Warnw("admin_auth_state_write_failed", "admin_id", adminID, "error", err)
	}
	return state, nil
}
