package repository

import (
	"errors"
	"time"

	"github.com/affiliate-engine/internal/models"

	"gorm.io/gorm"
)

// AdminRepository 后台管理员存取
type AdminRepository interface {
	GetByUsername(username string) (*models.Admin, error)
	GetByID(id uint) (*models.Admin, error)
	List() ([]models.Admin, error)
	Create(admin *models.Admin) error
	TouchLastLogin(id uint, at time.Time) error
	UpdatePassword(id uint, passwordHash string) error
	BumpTokenVersion(id uint) error
}

// GormAdminRepository 基于 admins 表
type GormAdminRepository struct {
	db *gorm.DB
}

// NewAdminRepository 创建管理员仓库
func NewAdminRepository(db *gorm.DB) *GormAdminRepository {
	return &GormAdminRepository{db: db}
}

func (r *GormAdminRepository) takeAdmin(query *gorm.DB) (*models.Admin, error) {
	var admin models.Admin
	err := query.Take(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

// GetByUsername 按用户名查找
func (r *GormAdminRepository) GetByUsername(username string) (*models.Admin, error) {
	return r.takeAdmin(r.db.Where("username = ?", username))
}

// GetByID 按主键查找
func (r *GormAdminRepository) GetByID(id uint) (*models.Admin, error) {
	if id == 0 {
		return nil, nil
	}
	return r.takeAdmin(r.db.Where("id = ?", id))
}

// List 管理员列表，不含密码哈希
func (r *GormAdminRepository) List() ([]models.Admin, error) {
	var admins []models.Admin
	err := r.db.
		Omit("password_hash").
		Order("id ASC").
		Find(&admins).Error
	if err != nil {
		return nil, err
	}
	return admins, nil
}

// Create 新增管理员
func (r *GormAdminRepository) Create(admin *models.Admin) error {
	return r.db.Create(admin).Error
}

// TouchLastLogin 刷新最后登录时间
func (r *GormAdminRepository) TouchLastLogin(id uint, at time.Time) error {
	if id == 0 {
		return nil
	}
	return r.db.Model(&models.Admin{}).Where("id = ?", id).UpdateColumn("last_login_at", at).Error
}

// UpdatePassword 更新密码并使已签发令牌失效
func (r *GormAdminRepository) UpdatePassword(id uint, passwordHash string) error {
	return r.db.Model(&models.Admin{}).Where("id = ?", id).Updates(map[string]interface{}{
		"password_hash": passwordHash,
		"token_version": gorm.Expr("token_version + 1"),
		"updated_at":    time.Now().UTC(),
	}).Error
}

// BumpTokenVersion 令牌版本加一，强制该管理员重新登录
func (r *GormAdminRepository) BumpTokenVersion(id uint) error {
	result := r.db.Model(&models.Admin{}).Where("id = ?", id).UpdateColumn("token_version", gorm.Expr("token_version + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
