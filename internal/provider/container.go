package provider

import (
	"github.com/affiliate-engine/internal/authz"
	"github.com/affiliate-engine/internal/cache"
	"github.com/affiliate-engine/internal/config"
	"github.com/affiliate-engine/internal/logger"
	"github.com/affiliate-engine/internal/models"
	"github.com/affiliate-engine/internal/queue"
	"github.com/affiliate-engine/internal/repository"
	"github.com/affiliate-engine/internal/service"

	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AdminRepo     repository.AdminRepository
	SettingRepo   repository.SettingRepository
	AffiliateRepo repository.AffiliateRepository
	AuditRepo     repository.AdminAuditRepository

	// Services
	AuthzService      *authz.Service
	AdminAuthService  *service.AdminAuthService
	CaptchaService    *service.CaptchaService
	SettingService    *service.SettingService
	AffiliateService  *service.AffiliateService
	TrackingService   *service.TrackingService
	CommissionService *service.CommissionService
	PayoutService     *service.PayoutService
	ReportService     *service.ReportService
	StatsService      *service.StatsService
	TrackingSession   *service.TrackingSessionCodec
	AuditService      *service.AdminAuditService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := NewContainerWithDB(cfg, models.DB, queueClient)
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}
	return c
}

// NewContainerWithDB 使用指定数据库构建容器（不初始化 Redis）
func NewContainerWithDB(cfg *config.Config, db *gorm.DB, queueClient *queue.Client) *Container {
	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories(db)

	// 2. 初始化 Services
	c.initServices(db)

	return c
}

func (c *Container) initRepositories(db *gorm.DB) {
	c.AdminRepo = repository.NewAdminRepository(db)
	c.SettingRepo = repository.NewSettingRepository(db)
	c.AffiliateRepo = repository.NewAffiliateRepository(db)
	c.AuditRepo = repository.NewAdminAuditRepository(db)
}

func (c *Container) initServices(db *gorm.DB) {
	authzService, err := authz.NewService(db)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService

	c.SettingService = service.NewSettingService(c.SettingRepo)
	c.CaptchaService = service.NewCaptchaService(c.Config.Captcha)
	c.AdminAuthService = service.NewAdminAuthService(c.Config, c.AdminRepo)
	c.AffiliateService = service.NewAffiliateService(c.AffiliateRepo, c.SettingService, c.Config.Affiliate)
	c.TrackingService = service.NewTrackingService(c.AffiliateRepo, c.SettingService)
	c.CommissionService = service.NewCommissionService(c.AffiliateRepo, c.SettingService)
	c.PayoutService = service.NewPayoutService(c.AffiliateRepo, c.SettingService)
	c.ReportService = service.NewReportService(c.AffiliateRepo, c.Config.Affiliate)
	c.StatsService = service.NewStatsService(c.AffiliateRepo)
	c.TrackingSession = service.NewTrackingSessionCodec(c.Config.Affiliate.SessionSecret)
	c.AuditService = service.NewAdminAuditService(c.AuditRepo)
}
