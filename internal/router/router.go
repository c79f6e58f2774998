package router

import (
	"net/http"
	"strings"

	"github.com/affiliate-engine/internal/cache"
	"github.com/affiliate-engine/internal/config"
	adminhandlers "github.com/affiliate-engine/internal/http/handlers/admin"
	publichandlers "github.com/affiliate-engine/internal/http/handlers/public"
	"github.com/affiliate-engine/internal/logger"
	"github.com/affiliate-engine/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisClient := cache.Client()
	adminLoginRule := rateLimitRule(cfg.Redis.Prefix, "admin_login", cfg.Security.LoginRateLimit)
	adminLoginRule.MessageKey = "error.login_too_many"
	payoutRule := rateLimitRule(cfg.Redis.Prefix, "payout_request", cfg.Security.PayoutRateLimit)

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))
	r.Use(AffiliateTrackingMiddleware(TrackingDeps{
		Tracking: c.TrackingService,
		Session:  c.TrackingSession,
		Config:   cfg.Affiliate,
		Secure:   cfg.Server.IsRelease(),
	}))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/captcha/image", publicHandler.GetImageCaptcha)
		}
		apiV1.GET("/affiliate/leaderboard", publicHandler.GetAffiliateLeaderboard)

		// 内部事件（签名校验在 handler 内完成）
		events := apiV1.Group("/internal/events")
		{
			events.POST("/user-registered", publicHandler.HandleUserRegistered)
			events.POST("/payment-succeeded", publicHandler.HandlePaymentSucceeded)
			events.POST("/payment-refunded", publicHandler.HandlePaymentRefunded)
			events.POST("/referral-status", publicHandler.HandleReferralStatus)
		}

		// 推广接口（需用户鉴权）
		affiliate := apiV1.Group("/affiliate")
		affiliate.Use(UserJWTAuthMiddleware(cfg.UserJWT.SecretKey))
		{
			affiliate.POST("/create", publicHandler.CreateAffiliate)
			affiliate.GET("/dashboard", publicHandler.GetAffiliateDashboard)
			affiliate.POST("/links", publicHandler.CreateAffiliateLink)
			affiliate.GET("/links", publicHandler.ListAffiliateLinks)
			affiliate.PUT("/links/:linkId", publicHandler.UpdateAffiliateLink)
			affiliate.DELETE("/links/:linkId", publicHandler.DeleteAffiliateLink)
			affiliate.GET("/referrals", publicHandler.ListAffiliateReferrals)
			affiliate.GET("/commissions", publicHandler.ListAffiliateCommissions)
			affiliate.GET("/payouts", publicHandler.ListAffiliatePayouts)
			affiliate.POST("/payouts/request", RateLimitMiddleware(redisClient, payoutRule, KeyByUserID), publicHandler.RequestAffiliatePayout)
			affiliate.GET("/analytics", publicHandler.GetAffiliateAnalytics)
			affiliate.GET("/reports/subid", publicHandler.GetAffiliateSubIDReport)
			affiliate.POST("/attribution", publicHandler.BindAffiliateAttribution)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		{
			// 登录接口（无需鉴权）
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIPAndJSONField("username")), adminHandler.AdminLogin)

			// 需要鉴权的接口
			authorized := admin.Group("")
			authorized.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo), AdminRBACMiddleware(c.AuthzService))
			{
				// 推广用户
				authorized.GET("/affiliates", adminHandler.ListAffiliates)
				authorized.PATCH("/affiliates/:id", adminHandler.UpdateAffiliate)
				authorized.GET("/affiliates/:id/stats", adminHandler.GetAffiliateStats)

				// 佣金
				authorized.GET("/commissions", adminHandler.ListCommissions)
				authorized.POST("/commissions/:id/approve", adminHandler.ApproveCommission)
				authorized.POST("/commissions/:id/cancel", adminHandler.CancelCommission)
				authorized.POST("/commissions/bonus", adminHandler.CreateBonusCommission)
				authorized.POST("/commissions/reverse", adminHandler.ReverseCommissions)

				// 提现
				authorized.GET("/payouts", adminHandler.ListPayouts)
				authorized.POST("/payouts/:id/process", adminHandler.ProcessPayout)
				authorized.POST("/payouts/:id/complete", adminHandler.CompletePayout)
				authorized.POST("/payouts/:id/fail", adminHandler.FailPayout)

				// 设置管理
				authorized.GET("/settings/affiliate", adminHandler.GetAffiliateSettings)
				authorized.PUT("/settings/affiliate", adminHandler.UpdateAffiliateSettings)
				authorized.DELETE("/settings/affiliate", adminHandler.ResetAffiliateSettings)

				// 操作审计
				authorized.GET("/audit-logs", adminHandler.ListAuditLogs)

				// 账号安全
				authorized.PUT("/password", adminHandler.ChangePassword)
				authorized.POST("/authz/admins/:id/revoke", adminHandler.RevokeAdminSessions)

				// 权限管理
				authorized.GET("/authz/me", adminHandler.GetAuthzMe)
				authorized.GET("/authz/roles", adminHandler.ListAuthzRoles)
				authorized.GET("/authz/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
				authorized.GET("/authz/admins", adminHandler.ListAuthzAdmins)
				authorized.GET("/authz/admins/:id/roles", adminHandler.GetAuthzAdminRoles)
				authorized.PUT("/authz/admins/:id/roles", adminHandler.SetAuthzAdminRoles)
				authorized.GET("/authz/permissions/catalog", permissionCatalogHandler(r))
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}

// rateLimitRule 以 redis 前缀拼出限流规则的 key 前缀
func rateLimitRule(redisPrefix, name string, limit config.RateLimitConfig) RateLimitRule {
	prefix := strings.TrimSpace(redisPrefix)
	if prefix == "" {
		prefix = "aff"
	}
	return RateLimitRule{
		Prefix:        prefix + ":rate:" + name,
		WindowSeconds: limit.WindowSeconds,
		MaxRequests:   limit.MaxAttempts,
		BlockSeconds:  limit.BlockSeconds,
	}
}
