package main

import (
	"errors"
	"fmt"

	"github.com/affiliate-engine/internal/config"
	"github.com/affiliate-engine/internal/logger"
	"github.com/affiliate-engine/internal/models"
	"github.com/affiliate-engine/internal/provider"
	"github.com/affiliate-engine/internal/service"

	"github.com/shopspring/decimal"
)

// demoAffiliate 演示推广用户
type demoAffiliate struct {
	UserID uint
	Links  []service.CreateLinkInput
	// Referred 经该推广用户注册并完成首单的用户
	Referred []demoOrder
}

type demoOrder struct {
	UserID  uint
	OrderID string
	Amount  string
}

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.ToDBOptions()); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}
	if _, err := models.EnsureDefaultAdmin(models.DB, "", ""); err != nil {
		stdLog.Fatalf("Failed to create default admin: %v", err)
	}

	container := provider.NewContainerWithDB(cfg, models.DB, nil)
	if err := container.AuthzService.BootstrapBuiltinRoles(); err != nil {
		stdLog.Fatalf("Failed to bootstrap roles: %v", err)
	}

	// 推广计划设置
	setting := service.AffiliateDefaultSetting()
	if _, err := container.SettingService.UpdateAffiliateSetting(setting); err != nil {
		stdLog.Fatalf("Failed to save affiliate settings: %v", err)
	}

	// 演示推广用户与链接
	demos := []demoAffiliate{
		{
			UserID: 1001,
			Links: []service.CreateLinkInput{
				{Alias: "spring-sale", UTMSource: "newsletter", UTMMedium: "email", UTMCampaign: "spring"},
				{Alias: "yt-review", UTMSource: "youtube", UTMMedium: "video"},
			},
			Referred: []demoOrder{
				{UserID: 2001, OrderID: "SEED-ORDER-1", Amount: "99.99"},
				{UserID: 2002, OrderID: "SEED-ORDER-2", Amount: "249.00"},
			},
		},
		{
			UserID: 1002,
			Links: []service.CreateLinkInput{
				{Alias: "blog-footer", UTMSource: "blog", UTMMedium: "referral"},
			},
		},
		{UserID: 1003},
	}
	for _, demo := range demos {
		affiliate, err := container.AffiliateService.CreateOrGetAffiliate(demo.UserID)
		if err != nil {
			stdLog.Fatalf("Failed to create affiliate for user %d: %v", demo.UserID, err)
		}
		for _, input := range demo.Links {
			if _, err := container.AffiliateService.CreateLink(demo.UserID, input); err != nil {
				if errors.Is(err, service.ErrAliasTaken) {
					continue
				}
				stdLog.Fatalf("Failed to create link %s: %v", input.Alias, err)
			}
		}
		for _, order := range demo.Referred {
			if _, err := container.TrackingService.TrackReferral(order.UserID, affiliate.Code, nil); err != nil {
				stdLog.Fatalf("Failed to track referral for user %d: %v", order.UserID, err)
			}
			amount := decimal.RequireFromString(order.Amount)
			if _, err := container.CommissionService.ConvertReferralToCustomer(order.UserID, order.OrderID, amount); err != nil {
				stdLog.Fatalf("Failed to convert order %s: %v", order.OrderID, err)
			}
		}
		fmt.Printf("affiliate user=%d code=%s referrals=%d\n", demo.UserID, affiliate.Code, len(demo.Referred))
	}

	fmt.Println("Seed completed")
}
