package service

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/affiliate-engine/internal/config"
	"github.com/affiliate-engine/internal/constants"
	"github.com/affiliate-engine/internal/models"
	"github.com/affiliate-engine/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type affiliateTestEnv struct {
	db          *gorm.DB
	repo        repository.AffiliateRepository
	settings    *SettingService
	settingRepo *mockSettingRepo
	affiliates  *AffiliateService
	tracking    *TrackingService
	commissions *CommissionService
	payouts     *PayoutService
	reports     *ReportService
}

func setupAffiliateTestEnv(t *testing.T) *affiliateTestEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:affiliate_service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Affiliate{},
		&models.AffiliateLink{},
		&models.AffiliateClick{},
		&models.AffiliateReferral{},
		&models.AffiliateCommission{},
		&models.AffiliatePayout{},
		&models.AffiliateStatDaily{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	repo := repository.NewAffiliateRepository(db)
	settingRepo := newMockSettingRepo()
	settings := NewSettingService(settingRepo)
	cfg := config.AffiliateConfig{FrontendURL: "https://app.example.com"}
	return &affiliateTestEnv{
		db:          db,
		repo:        repo,
		settings:    settings,
		settingRepo: settingRepo,
		affiliates:  NewAffiliateService(repo, settings, cfg),
		tracking:    NewTrackingService(repo, settings),
		commissions: NewCommissionService(repo, settings),
		payouts:     NewPayoutService(repo, settings),
		reports:     NewReportService(repo, cfg),
	}
}

func (e *affiliateTestEnv) updateSetting(t *testing.T, mutate func(*AffiliateSetting)) {
	t.Helper()
	setting := AffiliateDefaultSetting()
	mutate(&setting)
	if _, err := e.settings.UpdateAffiliateSetting(setting); err != nil {
		t.Fatalf("update affiliate setting failed: %v", err)
	}
}

// createTestAffiliate 直接写库创建推广用户及默认链接，推广码固定便于断言
func (e *affiliateTestEnv) createTestAffiliate(t *testing.T, userID uint, code string) *models.Affiliate {
	t.Helper()
	now := time.Now().UTC()
	affiliate := &models.Affiliate{
		UserID:         userID,
		Code:           code,
		CommissionRate: models.NewMoneyFromString("20"),
		Tier:           constants.AffiliateTierBase,
		Status:         constants.AffiliateStatusActive,
		TotalEarnings:  models.NewMoneyFromString("0"),
		PendingPayouts: models.NewMoneyFromString("0"),
		PaidAmount:     models.NewMoneyFromString("0"),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := e.repo.CreateAffiliate(affiliate); err != nil {
		t.Fatalf("create affiliate failed: %v", err)
	}
	link := &models.AffiliateLink{
		AffiliateID: affiliate.ID,
		URL:         e.affiliates.BuildLinkURL(code, "", CreateLinkInput{}),
		IsDefault:   true,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := e.repo.CreateLink(link); err != nil {
		t.Fatalf("create default link failed: %v", err)
	}
	return affiliate
}

func (e *affiliateTestEnv) createTestReferral(t *testing.T, affiliateID, userID uint, createdAt time.Time) *models.AffiliateReferral {
	t.Helper()
	referral := &models.AffiliateReferral{
		AffiliateID:   affiliateID,
		UserID:        userID,
		Status:        constants.ReferralStatusSignup,
		LifetimeValue: models.NewMoneyFromString("0"),
		CreatedAt:     createdAt.UTC(),
		UpdatedAt:     createdAt.UTC(),
	}
	if err := e.repo.CreateReferral(referral); err != nil {
		t.Fatalf("create referral failed: %v", err)
	}
	return referral
}

func (e *affiliateTestEnv) reloadAffiliate(t *testing.T, id uint) *models.Affiliate {
	t.Helper()
	affiliate, err := e.repo.GetAffiliateByID(id)
	if err != nil || affiliate == nil {
		t.Fatalf("reload affiliate failed: %v", err)
	}
	return affiliate
}

func assertDecimal(t *testing.T, field string, got decimal.Decimal, want string) {
	t.Helper()
	expected := decimal.RequireFromString(want)
	if !got.Equal(expected) {
		t.Fatalf("%s: expected %s, got %s", field, expected.String(), got.String())
	}
}

func TestCreateOrGetAffiliateCreatesDefaultLink(t *testing.T) {
	env := setupAffiliateTestEnv(t)

	affiliate, err := env.affiliates.CreateOrGetAffiliate(1234567)
	if err != nil {
		t.Fatalf("create affiliate failed: %v", err)
	}
	if !strings.HasPrefix(affiliate.Code, "4567") {
		t.Fatalf("expected code to start with user suffix, got %s", affiliate.Code)
	}
	if affiliate.Code != strings.ToUpper(affiliate.Code) {
		t.Fatalf("expected upper-case code, got %s", affiliate.Code)
	}
	assertDecimal(t, "commission_rate", affiliate.CommissionRate.Decimal, "20")
	if affiliate.Status != constants.AffiliateStatusActive {
		t.Fatalf("expected active status, got %s", affiliate.Status)
	}
	if len(affiliate.Links) != 1 || !affiliate.Links[0].IsDefault {
		t.Fatalf("expected exactly one default link, got %+v", affiliate.Links)
	}
	if !strings.Contains(affiliate.Links[0].URL, "ref="+affiliate.Code) {
		t.Fatalf("unexpected default link url: %s", affiliate.Links[0].URL)
	}

	again, err := env.affiliates.CreateOrGetAffiliate(1234567)
	if err != nil {
		t.Fatalf("second create failed: %v", err)
	}
	if again.ID != affiliate.ID || again.Code != affiliate.Code {
		t.Fatalf("expected existing affiliate returned, got %+v", again)
	}
	var count int64
	env.db.Model(&models.Affiliate{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected single affiliate row, got %d", count)
	}
}

func TestCreateOrGetAffiliateDisabledProgram(t *testing.T) {
	env := setupAffiliateTestEnv(t)
	env.updateSetting(t, func(s *AffiliateSetting) { s.Enabled = false })

	if _, err := env.affiliates.CreateOrGetAffiliate(9); !errors.Is(err, ErrAffiliateDisabled) {
		t.Fatalf("expected ErrAffiliateDisabled, got %v", err)
	}
}

func TestCreateLinkValidatesAliasAndCapacity(t *testing.T) {
	env := setupAffiliateTestEnv(t)
	env.updateSetting(t, func(s *AffiliateSetting) { s.MaxActiveLinks = 2 })
	affiliate := env.createTestAffiliate(t, 1, "LINK01")
	env.createTestAffiliate(t, 2, "LINK02")

	if _, err := env.affiliates.CreateLink(1, CreateLinkInput{Alias: "no spaces"}); !errors.Is(err, ErrInvalidAlias) {
		t.Fatalf("expected ErrInvalidAlias, got %v", err)
	}
	if _, err := env.affiliates.CreateLink(1, CreateLinkInput{Alias: "ab"}); !errors.Is(err, ErrInvalidAlias) {
		t.Fatalf("expected ErrInvalidAlias for short alias, got %v", err)
	}

	link, err := env.affiliates.CreateLink(1, CreateLinkInput{Alias: "summer-sale", UTMSource: "newsletter"})
	if err != nil {
		t.Fatalf("create link failed: %v", err)
	}
	if link.AliasValue() != "summer-sale" || link.IsDefault {
		t.Fatalf("unexpected link: %+v", link)
	}
	if !strings.Contains(link.URL, "fp=summer-sale") || !strings.Contains(link.URL, "utm_source=newsletter") {
		t.Fatalf("unexpected link url: %s", link.URL)
	}

	if _, err := env.affiliates.CreateLink(2, CreateLinkInput{Alias: "summer-sale"}); !errors.Is(err, ErrAliasTaken) {
		t.Fatalf("expected ErrAliasTaken, got %v", err)
	}
	if _, err := env.affiliates.CreateLink(1, CreateLinkInput{Alias: "third-link"}); !errors.Is(err, ErrLinkLimitReached) {
		t.Fatalf("expected ErrLinkLimitReached, got %v", err)
	}

	links, err := env.affiliates.ListLinks(1)
	if err != nil {
		t.Fatalf("list links failed: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("expected 2 links for affiliate %d, got %d", affiliate.ID, len(links))
	}
}

func TestDefaultLinkCannotBeDeactivated(t *testing.T) {
	env := setupAffiliateTestEnv(t)
	env.createTestAffiliate(t, 1, "DEF001")
	links, err := env.affiliates.ListLinks(1)
	if err != nil || len(links) != 1 {
		t.Fatalf("list links failed: %v %d", err, len(links))
	}

	if err := env.affiliates.DeactivateLink(1, links[0].ID); !errors.Is(err, ErrDefaultLinkImmutable) {
		t.Fatalf("expected ErrDefaultLinkImmutable, got %v", err)
	}
	inactive := false
	if _, err := env.affiliates.UpdateLink(1, links[0].ID, UpdateLinkInput{IsActive: &inactive}); !errors.Is(err, ErrDefaultLinkImmutable) {
		t.Fatalf("expected ErrDefaultLinkImmutable on update, got %v", err)
	}
	if err := env.affiliates.DeactivateLink(2, links[0].ID); !errors.Is(err, ErrAffiliateNotFound) && !errors.Is(err, ErrAffiliateLinkNotFound) {
		t.Fatalf("expected foreign user rejected, got %v", err)
	}
}

func TestUpdateLinkAliasRebuildsURL(t *testing.T) {
	env := setupAffiliateTestEnv(t)
	env.createTestAffiliate(t, 1, "ALIAS1")
	link, err := env.affiliates.CreateLink(1, CreateLinkInput{Alias: "first-alias"})
	if err != nil {
		t.Fatalf("create link failed: %v", err)
	}

	alias := "second-alias"
	updated, err := env.affiliates.UpdateLink(1, link.ID, UpdateLinkInput{Alias: &alias})
	if err != nil {
		t.Fatalf("update link failed: %v", err)
	}
	if updated.AliasValue() != alias || !strings.Contains(updated.URL, "fp=second-alias") {
		t.Fatalf("unexpected updated link: %+v", updated)
	}

	cleared := ""
	updated, err = env.affiliates.UpdateLink(1, link.ID, UpdateLinkInput{Alias: &cleared})
	if err != nil {
		t.Fatalf("clear alias failed: %v", err)
	}
	if updated.Alias != nil || strings.Contains(updated.URL, "fp=") {
		t.Fatalf("expected alias cleared, got %+v", updated)
	}
}

func TestUpdateAffiliateValidatesInput(t *testing.T) {
	env := setupAffiliateTestEnv(t)
	affiliate := env.createTestAffiliate(t, 1, "ADM001")

	bad := decimal.NewFromInt(101)
	if _, err := env.affiliates.UpdateAffiliate(affiliate.ID, UpdateAffiliateInput{CommissionRate: &bad}); !errors.Is(err, ErrInvalidCommissionRate) {
		t.Fatalf("expected ErrInvalidCommissionRate, got %v", err)
	}
	status := "frozen"
	if _, err := env.affiliates.UpdateAffiliate(affiliate.ID, UpdateAffiliateInput{Status: &status}); !errors.Is(err, ErrAffiliateStatusInvalid) {
		t.Fatalf("expected ErrAffiliateStatusInvalid, got %v", err)
	}

	rate := decimal.RequireFromString("27.5")
	suspended := constants.AffiliateStatusSuspended
	updated, err := env.affiliates.UpdateAffiliate(affiliate.ID, UpdateAffiliateInput{CommissionRate: &rate, Status: &suspended})
	if err != nil {
		t.Fatalf("update affiliate failed: %v", err)
	}
	assertDecimal(t, "commission_rate", updated.CommissionRate.Decimal, "27.5")
	if updated.Status != constants.AffiliateStatusSuspended {
		t.Fatalf("expected suspended, got %s", updated.Status)
	}
}

func TestGetDashboardAggregatesTotals(t *testing.T) {
	env := setupAffiliateTestEnv(t)
	affiliate := env.createTestAffiliate(t, 1, "DASH01")
	env.createTestReferral(t, affiliate.ID, 50, time.Now().Add(-24*time.Hour))

	if _, err := env.commissions.ConvertReferralToCustomer(50, "ORD-DASH-1", decimal.NewFromInt(100)); err != nil {
		t.Fatalf("convert failed: %v", err)
	}

	dashboard, err := env.affiliates.GetDashboard(1)
	if err != nil {
		t.Fatalf("get dashboard failed: %v", err)
	}
	if dashboard.Totals.Customers != 1 {
		t.Fatalf("expected 1 customer, got %d", dashboard.Totals.Customers)
	}
	assertDecimal(t, "earnings", dashboard.Totals.Earnings.Decimal, "20")
	if len(dashboard.Commissions) != 1 || len(dashboard.Referrals) != 1 {
		t.Fatalf("unexpected recent lists: %d commissions, %d referrals", len(dashboard.Commissions), len(dashboard.Referrals))
	}
	if len(dashboard.Links) != 1 {
		t.Fatalf("expected default link in dashboard, got %d", len(dashboard.Links))
	}

	if _, err := env.affiliates.GetDashboard(999); !errors.Is(err, ErrAffiliateNotFound) {
		t.Fatalf("expected ErrAffiliateNotFound, got %v", err)
	}
}
