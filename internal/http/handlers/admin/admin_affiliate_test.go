package admin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/affiliate-engine/internal/authz"
	"github.com/affiliate-engine/internal/config"
	"github.com/affiliate-engine/internal/http/response"
	"github.com/affiliate-engine/internal/models"
	"github.com/affiliate-engine/internal/provider"
	"github.com/affiliate-engine/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type envelope struct {
	StatusCode int             `json:"status_code"`
	Msg        string          `json:"msg"`
	Data       json.RawMessage `json:"data"`
}

func setupAdminHandlerTest(t *testing.T) (*Handler, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:admin_handler_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))

	cfg := &config.Config{}
	cfg.JWT.SecretKey = "admin-secret"
	cfg.JWT.ExpireHours = 1
	cfg.Affiliate.FrontendURL = "https://app.example.com"
	h := New(provider.NewContainerWithDB(cfg, db, nil))
	require.NoError(t, h.AuthzService.BootstrapBuiltinRoles())

	engine := gin.New()
	engine.POST("/admin/login", h.AdminLogin)
	group := engine.Group("/admin", func(c *gin.Context) {
		c.Set("admin_id", uint(1))
		c.Set("username", "root")
		c.Next()
	})
	group.GET("/affiliates", h.ListAffiliates)
	group.PATCH("/affiliates/:id", h.UpdateAffiliate)
	group.GET("/affiliates/:id/stats", h.GetAffiliateStats)
	group.GET("/commissions", h.ListCommissions)
	group.POST("/commissions/bonus", h.CreateBonusCommission)
	group.POST("/commissions/:id/approve", h.ApproveCommission)
	group.POST("/commissions/:id/cancel", h.CancelCommission)
	group.POST("/payouts/:id/process", h.ProcessPayout)
	group.POST("/payouts/:id/complete", h.CompletePayout)
	group.GET("/settings/affiliate", h.GetAffiliateSettings)
	group.PUT("/settings/affiliate", h.UpdateAffiliateSettings)
	group.DELETE("/settings/affiliate", h.ResetAffiliateSettings)
	group.PUT("/password", h.ChangePassword)
	group.POST("/authz/admins/:id/revoke", h.RevokeAdminSessions)
	group.GET("/authz/me", h.GetAuthzMe)
	group.GET("/audit-logs", h.ListAuditLogs)
	group.GET("/authz/roles", h.ListAuthzRoles)
	group.PUT("/authz/admins/:id/roles", h.SetAuthzAdminRoles)
	return h, engine
}

func doRequest(t *testing.T, engine *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	var resp envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func seedAdmin(t *testing.T, h *Handler, username, password string) *models.Admin {
	t.Helper()
	hash, err := service.HashPassword(password)
	require.NoError(t, err)
	admin := &models.Admin{Username: username, PasswordHash: hash}
	require.NoError(t, h.AdminRepo.Create(admin))
	return admin
}

func TestAdminLogin(t *testing.T) {
	h, engine := setupAdminHandlerTest(t)
	seedAdmin(t, h, "root", "correct-horse")

	_, resp := doRequest(t, engine, http.MethodPost, "/admin/login", gin.H{"username": "root", "password": "wrong"})
	require.Equal(t, response.CodeUnauthorized, resp.StatusCode)

	_, resp = doRequest(t, engine, http.MethodPost, "/admin/login", gin.H{"username": "root", "password": "correct-horse"})
	require.Equal(t, response.CodeOK, resp.StatusCode, resp.Msg)
	var data LoginResponse
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	claims, err := service.ParseAdminJWT("admin-secret", data.Token)
	require.NoError(t, err)
	require.Equal(t, "root", claims.Username)
}

func TestAdminUpdateAffiliateValidatesRate(t *testing.T) {
	h, engine := setupAdminHandlerTest(t)
	affiliate, err := h.AffiliateService.CreateOrGetAffiliate(42)
	require.NoError(t, err)

	path := fmt.Sprintf("/admin/affiliates/%d", affiliate.ID)
	_, resp := doRequest(t, engine, http.MethodPatch, path, gin.H{"commission_rate": "120"})
	require.Equal(t, response.CodeBadRequest, resp.StatusCode)

	_, resp = doRequest(t, engine, http.MethodPatch, path, gin.H{"commission_rate": "25.5", "status": "suspended"})
	require.Equal(t, response.CodeOK, resp.StatusCode, resp.Msg)
	var data struct {
		Affiliate models.Affiliate `json:"affiliate"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	require.Equal(t, "suspended", data.Affiliate.Status)
	require.True(t, data.Affiliate.CommissionRate.Decimal.Equal(decimal.RequireFromString("25.5")))
	require.True(t, data.Affiliate.RateOverride)

	_, resp = doRequest(t, engine, http.MethodPatch, "/admin/affiliates/9999", gin.H{"status": "active"})
	require.Equal(t, response.CodeNotFound, resp.StatusCode)

	_, resp = doRequest(t, engine, http.MethodGet, "/admin/affiliates?status=suspended", nil)
	require.Equal(t, response.CodeOK, resp.StatusCode)
	var list struct {
		Total int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &list))
	require.Equal(t, int64(1), list.Total)
}

func TestAdminBonusApproveAndPayoutFlow(t *testing.T) {
	h, engine := setupAdminHandlerTest(t)
	affiliate, err := h.AffiliateService.CreateOrGetAffiliate(42)
	require.NoError(t, err)

	_, resp := doRequest(t, engine, http.MethodPost, "/admin/commissions/bonus", gin.H{"affiliate_id": affiliate.ID, "amount": "-5"})
	require.Equal(t, response.CodeBadRequest, resp.StatusCode)

	w, resp := doRequest(t, engine, http.MethodPost, "/admin/commissions/bonus", gin.H{"affiliate_id": affiliate.ID, "amount": "80", "note": "launch"})
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, response.CodeOK, resp.StatusCode, resp.Msg)
	var bonus struct {
		Commission models.AffiliateCommission `json:"commission"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &bonus))

	_, resp = doRequest(t, engine, http.MethodPost, fmt.Sprintf("/admin/commissions/%d/approve", bonus.Commission.ID), nil)
	require.Equal(t, response.CodeConflict, resp.StatusCode)

	payout, err := h.PayoutService.RequestPayout(42, service.PayoutRequestInput{
		Amount: decimal.RequireFromString("60"),
		Method: "paypal",
	})
	require.NoError(t, err)

	_, resp = doRequest(t, engine, http.MethodPost, fmt.Sprintf("/admin/payouts/%d/complete", payout.ID), nil)
	require.Equal(t, response.CodeConflict, resp.StatusCode)

	_, resp = doRequest(t, engine, http.MethodPost, fmt.Sprintf("/admin/payouts/%d/process", payout.ID), gin.H{"transaction_id": "TX-1"})
	require.Equal(t, response.CodeOK, resp.StatusCode, resp.Msg)

	_, resp = doRequest(t, engine, http.MethodPost, fmt.Sprintf("/admin/payouts/%d/complete", payout.ID), nil)
	require.Equal(t, response.CodeOK, resp.StatusCode, resp.Msg)
	var done struct {
		Payout models.AffiliatePayout `json:"payout"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &done))
	require.Equal(t, "completed", done.Payout.Status)

	_, resp = doRequest(t, engine, http.MethodPost, "/admin/commissions/9999/cancel", nil)
	require.Equal(t, response.CodeNotFound, resp.StatusCode)
}

func TestAdminAffiliateSettings(t *testing.T) {
	_, engine := setupAdminHandlerTest(t)

	setting := service.AffiliateDefaultSetting()
	setting.AttributionWindowDays = 0
	_, resp := doRequest(t, engine, http.MethodPut, "/admin/settings/affiliate", setting)
	require.Equal(t, response.CodeBadRequest, resp.StatusCode)

	setting = service.AffiliateDefaultSetting()
	setting.MinPayoutAmount = 75
	_, resp = doRequest(t, engine, http.MethodPut, "/admin/settings/affiliate", setting)
	require.Equal(t, response.CodeOK, resp.StatusCode, resp.Msg)

	_, resp = doRequest(t, engine, http.MethodGet, "/admin/settings/affiliate", nil)
	require.Equal(t, response.CodeOK, resp.StatusCode)
	var got service.AffiliateSetting
	require.NoError(t, json.Unmarshal(resp.Data, &got))
	require.Equal(t, float64(75), got.MinPayoutAmount)

	_, resp = doRequest(t, engine, http.MethodDelete, "/admin/settings/affiliate", nil)
	require.Equal(t, response.CodeOK, resp.StatusCode)
	_, resp = doRequest(t, engine, http.MethodGet, "/admin/settings/affiliate", nil)
	require.NoError(t, json.Unmarshal(resp.Data, &got))
	require.Equal(t, service.AffiliateDefaultSetting().MinPayoutAmount, got.MinPayoutAmount)
}

func TestAdminRoleAssignment(t *testing.T) {
	h, engine := setupAdminHandlerTest(t)
	target := seedAdmin(t, h, "finance", "pw-123456")

	_, resp := doRequest(t, engine, http.MethodGet, "/admin/authz/roles", nil)
	require.Equal(t, response.CodeOK, resp.StatusCode)
	var roles []string
	require.NoError(t, json.Unmarshal(resp.Data, &roles))
	require.Contains(t, roles, "role:"+authz.RoleAffiliateFinance)

	path := fmt.Sprintf("/admin/authz/admins/%d/roles", target.ID)
	_, resp = doRequest(t, engine, http.MethodPut, path, gin.H{"roles": []string{"role:ghost"}})
	require.Equal(t, response.CodeBadRequest, resp.StatusCode)

	_, resp = doRequest(t, engine, http.MethodPut, path, gin.H{"roles": []string{authz.RoleAffiliateFinance}})
	require.Equal(t, response.CodeOK, resp.StatusCode, resp.Msg)
	assigned, err := h.AuthzService.GetAdminRoles(target.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"role:" + authz.RoleAffiliateFinance}, assigned)
}

func TestAdminChangePasswordAndRevoke(t *testing.T) {
	h, engine := setupAdminHandlerTest(t)
	root := seedAdmin(t, h, "root", "correct-horse")
	require.Equal(t, uint(1), root.ID)

	_, resp := doRequest(t, engine, http.MethodPut, "/admin/password", gin.H{"old_password": "nope", "new_password": "battery-staple"})
	require.Equal(t, response.CodeBadRequest, resp.StatusCode)

	_, resp = doRequest(t, engine, http.MethodPut, "/admin/password", gin.H{"old_password": "correct-horse", "new_password": "battery-staple"})
	require.Equal(t, response.CodeOK, resp.StatusCode, resp.Msg)

	_, resp = doRequest(t, engine, http.MethodPost, "/admin/login", gin.H{"username": "root", "password": "battery-staple"})
	require.Equal(t, response.CodeOK, resp.StatusCode, resp.Msg)

	_, resp = doRequest(t, engine, http.MethodPost, "/admin/authz/admins/1/revoke", nil)
	require.Equal(t, response.CodeOK, resp.StatusCode)
	stored, err := h.AdminRepo.GetByID(1)
	require.NoError(t, err)
	require.Equal(t, uint64(2), stored.TokenVersion)

	_, resp = doRequest(t, engine, http.MethodPost, "/admin/authz/admins/9999/revoke", nil)
	require.Equal(t, response.CodeNotFound, resp.StatusCode)
}

func TestAdminAuthzMeReportsCapabilities(t *testing.T) {
	h, engine := setupAdminHandlerTest(t)
	require.NoError(t, h.AuthzService.SetAdminRoles(1, []string{authz.RoleAffiliateManager}))

	_, resp := doRequest(t, engine, http.MethodGet, "/admin/authz/me", nil)
	require.Equal(t, response.CodeOK, resp.StatusCode)
	var data struct {
		Roles        []string        `json:"roles"`
		Capabilities map[string]bool `json:"capabilities"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	require.Equal(t, []string{"role:" + authz.RoleAffiliateManager}, data.Roles)
	require.True(t, data.Capabilities["approve_commissions"])
	require.False(t, data.Capabilities["process_payouts"])
}

func TestAdminAffiliateStatsAccumulate(t *testing.T) {
	h, engine := setupAdminHandlerTest(t)
	affiliate, err := h.AffiliateService.CreateOrGetAffiliate(42)
	require.NoError(t, err)

	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		require.NoError(t, h.StatsService.UpdateDailyStats(affiliate.ID, now, service.StatDelta{Clicks: 1}))
	}
	require.NoError(t, h.StatsService.UpdateDailyStats(affiliate.ID, now, service.StatDelta{
		Customers: 1,
		Revenue:   decimal.RequireFromString("99.99"),
	}))

	today := models.StatDateOf(now)
	path := fmt.Sprintf("/admin/affiliates/%d/stats?start_date=%s&end_date=%s", affiliate.ID, today, today)
	_, resp := doRequest(t, engine, http.MethodGet, path, nil)
	require.Equal(t, response.CodeOK, resp.StatusCode, resp.Msg)
	var report service.AffiliateStatsReport
	require.NoError(t, json.Unmarshal(resp.Data, &report))
	require.Len(t, report.DailyStats, 1)
	require.Equal(t, int64(3), report.DailyStats[0].Clicks)
	require.Equal(t, int64(3), report.Summary.TotalClicks)
	require.Equal(t, "99.99", report.Summary.TotalRevenue.String())

	_, resp = doRequest(t, engine, http.MethodGet, fmt.Sprintf("/admin/affiliates/%d/stats?start_date=%s", affiliate.ID, today), nil)
	require.Equal(t, response.CodeBadRequest, resp.StatusCode)

	_, resp = doRequest(t, engine, http.MethodGet, "/admin/affiliates/9999/stats", nil)
	require.Equal(t, response.CodeNotFound, resp.StatusCode)
}

func TestAdminActionsAreAudited(t *testing.T) {
	h, engine := setupAdminHandlerTest(t)
	affiliate, err := h.AffiliateService.CreateOrGetAffiliate(42)
	require.NoError(t, err)

	_, resp := doRequest(t, engine, http.MethodPost, "/admin/commissions/bonus", gin.H{"affiliate_id": affiliate.ID, "amount": "15", "note": "contest"})
	require.Equal(t, response.CodeOK, resp.StatusCode, resp.Msg)
	_, resp = doRequest(t, engine, http.MethodDelete, "/admin/settings/affiliate", nil)
	require.Equal(t, response.CodeOK, resp.StatusCode, resp.Msg)
	_, resp = doRequest(t, engine, http.MethodPost, "/admin/commissions/bonus", gin.H{"affiliate_id": affiliate.ID, "amount": "-1"})
	require.Equal(t, response.CodeBadRequest, resp.StatusCode)

	_, resp = doRequest(t, engine, http.MethodGet, "/admin/audit-logs", nil)
	require.Equal(t, response.CodeOK, resp.StatusCode, resp.Msg)
	var data struct {
		Logs  []models.AdminAuditLog `json:"logs"`
		Total int64                  `json:"total"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	require.Equal(t, int64(2), data.Total)
	require.Equal(t, service.AuditSettingsReset, data.Logs[0].Action)
	require.Equal(t, service.AuditCommissionBonus, data.Logs[1].Action)
	require.Equal(t, affiliate.ID, data.Logs[1].TargetID)
	require.Equal(t, "root", data.Logs[1].Username)
	require.Equal(t, "15.00", data.Logs[1].Detail["amount"])

	path := fmt.Sprintf("/admin/audit-logs?target_type=affiliate&target_id=%d", affiliate.ID)
	_, resp = doRequest(t, engine, http.MethodGet, path, nil)
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	require.Equal(t, int64(1), data.Total)

	_, resp = doRequest(t, engine, http.MethodGet, "/admin/audit-logs?start_date=bad", nil)
	require.Equal(t, response.CodeBadRequest, resp.StatusCode)
}
