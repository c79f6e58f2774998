package router

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/affiliate-engine/internal/cache"
	"github.com/affiliate-engine/internal/config"
	"github.com/affiliate-engine/internal/constants"
	"github.com/affiliate-engine/internal/logger"
	"github.com/affiliate-engine/internal/service"

	"github.com/gin-gonic/gin"
)

// TrackingDeps 推广追踪中间件依赖
type TrackingDeps struct {
	Tracking *service.TrackingService
	Session  *service.TrackingSessionCodec
	Config   config.AffiliateConfig
	Secure   bool
}

// AffiliateTrackingMiddleware 推广点击追踪：仅处理携带 ref/fp 参数的 GET 请求，任何失败都不影响原请求
func AffiliateTrackingMiddleware(deps TrackingDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet || deps.Tracking == nil || deps.Session == nil {
			c.Next()
			return
		}
		query := c.Request.URL.Query()
		code := strings.TrimSpace(query.Get(constants.TrackingQueryCode))
		alias := strings.TrimSpace(query.Get(constants.TrackingQueryAlias))
		if code == "" && alias == "" {
			c.Next()
			return
		}
		trackAffiliateVisit(c, deps, code, alias)
		c.Next()
	}
}

func trackAffiliateVisit(c *gin.Context, deps TrackingDeps, code, alias string) {
	log := logger.SW("request_id", getRequestID(c), "client_ip", c.ClientIP())
	target, err := deps.Tracking.ResolveTarget(code, alias)
	if err != nil {
		log.Warnw("affiliate_click_tracking_failed", "stage", "resolve", "code", code, "alias", alias, "error", err)
		return
	}
	if target == nil || target.Affiliate == nil {
		return
	}

	maxAge := cookieMaxAge(deps.Config)
	sessionID, ok := deps.Session.Verify(readCookie(c, constants.TrackingCookieSession))
	if !ok {
		var token string
		token, sessionID = deps.Session.Issue()
		setTrackingCookie(c, deps, constants.TrackingCookieSession, token, maxAge)
	}
	setTrackingCookie(c, deps, constants.TrackingCookieCode, target.Affiliate.Code, maxAge)

	if target.Link == nil {
		return
	}
	window := time.Duration(deps.Config.ClickRateLimit.WindowSeconds) * time.Second
	allowed, err := cache.AllowAffiliateClick(c.Request.Context(), c.ClientIP(), window, deps.Config.ClickRateLimit.MaxClicks)
	if err != nil {
		log.Warnw("affiliate_click_guard_failed", "error", err)
	}
	if !allowed {
		log.Debugw("affiliate_click_throttled", "affiliate_id", target.Affiliate.ID)
		return
	}

	query := c.Request.URL.Query()
	click, err := deps.Tracking.TrackClick(target.Link.ID, service.TrackClickInput{
		SessionID:   sessionID,
		IPAddress:   c.ClientIP(),
		UserAgent:   c.Request.UserAgent(),
		Referer:     c.Request.Referer(),
		LandingPage: c.Request.URL.Path,
		SubID:       query.Get(constants.TrackingQuerySubID),
		UTMSource:   query.Get("utm_source"),
		UTMMedium:   query.Get("utm_medium"),
		UTMCampaign: query.Get("utm_campaign"),
		UTMTerm:     query.Get("utm_term"),
		UTMContent:  query.Get("utm_content"),
		Country:     c.GetHeader(constants.TrackingHeaderCountry),
		City:        c.GetHeader(constants.TrackingHeaderCity),
		DeviceType:  service.DetectDeviceType(c.Request.UserAgent()),
	})
	if err != nil {
		log.Warnw("affiliate_click_tracking_failed", "stage", "record", "link_id", target.Link.ID, "error", err)
		return
	}
	if click == nil {
		return
	}
	setTrackingCookie(c, deps, constants.TrackingCookieClick, strconv.FormatUint(uint64(click.ID), 10), maxAge)
}

func cookieMaxAge(cfg config.AffiliateConfig) int {
	days := cfg.CookieMaxAgeDays
	if days <= 0 {
		days = constants.DefaultCookieMaxAgeDays
	}
	return days * 24 * 60 * 60
}

func readCookie(c *gin.Context, name string) string {
	value, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return value
}

func setTrackingCookie(c *gin.Context, deps TrackingDeps, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", strings.TrimSpace(deps.Config.CookieDomain), deps.Secure, true)
}
