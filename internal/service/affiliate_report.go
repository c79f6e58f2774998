package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/affiliate-engine/internal/cache"
	"github.com/affiliate-engine/internal/config"
	"github.com/affiliate-engine/internal/constants"
	"github.com/affiliate-engine/internal/logger"
	"github.com/affiliate-engine/internal/models"
	"github.com/affiliate-engine/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	analyticsTopReferralLimit     = 10
	leaderboardDefaultLimit       = 10
	leaderboardMaxLimit           = 100
	leaderboardDefaultCacheTTL    = 60 * time.Second
	leaderboardCodeVisibleChars   = 3
	leaderboardCacheKeyTemplate   = "affiliate:leaderboard:%s:%d"
	analyticsDefaultPeriod        = "30days"
	subIDReportDefaultTimeframe   = "last30days"
	analyticsConversionRatePlaces = 2
)

// ReportService 推广报表（只读聚合）
type ReportService struct {
	repo repository.AffiliateRepository
	cfg  config.AffiliateConfig
}

// NewReportService 创建报表服务
func NewReportService(repo repository.AffiliateRepository, cfg config.AffiliateConfig) *ReportService {
	return &ReportService{repo: repo, cfg: cfg}
}

// AnalyticsQuery 分析查询参数（显式日期区间优先于 period）
type AnalyticsQuery struct {
	Period    string
	StartDate string
	EndDate   string
}

// AnalyticsSummary 区间汇总
type AnalyticsSummary struct {
	TotalClicks      int64        `json:"total_clicks"`
	TotalSignups     int64        `json:"total_signups"`
	TotalCustomers   int64        `json:"total_customers"`
	TotalRevenue     models.Money `json:"total_revenue"`
	TotalCommissions models.Money `json:"total_commissions"`
	ConversionRate   float64      `json:"conversion_rate"`
}

// AffiliateAnalytics 推广分析结果
type AffiliateAnalytics struct {
	Summary         AnalyticsSummary            `json:"summary"`
	DailyStats      []models.AffiliateStatDaily `json:"daily_stats"`
	LinkPerformance []models.AffiliateLink      `json:"link_performance"`
	TopReferrals    []models.AffiliateReferral  `json:"top_referrals"`
}

// SubIDReportRow 子渠道报表行
type SubIDReportRow struct {
	SubID     string       `json:"sub_id"`
	Clicks    int64        `json:"clicks"`
	Referrals int64        `json:"referrals"`
	Customers int64        `json:"customers"`
	Earnings  models.Money `json:"earnings"`
}

// LeaderboardEntry 排行榜条目（推广码已脱敏）
type LeaderboardEntry struct {
	Rank      int          `json:"rank"`
	Code      string       `json:"code"`
	Earnings  models.Money `json:"earnings"`
	Referrals int64        `json:"referrals"`
	Clicks    int64        `json:"clicks"`
}

// Analytics 推广分析
func (s *ReportService) Analytics(userID uint, query AnalyticsQuery) (*AffiliateAnalytics, error) {
	affiliate, err := s.affiliateOf(userID)
	if err != nil {
		return nil, err
	}
	fromDate, toDate, err := resolveAnalyticsRange(query, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	daily, err := s.repo.ListDailyStats(affiliate.ID, fromDate, toDate)
	if err != nil {
		return nil, err
	}
	links, err := s.repo.ListLinks(affiliate.ID, true)
	if err != nil {
		return nil, err
	}
	active := make([]models.AffiliateLink, 0, len(links))
	for _, link := range links {
		if link.IsActive {
			active = append(active, link)
		}
	}
	top, err := s.repo.ListTopReferrals(affiliate.ID, analyticsTopReferralLimit)
	if err != nil {
		return nil, err
	}

	return &AffiliateAnalytics{
		Summary:         summarizeDailyStats(daily),
		DailyStats:      daily,
		LinkPerformance: active,
		TopReferrals:    top,
	}, nil
}

// SubIDReport 子渠道报表，按点击数倒序
func (s *ReportService) SubIDReport(userID uint, timeframe, search string) ([]SubIDReportRow, error) {
	affiliate, err := s.affiliateOf(userID)
	if err != nil {
		return nil, err
	}
	from, to, err := resolveTimeframe(timeframe, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListSubIDReport(affiliate.ID, from, to, search)
	if err != nil {
		return nil, err
	}
	result := make([]SubIDReportRow, 0, len(rows))
	for _, row := range rows {
		result = append(result, SubIDReportRow{
			SubID:     row.SubID,
			Clicks:    row.Clicks,
			Referrals: row.Referrals,
			Customers: row.Customers,
			Earnings:  models.NewMoneyFromDecimal(row.Earnings),
		})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Clicks > result[j].Clicks
	})
	return result, nil
}

// Leaderboard 推广排行榜（仅活跃推广用户，Redis 启用时缓存）
func (s *ReportService) Leaderboard(ctx context.Context, period string, limit int) ([]LeaderboardEntry, error) {
	period = strings.ToLower(strings.TrimSpace(period))
	if period == "" {
		period = constants.LeaderboardPeriodMonth
	}
	sinceDate, err := leaderboardSinceDate(period, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = leaderboardDefaultLimit
	}
	if limit > leaderboardMaxLimit {
		limit = leaderboardMaxLimit
	}

	cacheKey := fmt.Sprintf(leaderboardCacheKeyTemplate, period, limit)
	var cached []LeaderboardEntry
	if hit, err := cache.GetJSON(ctx, cacheKey, &cached); err != nil {
		logger.Warnw("affiliate_leaderboard_cache_read_failed", "key", cacheKey, "error", err)
	} else if hit {
		return cached, nil
	}

	rows, err := s.repo.ListLeaderboard(sinceDate, limit)
	if err != nil {
		return nil, err
	}
	entries := make([]LeaderboardEntry, 0, len(rows))
	for i, row := range rows {
		entries = append(entries, LeaderboardEntry{
			Rank:      i + 1,
			Code:      MaskAffiliateCode(row.Code),
			Earnings:  models.NewMoneyFromDecimal(row.Earnings),
			Referrals: row.Referrals,
			Clicks:    row.Clicks,
		})
	}
	if err := cache.SetJSON(ctx, cacheKey, entries, s.leaderboardTTL()); err != nil {
		logger.Warnw("affiliate_leaderboard_cache_write_failed", "key", cacheKey, "error", err)
	}
	return entries, nil
}

// MaskAffiliateCode 推广码脱敏：保留前 3 位
func MaskAffiliateCode(code string) string {
	runes := []rune(strings.TrimSpace(code))
	if len(runes) > leaderboardCodeVisibleChars {
		runes = runes[:leaderboardCodeVisibleChars]
	}
	return string(runes) + "***"
}

func (s *ReportService) affiliateOf(userID uint) (*models.Affiliate, error) {
	affiliate, err := s.repo.GetAffiliateByUserID(userID)
	if err != nil {
		return nil, err
	}
	if affiliate == nil {
		return nil, ErrAffiliateNotFound
	}
	return affiliate, nil
}

func (s *ReportService) leaderboardTTL() time.Duration {
	if s.cfg.LeaderboardCacheSeconds > 0 {
		return time.Duration(s.cfg.LeaderboardCacheSeconds) * time.Second
	}
	return leaderboardDefaultCacheTTL
}

func summarizeDailyStats(rows []models.AffiliateStatDaily) AnalyticsSummary {
	revenue := decimal.Zero
	commissions := decimal.Zero
	summary := AnalyticsSummary{}
	for _, row := range rows {
		summary.TotalClicks += row.Clicks
		summary.TotalSignups += row.Signups
		summary.TotalCustomers += row.Customers
		revenue = revenue.Add(row.Revenue.Decimal)
		commissions = commissions.Add(row.Commissions.Decimal)
	}
	summary.TotalRevenue = models.NewMoneyFromDecimal(revenue)
	summary.TotalCommissions = models.NewMoneyFromDecimal(commissions)
	if summary.TotalClicks > 0 {
		rate := decimal.NewFromInt(summary.TotalCustomers).
			Mul(hundred).
			Div(decimal.NewFromInt(summary.TotalClicks)).
			Round(analyticsConversionRatePlaces)
		summary.ConversionRate = rate.InexactFloat64()
	}
	return summary
}

// resolveAnalyticsRange 返回 YYYY-MM-DD 区间，结束日期为空表示不限
func resolveAnalyticsRange(query AnalyticsQuery, now time.Time) (string, string, error) {
	start := strings.TrimSpace(query.StartDate)
	end := strings.TrimSpace(query.EndDate)
	if start != "" || end != "" {
		if start == "" || end == "" {
			return "", "", ErrDateRangeInvalid
		}
		from, err := time.Parse(models.StatDateLayout, start)
		if err != nil {
			return "", "", ErrDateRangeInvalid
		}
		to, err := time.Parse(models.StatDateLayout, end)
		if err != nil {
			return "", "", ErrDateRangeInvalid
		}
		if to.Before(from) {
			return "", "", ErrDateRangeInvalid
		}
		return models.StatDateOf(from), models.StatDateOf(to), nil
	}

	period := strings.ToLower(strings.TrimSpace(query.Period))
	if period == "" {
		period = analyticsDefaultPeriod
	}
	var from time.Time
	switch period {
	case "7days":
		from = now.AddDate(0, 0, -7)
	case "30days":
		from = now.AddDate(0, 0, -30)
	case "90days":
		from = now.AddDate(0, 0, -90)
	case "year":
		from = now.AddDate(-1, 0, 0)
	default:
		return "", "", ErrPeriodInvalid
	}
	return models.StatDateOf(from), "", nil
}

func resolveTimeframe(timeframe string, now time.Time) (time.Time, time.Time, error) {
	value := strings.TrimSpace(timeframe)
	if value == "" {
		value = subIDReportDefaultTimeframe
	}
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	switch value {
	case "today":
		return startOfDay, now, nil
	case "yesterday":
		return startOfDay.AddDate(0, 0, -1), startOfDay.Add(-time.Nanosecond), nil
	case "last7days":
		return now.AddDate(0, 0, -7), now, nil
	case "last30days":
		return now.AddDate(0, 0, -30), now, nil
	case "thisMonth":
		return startOfMonth, now, nil
	case "lastMonth":
		return startOfMonth.AddDate(0, -1, 0), startOfMonth.Add(-time.Nanosecond), nil
	default:
		return time.Time{}, time.Time{}, ErrPeriodInvalid
	}
}

func leaderboardSinceDate(period string, now time.Time) (string, error) {
	switch period {
	case constants.LeaderboardPeriodDay:
		return models.StatDateOf(now.AddDate(0, 0, -1)), nil
	case constants.LeaderboardPeriodWeek:
		return models.StatDateOf(now.AddDate(0, 0, -7)), nil
	case constants.LeaderboardPeriodMonth:
		return models.StatDateOf(now.AddDate(0, -1, 0)), nil
	case constants.LeaderboardPeriodAll:
		return "", nil
	default:
		return "", ErrPeriodInvalid
	}
}
