package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/affiliate-engine/internal/models"

	"github.com/shopspring/decimal"
)

func TestMaskAffiliateCode(t *testing.T) {
	cases := map[string]string{
		"TEST123": "TES***",
		"AB":      "AB***",
		"":        "***",
	}
	for code, want := range cases {
		if got := MaskAffiliateCode(code); got != want {
			t.Fatalf("mask %q: expected %q, got %q", code, want, got)
		}
	}
}

func TestResolveAnalyticsRange(t *testing.T) {
	now := time.Date(2026, 5, 20, 8, 0, 0, 0, time.UTC)

	from, to, err := resolveAnalyticsRange(AnalyticsQuery{}, now)
	if err != nil {
		t.Fatalf("default range failed: %v", err)
	}
	if from != "2026-04-20" || to != "" {
		t.Fatalf("unexpected default range %s..%s", from, to)
	}

	from, _, err = resolveAnalyticsRange(AnalyticsQuery{Period: "year"}, now)
	if err != nil || from != "2025-05-20" {
		t.Fatalf("unexpected year range %s: %v", from, err)
	}

	from, to, err = resolveAnalyticsRange(AnalyticsQuery{Period: "7days", StartDate: "2026-01-01", EndDate: "2026-01-31"}, now)
	if err != nil {
		t.Fatalf("explicit range failed: %v", err)
	}
	if from != "2026-01-01" || to != "2026-01-31" {
		t.Fatalf("expected explicit dates to win, got %s..%s", from, to)
	}

	if _, _, err := resolveAnalyticsRange(AnalyticsQuery{StartDate: "2026-02-01", EndDate: "2026-01-01"}, now); !errors.Is(err, ErrDateRangeInvalid) {
		t.Fatalf("expected ErrDateRangeInvalid for reversed range, got %v", err)
	}
	if _, _, err := resolveAnalyticsRange(AnalyticsQuery{StartDate: "2026-02-01"}, now); !errors.Is(err, ErrDateRangeInvalid) {
		t.Fatalf("expected ErrDateRangeInvalid for half range, got %v", err)
	}
	if _, _, err := resolveAnalyticsRange(AnalyticsQuery{Period: "decade"}, now); !errors.Is(err, ErrPeriodInvalid) {
		t.Fatalf("expected ErrPeriodInvalid, got %v", err)
	}
}

func TestResolveTimeframe(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	from, to, err := resolveTimeframe("lastMonth", now)
	if err != nil {
		t.Fatalf("lastMonth failed: %v", err)
	}
	if !from.Equal(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected lastMonth start %s", from)
	}
	if to.Month() != time.February || to.Day() != 28 {
		t.Fatalf("unexpected lastMonth end %s", to)
	}

	from, _, err = resolveTimeframe("", now)
	if err != nil || !from.Equal(now.AddDate(0, 0, -30)) {
		t.Fatalf("unexpected default timeframe %s: %v", from, err)
	}
	if _, _, err := resolveTimeframe("forever", now); !errors.Is(err, ErrPeriodInvalid) {
		t.Fatalf("expected ErrPeriodInvalid, got %v", err)
	}
}

func TestSummarizeDailyStatsConversionRate(t *testing.T) {
	summary := summarizeDailyStats([]models.AffiliateStatDaily{
		{Clicks: 200, Signups: 10, Customers: 3, Revenue: models.NewMoneyFromString("150"), Commissions: models.NewMoneyFromString("30")},
		{Clicks: 100, Signups: 5, Customers: 1, Revenue: models.NewMoneyFromString("50"), Commissions: models.NewMoneyFromString("10")},
	})
	if summary.TotalClicks != 300 || summary.TotalCustomers != 4 {
		t.Fatalf("unexpected totals: %+v", summary)
	}
	if summary.ConversionRate != 1.33 {
		t.Fatalf("expected conversion rate 1.33, got %v", summary.ConversionRate)
	}
	assertDecimal(t, "revenue", summary.TotalRevenue.Decimal, "200")

	empty := summarizeDailyStats(nil)
	if empty.ConversionRate != 0 {
		t.Fatalf("expected zero conversion without clicks, got %v", empty.ConversionRate)
	}
}

func TestAnalyticsAndLeaderboard(t *testing.T) {
	env := setupAffiliateTestEnv(t)
	affiliate := env.createTestAffiliate(t, 1, "LEAD01")
	target, err := env.tracking.ResolveTarget("LEAD01", "")
	if err != nil || target == nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if _, err := env.tracking.TrackClick(target.Link.ID, TrackClickInput{SessionID: "s1", SubID: "tiktok"}); err != nil {
		t.Fatalf("track click failed: %v", err)
	}
	env.createTestReferral(t, affiliate.ID, 42, time.Now())
	if _, err := env.commissions.ConvertReferralToCustomer(42, "ORDER-L", decimal.NewFromInt(100)); err != nil {
		t.Fatalf("convert failed: %v", err)
	}

	analytics, err := env.reports.Analytics(1, AnalyticsQuery{Period: "7days"})
	if err != nil {
		t.Fatalf("analytics failed: %v", err)
	}
	if analytics.Summary.TotalClicks != 1 || analytics.Summary.TotalCustomers != 1 {
		t.Fatalf("unexpected analytics summary: %+v", analytics.Summary)
	}
	if analytics.Summary.ConversionRate != 100 {
		t.Fatalf("expected conversion rate 100, got %v", analytics.Summary.ConversionRate)
	}
	if len(analytics.TopReferrals) != 1 || len(analytics.LinkPerformance) != 1 {
		t.Fatalf("unexpected analytics lists: %+v", analytics)
	}

	rows, err := env.reports.SubIDReport(1, "today", "")
	if err != nil {
		t.Fatalf("sub id report failed: %v", err)
	}
	if len(rows) != 1 || rows[0].SubID != "tiktok" || rows[0].Clicks != 1 {
		t.Fatalf("unexpected sub id report: %+v", rows)
	}

	entries, err := env.reports.Leaderboard(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("leaderboard failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected single leaderboard entry, got %d", len(entries))
	}
	if entries[0].Rank != 1 || entries[0].Code != "LEA***" {
		t.Fatalf("unexpected leaderboard entry: %+v", entries[0])
	}
	assertDecimal(t, "leaderboard_earnings", entries[0].Earnings.Decimal, "20")

	if _, err := env.reports.Leaderboard(context.Background(), "century", 5); !errors.Is(err, ErrPeriodInvalid) {
		t.Fatalf("expected ErrPeriodInvalid, got %v", err)
	}
	if _, err := env.reports.Analytics(99, AnalyticsQuery{}); !errors.Is(err, ErrAffiliateNotFound) {
		t.Fatalf("expected ErrAffiliateNotFound, got %v", err)
	}
}
