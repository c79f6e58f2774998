package service

import (
	"errors"
	"testing"
	"time"

	"github.com/affiliate-engine/internal/constants"
	"github.com/affiliate-engine/internal/models"
)

func TestResolveTargetPrefersActiveAlias(t *testing.T) {
	env := setupAffiliateTestEnv(t)
	env.createTestAffiliate(t, 1, "RES001")
	link, err := env.affiliates.CreateLink(1, CreateLinkInput{Alias: "promo-link"})
	if err != nil {
		t.Fatalf("create link failed: %v", err)
	}

	target, err := env.tracking.ResolveTarget("", "promo-link")
	if err != nil {
		t.Fatalf("resolve by alias failed: %v", err)
	}
	if target == nil || target.Link == nil || target.Link.ID != link.ID {
		t.Fatalf("expected alias link resolved, got %+v", target)
	}

	target, err = env.tracking.ResolveTarget("res001", "")
	if err != nil {
		t.Fatalf("resolve by code failed: %v", err)
	}
	if target == nil || target.Link == nil || !target.Link.IsDefault {
		t.Fatalf("expected default link resolved, got %+v", target)
	}

	target, err = env.tracking.ResolveTarget("NOPE00", "")
	if err != nil {
		t.Fatalf("resolve unknown code failed: %v", err)
	}
	if target != nil {
		t.Fatalf("expected nil target for unknown code, got %+v", target)
	}
}

func TestResolveTargetSkipsSuspendedAffiliate(t *testing.T) {
	env := setupAffiliateTestEnv(t)
	affiliate := env.createTestAffiliate(t, 1, "SUS001")
	if err := env.repo.UpdateAffiliateFields(affiliate.ID, map[string]interface{}{"status": constants.AffiliateStatusSuspended}); err != nil {
		t.Fatalf("suspend affiliate failed: %v", err)
	}

	target, err := env.tracking.ResolveTarget("SUS001", "")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if target != nil {
		t.Fatalf("expected suspended affiliate ignored, got %+v", target)
	}
}

func TestTrackClickDedupesBySession(t *testing.T) {
	env := setupAffiliateTestEnv(t)
	affiliate := env.createTestAffiliate(t, 1, "CLK001")
	target, err := env.tracking.ResolveTarget("CLK001", "")
	if err != nil || target == nil {
		t.Fatalf("resolve failed: %v", err)
	}

	input := TrackClickInput{
		SessionID: "session-a",
		IPAddress: "203.0.113.10",
		UserAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Mobile",
		SubID:     "youtube",
	}
	first, err := env.tracking.TrackClick(target.Link.ID, input)
	if err != nil {
		t.Fatalf("first click failed: %v", err)
	}
	if first == nil {
		t.Fatalf("expected first click recorded")
	}
	if first.DeviceType != constants.DeviceTypeMobile {
		t.Fatalf("expected mobile device, got %s", first.DeviceType)
	}

	second, err := env.tracking.TrackClick(target.Link.ID, input)
	if err != nil {
		t.Fatalf("second click failed: %v", err)
	}
	if second != nil {
		t.Fatalf("expected duplicate session click ignored, got %+v", second)
	}

	// 同一 IP 不同会话仍计为独立点击
	input.SessionID = "session-b"
	third, err := env.tracking.TrackClick(target.Link.ID, input)
	if err != nil || third == nil {
		t.Fatalf("expected click for new session, got %v %v", third, err)
	}

	link, err := env.repo.GetLinkByID(target.Link.ID)
	if err != nil {
		t.Fatalf("reload link failed: %v", err)
	}
	if link.ClickCount != 2 {
		t.Fatalf("expected click count 2, got %d", link.ClickCount)
	}
	stats, err := env.repo.GetDailyStats(affiliate.ID, models.StatDateOf(time.Now()))
	if err != nil || stats == nil {
		t.Fatalf("load stats failed: %v", err)
	}
	if stats.Clicks != 2 || stats.UniqueClicks != 2 {
		t.Fatalf("unexpected stats clicks=%d unique=%d", stats.Clicks, stats.UniqueClicks)
	}
}

func TestTrackClickUnknownLink(t *testing.T) {
	env := setupAffiliateTestEnv(t)
	if _, err := env.tracking.TrackClick(404, TrackClickInput{}); !errors.Is(err, ErrAffiliateLinkNotFound) {
		t.Fatalf("expected ErrAffiliateLinkNotFound, got %v", err)
	}
}

func TestTrackReferralRejectsSelfReferral(t *testing.T) {
	env := setupAffiliateTestEnv(t)
	env.createTestAffiliate(t, 7, "SELF07")

	referral, err := env.tracking.TrackReferral(7, "SELF07", nil)
	if !errors.Is(err, ErrSelfReferral) {
		t.Fatalf("expected ErrSelfReferral, got %v", err)
	}
	if referral != nil {
		t.Fatalf("expected no referral, got %+v", referral)
	}
}

func TestTrackReferralKeepsExistingBeforeSelfCheck(t *testing.T) {
	env := setupAffiliateTestEnv(t)
	referrer := env.createTestAffiliate(t, 1, "OWNER1")
	env.createTestAffiliate(t, 7, "SELF07")

	first, err := env.tracking.TrackReferral(7, "OWNER1", nil)
	if err != nil || first == nil {
		t.Fatalf("track referral failed: %v", err)
	}

	again, err := env.tracking.TrackReferral(7, "SELF07", nil)
	if err != nil {
		t.Fatalf("expected existing referral returned, got %v", err)
	}
	if again == nil || again.ID != first.ID || again.AffiliateID != referrer.ID {
		t.Fatalf("expected original referral unchanged, got %+v", again)
	}
}

func TestTrackReferralFirstTouchWins(t *testing.T) {
	env := setupAffiliateTestEnv(t)
	first := env.createTestAffiliate(t, 1, "FIRST1")
	env.createTestAffiliate(t, 2, "SECND2")

	target, err := env.tracking.ResolveTarget("FIRST1", "")
	if err != nil || target == nil {
		t.Fatalf("resolve failed: %v", err)
	}
	click, err := env.tracking.TrackClick(target.Link.ID, TrackClickInput{SessionID: "visitor"})
	if err != nil || click == nil {
		t.Fatalf("track click failed: %v", err)
	}

	referral, err := env.tracking.TrackReferral(100, "first1", &click.ID)
	if err != nil {
		t.Fatalf("track referral failed: %v", err)
	}
	if referral.AffiliateID != first.ID || referral.Status != constants.ReferralStatusSignup {
		t.Fatalf("unexpected referral: %+v", referral)
	}
	if referral.ClickID == nil || *referral.ClickID != click.ID {
		t.Fatalf("expected click attached, got %v", referral.ClickID)
	}

	again, err := env.tracking.TrackReferral(100, "SECND2", nil)
	if err != nil {
		t.Fatalf("second referral failed: %v", err)
	}
	if again.ID != referral.ID || again.AffiliateID != first.ID {
		t.Fatalf("expected original referral kept, got %+v", again)
	}

	var count int64
	env.db.Model(&models.AffiliateReferral{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected single referral row, got %d", count)
	}
	stats, err := env.repo.GetDailyStats(first.ID, models.StatDateOf(time.Now()))
	if err != nil || stats == nil || stats.Signups != 1 {
		t.Fatalf("expected one signup in stats, got %+v %v", stats, err)
	}
}

func TestTrackReferralDropsForeignClick(t *testing.T) {
	env := setupAffiliateTestEnv(t)
	env.createTestAffiliate(t, 1, "OWNER1")
	env.createTestAffiliate(t, 2, "OTHER2")

	target, err := env.tracking.ResolveTarget("OTHER2", "")
	if err != nil || target == nil {
		t.Fatalf("resolve failed: %v", err)
	}
	click, err := env.tracking.TrackClick(target.Link.ID, TrackClickInput{SessionID: "s1"})
	if err != nil || click == nil {
		t.Fatalf("track click failed: %v", err)
	}

	referral, err := env.tracking.TrackReferral(200, "OWNER1", &click.ID)
	if err != nil {
		t.Fatalf("track referral failed: %v", err)
	}
	if referral.ClickID != nil {
		t.Fatalf("expected foreign click dropped, got %v", *referral.ClickID)
	}
}

func TestTrackReferralIgnoredWhenDisabled(t *testing.T) {
	env := setupAffiliateTestEnv(t)
	env.createTestAffiliate(t, 1, "OFF001")
	env.updateSetting(t, func(s *AffiliateSetting) { s.Enabled = false })

	referral, err := env.tracking.TrackReferral(300, "OFF001", nil)
	if err != nil || referral != nil {
		t.Fatalf("expected nil referral when disabled, got %+v %v", referral, err)
	}
}

func TestTransitionReferral(t *testing.T) {
	env := setupAffiliateTestEnv(t)
	affiliate := env.createTestAffiliate(t, 1, "TRN001")
	env.createTestReferral(t, affiliate.ID, 400, time.Now())

	referral, err := env.tracking.TransitionReferral(400, constants.ReferralStatusTrial)
	if err != nil {
		t.Fatalf("transition to trial failed: %v", err)
	}
	if referral.Status != constants.ReferralStatusTrial || referral.TrialStartedAt == nil {
		t.Fatalf("unexpected referral after trial: %+v", referral)
	}

	if _, err := env.tracking.TransitionReferral(400, constants.ReferralStatusTrial); err != nil {
		t.Fatalf("repeated transition should be idempotent: %v", err)
	}
	if _, err := env.tracking.TransitionReferral(400, constants.ReferralStatusSignup); !errors.Is(err, ErrReferralStatusInvalid) {
		t.Fatalf("expected ErrReferralStatusInvalid, got %v", err)
	}

	referral, err = env.tracking.TransitionReferral(400, constants.ReferralStatusChurned)
	if err != nil {
		t.Fatalf("transition to churned failed: %v", err)
	}
	if referral.ChurnedAt == nil {
		t.Fatalf("expected churned_at set")
	}
	if _, err := env.tracking.TransitionReferral(401, constants.ReferralStatusTrial); !errors.Is(err, ErrReferralNotFound) {
		t.Fatalf("expected ErrReferralNotFound, got %v", err)
	}
}

func TestDetectDeviceType(t *testing.T) {
	cases := map[string]string{
		"": constants.DeviceTypeUnknown,
		"Mozilla/5.0 (Linux; Android 14) Mobile Safari": constants.DeviceTypeMobile,
		"Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X)": constants.DeviceTypeTablet,
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64)":     constants.DeviceTypeDesktop,
	}
	for ua, want := range cases {
		if got := DetectDeviceType(ua); got != want {
			t.Fatalf("ua %q: expected %s, got %s", ua, want, got)
		}
	}
}
