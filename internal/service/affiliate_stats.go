package service

import (
	"time"

	"github.com/affiliate-engine/internal/models"
	"github.com/affiliate-engine/internal/repository"
)

// StatDelta 日统计增量
type StatDelta = repository.AffiliateStatDelta

// StatsService 推广日统计服务
type StatsService struct {
	repo repository.AffiliateRepository
}

// NewStatsService 创建日统计服务
func NewStatsService(repo repository.AffiliateRepository) *StatsService {
	return &StatsService{repo: repo}
}

// UpdateDailyStats 增量累加某日统计
func (s *StatsService) UpdateDailyStats(affiliateID uint, day time.Time, delta StatDelta) error {
	return updateDailyStats(s.repo, affiliateID, day, delta)
}

func updateDailyStats(repo repository.AffiliateRepository, affiliateID uint, at time.Time, delta StatDelta) error {
	return repo.UpsertDailyStats(affiliateID, models.StatDateOf(at), delta, time.Now().UTC())
}

// AffiliateStatsReport 后台查看的日统计区间
type AffiliateStatsReport struct {
	AffiliateID uint                        `json:"affiliate_id"`
	Summary     AnalyticsSummary            `json:"summary"`
	DailyStats  []models.AffiliateStatDaily `json:"daily_stats"`
}

// DailyStats 按区间读取某推广用户的日统计，区间规则与推广分析一致
func (s *StatsService) DailyStats(affiliateID uint, query AnalyticsQuery) (*AffiliateStatsReport, error) {
	affiliate, err := s.repo.GetAffiliateByID(affiliateID)
	if err != nil {
		return nil, err
	}
	if affiliate == nil {
		return nil, ErrAffiliateNotFound
	}
	fromDate, toDate, err := resolveAnalyticsRange(query, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListDailyStats(affiliate.ID, fromDate, toDate)
	if err != nil {
		return nil, err
	}
	return &AffiliateStatsReport{
		AffiliateID: affiliate.ID,
		Summary:     summarizeDailyStats(rows),
		DailyStats:  rows,
	}, nil
}
