package service

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/affiliate-engine/internal/config"
	"github.com/affiliate-engine/internal/constants"
	"github.com/affiliate-engine/internal/logger"
	"github.com/affiliate-engine/internal/models"
	"github.com/affiliate-engine/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	affiliateDashboardRecentDays  = 30
	affiliateDashboardRecentLimit = 10
	affiliateDefaultFrontendURL   = "http://localhost:3000"
)

var affiliateAliasPattern = regexp.MustCompile(`^[a-zA-Z0-9-_]+$`)

// AffiliateService 推广用户与推广链接业务服务
type AffiliateService struct {
	repo           repository.AffiliateRepository
	settingService *SettingService
	cfg            config.AffiliateConfig
}

// NewAffiliateService 创建推广服务
func NewAffiliateService(repo repository.AffiliateRepository, settingService *SettingService, cfg config.AffiliateConfig) *AffiliateService {
	return &AffiliateService{
		repo:           repo,
		settingService: settingService,
		cfg:            cfg,
	}
}

// CreateLinkInput 新建推广链接输入
type CreateLinkInput struct {
	Alias       string
	UTMSource   string
	UTMMedium   string
	UTMCampaign string
}

// UpdateLinkInput 更新推广链接输入（nil 表示不修改）
type UpdateLinkInput struct {
	Alias    *string
	IsActive *bool
}

// ListQuery 列表查询参数
type ListQuery struct {
	Status string
	Limit  int
	Offset int
}

// UpdateAffiliateInput 后台更新推广用户输入
type UpdateAffiliateInput struct {
	CommissionRate *decimal.Decimal
	RateOverride   *bool
	Status         *string
}

// AffiliateTotals 推广用户累计数据
type AffiliateTotals struct {
	Clicks    int64        `json:"clicks"`
	Signups   int64        `json:"signups"`
	Customers int64        `json:"customers"`
	Earnings  models.Money `json:"earnings"`
	Pending   models.Money `json:"pending"`
	Paid      models.Money `json:"paid"`
}

// AffiliateDashboard 推广中心数据
type AffiliateDashboard struct {
	Affiliate   *models.Affiliate            `json:"affiliate"`
	Totals      AffiliateTotals              `json:"totals"`
	RecentStats []models.AffiliateStatDaily  `json:"recent_stats"`
	Links       []models.AffiliateLink       `json:"links"`
	Referrals   []models.AffiliateReferral   `json:"referrals"`
	Commissions []models.AffiliateCommission `json:"commissions"`
}

// CreateOrGetAffiliate 开通推广账户（已开通则直接返回）
func (s *AffiliateService) CreateOrGetAffiliate(userID uint) (*models.Affiliate, error) {
	if userID == 0 {
		return nil, ErrNotFound
	}
	existing, err := s.repo.GetAffiliateByUserID(userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.withActiveLinks(existing)
	}

	setting, err := s.settingService.GetAffiliateSetting()
	if err != nil {
		return nil, err
	}
	if !setting.Enabled {
		return nil, ErrAffiliateDisabled
	}

	for i := 0; i < affiliateCodeMaxRetry; i++ {
		now := time.Now().UTC()
		code, genErr := GenerateAffiliateCode(userID, now)
		if genErr != nil {
			return nil, genErr
		}
		affiliate := &models.Affiliate{
			UserID:         userID,
			Code:           code,
			CommissionRate: models.NewMoneyFromDecimal(setting.DefaultRate()),
			Tier:           constants.AffiliateTierBase,
			Status:         constants.AffiliateStatusActive,
			TotalEarnings:  models.NewMoneyFromDecimal(decimal.Zero),
			PendingPayouts: models.NewMoneyFromDecimal(decimal.Zero),
			PaidAmount:     models.NewMoneyFromDecimal(decimal.Zero),
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		var link *models.AffiliateLink
		err := s.repo.Transaction(func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			if err := repo.CreateAffiliate(affiliate); err != nil {
				return err
			}
			link = &models.AffiliateLink{
				AffiliateID: affiliate.ID,
				URL:         s.BuildLinkURL(affiliate.Code, "", CreateLinkInput{}),
				IsDefault:   true,
				IsActive:    true,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			return repo.CreateLink(link)
		})
		if err != nil {
			if isUniqueViolation(err) {
				// 并发开通时 user_id 冲突，直接返回已存在账户
				if raced, getErr := s.repo.GetAffiliateByUserID(userID); getErr == nil && raced != nil {
					return s.withActiveLinks(raced)
				}
				continue
			}
			return nil, err
		}
		logger.Infow("affiliate_opened", "user_id", userID, "affiliate_id", affiliate.ID, "code", affiliate.Code)
		affiliate.Links = []models.AffiliateLink{*link}
		return affiliate, nil
	}
	return nil, ErrAffiliateCodeExhausted
}

// GetAffiliateByUserID 获取用户的推广账户
func (s *AffiliateService) GetAffiliateByUserID(userID uint) (*models.Affiliate, error) {
	affiliate, err := s.repo.GetAffiliateByUserID(userID)
	if err != nil {
		return nil, err
	}
	if affiliate == nil {
		return nil, ErrAffiliateNotFound
	}
	return affiliate, nil
}

// GetDashboard 推广中心概览
func (s *AffiliateService) GetDashboard(userID uint) (*AffiliateDashboard, error) {
	affiliate, err := s.GetAffiliateByUserID(userID)
	if err != nil {
		return nil, err
	}

	totals, err := s.repo.SumDailyStats(affiliate.ID, "", "")
	if err != nil {
		return nil, err
	}
	since := models.StatDateOf(time.Now().UTC().AddDate(0, 0, -affiliateDashboardRecentDays))
	recent, err := s.repo.ListDailyStats(affiliate.ID, since, "")
	if err != nil {
		return nil, err
	}
	links, err := s.activeLinks(affiliate.ID)
	if err != nil {
		return nil, err
	}
	referrals, _, err := s.repo.ListReferrals(repository.AffiliateReferralListFilter{
		AffiliateID: affiliate.ID,
		Limit:       affiliateDashboardRecentLimit,
	})
	if err != nil {
		return nil, err
	}
	commissions, _, err := s.repo.ListCommissions(repository.AffiliateCommissionListFilter{
		AffiliateID: affiliate.ID,
		Limit:       affiliateDashboardRecentLimit,
	})
	if err != nil {
		return nil, err
	}

	affiliate.Links = links
	return &AffiliateDashboard{
		Affiliate: affiliate,
		Totals: AffiliateTotals{
			Clicks:    totals.Clicks,
			Signups:   totals.Signups,
			Customers: totals.Customers,
			Earnings:  affiliate.TotalEarnings,
			Pending:   affiliate.PendingPayouts,
			Paid:      affiliate.PaidAmount,
		},
		RecentStats: recent,
		Links:       links,
		Referrals:   referrals,
		Commissions: commissions,
	}, nil
}

// CreateLink 新建推广链接
func (s *AffiliateService) CreateLink(userID uint, input CreateLinkInput) (*models.AffiliateLink, error) {
	affiliate, err := s.GetAffiliateByUserID(userID)
	if err != nil {
		return nil, err
	}
	alias := strings.TrimSpace(input.Alias)
	if alias != "" {
		if err := validateLinkAlias(alias); err != nil {
			return nil, err
		}
		if err := s.ensureAliasAvailable(alias, 0); err != nil {
			return nil, err
		}
	}
	if err := s.ensureLinkCapacity(affiliate.ID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	link := &models.AffiliateLink{
		AffiliateID: affiliate.ID,
		URL:         s.BuildLinkURL(affiliate.Code, alias, input),
		UTMSource:   strings.TrimSpace(input.UTMSource),
		UTMMedium:   strings.TrimSpace(input.UTMMedium),
		UTMCampaign: strings.TrimSpace(input.UTMCampaign),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if alias != "" {
		link.Alias = &alias
	}
	if err := s.repo.CreateLink(link); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAliasTaken
		}
		return nil, err
	}
	return link, nil
}

// ListLinks 查询推广链接
func (s *AffiliateService) ListLinks(userID uint) ([]models.AffiliateLink, error) {
	affiliate, err := s.GetAffiliateByUserID(userID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListLinks(affiliate.ID, false)
}

// UpdateLink 修改推广链接别名或启用状态
func (s *AffiliateService) UpdateLink(userID, linkID uint, input UpdateLinkInput) (*models.AffiliateLink, error) {
	affiliate, link, err := s.ownedLink(userID, linkID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	alias := link.AliasValue()
	if input.Alias != nil {
		next := strings.TrimSpace(*input.Alias)
		if next != alias {
			if next == "" {
				updates["alias"] = nil
			} else {
				if err := validateLinkAlias(next); err != nil {
					return nil, err
				}
				if err := s.ensureAliasAvailable(next, link.ID); err != nil {
					return nil, err
				}
				updates["alias"] = next
			}
			alias = next
			updates["url"] = s.BuildLinkURL(affiliate.Code, alias, CreateLinkInput{
				UTMSource:   link.UTMSource,
				UTMMedium:   link.UTMMedium,
				UTMCampaign: link.UTMCampaign,
			})
		}
	}
	if input.IsActive != nil && *input.IsActive != link.IsActive {
		if link.IsDefault && !*input.IsActive {
			return nil, ErrDefaultLinkImmutable
		}
		if *input.IsActive {
			if err := s.ensureLinkCapacity(affiliate.ID); err != nil {
				return nil, err
			}
		}
		updates["is_active"] = *input.IsActive
	}
	if len(updates) == 0 {
		return link, nil
	}
	updates["updated_at"] = time.Now().UTC()
	if err := s.repo.UpdateLinkFields(link.ID, updates); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAliasTaken
		}
		return nil, err
	}
	return s.repo.GetLinkByID(link.ID)
}

// DeactivateLink 停用推广链接（默认链接不可删除）
func (s *AffiliateService) DeactivateLink(userID, linkID uint) error {
	_, link, err := s.ownedLink(userID, linkID)
	if err != nil {
		return err
	}
	if link.IsDefault {
		return ErrDefaultLinkImmutable
	}
	if !link.IsActive {
		return nil
	}
	return s.repo.UpdateLinkFields(link.ID, map[string]interface{}{
		"is_active":  false,
		"updated_at": time.Now().UTC(),
	})
}

// BuildLinkURL 拼接推广地址：ref=推广码，可选 fp=别名 与 utm 参数
func (s *AffiliateService) BuildLinkURL(code, alias string, input CreateLinkInput) string {
	base := strings.TrimSpace(s.cfg.FrontendURL)
	if base == "" {
		base = affiliateDefaultFrontendURL
	}
	params := url.Values{}
	params.Set(constants.TrackingQueryCode, code)
	if alias != "" {
		params.Set(constants.TrackingQueryAlias, alias)
	}
	if v := strings.TrimSpace(input.UTMSource); v != "" {
		params.Set("utm_source", v)
	}
	if v := strings.TrimSpace(input.UTMMedium); v != "" {
		params.Set("utm_medium", v)
	}
	if v := strings.TrimSpace(input.UTMCampaign); v != "" {
		params.Set("utm_campaign", v)
	}
	separator := "?"
	if strings.Contains(base, "?") {
		separator = "&"
	}
	return base + separator + params.Encode()
}

// ListReferrals 查询推荐用户
func (s *AffiliateService) ListReferrals(userID uint, query ListQuery) ([]models.AffiliateReferral, int64, error) {
	affiliate, err := s.GetAffiliateByUserID(userID)
	if err != nil {
		return nil, 0, err
	}
	limit, offset := repository.NormalizeLimitOffset(query.Limit, query.Offset)
	return s.repo.ListReferrals(repository.AffiliateReferralListFilter{
		AffiliateID: affiliate.ID,
		Status:      strings.TrimSpace(query.Status),
		Limit:       limit,
		Offset:      offset,
	})
}

// ListCommissions 查询佣金记录
func (s *AffiliateService) ListCommissions(userID uint, query ListQuery) ([]models.AffiliateCommission, int64, error) {
	affiliate, err := s.GetAffiliateByUserID(userID)
	if err != nil {
		return nil, 0, err
	}
	limit, offset := repository.NormalizeLimitOffset(query.Limit, query.Offset)
	return s.repo.ListCommissions(repository.AffiliateCommissionListFilter{
		AffiliateID: affiliate.ID,
		Status:      strings.TrimSpace(query.Status),
		Limit:       limit,
		Offset:      offset,
	})
}

// ListPayouts 查询提现记录
func (s *AffiliateService) ListPayouts(userID uint, query ListQuery) ([]models.AffiliatePayout, int64, error) {
	affiliate, err := s.GetAffiliateByUserID(userID)
	if err != nil {
		return nil, 0, err
	}
	limit, offset := repository.NormalizeLimitOffset(query.Limit, query.Offset)
	return s.repo.ListPayouts(repository.AffiliatePayoutListFilter{
		AffiliateID: affiliate.ID,
		Status:      strings.TrimSpace(query.Status),
		Limit:       limit,
		Offset:      offset,
	})
}

// ListAffiliates 后台查询推广用户
func (s *AffiliateService) ListAffiliates(filter repository.AffiliateListFilter) ([]models.Affiliate, int64, error) {
	filter.Limit, filter.Offset = repository.NormalizeLimitOffset(filter.Limit, filter.Offset)
	return s.repo.ListAffiliates(filter)
}

// UpdateAffiliate 后台调整推广用户佣金比例或状态
func (s *AffiliateService) UpdateAffiliate(affiliateID uint, input UpdateAffiliateInput) (*models.Affiliate, error) {
	affiliate, err := s.repo.GetAffiliateByID(affiliateID)
	if err != nil {
		return nil, err
	}
	if affiliate == nil {
		return nil, ErrAffiliateNotFound
	}

	updates := map[string]interface{}{}
	if input.CommissionRate != nil {
		rate := *input.CommissionRate
		if !validCommissionRate(rate) {
			return nil, ErrInvalidCommissionRate
		}
		updates["commission_rate"] = models.NewMoneyFromDecimal(rate)
		updates["rate_override"] = true
	}
	if input.RateOverride != nil {
		updates["rate_override"] = *input.RateOverride
	}
	if input.Status != nil {
		status := strings.ToLower(strings.TrimSpace(*input.Status))
		if status != constants.AffiliateStatusActive && status != constants.AffiliateStatusSuspended {
			return nil, ErrAffiliateStatusInvalid
		}
		updates["status"] = status
	}
	if len(updates) == 0 {
		return affiliate, nil
	}
	updates["updated_at"] = time.Now().UTC()
	if err := s.repo.UpdateAffiliateFields(affiliate.ID, updates); err != nil {
		return nil, err
	}
	logger.Infow("affiliate_updated", "affiliate_id", affiliate.ID, "fields", len(updates)-1)
	return s.repo.GetAffiliateByID(affiliate.ID)
}

func (s *AffiliateService) withActiveLinks(affiliate *models.Affiliate) (*models.Affiliate, error) {
	links, err := s.activeLinks(affiliate.ID)
	if err != nil {
		return nil, err
	}
	affiliate.Links = links
	return affiliate, nil
}

func (s *AffiliateService) activeLinks(affiliateID uint) ([]models.AffiliateLink, error) {
	rows, err := s.repo.ListLinks(affiliateID, false)
	if err != nil {
		return nil, err
	}
	active := make([]models.AffiliateLink, 0, len(rows))
	for _, row := range rows {
		if row.IsActive {
			active = append(active, row)
		}
	}
	return active, nil
}

func (s *AffiliateService) ownedLink(userID, linkID uint) (*models.Affiliate, *models.AffiliateLink, error) {
	affiliate, err := s.GetAffiliateByUserID(userID)
	if err != nil {
		return nil, nil, err
	}
	link, err := s.repo.GetLinkByID(linkID)
	if err != nil {
		return nil, nil, err
	}
	if link == nil || link.AffiliateID != affiliate.ID {
		return nil, nil, ErrAffiliateLinkNotFound
	}
	return affiliate, link, nil
}

func (s *AffiliateService) ensureAliasAvailable(alias string, selfID uint) error {
	existing, err := s.repo.GetLinkByAlias(alias)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != selfID {
		return ErrAliasTaken
	}
	return nil
}

func (s *AffiliateService) ensureLinkCapacity(affiliateID uint) error {
	setting, err := s.settingService.GetAffiliateSetting()
	if err != nil {
		return err
	}
	active, err := s.repo.CountActiveLinks(affiliateID)
	if err != nil {
		return err
	}
	if active >= int64(setting.MaxActiveLinks) {
		return fmt.Errorf("%w: %d", ErrLinkLimitReached, setting.MaxActiveLinks)
	}
	return nil
}

func validateLinkAlias(alias string) error {
	if len(alias) < constants.AffiliateLinkMinAliasLen || len(alias) > constants.AffiliateLinkMaxAliasLen {
		return ErrInvalidAlias
	}
	if !affiliateAliasPattern.MatchString(alias) {
		return ErrInvalidAlias
	}
	return nil
}
