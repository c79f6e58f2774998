package service

import (
	"errors"
	"strings"
	"time"

	"github.com/affiliate-engine/internal/constants"
	"github.com/affiliate-engine/internal/logger"
	"github.com/affiliate-engine/internal/models"
	"github.com/affiliate-engine/internal/repository"

	"gorm.io/gorm"
)

var (
	mobileUAKeywords = []string{"mobile", "android", "iphone", "ipod", "blackberry", "opera mini", "iemobile"}
	tabletUAKeywords = []string{"tablet", "ipad", "playbook", "silk"}

	errClickDuplicated = errors.New("affiliate click duplicated")
)

// TrackingService 点击追踪与推荐关系绑定
type TrackingService struct {
	repo           repository.AffiliateRepository
	settingService *SettingService
}

// NewTrackingService 创建追踪服务
func NewTrackingService(repo repository.AffiliateRepository, settingService *SettingService) *TrackingService {
	return &TrackingService{repo: repo, settingService: settingService}
}

// TrackingTarget 推广参数解析结果
type TrackingTarget struct {
	Affiliate *models.Affiliate
	Link      *models.AffiliateLink
}

// TrackClickInput 点击记录输入
type TrackClickInput struct {
	SessionID   string
	IPAddress   string
	UserAgent   string
	Referer     string
	LandingPage string
	SubID       string
	UTMSource   string
	UTMMedium   string
	UTMCampaign string
	UTMTerm     string
	UTMContent  string
	Country     string
	City        string
	DeviceType  string
}

// ResolveTarget 解析推广码/链接别名；别名有效时优先，否则使用推广用户默认链接
func (s *TrackingService) ResolveTarget(code, alias string) (*TrackingTarget, error) {
	code = normalizeAffiliateCode(code)
	alias = strings.TrimSpace(alias)
	if code == "" && alias == "" {
		return nil, nil
	}
	setting, err := s.settingService.GetAffiliateSetting()
	if err != nil {
		return nil, err
	}
	if !setting.Enabled {
		return nil, nil
	}

	if alias != "" {
		link, err := s.repo.GetLinkByAlias(alias)
		if err != nil {
			return nil, err
		}
		if link != nil && link.IsActive {
			affiliate, err := s.repo.GetAffiliateByID(link.AffiliateID)
			if err != nil {
				return nil, err
			}
			if isAffiliateActive(affiliate) && (code == "" || affiliate.Code == code) {
				return &TrackingTarget{Affiliate: affiliate, Link: link}, nil
			}
		}
	}
	if code == "" {
		return nil, nil
	}

	affiliate, err := s.repo.GetAffiliateByCode(code)
	if err != nil {
		return nil, err
	}
	if !isAffiliateActive(affiliate) {
		return nil, nil
	}
	link, err := s.repo.GetDefaultLink(affiliate.ID)
	if err != nil {
		return nil, err
	}
	return &TrackingTarget{Affiliate: affiliate, Link: link}, nil
}

// TrackClick 记录点击；同一会话对同一推广用户只记录一次，重复时返回 nil
func (s *TrackingService) TrackClick(linkID uint, input TrackClickInput) (*models.AffiliateClick, error) {
	link, err := s.repo.GetLinkByID(linkID)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, ErrAffiliateLinkNotFound
	}

	sessionID := strings.TrimSpace(input.SessionID)
	if sessionID != "" {
		seen, err := s.repo.HasSessionClick(link.AffiliateID, sessionID)
		if err != nil {
			return nil, err
		}
		if seen {
			return nil, nil
		}
	}

	deviceType := strings.TrimSpace(input.DeviceType)
	if deviceType == "" {
		deviceType = DetectDeviceType(input.UserAgent)
	}
	now := time.Now().UTC()
	click := &models.AffiliateClick{
		LinkID:      link.ID,
		AffiliateID: link.AffiliateID,
		SessionID:   optionalString(sessionID),
		IPAddress:   truncateString(input.IPAddress, 64),
		UserAgent:   truncateString(input.UserAgent, 1024),
		Referer:     truncateString(input.Referer, 1024),
		LandingPage: truncateString(input.LandingPage, 1024),
		SubID:       optionalString(truncateString(strings.TrimSpace(input.SubID), 100)),
		UTMSource:   truncateString(input.UTMSource, 100),
		UTMMedium:   truncateString(input.UTMMedium, 100),
		UTMCampaign: truncateString(input.UTMCampaign, 100),
		UTMTerm:     truncateString(input.UTMTerm, 100),
		UTMContent:  truncateString(input.UTMContent, 100),
		Country:     truncateString(input.Country, 8),
		City:        truncateString(input.City, 100),
		DeviceType:  deviceType,
		CreatedAt:   now,
	}

	delta := StatDelta{Clicks: 1}
	if sessionID != "" {
		delta.UniqueClicks = 1
	}
	err = s.repo.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateClick(click); err != nil {
			if isUniqueViolation(err) {
				return errClickDuplicated
			}
			return err
		}
		if err := repo.IncrementLinkCounters(link.ID, 1, 0); err != nil {
			return err
		}
		return updateDailyStats(repo, link.AffiliateID, now, delta)
	})
	if err != nil {
		if errors.Is(err, errClickDuplicated) {
			return nil, nil
		}
		return nil, err
	}
	return click, nil
}

// TrackReferral 绑定注册用户与推广用户（首次触达，永久有效）
func (s *TrackingService) TrackReferral(userID uint, code string, clickID *uint) (*models.AffiliateReferral, error) {
	code = normalizeAffiliateCode(code)
	if userID == 0 || code == "" {
		return nil, nil
	}
	setting, err := s.settingService.GetAffiliateSetting()
	if err != nil {
		return nil, err
	}
	if !setting.Enabled {
		return nil, nil
	}

	affiliate, err := s.repo.GetAffiliateByCode(code)
	if err != nil {
		return nil, err
	}
	if !isAffiliateActive(affiliate) {
		logger.Debugw("affiliate_referral_code_ignored", "user_id", userID, "code", code)
		return nil, nil
	}
	// 首次归因优先，已有推荐关系原样返回
	existing, err := s.repo.GetReferralByUserID(userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	if affiliate.UserID == userID {
		logger.Warnw("affiliate_self_referral_rejected", "user_id", userID, "affiliate_id", affiliate.ID)
		return nil, ErrSelfReferral
	}

	validClickID, err := s.resolveReferralClick(affiliate.ID, clickID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	referral := &models.AffiliateReferral{
		AffiliateID: affiliate.ID,
		UserID:      userID,
		ClickID:     validClickID,
		Status:      constants.ReferralStatusSignup,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = s.repo.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateReferral(referral); err != nil {
			return err
		}
		return updateDailyStats(repo, affiliate.ID, now, StatDelta{Signups: 1})
	})
	if err != nil {
		if isUniqueViolation(err) {
			return s.repo.GetReferralByUserID(userID)
		}
		return nil, err
	}
	logger.Infow("affiliate_referral_created", "user_id", userID, "affiliate_id", affiliate.ID, "referral_id", referral.ID)
	return referral, nil
}

// TransitionReferral 推荐关系状态流转：signup -> trial，signup|trial -> churned
func (s *TrackingService) TransitionReferral(userID uint, status string) (*models.AffiliateReferral, error) {
	target := strings.ToLower(strings.TrimSpace(status))
	var result *models.AffiliateReferral
	err := s.repo.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		referral, err := repo.GetReferralByUserIDForUpdate(userID)
		if err != nil {
			return err
		}
		if referral == nil {
			return ErrReferralNotFound
		}
		if referral.Status == target {
			result = referral
			return nil
		}
		if !canTransitionReferral(referral.Status, target) {
			return ErrReferralStatusInvalid
		}
		now := time.Now().UTC()
		updates := map[string]interface{}{
			"status":     target,
			"updated_at": now,
		}
		switch target {
		case constants.ReferralStatusTrial:
			updates["trial_started_at"] = now
		case constants.ReferralStatusChurned:
			updates["churned_at"] = now
		}
		if err := repo.UpdateReferralFields(referral.ID, updates); err != nil {
			return err
		}
		result, err = repo.GetReferralByUserID(userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DetectDeviceType 根据 UA 粗略识别设备类型
func DetectDeviceType(userAgent string) string {
	ua := strings.ToLower(strings.TrimSpace(userAgent))
	if ua == "" {
		return constants.DeviceTypeUnknown
	}
	for _, keyword := range mobileUAKeywords {
		if strings.Contains(ua, keyword) {
			return constants.DeviceTypeMobile
		}
	}
	for _, keyword := range tabletUAKeywords {
		if strings.Contains(ua, keyword) {
			return constants.DeviceTypeTablet
		}
	}
	return constants.DeviceTypeDesktop
}

func (s *TrackingService) resolveReferralClick(affiliateID uint, clickID *uint) (*uint, error) {
	if clickID == nil || *clickID == 0 {
		return nil, nil
	}
	click, err := s.repo.GetClickByID(*clickID)
	if err != nil {
		return nil, err
	}
	if click == nil || click.AffiliateID != affiliateID {
		return nil, nil
	}
	id := click.ID
	return &id, nil
}

func canTransitionReferral(from, to string) bool {
	switch to {
	case constants.ReferralStatusTrial:
		return from == constants.ReferralStatusSignup
	case constants.ReferralStatusChurned:
		return from == constants.ReferralStatusSignup || from == constants.ReferralStatusTrial
	default:
		return false
	}
}

func isAffiliateActive(affiliate *models.Affiliate) bool {
	return affiliate != nil && affiliate.Status == constants.AffiliateStatusActive
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func truncateString(value string, max int) string {
	value = strings.TrimSpace(value)
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return string(runes[:max])
}
