package service

import (
	"fmt"
	"math"
	"strings"

	"github.com/affiliate-engine/internal/constants"
	"github.com/affiliate-engine/internal/logger"
	"github.com/affiliate-engine/internal/models"

	"github.com/shopspring/decimal"
)

const (
	affiliateCommissionRateMin   = 0
	affiliateCommissionRateMax   = 100
	affiliateAttributionDaysMin  = 1
	affiliateAttributionDaysMax  = 365
	affiliateApprovalHoldDaysMax = 365
	affiliateMaxActiveLinksMin   = 1
	affiliateMaxActiveLinksMax   = 100
	affiliateDefaultRate         = 20
	affiliateDefaultWindowDays   = 30
	affiliateDefaultHoldDays     = 14
	affiliateDefaultMinPayout    = 50
	affiliateDefaultMaxLinks     = 10
)

// supportedPayoutMethods 允许的提现方式
var supportedPayoutMethods = []string{
	constants.PayoutMethodBank,
	constants.PayoutMethodPaypal,
	constants.PayoutMethodWise,
	constants.PayoutMethodCrypto,
}

// AffiliateSetting 推广计划运行时配置（后台可编辑）
type AffiliateSetting struct {
	Enabled               bool     `json:"enabled"`
	DefaultCommissionRate float64  `json:"default_commission_rate"`
	TieredRatesEnabled    bool     `json:"tiered_rates_enabled"`
	AttributionWindowDays int      `json:"attribution_window_days"`
	ApprovalHoldDays      int      `json:"approval_hold_days"`
	MinPayoutAmount       float64  `json:"min_payout_amount"`
	PayoutMethods         []string `json:"payout_methods"`
	MaxActiveLinks        int      `json:"max_active_links"`
}

// AffiliateDefaultSetting 默认推广配置
func AffiliateDefaultSetting() AffiliateSetting {
	return AffiliateSetting{
		Enabled:               true,
		DefaultCommissionRate: affiliateDefaultRate,
		TieredRatesEnabled:    true,
		AttributionWindowDays: affiliateDefaultWindowDays,
		ApprovalHoldDays:      affiliateDefaultHoldDays,
		MinPayoutAmount:       affiliateDefaultMinPayout,
		PayoutMethods:         append([]string(nil), supportedPayoutMethods...),
		MaxActiveLinks:        affiliateDefaultMaxLinks,
	}
}

// DefaultRate 默认佣金比例
func (s AffiliateSetting) DefaultRate() decimal.Decimal {
	return decimal.NewFromFloat(s.DefaultCommissionRate).Round(2)
}

// MinPayout 最低提现金额
func (s AffiliateSetting) MinPayout() decimal.Decimal {
	return decimal.NewFromFloat(s.MinPayoutAmount).Round(2)
}

// AllowsPayoutMethod 是否允许该提现方式
func (s AffiliateSetting) AllowsPayoutMethod(method string) bool {
	normalized := strings.ToLower(strings.TrimSpace(method))
	for _, item := range s.PayoutMethods {
		if item == normalized {
			return true
		}
	}
	return false
}

// NormalizeAffiliateSetting 归一化推广配置
func NormalizeAffiliateSetting(setting AffiliateSetting) AffiliateSetting {
	setting.DefaultCommissionRate = clampFloat(roundSettingDecimal(setting.DefaultCommissionRate), affiliateCommissionRateMin, affiliateCommissionRateMax)
	setting.AttributionWindowDays = clampInt(setting.AttributionWindowDays, affiliateAttributionDaysMin, affiliateAttributionDaysMax)
	setting.ApprovalHoldDays = clampInt(setting.ApprovalHoldDays, 0, affiliateApprovalHoldDaysMax)
	setting.MinPayoutAmount = roundSettingDecimal(setting.MinPayoutAmount)
	if setting.MinPayoutAmount < 0 {
		setting.MinPayoutAmount = 0
	}
	setting.MaxActiveLinks = clampInt(setting.MaxActiveLinks, affiliateMaxActiveLinksMin, affiliateMaxActiveLinksMax)
	setting.PayoutMethods = normalizePayoutMethods(setting.PayoutMethods)
	return setting
}

// ValidateAffiliateSetting 校验推广配置（归一化之前的原始值）
func ValidateAffiliateSetting(setting AffiliateSetting) error {
	if setting.DefaultCommissionRate < affiliateCommissionRateMin || setting.DefaultCommissionRate > affiliateCommissionRateMax {
		return fmt.Errorf("%w: default_commission_rate must be within 0-100", ErrAffiliateConfigInvalid)
	}
	if setting.AttributionWindowDays < affiliateAttributionDaysMin || setting.AttributionWindowDays > affiliateAttributionDaysMax {
		return fmt.Errorf("%w: attribution_window_days must be within 1-365", ErrAffiliateConfigInvalid)
	}
	if setting.ApprovalHoldDays < 0 || setting.ApprovalHoldDays > affiliateApprovalHoldDaysMax {
		return fmt.Errorf("%w: approval_hold_days must be within 0-365", ErrAffiliateConfigInvalid)
	}
	if setting.MinPayoutAmount < 0 {
		return fmt.Errorf("%w: min_payout_amount must not be negative", ErrAffiliateConfigInvalid)
	}
	if setting.MaxActiveLinks < affiliateMaxActiveLinksMin || setting.MaxActiveLinks > affiliateMaxActiveLinksMax {
		return fmt.Errorf("%w: max_active_links must be within 1-100", ErrAffiliateConfigInvalid)
	}
	for _, method := range setting.PayoutMethods {
		if strings.TrimSpace(method) == "" {
			continue
		}
		if !isSupportedPayoutMethod(method) {
			return fmt.Errorf("%w: unsupported payout method %q", ErrAffiliateConfigInvalid, method)
		}
	}
	return nil
}

// AffiliateSettingToMap 将推广配置转换为 settings 存储结构
func AffiliateSettingToMap(setting AffiliateSetting) map[string]interface{} {
	normalized := NormalizeAffiliateSetting(setting)
	return map[string]interface{}{
		"enabled":                 normalized.Enabled,
		"default_commission_rate": normalized.DefaultCommissionRate,
		"tiered_rates_enabled":    normalized.TieredRatesEnabled,
		"attribution_window_days": normalized.AttributionWindowDays,
		"approval_hold_days":      normalized.ApprovalHoldDays,
		"min_payout_amount":       normalized.MinPayoutAmount,
		"payout_methods":          append([]string(nil), normalized.PayoutMethods...),
		"max_active_links":        normalized.MaxActiveLinks,
	}
}

func affiliateSettingFromJSON(raw models.JSON, fallback AffiliateSetting) AffiliateSetting {
	result := fallback

	if value, ok := raw["enabled"]; ok {
		result.Enabled = parseSettingBool(value)
	}
	if value, ok := raw["default_commission_rate"]; ok {
		if parsed, err := parseSettingFloat(value); err == nil {
			result.DefaultCommissionRate = parsed
		}
	}
	if value, ok := raw["tiered_rates_enabled"]; ok {
		result.TieredRatesEnabled = parseSettingBool(value)
	}
	if value, ok := raw["attribution_window_days"]; ok {
		if parsed, err := parseSettingInt(value); err == nil {
			result.AttributionWindowDays = parsed
		}
	}
	if value, ok := raw["approval_hold_days"]; ok {
		if parsed, err := parseSettingInt(value); err == nil {
			result.ApprovalHoldDays = parsed
		}
	}
	if value, ok := raw["min_payout_amount"]; ok {
		if parsed, err := parseSettingFloat(value); err == nil {
			result.MinPayoutAmount = parsed
		}
	}
	if value, ok := raw["payout_methods"]; ok {
		result.PayoutMethods = normalizeSettingStringList(value)
	}
	if value, ok := raw["max_active_links"]; ok {
		if parsed, err := parseSettingInt(value); err == nil {
			result.MaxActiveLinks = parsed
		}
	}

	return NormalizeAffiliateSetting(result)
}

func normalizeAffiliateSettingMap(value map[string]interface{}) models.JSON {
	setting := affiliateSettingFromJSON(models.JSON(value), AffiliateDefaultSetting())
	return models.JSON(AffiliateSettingToMap(setting))
}

// GetAffiliateSetting 获取推广配置（优先 settings，空时回退默认）
func (s *SettingService) GetAffiliateSetting() (AffiliateSetting, error) {
	fallback := AffiliateDefaultSetting()
	if s == nil || s.repo == nil {
		return fallback, nil
	}

	value, err := s.GetByKey(constants.SettingKeyAffiliateConfig)
	if err != nil {
		return fallback, err
	}
	if value == nil {
		return fallback, nil
	}
	return affiliateSettingFromJSON(value, fallback), nil
}

// UpdateAffiliateSetting 更新推广配置
func (s *SettingService) UpdateAffiliateSetting(setting AffiliateSetting) (AffiliateSetting, error) {
	if err := ValidateAffiliateSetting(setting); err != nil {
		return AffiliateDefaultSetting(), err
	}
	normalized := NormalizeAffiliateSetting(setting)
	if _, err := s.Update(constants.SettingKeyAffiliateConfig, AffiliateSettingToMap(normalized)); err != nil {
		return AffiliateDefaultSetting(), err
	}
	return normalized, nil
}

// ResetAffiliateSetting 清除已保存的推广配置，恢复默认
func (s *SettingService) ResetAffiliateSetting() (AffiliateSetting, error) {
	if err := s.Delete(constants.SettingKeyAffiliateConfig); err != nil {
		return AffiliateDefaultSetting(), err
	}
	logger.Infow("affiliate_setting_reset")
	return AffiliateDefaultSetting(), nil
}

func isSupportedPayoutMethod(method string) bool {
	normalized := strings.ToLower(strings.TrimSpace(method))
	for _, item := range supportedPayoutMethods {
		if item == normalized {
			return true
		}
	}
	return false
}

func normalizePayoutMethods(methods []string) []string {
	result := make([]string, 0, len(supportedPayoutMethods))
	seen := make(map[string]struct{}, len(methods))
	for _, raw := range methods {
		method := strings.ToLower(strings.TrimSpace(raw))
		if !isSupportedPayoutMethod(method) {
			continue
		}
		if _, ok := seen[method]; ok {
			continue
		}
		seen[method] = struct{}{}
		result = append(result, method)
	}
	if len(result) == 0 {
		return append([]string(nil), supportedPayoutMethods...)
	}
	return result
}

func roundSettingDecimal(value float64) float64 {
	return math.Round(value*100) / 100
}

func clampFloat(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func clampInt(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
