package public

import (
	"errors"
	"strings"

	"github.com/affiliate-engine/internal/http/response"
	"github.com/affiliate-engine/internal/i18n"
	"github.com/affiliate-engine/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
// withDetail 为 true 时，将包装错误中 "sentinel: detail" 的 detail 作为翻译参数。
type mappedHandlerError struct {
	target     error
	code       int
	key        string
	withDetail bool
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if !errors.Is(err, rule.target) {
			continue
		}
		if rule.withDetail {
			msg := i18n.Sprintf(i18n.ResolveLocale(c), rule.key, wrappedDetail(err, rule.target))
			respondErrorWithMsg(c, rule.code, msg, nil)
			return
		}
		respondError(c, rule.code, rule.key, nil)
		return
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

func wrappedDetail(err, target error) string {
	return strings.TrimSpace(strings.TrimPrefix(err.Error(), target.Error()+":"))
}

var affiliateAccountErrorRules = []mappedHandlerError{
	{target: service.ErrAffiliateDisabled, code: response.CodeForbidden, key: "error.affiliate_disabled"},
	{target: service.ErrAffiliateNotFound, code: response.CodeNotFound, key: "error.affiliate_not_found"},
	{target: service.ErrAffiliateSuspended, code: response.CodeForbidden, key: "error.affiliate_suspended"},
	{target: service.ErrNotFound, code: response.CodeNotFound, key: "error.not_found"},
}

var affiliateLinkErrorRules = []mappedHandlerError{
	{target: service.ErrAffiliateLinkNotFound, code: response.CodeNotFound, key: "error.affiliate_link_not_found"},
	{target: service.ErrInvalidAlias, code: response.CodeBadRequest, key: "error.affiliate_alias_invalid"},
	{target: service.ErrAliasTaken, code: response.CodeConflict, key: "error.affiliate_alias_taken"},
	{target: service.ErrLinkLimitReached, code: response.CodeBadRequest, key: "error.affiliate_link_limit", withDetail: true},
	{target: service.ErrDefaultLinkImmutable, code: response.CodeBadRequest, key: "error.affiliate_default_link"},
}

var affiliatePayoutErrorRules = []mappedHandlerError{
	{target: service.ErrPayoutBelowMinimum, code: response.CodeBadRequest, key: "error.payout_below_minimum", withDetail: true},
	{target: service.ErrInsufficientBalance, code: response.CodeBadRequest, key: "error.payout_insufficient_balance"},
	{target: service.ErrPayoutMethodInvalid, code: response.CodeBadRequest, key: "error.payout_method_invalid"},
	{target: service.ErrAmountInvalid, code: response.CodeBadRequest, key: "error.amount_invalid"},
	{target: service.ErrCaptchaRequired, code: response.CodeBadRequest, key: "error.captcha_required"},
	{target: service.ErrCaptchaInvalid, code: response.CodeBadRequest, key: "error.captcha_invalid"},
	{target: service.ErrCaptchaConfigInvalid, code: response.CodeInternal, key: "error.captcha_config_invalid"},
}

var affiliateReportErrorRules = []mappedHandlerError{
	{target: service.ErrPeriodInvalid, code: response.CodeBadRequest, key: "error.period_invalid"},
	{target: service.ErrDateRangeInvalid, code: response.CodeBadRequest, key: "error.date_range_invalid"},
}

var affiliateEventErrorRules = []mappedHandlerError{
	{target: service.ErrOrderIDRequired, code: response.CodeBadRequest, key: "error.order_id_required"},
	{target: service.ErrReferralNotFound, code: response.CodeNotFound, key: "error.referral_not_found"},
	{target: service.ErrReferralStatusInvalid, code: response.CodeConflict, key: "error.referral_status_invalid"},
	{target: service.ErrInvalidCommissionRate, code: response.CodeConflict, key: "error.commission_rate_invalid"},
}

func respondAffiliateError(c *gin.Context, err error) {
	respondWithMappedError(c, err, affiliateAccountErrorRules, response.CodeInternal, "error.internal")
}

func respondAffiliateLinkError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(affiliateAccountErrorRules, affiliateLinkErrorRules), response.CodeInternal, "error.internal")
}

func respondAffiliatePayoutError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(affiliateAccountErrorRules, affiliatePayoutErrorRules), response.CodeInternal, "error.internal")
}

func respondAffiliateReportError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(affiliateAccountErrorRules, affiliateReportErrorRules), response.CodeInternal, "error.internal")
}

func respondAffiliateEventError(c *gin.Context, err error) {
	respondWithMappedError(c, err, affiliateEventErrorRules, response.CodeInternal, "error.internal")
}
