package admin

import (
	"errors"

	"github.com/affiliate-engine/internal/authz"
	"github.com/affiliate-engine/internal/http/response"
	"github.com/affiliate-engine/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	key    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.key, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

var adminAffiliateErrorRules = []mappedHandlerError{
	{target: service.ErrAffiliateNotFound, code: response.CodeNotFound, key: "error.affiliate_not_found"},
	{target: service.ErrInvalidCommissionRate, code: response.CodeBadRequest, key: "error.commission_rate_invalid"},
	{target: service.ErrAffiliateStatusInvalid, code: response.CodeBadRequest, key: "error.bad_request"},
	{target: service.ErrAffiliateConfigInvalid, code: response.CodeBadRequest, key: "error.config_invalid"},
	{target: service.ErrCommissionNotFound, code: response.CodeNotFound, key: "error.commission_not_found"},
	{target: service.ErrCommissionStatusInvalid, code: response.CodeConflict, key: "error.commission_status_invalid"},
	{target: service.ErrAmountInvalid, code: response.CodeBadRequest, key: "error.amount_invalid"},
	{target: service.ErrOrderIDRequired, code: response.CodeBadRequest, key: "error.order_id_required"},
	{target: service.ErrPayoutNotFound, code: response.CodeNotFound, key: "error.payout_not_found"},
	{target: service.ErrPayoutStatusInvalid, code: response.CodeConflict, key: "error.payout_status_invalid"},
	{target: service.ErrInsufficientBalance, code: response.CodeBadRequest, key: "error.payout_insufficient_balance"},
	{target: service.ErrPeriodInvalid, code: response.CodeBadRequest, key: "error.period_invalid"},
	{target: service.ErrDateRangeInvalid, code: response.CodeBadRequest, key: "error.date_range_invalid"},
}

var adminAuthzErrorRules = []mappedHandlerError{
	{target: authz.ErrUnknownRole, code: response.CodeBadRequest, key: "error.role_invalid"},
	{target: authz.ErrAdminIDRequired, code: response.CodeBadRequest, key: "error.admin_id_invalid"},
	{target: authz.ErrUnavailable, code: response.CodeInternal, key: "error.internal"},
}

var adminAccountErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidCredentials, code: response.CodeBadRequest, key: "error.invalid_credentials"},
	{target: service.ErrPasswordTooShort, code: response.CodeBadRequest, key: "error.password_too_short"},
	{target: service.ErrAdminNotFound, code: response.CodeNotFound, key: "error.admin_id_invalid"},
}

func respondAdminAffiliateError(c *gin.Context, err error) {
	respondWithMappedError(c, err, adminAffiliateErrorRules, response.CodeInternal, "error.internal")
}

func respondAdminAuthzError(c *gin.Context, err error) {
	respondWithMappedError(c, err, adminAuthzErrorRules, response.CodeBadRequest, "error.role_invalid")
}

func respondAdminAccountError(c *gin.Context, err error) {
	respondWithMappedError(c, err, adminAccountErrorRules, response.CodeInternal, "error.internal")
}
