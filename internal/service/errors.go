package service

import "errors"

// 通用错误
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrAdminNotFound      = errors.New("admin not found")
	ErrPasswordTooShort   = errors.New("password too short")
	ErrAmountInvalid      = errors.New("amount must be positive")
	ErrPeriodInvalid      = errors.New("unsupported period")
	ErrDateRangeInvalid   = errors.New("invalid date range")
	ErrOrderIDRequired    = errors.New("order id required")
)

// 推广用户与链接
var (
	ErrAffiliateDisabled         = errors.New("affiliate program disabled")
	ErrAffiliateConfigInvalid    = errors.New("affiliate config invalid")
	ErrAffiliateNotFound         = errors.New("affiliate not found")
	ErrAffiliateSuspended        = errors.New("affiliate suspended")
	ErrAffiliateStatusInvalid    = errors.New("affiliate status invalid")
	ErrAffiliateCodeExhausted    = errors.New("affiliate code generation exhausted")
	ErrAffiliateLinkNotFound     = errors.New("affiliate link not found")
	ErrInvalidAlias              = errors.New("invalid alias")
	ErrAliasTaken                = errors.New("alias already taken")
	ErrLinkLimitReached          = errors.New("active link limit reached")
	ErrDefaultLinkImmutable      = errors.New("default link cannot be deleted or deactivated")
	ErrSelfReferral              = errors.New("self referral rejected")
	ErrReferralNotFound          = errors.New("referral not found")
	ErrReferralStatusInvalid     = errors.New("referral status transition invalid")
	ErrInvalidCommissionRate     = errors.New("commission rate must be within [0, 100]")
	ErrCommissionNotFound        = errors.New("commission not found")
	ErrCommissionStatusInvalid   = errors.New("commission status invalid")
	ErrPayoutBelowMinimum        = errors.New("payout amount below minimum")
	ErrInsufficientBalance       = errors.New("insufficient balance")
	ErrPayoutMethodInvalid       = errors.New("payout method invalid")
	ErrPayoutNotFound            = errors.New("payout not found")
	ErrPayoutStatusInvalid       = errors.New("payout status invalid")
	errCommissionAlreadyRecorded = errors.New("commission already recorded")
)

// 验证码
var (
	ErrCaptchaRequired      = errors.New("captcha required")
	ErrCaptchaInvalid       = errors.New("captcha invalid")
	ErrCaptchaConfigInvalid = errors.New("captcha config invalid")
)
