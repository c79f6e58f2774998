package constants

// 推广用户状态
const (
	AffiliateStatusActive    = "active"
	AffiliateStatusSuspended = "suspended"
)

// 推广用户等级
const (
	AffiliateTierBase     = "base"
	AffiliateTierSilver   = "silver"
	AffiliateTierGold     = "gold"
	AffiliateTierPlatinum = "platinum"
)

// 推荐关系状态
const (
	ReferralStatusSignup   = "signup"
	ReferralStatusTrial    = "trial"
	ReferralStatusCustomer = "customer"
	ReferralStatusChurned  = "churned"
)

// 佣金类型
const (
	CommissionTypeSale      = "sale"
	CommissionTypeRecurring = "recurring"
	CommissionTypeBonus     = "bonus"
)

// 佣金状态
const (
	CommissionStatusPending   = "pending"
	CommissionStatusApproved  = "approved"
	CommissionStatusPaid      = "paid"
	CommissionStatusCancelled = "cancelled"
	CommissionStatusReversed  = "reversed"
)

// 提现状态
const (
	PayoutStatusPending    = "pending"
	PayoutStatusProcessing = "processing"
	PayoutStatusCompleted  = "completed"
	PayoutStatusFailed     = "failed"
)

// 提现方式
const (
	PayoutMethodBank   = "bank"
	PayoutMethodPaypal = "paypal"
	PayoutMethodWise   = "wise"
	PayoutMethodCrypto = "crypto"
)

// 设备类型
const (
	DeviceTypeMobile  = "mobile"
	DeviceTypeTablet  = "tablet"
	DeviceTypeDesktop = "desktop"
	DeviceTypeUnknown = "unknown"
)

// 排行榜周期
const (
	LeaderboardPeriodDay   = "day"
	LeaderboardPeriodWeek  = "week"
	LeaderboardPeriodMonth = "month"
	LeaderboardPeriodAll   = "all"
)

// 推广追踪参数与 Cookie
const (
	TrackingQueryCode        = "ref"
	TrackingQueryAlias       = "fp"
	TrackingQuerySubID       = "fp_sid"
	TrackingCookieSession    = "affiliate_session"
	TrackingCookieCode       = "affiliate_code"
	TrackingCookieClick      = "affiliate_click"
	TrackingHeaderCountry    = "CF-IPCountry"
	TrackingHeaderCity       = "CF-City"
	SubIDDirect              = "direct"
	DefaultCookieMaxAgeDays  = 30
	WebhookSignatureHeader   = "X-Webhook-Signature"
	AffiliateLinkMaxAliasLen = 50
	AffiliateLinkMinAliasLen = 3
)

// 异步队列
const (
	QueueDefault            = "default"
	QueueCritical           = "critical"
	TaskAffiliateConversion = "affiliate:conversion"
	TaskAffiliateRefund     = "affiliate:refund"
	TaskAffiliateReferral   = "affiliate:referral"
)

// 系统设置键
const (
	SettingKeyAffiliateConfig = "affiliate_config"
)

// 验证码场景
const (
	CaptchaSceneAdminLogin    = "admin_login"
	CaptchaScenePayoutRequest = "payout_request"
)

// 验证码提供方
const (
	CaptchaProviderNone  = "none"
	CaptchaProviderImage = "image"
)
