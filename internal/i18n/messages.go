package i18n

var catalogues = map[string]map[string]string{
	LocaleEnUS: {
		"error.bad_request":                 "Invalid request",
		"error.unauthorized":                "Authentication required",
		"error.forbidden":                   "Permission denied",
		"error.not_found":                   "Resource not found",
		"error.internal":                    "Internal server error",
		"error.too_many_requests":           "Too many requests, please retry in %d seconds",
		"error.user_id_invalid":             "Invalid user id",
		"error.user_id_type_invalid":        "Invalid user id type",
		"error.auth_header_missing":         "Authorization header is missing",
		"error.auth_header_invalid":         "Authorization header is malformed",
		"error.token_invalid":               "Invalid or expired token",
		"error.token_revoked":               "Token has been revoked, please sign in again",
		"error.jwt_secret_missing":          "Authentication is not configured",
		"error.login_too_many":              "Too many login attempts, please retry in %d seconds",
		"error.admin_id_invalid":            "Invalid admin id",
		"error.context_type_invalid":        "Invalid request context",
		"error.invalid_credentials":         "Invalid username or password",
		"error.password_too_short":          "Password must be at least 8 characters",
		"error.captcha_required":            "Captcha is required",
		"error.captcha_invalid":             "Captcha is incorrect",
		"error.captcha_config_invalid":      "Captcha is not configured",
		"error.webhook_signature_invalid":   "Invalid event signature",
		"error.affiliate_disabled":          "The affiliate program is currently disabled",
		"error.affiliate_not_found":         "Affiliate account not found",
		"error.affiliate_suspended":         "Affiliate account is suspended",
		"error.affiliate_link_not_found":    "Affiliate link not found",
		"error.affiliate_alias_invalid":     "Alias must be 3-50 characters of letters, digits, dashes or underscores",
		"error.affiliate_alias_taken":       "Alias is already taken",
		"error.affiliate_link_limit":        "Maximum of %s active links reached",
		"error.affiliate_default_link":      "The default link cannot be deleted or deactivated",
		"error.affiliate_self_referral":     "You cannot refer yourself",
		"error.commission_rate_invalid":     "Commission rate must be between 0 and 100",
		"error.commission_not_found":        "Commission not found",
		"error.commission_status_invalid":   "Commission status does not allow this operation",
		"error.referral_not_found":          "Referral not found",
		"error.referral_status_invalid":     "Referral status does not allow this transition",
		"error.payout_below_minimum":        "Minimum payout amount is %s",
		"error.payout_insufficient_balance": "Insufficient balance for this payout",
		"error.payout_method_invalid":       "Payout method must be one of bank, paypal, wise or crypto",
		"error.payout_not_found":            "Payout not found",
		"error.payout_status_invalid":       "Payout status does not allow this operation",
		"error.amount_invalid":              "Amount must be a positive number",
		"error.period_invalid":              "Unsupported period",
		"error.date_range_invalid":          "Invalid date range",
		"error.config_invalid":              "Invalid affiliate settings",
		"error.role_invalid":                "Invalid role",
		"error.order_id_required":           "Order id is required",
		"error.rate_limit_unavailable":      "Rate limiting is temporarily unavailable",
	},
	LocaleZhCN: {
		"error.bad_request":                 "请求参数错误",
		"error.unauthorized":                "请先登录",
		"error.forbidden":                   "没有权限执行该操作",
		"error.not_found":                   "资源不存在",
		"error.internal":                    "服务器内部错误",
		"error.too_many_requests":           "请求过于频繁，请 %d 秒后再试",
		"error.user_id_invalid":             "用户ID无效",
		"error.user_id_type_invalid":        "用户ID类型错误",
		"error.auth_header_missing":         "缺少 Authorization 头",
		"error.auth_header_invalid":         "Authorization 头格式错误",
		"error.token_invalid":               "登录凭证无效或已过期",
		"error.token_revoked":               "登录凭证已失效，请重新登录",
		"error.jwt_secret_missing":          "鉴权未配置",
		"error.login_too_many":              "登录尝试过于频繁，请 %d 秒后再试",
		"error.admin_id_invalid":            "管理员ID无效",
		"error.context_type_invalid":        "请求上下文无效",
		"error.invalid_credentials":         "用户名或密码错误",
		"error.password_too_short":          "密码长度至少 8 位",
		"error.captcha_required":            "请输入验证码",
		"error.captcha_invalid":             "验证码错误",
		"error.captcha_config_invalid":      "验证码未正确配置",
		"error.webhook_signature_invalid":   "事件签名无效",
		"error.affiliate_disabled":          "推广计划暂未开放",
		"error.affiliate_not_found":         "推广账户不存在",
		"error.affiliate_suspended":         "推广账户已被停用",
		"error.affiliate_link_not_found":    "推广链接不存在",
		"error.affiliate_alias_invalid":     "别名需为 3-50 位字母、数字、横线或下划线",
		"error.affiliate_alias_taken":       "别名已被占用",
		"error.affiliate_link_limit":        "最多只能启用 %s 个推广链接",
		"error.affiliate_default_link":      "默认链接不可删除或停用",
		"error.affiliate_self_referral":     "不能推荐自己",
		"error.commission_rate_invalid":     "佣金比例必须在 0-100 之间",
		"error.commission_not_found":        "佣金记录不存在",
		"error.commission_status_invalid":   "当前佣金状态不允许该操作",
		"error.referral_not_found":          "推荐关系不存在",
		"error.referral_status_invalid":     "当前推荐状态不允许该变更",
		"error.payout_below_minimum":        "最低提现金额为 %s",
		"error.payout_insufficient_balance": "可提现余额不足",
		"error.payout_method_invalid":       "提现方式仅支持 bank、paypal、wise、crypto",
		"error.payout_not_found":            "提现单不存在",
		"error.payout_status_invalid":       "当前提现状态不允许该操作",
		"error.amount_invalid":              "金额必须为正数",
		"error.period_invalid":              "不支持的统计周期",
		"error.date_range_invalid":          "日期区间无效",
		"error.config_invalid":              "推广配置无效",
		"error.role_invalid":                "角色无效",
		"error.order_id_required":           "订单号不能为空",
		"error.rate_limit_unavailable":      "限流服务暂不可用",
	},
}
