package service

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

const (
	affiliateCodeUserDigits  = 4
	affiliateCodeRandomBytes = 3
	affiliateCodeMaxRetry    = 8
)

// GenerateAffiliateCode 生成推广码：用户ID末4位 + 36进制毫秒时间戳 + 3字节随机数，统一大写
func GenerateAffiliateCode(userID uint, now time.Time) (string, error) {
	digits := strconv.FormatUint(uint64(userID), 10)
	if len(digits) > affiliateCodeUserDigits {
		digits = digits[len(digits)-affiliateCodeUserDigits:]
	} else {
		digits = strings.Repeat("0", affiliateCodeUserDigits-len(digits)) + digits
	}

	random := make([]byte, affiliateCodeRandomBytes)
	if _, err := rand.Read(random); err != nil {
		return "", err
	}
	code := digits + strconv.FormatInt(now.UnixMilli(), 36) + hex.EncodeToString(random)
	return strings.ToUpper(code), nil
}

func normalizeAffiliateCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
