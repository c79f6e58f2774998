package repository

import "gorm.io/gorm"

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// NormalizeLimitOffset 归一化 limit/offset（limit 默认 20、最大 100，offset 最小 0）
func NormalizeLimitOffset(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// applyLimitOffset 应用 limit/offset 分页参数。
func applyLimitOffset(query *gorm.DB, limit, offset int) *gorm.DB {
	if query == nil {
		return query
	}
	limit, offset = NormalizeLimitOffset(limit, offset)
	return query.Limit(limit).Offset(offset)
}
