package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/affiliate-engine/internal/cache"
	"github.com/affiliate-engine/internal/constants"
	"github.com/affiliate-engine/internal/logger"
	"github.com/affiliate-engine/internal/models"
	"github.com/affiliate-engine/internal/repository"
)

const (
	settingCacheKeyTemplate = "setting:%s"
	settingCacheTTL         = 5 * time.Minute
)

// SettingService 键值配置读写，Redis 可用时做读穿缓存
type SettingService struct {
	repo repository.SettingRepository
}

// NewSettingService 创建配置服务
func NewSettingService(repo repository.SettingRepository) *SettingService {
	return &SettingService{repo: repo}
}

// GetByKey 读取配置值，键不存在返回 nil
func (s *SettingService) GetByKey(key string) (models.JSON, error) {
	ctx := context.Background()
	cacheKey := fmt.Sprintf(settingCacheKeyTemplate, key)
	var cached models.JSON
	if hit, err := cache.GetJSON(ctx, cacheKey, &cached); err != nil {
		logger.Warnw("setting_cache_read_failed", "key", key, "error", err)
	} else if hit {
		return cached, nil
	}

	row, err := s.repo.GetByKey(key)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	if err := cache.SetJSON(ctx, cacheKey, row.ValueJSON, settingCacheTTL); err != nil {
		logger.Warnw("setting_cache_write_failed", "key", key, "error", err)
	}
	return row.ValueJSON, nil
}

// Update 归一化后写入并失效缓存
func (s *SettingService) Update(key string, value map[string]interface{}) (models.JSON, error) {
	row, err := s.repo.Upsert(key, normalizeSettingValueByKey(key, value))
	if err != nil {
		return nil, err
	}
	s.invalidate(key)
	return row.ValueJSON, nil
}

// Delete 删除配置键，读取时回退默认值
func (s *SettingService) Delete(key string) error {
	if err := s.repo.Delete(key); err != nil {
		return err
	}
	s.invalidate(key)
	return nil
}

func (s *SettingService) invalidate(key string) {
	if err := cache.Del(context.Background(), fmt.Sprintf(settingCacheKeyTemplate, key)); err != nil {
		logger.Warnw("setting_cache_invalidate_failed", "key", key, "error", err)
	}
}

// normalizeSettingValueByKey 按设置键执行归一化，避免非法值入库。
func normalizeSettingValueByKey(key string, value map[string]interface{}) models.JSON {
	switch key {
	case constants.SettingKeyAffiliateConfig:
		return normalizeAffiliateSettingMap(value)
	default:
		return models.JSON(value)
	}
}

func parseSettingInt(value interface{}) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i), nil
		}
		if f, err := v.Float64(); err == nil {
			return int(f), nil
		}
		return 0, fmt.Errorf("invalid json number")
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, fmt.Errorf("empty string")
		}
		return strconv.Atoi(trimmed)
	default:
		return 0, fmt.Errorf("unsupported value type")
	}
}

func parseSettingFloat(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, fmt.Errorf("empty string")
		}
		return strconv.ParseFloat(trimmed, 64)
	default:
		return 0, fmt.Errorf("unsupported value type")
	}
}

func parseSettingBool(raw interface{}) bool {
	switch value := raw.(type) {
	case bool:
		return value
	case int:
		return value != 0
	case int64:
		return value != 0
	case float64:
		return value != 0
	case string:
		normalized := strings.ToLower(strings.TrimSpace(value))
		return normalized == "1" || normalized == "true" || normalized == "yes" || normalized == "on"
	default:
		return false
	}
}

func normalizeSettingStringList(raw interface{}) []string {
	switch value := raw.(type) {
	case []string:
		return append([]string(nil), value...)
	case []interface{}:
		items := make([]string, 0, len(value))
		for _, item := range value {
			text, _ := item.(string)
			items = append(items, strings.TrimSpace(text))
		}
		return items
	default:
		return nil
	}
}
