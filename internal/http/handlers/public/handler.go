package public

import (
	"strings"

	"github.com/affiliate-engine/internal/provider"
)

// Handler 推广用户、公开榜单与内部事件接口
type Handler struct {
	*provider.Container
	webhookSecret string
}

// New 创建前台处理器，事件签名密钥在此固定
func New(c *provider.Container) *Handler {
	h := &Handler{Container: c}
	if c != nil && c.Config != nil {
		h.webhookSecret = strings.TrimSpace(c.Config.Webhook.Secret)
	}
	return h
}
