package service

import (
	"crypto/subtle"
	"encoding/base64"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// TrackingSessionCodec 访客会话令牌签发与校验：<uuid>.<blake2b-mac>
type TrackingSessionCodec struct {
	key []byte
}

// NewTrackingSessionCodec 创建会话令牌编解码器（任意长度密钥先摘要为 32 字节）
func NewTrackingSessionCodec(secret string) *TrackingSessionCodec {
	sum := blake2b.Sum256([]byte(secret))
	return &TrackingSessionCodec{key: sum[:]}
}

// Issue 签发新的会话令牌，返回令牌与会话ID
func (c *TrackingSessionCodec) Issue() (token string, sessionID string) {
	sessionID = uuid.NewString()
	return c.Sign(sessionID), sessionID
}

// Sign 对会话ID签名
func (c *TrackingSessionCodec) Sign(sessionID string) string {
	return sessionID + "." + base64.RawURLEncoding.EncodeToString(c.mac(sessionID))
}

// Verify 校验令牌，成功时返回会话ID
func (c *TrackingSessionCodec) Verify(token string) (string, bool) {
	sessionID, signature, ok := strings.Cut(strings.TrimSpace(token), ".")
	if !ok || sessionID == "" || signature == "" {
		return "", false
	}
	if _, err := uuid.Parse(sessionID); err != nil {
		return "", false
	}
	got, err := base64.RawURLEncoding.DecodeString(signature)
	if err != nil {
		return "", false
	}
	if subtle.ConstantTimeCompare(got, c.mac(sessionID)) != 1 {
		return "", false
	}
	return sessionID, true
}

func (c *TrackingSessionCodec) mac(sessionID string) []byte {
	h, err := blake2b.New256(c.key)
	if err != nil {
		// 密钥固定 32 字节，不会出错
		panic(err)
	}
	h.Write([]byte(sessionID))
	return h.Sum(nil)
}
