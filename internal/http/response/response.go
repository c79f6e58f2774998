package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一信封：业务码在 status_code，HTTP 状态固定 200（创建为 201）
type Response struct {
	StatusCode int         `json:"status_code"`
	Msg        string      `json:"msg"`
	Data       interface{} `json:"data"`
}

func write(c *gin.Context, httpStatus, code int, msg string, data interface{}) {
	c.JSON(httpStatus, Response{StatusCode: code, Msg: msg, Data: data})
}

// Success 成功
func Success(c *gin.Context, data interface{}) {
	write(c, http.StatusOK, CodeOK, "success", data)
}

// Created 资源已创建
func Created(c *gin.Context, data interface{}) {
	write(c, http.StatusCreated, CodeOK, "created", data)
}

// List 列表结果，形如 {"<key>": rows, "total": n}
func List(c *gin.Context, key string, rows interface{}, total int64) {
	Success(c, gin.H{key: rows, "total": total})
}

// Error 业务错误，data 中带回 request_id 便于排查
func Error(c *gin.Context, code int, msg string) {
	write(c, http.StatusOK, code, msg, requestIDData(c))
}

// Unauthorized 未登录或令牌失效
func Unauthorized(c *gin.Context, msg string) {
	Error(c, CodeUnauthorized, msg)
}

// Forbidden 无权限
func Forbidden(c *gin.Context, msg string) {
	Error(c, CodeForbidden, msg)
}

func requestIDData(c *gin.Context) interface{} {
	if c == nil {
		return nil
	}
	if id := c.GetString("request_id"); id != "" {
		return gin.H{"request_id": id}
	}
	return nil
}
