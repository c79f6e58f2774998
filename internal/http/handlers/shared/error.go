package shared

import (
	"github.com/affiliate-engine/internal/http/response"
	"github.com/affiliate-engine/internal/i18n"
	"github.com/affiliate-engine/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 带 request_id 的请求级日志
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if id := c.GetString("request_id"); id != "" {
		return logger.SW("request_id", id)
	}
	return logger.S()
}

// RespondError 按请求语言翻译 key 后输出错误
func RespondError(c *gin.Context, code int, key string, err error) {
	RespondErrorWithMsg(c, code, i18n.T(i18n.ResolveLocale(c), key), err)
}

// RespondErrorWithMsg 输出已翻译的错误消息
func RespondErrorWithMsg(c *gin.Context, code int, msg string, err error) {
	appErr := response.WrapError(code, msg, err)
	if appErr.Err != nil {
		logHandlerError(c, appErr)
	}
	response.Error(c, appErr.Code, appErr.Message)
}

func logHandlerError(c *gin.Context, appErr *response.AppError) {
	fields := []interface{}{"code", appErr.Code, "error", appErr.Err}
	if c != nil && c.Request != nil {
		fields = append(fields, "method", c.Request.Method, "path", c.FullPath())
	}
	if appErr.ServerSide() {
		RequestLog(c).Errorw("handler_error", fields...)
		return
	}
	RequestLog(c).Warnw("handler_rejected", fields...)
}
