package response

import "fmt"

// AppError 接口层错误：业务码、对外消息与内部原因
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%d] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// ServerSide 是否属于服务端故障（需要告警级别日志）
func (e *AppError) ServerSide() bool {
	return e.Code >= CodeInternal
}

// WrapError 组装接口错误
func WrapError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}
