package response

import "fmt"

// AppError 携带业务码、对外消息与内部原因，原因只进日志不回给客户端
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

// ServerSide 5xx 错误需要按错误级别记录
func (e *AppError) ServerSide() bool {
	return HTTPStatus(e.Code) >= 500
}

// WrapError 包装错误
func WrapError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}
