package response

import "net/http"

// 业务状态码，非 0 时与 HTTP 状态码一致
const (
	CodeOK              = 0
	CodeBadRequest      = 400
	CodeUnauthorized    = 401
	CodeNotFound        = 404
	CodeConflict        = 409
	CodeTooManyRequests = 429
	CodeInternal        = 500
	CodeBadGateway      = 502
)

// HTTPStatus 业务码对应的 HTTP 状态码，未知业务码按 500 处理
func HTTPStatus(code int) int {
	if code == CodeOK {
		return http.StatusOK
	}
	if code >= 400 && code < 600 {
		return code
	}
	return http.StatusInternalServerError
}
