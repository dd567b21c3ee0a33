package public

import "github.com/tokonext/internal/provider"

// Handler 前台接口处理器入口
// 说明：该处理器用于店铺前台用户侧 API 与支付网关回调。
type Handler struct {
	*provider.Container
}

// New 创建前台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
