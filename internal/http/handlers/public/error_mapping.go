package public

import (
	"errors"

	"github.com/tokonext/internal/http/response"
	"github.com/tokonext/internal/i18n"
	"github.com/tokonext/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	key    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	var stockErr *service.InsufficientStockError
	if errors.As(err, &stockErr) {
		respondInsufficientStock(c, stockErr)
		return
	}
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.key, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

// respondInsufficientStock 库存不足时返回商品名与可用数量，便于前台提示调整数量
func respondInsufficientStock(c *gin.Context, stockErr *service.InsufficientStockError) {
	locale := i18n.ResolveLocale(c)
	msg := i18n.Sprintf(locale, "error.insufficient_stock", stockErr.ProductName, stockErr.Available)
	response.ErrorWithData(c, response.CodeBadRequest, msg, gin.H{
		"product_name": stockErr.ProductName,
		"available":    stockErr.Available,
	})
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

var cartErrorRules = []mappedHandlerError{
	{target: service.ErrUnauthorized, code: response.CodeUnauthorized, key: "error.unauthorized"},
	{target: service.ErrInvalidQuantity, code: response.CodeBadRequest, key: "error.cart_quantity_invalid"},
	{target: service.ErrVariantNotFound, code: response.CodeNotFound, key: "error.variant_not_found"},
	{target: service.ErrCartItemNotFound, code: response.CodeNotFound, key: "error.cart_item_not_found"},
	{target: service.ErrInsufficientStock, code: response.CodeBadRequest, key: "error.insufficient_stock"},
}

var checkoutCommonErrorRules = []mappedHandlerError{
	{target: service.ErrUnauthorized, code: response.CodeUnauthorized, key: "error.unauthorized"},
	{target: service.ErrEmptyCart, code: response.CodeBadRequest, key: "error.cart_empty"},
	{target: service.ErrNoItemsSelected, code: response.CodeBadRequest, key: "error.no_items_selected"},
	{target: service.ErrAddressNotFound, code: response.CodeNotFound, key: "error.address_not_found"},
	{target: service.ErrVariantNotFound, code: response.CodeNotFound, key: "error.variant_not_found"},
	{target: service.ErrPaymentMethodRequired, code: response.CodeBadRequest, key: "error.payment_method_required"},
}

var placeOrderExtraErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNumberConflict, code: response.CodeConflict, key: "error.order_number_conflict"},
	{target: service.ErrGatewayNotConfigured, code: response.CodeBadGateway, key: "error.payment_gateway_failed"},
	{target: service.ErrGatewayRequestFailed, code: response.CodeBadGateway, key: "error.payment_gateway_failed"},
}

var continuePaymentErrorRules = []mappedHandlerError{
	{target: service.ErrUnauthorized, code: response.CodeUnauthorized, key: "error.unauthorized"},
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, key: "error.order_not_found"},
	{target: service.ErrPaymentNotFound, code: response.CodeNotFound, key: "error.payment_not_found"},
	{target: service.ErrPaymentNotContinuable, code: response.CodeBadRequest, key: "error.payment_not_continuable"},
	{target: service.ErrGatewayNotConfigured, code: response.CodeBadGateway, key: "error.payment_gateway_failed"},
	{target: service.ErrGatewayRequestFailed, code: response.CodeBadGateway, key: "error.payment_gateway_failed"},
}

var orderQueryErrorRules = []mappedHandlerError{
	{target: service.ErrUnauthorized, code: response.CodeUnauthorized, key: "error.unauthorized"},
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, key: "error.order_not_found"},
}

var addressErrorRules = []mappedHandlerError{
	{target: service.ErrUnauthorized, code: response.CodeUnauthorized, key: "error.unauthorized"},
	{target: service.ErrAddressNotFound, code: response.CodeNotFound, key: "error.address_not_found"},
	{target: service.ErrAddressInUse, code: response.CodeConflict, key: "error.address_in_use"},
}

var catalogErrorRules = []mappedHandlerError{
	{target: service.ErrProductNotFound, code: response.CodeNotFound, key: "error.product_not_found"},
	{target: service.ErrVariantNotFound, code: response.CodeNotFound, key: "error.variant_not_found"},
}
