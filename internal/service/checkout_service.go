package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tokonext/internal/constants"
	"github.com/tokonext/internal/events"
	"github.com/tokonext/internal/logger"
	"github.com/tokonext/internal/models"
	"github.com/tokonext/internal/payment/midtrans"
	"github.com/tokonext/internal/queue"
	"github.com/tokonext/internal/repository"
	"github.com/tokonext/internal/telemetry"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"
)

var serviceTracer = otel.Tracer("github.com/tokonext/internal/service")

const (
	defaultPaymentExpireHours = 24
	midtransItemNameMaxLength = 50
)

// PaymentGateway 托管支付网关
type PaymentGateway interface {
	CreateTransaction(ctx context.Context, req midtrans.SnapRequest) (*midtrans.SnapResponse, error)
}

// CheckoutDeps 结算服务依赖
type CheckoutDeps struct {
	CartRepo    repository.CartRepository
	ProductRepo repository.ProductRepository
	OrderRepo   repository.OrderRepository
	PaymentRepo repository.PaymentRepository
	AddressRepo repository.AddressRepository
	UserRepo    repository.UserRepository
	Gateway     PaymentGateway
	QueueClient *queue.Client
	Publisher   events.Publisher
	Instruments *telemetry.Instruments
	Pricing     PricingPolicy
	BaseURL     string
	ExpireHours int
}

// CheckoutService 结算编排：预览、下单、继续支付
type CheckoutService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
	paymentRepo repository.PaymentRepository
	addressRepo repository.AddressRepository
	userRepo    repository.UserRepository
	gateway     PaymentGateway
	queueClient *queue.Client
	publisher   events.Publisher
	instruments *telemetry.Instruments
	pricing     PricingPolicy
	baseURL     string
	expiry      time.Duration
	now         func() time.Time
}

// NewCheckoutService 创建结算服务
func NewCheckoutService(deps CheckoutDeps) *CheckoutService {
	hours := deps.ExpireHours
	if hours <= 0 {
		hours = defaultPaymentExpireHours
	}
	return &CheckoutService{
		cartRepo:    deps.CartRepo,
		productRepo: deps.ProductRepo,
		orderRepo:   deps.OrderRepo,
		paymentRepo: deps.PaymentRepo,
		addressRepo: deps.AddressRepo,
		userRepo:    deps.UserRepo,
		gateway:     deps.Gateway,
		queueClient: deps.QueueClient,
		publisher:   deps.Publisher,
		instruments: deps.Instruments,
		pricing:     deps.Pricing,
		baseURL:     strings.TrimRight(strings.TrimSpace(deps.BaseURL), "/"),
		expiry:      time.Duration(hours) * time.Hour,
		now:         time.Now,
	}
}

// CheckoutPreview 结算预览
type CheckoutPreview struct {
	Items     []CartLine               `json:"items"`
	Totals    CheckoutTotals           `json:"totals"`
	Currency  string                   `json:"currency"`
	Addresses []models.ShippingAddress `json:"addresses"`
}

// PlaceOrderInput 下单输入
type PlaceOrderInput struct {
	ShippingAddressID uint
	PaymentMethod     string
	SelectedItems     []uint
}

// PaymentSession 网关支付会话
type PaymentSession struct {
	OrderID     uint   `json:"order_id"`
	OrderNo     string `json:"order_number"`
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

// Preview 结算预览，只读
func (s *CheckoutService) Preview(userID uint, selectedIDs []uint) (*CheckoutPreview, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	items, err := s.selectCartItems(s.cartRepo, userID, selectedIDs, false)
	if err != nil {
		return nil, err
	}
	lines := buildCartLines(items)
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.LineTotal.Decimal)
	}
	addresses, err := s.addressRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	return &CheckoutPreview{
		Items:     lines,
		Totals:    s.pricing.Compute(subtotal),
		Currency:  s.pricing.Currency,
		Addresses: addresses,
	}, nil
}

// PlaceOrder 下单：事务内锁定规格校验库存并落库，提交后再请求网关
func (s *CheckoutService) PlaceOrder(ctx context.Context, userID uint, input PlaceOrderInput) (*PaymentSession, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := serviceTracer.Start(ctx, "checkout.place_order")
	defer span.End()

	if userID == 0 {
		return nil, ErrUnauthorized
	}
	method := strings.ToLower(strings.TrimSpace(input.PaymentMethod))
	if method == "" {
		return nil, ErrPaymentMethodRequired
	}
	if s.gateway == nil {
		return nil, ErrGatewayNotConfigured
	}
	address, err := s.addressRepo.GetByUserAndID(userID, input.ShippingAddressID)
	if err != nil {
		return nil, err
	}
	if address == nil {
		return nil, ErrAddressNotFound
	}

	log := logger.SW("user_id", userID, "address_id", address.ID, "payment_method", method)
	now := s.now()
	orderNo := generateOrderNo(now)
	expiryAt := now.Add(s.expiry)

	var order *models.Order
	var payment *models.Payment
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		productRepo := s.productRepo.WithTx(tx)
		orderRepo := s.orderRepo.WithTx(tx)
		paymentRepo := s.paymentRepo.WithTx(tx)

		// 先锁购物车行再锁规格，同一购物车的并发结算在此串行
		items, err := s.selectCartItems(cartRepo, userID, input.SelectedItems, true)
		if err != nil {
			return err
		}
		variantIDs := make([]uint, 0, len(items))
		for _, item := range items {
			variantIDs = append(variantIDs, item.VariantID)
		}
		variants, err := productRepo.LockVariantsByIDs(variantIDs)
		if err != nil {
			return err
		}
		variantMap := make(map[uint]models.ProductVariant, len(variants))
		for _, variant := range variants {
			variantMap[variant.ID] = variant
		}

		subtotal := decimal.Zero
		orderItems := make([]models.OrderItem, 0, len(items))
		cartLineIDs := make([]uint, 0, len(items))
		for _, item := range items {
			variant, ok := variantMap[item.VariantID]
			if !ok {
				return ErrVariantNotFound
			}
			if variant.Stock < item.Quantity {
				return &InsufficientStockError{ProductName: productNameOf(&variant), Available: variant.Stock}
			}
			total := lineTotal(variant.Price, item.Quantity)
			subtotal = subtotal.Add(total)
			orderItems = append(orderItems, models.OrderItem{
				VariantID:   variant.ID,
				ProductName: productNameOf(&variant),
				VariantName: variant.Name,
				SKU:         variant.SKU,
				Price:       variant.Price,
				Quantity:    item.Quantity,
				TotalPrice:  models.NewMoneyFromDecimal(total),
				CreatedAt:   now,
			})
			cartLineIDs = append(cartLineIDs, item.ID)
		}

		totals := s.pricing.Compute(subtotal)
		order = &models.Order{
			OrderNo:           orderNo,
			UserID:            userID,
			ShippingAddressID: address.ID,
			Status:            constants.OrderStatusPending,
			Currency:          s.pricing.Currency,
			Subtotal:          totals.Subtotal,
			TaxAmount:         totals.TaxAmount,
			ShippingCost:      totals.ShippingCost,
			TotalAmount:       totals.TotalAmount,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := orderRepo.Create(order, orderItems); err != nil {
			return err
		}
		payment = &models.Payment{
			OrderID:        order.ID,
			Method:         method,
			Amount:         order.TotalAmount,
			Currency:       order.Currency,
			Status:         constants.PaymentStatusPending,
			GatewayOrderID: orderNo,
			Attempts:       1,
			ExpiryAt:       &expiryAt,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := paymentRepo.Create(payment); err != nil {
			return err
		}
		order.Payment = payment
		deleted, err := cartRepo.DeleteByUserAndIDs(userID, cartLineIDs)
		if err != nil {
			return err
		}
		// 购物车行已被另一次结算消费，整体回滚
		if deleted != int64(len(cartLineIDs)) {
			return ErrEmptyCart
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "place order failed")
		if isDuplicateKeyError(err) {
			log.Warnw("checkout_order_number_conflict", "order_no", orderNo, "error", err)
			return nil, ErrOrderNumberConflict
		}
		if isCheckoutBusinessError(err) {
			log.Infow("checkout_order_rejected", "error", err)
			return nil, err
		}
		log.Errorw("checkout_order_create_failed", "error", err)
		return nil, ErrOrderCreateFailed
	}
	order.ShippingAddress = address
	span.SetAttributes(
		attribute.String("order.number", order.OrderNo),
		attribute.Int64("order.total", order.TotalAmount.Int64()),
	)
	log.Infow("checkout_order_placed",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"total_amount", order.TotalAmount.String(),
		"items", len(order.Items),
	)
	s.instruments.OrderPlaced(ctx, method)
	s.publish(ctx, order, constants.EventOrderPlaced)

	req := s.buildSnapRequest(order, payment.GatewayOrderID, s.customerFor(userID, address), midtrans.Callbacks{
		Finish:  s.orderURL(order.ID, ""),
		Error:   s.baseURL + "/checkout?status=failed",
		Pending: s.orderURL(order.ID, "status=pending"),
	})
	resp, err := s.createTransaction(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "gateway request failed")
		log.Errorw("checkout_gateway_request_failed", "order_id", order.ID, "order_no", order.OrderNo, "error", err)
		// 订单已落库，返回订单标识供前台走继续支付
		return &PaymentSession{OrderID: order.ID, OrderNo: order.OrderNo}, fmt.Errorf("%w: %v", ErrGatewayRequestFailed, err)
	}

	payment.SnapToken = resp.Token
	payment.RedirectURL = resp.RedirectURL
	payment.UpdatedAt = s.now()
	if err := s.paymentRepo.Update(payment); err != nil {
		log.Errorw("checkout_payment_token_save_failed", "order_id", order.ID, "error", err)
		return nil, ErrPaymentUpdateFailed
	}
	s.scheduleExpiry(order.ID, payment)

	return &PaymentSession{
		OrderID:     order.ID,
		OrderNo:     order.OrderNo,
		Token:       resp.Token,
		RedirectURL: resp.RedirectURL,
	}, nil
}

// ContinuePayment 继续支付：基于已落库订单重新申请网关令牌
func (s *CheckoutService) ContinuePayment(ctx context.Context, userID, orderID uint) (*PaymentSession, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := serviceTracer.Start(ctx, "checkout.continue_payment")
	defer span.End()

	if userID == 0 {
		return nil, ErrUnauthorized
	}
	if s.gateway == nil {
		return nil, ErrGatewayNotConfigured
	}
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		logger.Errorw("checkout_continue_order_fetch_failed", "order_id", orderID, "error", err)
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Payment == nil {
		return nil, ErrPaymentNotFound
	}
	if !isPaymentContinuable(order.Payment.Status) {
		return nil, ErrPaymentNotContinuable
	}
	log := logger.SW("user_id", userID, "order_id", order.ID, "order_no", order.OrderNo)

	// 先占用尝试次数，网关要求每笔交易 order_id 唯一
	var attempt int
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		paymentRepo := s.paymentRepo.WithTx(tx)
		locked, err := paymentRepo.LockByID(order.Payment.ID)
		if err != nil {
			return err
		}
		if locked == nil {
			return ErrPaymentNotFound
		}
		if !isPaymentContinuable(locked.Status) {
			return ErrPaymentNotContinuable
		}
		locked.Attempts++
		locked.UpdatedAt = s.now()
		attempt = locked.Attempts
		return paymentRepo.Update(locked)
	})
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) || errors.Is(err, ErrPaymentNotContinuable) {
			return nil, err
		}
		log.Errorw("checkout_continue_attempt_reserve_failed", "error", err)
		return nil, ErrPaymentUpdateFailed
	}

	gatewayOrderID := retryGatewayOrderID(order.OrderNo, attempt)
	customer := midtrans.CustomerDetails{Email: s.userEmail(userID)}
	if addr := order.ShippingAddress; addr != nil {
		customer.FirstName = addr.Recipient
		customer.Phone = addr.Phone
		customer.ShippingAddress = toGatewayAddress(addr)
	}
	req := s.buildSnapRequest(order, gatewayOrderID, customer, midtrans.Callbacks{
		Finish:  s.orderURL(order.ID, ""),
		Error:   s.orderURL(order.ID, "payment=failed"),
		Pending: s.orderURL(order.ID, "payment=pending"),
	})
	resp, err := s.createTransaction(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "gateway request failed")
		log.Errorw("checkout_continue_gateway_request_failed", "gateway_order_id", gatewayOrderID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrGatewayRequestFailed, err)
	}

	var payment *models.Payment
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		paymentRepo := s.paymentRepo.WithTx(tx)
		orderRepo := s.orderRepo.WithTx(tx)
		locked, err := paymentRepo.LockByID(order.Payment.ID)
		if err != nil {
			return err
		}
		if locked == nil {
			return ErrPaymentNotFound
		}
		// 等待网关期间可能已收到支付成功通知
		if !isPaymentContinuable(locked.Status) {
			return ErrPaymentNotContinuable
		}
		now := s.now()
		expiryAt := now.Add(s.expiry)
		from := locked.Status
		locked.Status = constants.PaymentStatusPending
		locked.SnapToken = resp.Token
		locked.RedirectURL = resp.RedirectURL
		locked.GatewayOrderID = gatewayOrderID
		locked.ExpiryAt = &expiryAt
		locked.UpdatedAt = now
		if err := paymentRepo.Update(locked); err != nil {
			return err
		}
		if err := orderRepo.UpdateStatus(order.ID, constants.OrderStatusPending, map[string]interface{}{
			"cancelled_at": nil,
			"updated_at":   now,
		}); err != nil {
			return err
		}
		if from != locked.Status {
			s.instruments.PaymentTransition(ctx, from, locked.Status)
		}
		payment = locked
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) || errors.Is(err, ErrPaymentNotContinuable) {
			return nil, err
		}
		log.Errorw("checkout_continue_payment_save_failed", "error", err)
		return nil, ErrPaymentUpdateFailed
	}
	s.scheduleExpiry(order.ID, payment)
	log.Infow("checkout_payment_continued", "gateway_order_id", gatewayOrderID, "attempt", attempt)

	return &PaymentSession{
		OrderID:     order.ID,
		OrderNo:     order.OrderNo,
		Token:       resp.Token,
		RedirectURL: resp.RedirectURL,
	}, nil
}

// selectCartItems 取出参与结算的购物车行，指定子集但无匹配时返回 ErrNoItemsSelected
func (s *CheckoutService) selectCartItems(cartRepo repository.CartRepository, userID uint, selectedIDs []uint, forUpdate bool) ([]models.CartItem, error) {
	var (
		items []models.CartItem
		err   error
	)
	switch {
	case forUpdate:
		items, err = cartRepo.LockByUser(userID, selectedIDs)
	case len(selectedIDs) == 0:
		items, err = cartRepo.ListByUser(userID)
	default:
		items, err = cartRepo.ListByUserAndIDs(userID, selectedIDs)
	}
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		if len(selectedIDs) == 0 {
			return nil, ErrEmptyCart
		}
		return nil, ErrNoItemsSelected
	}
	return items, nil
}

func (s *CheckoutService) createTransaction(ctx context.Context, req midtrans.SnapRequest) (*midtrans.SnapResponse, error) {
	started := time.Now()
	resp, err := s.gateway.CreateTransaction(ctx, req)
	s.instruments.GatewayCall(ctx, "create_transaction", time.Since(started), err)
	return resp, err
}

// buildSnapRequest 由订单快照构建网关请求，明细合计等于订单总额
func (s *CheckoutService) buildSnapRequest(order *models.Order, gatewayOrderID string, customer midtrans.CustomerDetails, callbacks midtrans.Callbacks) midtrans.SnapRequest {
	items := make([]midtrans.ItemDetail, 0, len(order.Items)+2)
	for _, item := range order.Items {
		items = append(items, midtrans.ItemDetail{
			ID:       strconv.FormatUint(uint64(item.VariantID), 10),
			Price:    item.Price.Int64(),
			Quantity: item.Quantity,
			Name:     truncateItemName(item.ProductName),
		})
	}
	if shipping := order.ShippingCost.Int64(); shipping > 0 {
		items = append(items, midtrans.ItemDetail{
			ID:       constants.MidtransShippingItemID,
			Price:    shipping,
			Quantity: 1,
			Name:     constants.MidtransShippingName,
		})
	}
	if tax := order.TaxAmount.Int64(); tax > 0 {
		items = append(items, midtrans.ItemDetail{
			ID:       constants.MidtransTaxItemID,
			Price:    tax,
			Quantity: 1,
			Name:     constants.MidtransTaxName,
		})
	}
	if strings.TrimSpace(customer.FirstName) == "" {
		customer.FirstName = constants.MidtransDefaultName
	}
	return midtrans.SnapRequest{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:     gatewayOrderID,
			GrossAmount: order.TotalAmount.Int64(),
		},
		ItemDetails:     items,
		CustomerDetails: customer,
		Callbacks:       callbacks,
	}
}

func (s *CheckoutService) customerFor(userID uint, address *models.ShippingAddress) midtrans.CustomerDetails {
	customer := midtrans.CustomerDetails{ShippingAddress: toGatewayAddress(address)}
	if s.userRepo == nil {
		return customer
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil || user == nil {
		return customer
	}
	customer.FirstName = strings.TrimSpace(user.Name)
	customer.Email = user.Email
	customer.Phone = user.Phone
	return customer
}

func (s *CheckoutService) userEmail(userID uint) string {
	if s.userRepo == nil {
		return ""
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil || user == nil {
		return ""
	}
	return user.Email
}

func (s *CheckoutService) orderURL(orderID uint, query string) string {
	url := fmt.Sprintf("%s/account/orders/%d", s.baseURL, orderID)
	if query != "" {
		url += "?" + query
	}
	return url
}

func (s *CheckoutService) scheduleExpiry(orderID uint, payment *models.Payment) {
	if !s.queueClient.Enabled() || payment == nil || payment.ExpiryAt == nil {
		return
	}
	delay := payment.ExpiryAt.Sub(s.now())
	if delay < 0 {
		delay = 0
	}
	if err := s.queueClient.EnqueuePaymentExpire(queue.PaymentExpirePayload{
		OrderID: orderID,
		Attempt: payment.Attempts,
	}, delay); err != nil {
		logger.Warnw("checkout_payment_expire_enqueue_failed", "order_id", orderID, "error", err)
	}
}

func (s *CheckoutService) publish(ctx context.Context, order *models.Order, eventType string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.FromOrder(order, eventType, s.now())); err != nil {
		logger.Warnw("order_event_publish_failed", "order_id", order.ID, "event", eventType, "error", err)
	}
}

func toGatewayAddress(address *models.ShippingAddress) *midtrans.Address {
	if address == nil {
		return nil
	}
	return &midtrans.Address{
		FirstName:   address.Recipient,
		Phone:       address.Phone,
		Address:     address.Address,
		City:        address.City,
		PostalCode:  address.PostalCode,
		CountryCode: constants.MidtransCountryCode,
	}
}

func productNameOf(variant *models.ProductVariant) string {
	if variant != nil && variant.Product != nil && variant.Product.Name != "" {
		return variant.Product.Name
	}
	if variant != nil {
		return variant.Name
	}
	return ""
}

func truncateItemName(name string) string {
	runes := []rune(strings.TrimSpace(name))
	if len(runes) <= midtransItemNameMaxLength {
		return string(runes)
	}
	return string(runes[:midtransItemNameMaxLength])
}

// generateOrderNo 订单号：前缀 + 毫秒时间戳
func generateOrderNo(now time.Time) string {
	return fmt.Sprintf("%s%d", constants.OrderNoPrefix, now.UnixMilli())
}

// retryGatewayOrderID 首次使用订单号，之后追加 -R<n>
func retryGatewayOrderID(orderNo string, attempt int) string {
	if attempt <= 1 {
		return orderNo
	}
	return fmt.Sprintf("%s%s%d", orderNo, constants.RetryOrderMarker, attempt)
}

func isPaymentContinuable(status string) bool {
	switch status {
	case constants.PaymentStatusPending, constants.PaymentStatusFailed, constants.PaymentStatusExpired:
		return true
	default:
		return false
	}
}

func isCheckoutBusinessError(err error) bool {
	return errors.Is(err, ErrEmptyCart) ||
		errors.Is(err, ErrNoItemsSelected) ||
		errors.Is(err, ErrVariantNotFound) ||
		errors.Is(err, ErrInsufficientStock)
}

// isDuplicateKeyError 唯一约束冲突（sqlite 与 postgres）
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
