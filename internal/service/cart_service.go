package service

import (
	"github.com/tokonext/internal/logger"
	"github.com/tokonext/internal/models"
	"github.com/tokonext/internal/repository"

	"github.com/shopspring/decimal"
)

// CartLine 购物车行（价格取规格实时价格）
type CartLine struct {
	ID          uint         `json:"id"`
	VariantID   uint         `json:"variant_id"`
	ProductID   uint         `json:"product_id"`
	ProductName string       `json:"product_name"`
	VariantName string       `json:"variant_name"`
	SKU         string       `json:"sku"`
	UnitPrice   models.Money `json:"unit_price"`
	Quantity    int          `json:"quantity"`
	LineTotal   models.Money `json:"line_total"`
	Stock       int          `json:"stock"`
}

// CartView 购物车视图
type CartView struct {
	Items    []CartLine     `json:"items"`
	Totals   CheckoutTotals `json:"totals"`
	Currency string         `json:"currency"`
}

// CartService 购物车服务
type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	pricing     PricingPolicy
}

// NewCartService 创建购物车服务
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository, pricing PricingPolicy) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		pricing:     pricing,
	}
}

// GetCart 获取用户购物车与汇总
func (s *CartService) GetCart(userID uint) (*CartView, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	items, err := s.cartRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	return s.buildView(items), nil
}

// AddItem 加入购物车，同规格累加数量
func (s *CartService) AddItem(userID, variantID uint, quantity int) (*CartView, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	variant, err := s.productRepo.GetVariantByID(variantID)
	if err != nil {
		return nil, err
	}
	if variant == nil {
		return nil, ErrVariantNotFound
	}
	if err := s.cartRepo.AddQuantity(userID, variantID, quantity); err != nil {
		return nil, err
	}
	logger.Debugw("cart_item_added", "user_id", userID, "variant_id", variantID, "quantity", quantity)
	return s.GetCart(userID)
}

// UpdateItem 修改数量，数量不大于 0 时删除该行
func (s *CartService) UpdateItem(userID, itemID uint, quantity int) (*CartView, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	item, err := s.cartRepo.GetByUserAndID(userID, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrCartItemNotFound
	}
	if quantity <= 0 {
		if _, err := s.cartRepo.DeleteByUserAndID(userID, itemID); err != nil {
			return nil, err
		}
		return s.GetCart(userID)
	}
	if err := s.cartRepo.UpdateQuantity(item, quantity); err != nil {
		return nil, err
	}
	return s.GetCart(userID)
}

// RemoveItem 删除购物车行
func (s *CartService) RemoveItem(userID, itemID uint) (*CartView, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	affected, err := s.cartRepo.DeleteByUserAndID(userID, itemID)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrCartItemNotFound
	}
	return s.GetCart(userID)
}

// DirectCheckout 立即购买：校验库存后用单个商品替换整个购物车
func (s *CartService) DirectCheckout(userID, variantID uint, quantity int) (*CartView, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	variant, err := s.productRepo.GetVariantByID(variantID)
	if err != nil {
		return nil, err
	}
	if variant == nil {
		return nil, ErrVariantNotFound
	}
	if variant.Stock < quantity {
		return nil, &InsufficientStockError{ProductName: variant.DisplayName(), Available: variant.Stock}
	}
	item := &models.CartItem{UserID: userID, VariantID: variantID, Quantity: quantity}
	if err := s.cartRepo.ReplaceWith(userID, item); err != nil {
		return nil, err
	}
	logger.Infow("cart_direct_checkout_prepared", "user_id", userID, "variant_id", variantID, "quantity", quantity)
	return s.GetCart(userID)
}

func (s *CartService) buildView(items []models.CartItem) *CartView {
	lines := buildCartLines(items)
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.LineTotal.Decimal)
	}
	return &CartView{
		Items:    lines,
		Totals:   s.pricing.Compute(subtotal),
		Currency: s.pricing.Currency,
	}
}

// buildCartLines 组装购物车行，规格缺失的行直接跳过
func buildCartLines(items []models.CartItem) []CartLine {
	lines := make([]CartLine, 0, len(items))
	for _, item := range items {
		variant := item.Variant
		if variant == nil || variant.ID == 0 {
			continue
		}
		line := CartLine{
			ID:          item.ID,
			VariantID:   variant.ID,
			ProductID:   variant.ProductID,
			VariantName: variant.Name,
			SKU:         variant.SKU,
			UnitPrice:   variant.Price,
			Quantity:    item.Quantity,
			LineTotal:   models.NewMoneyFromDecimal(lineTotal(variant.Price, item.Quantity)),
			Stock:       variant.Stock,
		}
		if variant.Product != nil {
			line.ProductName = variant.Product.Name
		}
		lines = append(lines, line)
	}
	return lines
}
