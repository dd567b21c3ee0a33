package service

import (
	"github.com/tokonext/internal/logger"
	"github.com/tokonext/internal/models"
	"github.com/tokonext/internal/repository"
)

// OrderService 订单查询服务
type OrderService struct {
	orderRepo repository.OrderRepository
}

// NewOrderService 创建订单查询服务
func NewOrderService(orderRepo repository.OrderRepository) *OrderService {
	return &OrderService{orderRepo: orderRepo}
}

// ListOrders 用户订单列表（含订单项、支付、地址）
func (s *OrderService) ListOrders(userID uint, page, pageSize int) ([]models.Order, int64, error) {
	if userID == 0 {
		return nil, 0, ErrUnauthorized
	}
	orders, total, err := s.orderRepo.ListByUser(repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   userID,
	})
	if err != nil {
		logger.Errorw("order_list_failed", "user_id", userID, "error", err)
		return nil, 0, ErrOrderFetchFailed
	}
	return orders, total, nil
}

// GetOrder 用户订单详情，非本人订单视为不存在
func (s *OrderService) GetOrder(userID, orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		logger.Errorw("order_fetch_failed", "user_id", userID, "order_id", orderID, "error", err)
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}
