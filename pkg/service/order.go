package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/pharmacart/pkg/models"
	"github.com/example/pharmacart/pkg/txid"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderService converts an active cart into an immutable order and hands it
// to payment settlement.
type OrderService struct {
	store    Store
	audit    Audit
	payments *PaymentService
	logger   *zap.Logger
}

func NewOrderService(store Store, audit Audit, payments *PaymentService, logger *zap.Logger) *OrderService {
	return &OrderService{store: store, audit: audit, payments: payments, logger: logger}
}

// Checkout creates the order and then synchronously attempts to pay it.
// Order assembly commits before settlement starts its own unit of work, so a
// crash in between leaves a durable PAYMENT_PENDING order. A settlement that
// exhausts its retry budget is not an error here: the caller observes the
// order in PAYMENT_FAILED.
func (s *OrderService) Checkout(ctx context.Context, customerID, deliveryAddress, tokenID string) (*models.Order, error) {
	order, err := s.CreateOrder(ctx, customerID, deliveryAddress, tokenID)
	if err != nil {
		return nil, err
	}

	if err := s.payments.Settle(ctx, order.ID); err != nil {
		return nil, fmt.Errorf("settlement failed for order %s: %w", order.ID, err)
	}

	settled, err := s.store.FindOrder(ctx, order.ID)
	if err != nil || settled == nil {
		return order, nil
	}
	return settled, nil
}

// CreateOrder runs the whole assembly in one transaction, short-circuiting on
// the first failure: active cart, non-empty, known token, then stock for
// every line before any write. Stock is only checked here; decrementing
// happens at successful settlement so a payment failure never has to restore
// stock. Item prices are the cart's snapshots, not re-read from the catalog.
func (s *OrderService) CreateOrder(ctx context.Context, customerID, deliveryAddress, tokenID string) (*models.Order, error) {
	tx := txid.FromContext(ctx)
	deliveryAddress = strings.TrimSpace(deliveryAddress)
	tokenID = strings.TrimSpace(tokenID)

	var order *models.Order
	err := s.store.WithTx(ctx, func(st Store) error {
		cart, err := st.FindActiveCart(ctx, customerID)
		if err != nil {
			return fmt.Errorf("failed to look up cart: %w", err)
		}
		if cart == nil {
			return ErrNoActiveCart
		}
		if len(cart.Items) == 0 {
			return ErrEmptyCart
		}

		exists, err := st.TokenExists(ctx, tokenID)
		if err != nil {
			return fmt.Errorf("failed to look up token: %w", err)
		}
		if !exists {
			return ErrInvalidToken
		}

		// All lines are validated before any mutation.
		for _, item := range cart.Items {
			product, err := st.FindProduct(ctx, item.ProductID)
			if err != nil {
				return fmt.Errorf("failed to look up product: %w", err)
			}
			if product == nil {
				return fmt.Errorf("%w: %s", ErrProductNotFound, item.ProductID)
			}
			if product.Stock < item.Quantity {
				return &InsufficientStockError{
					ProductName: product.Name,
					Required:    item.Quantity,
					Available:   product.Stock,
				}
			}
		}

		total := decimal.Zero
		for _, item := range cart.Items {
			total = total.Add(item.Subtotal())
		}

		order = &models.Order{
			ID:              uuid.New().String(),
			CustomerID:      customerID,
			CartID:          cart.ID,
			Status:          models.OrderStatusPaymentPending,
			TotalAmount:     total,
			DeliveryAddress: deliveryAddress,
			TokenID:         tokenID,
			TxID:            tx,
			CreatedAt:       time.Now(),
		}
		for _, item := range cart.Items {
			order.Items = append(order.Items, models.OrderItem{
				ID:                uuid.New().String(),
				OrderID:           order.ID,
				ProductID:         item.ProductID,
				Quantity:          item.Quantity,
				UnitPriceSnapshot: item.UnitPriceSnapshot,
			})
		}

		if err := st.CreateOrder(ctx, order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		if err := st.UpdateCartStatus(ctx, cart.ID, models.CartStatusOrdered); err != nil {
			return fmt.Errorf("failed to mark cart ordered: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, "order_created", "INFO", "Order created, payment pending",
		map[string]interface{}{
			"orderId":    order.ID,
			"customerId": customerID,
			"total":      order.TotalAmount.String(),
			"tokenId":    tokenID,
		})
	s.logger.Info("order created", zap.String("order_id", order.ID), zap.String("tx_id", tx))

	return order, nil
}

func (s *OrderService) Get(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.store.FindOrder(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to look up order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}
