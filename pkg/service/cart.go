package service

import (
	"context"
	"fmt"
	"time"

	"github.com/example/pharmacart/pkg/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CartService accumulates priced line items per customer. Stock checks here
// are soft: the cart may sit for arbitrary time before checkout, so the
// authoritative validation is deferred to order assembly.
type CartService struct {
	store  Store
	logger *zap.Logger
}

func NewCartService(store Store, logger *zap.Logger) *CartService {
	return &CartService{store: store, logger: logger}
}

// AddItem reuses the customer's ACTIVE cart or lazily creates one. An
// existing line for the product grows by quantity and re-snapshots the unit
// price to the product's current price; stock sufficiency is re-validated
// against the new total quantity, not the delta.
func (s *CartService) AddItem(ctx context.Context, customerID, productID string, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1")
	}

	var cart *models.Cart
	err := s.store.WithTx(ctx, func(st Store) error {
		exists, err := st.CustomerExists(ctx, customerID)
		if err != nil {
			return fmt.Errorf("failed to look up customer: %w", err)
		}
		if !exists {
			return ErrCustomerNotFound
		}

		product, err := st.FindProduct(ctx, productID)
		if err != nil {
			return fmt.Errorf("failed to look up product: %w", err)
		}
		if product == nil {
			return ErrProductNotFound
		}
		if product.Stock < 1 {
			return ErrOutOfStock
		}

		cart, err = st.FindActiveCart(ctx, customerID)
		if err != nil {
			return fmt.Errorf("failed to look up cart: %w", err)
		}
		if cart == nil {
			cart = &models.Cart{
				ID:         uuid.New().String(),
				CustomerID: customerID,
				Status:     models.CartStatusActive,
				CreatedAt:  time.Now(),
			}
			if err := st.CreateCart(ctx, cart); err != nil {
				return fmt.Errorf("failed to create cart: %w", err)
			}
		}

		var existing *models.CartItem
		for i := range cart.Items {
			if cart.Items[i].ProductID == productID {
				existing = &cart.Items[i]
				break
			}
		}

		if existing != nil {
			newQty := existing.Quantity + quantity
			if product.Stock < newQty {
				return &InsufficientStockError{ProductName: product.Name, Required: newQty, Available: product.Stock}
			}
			existing.Quantity = newQty
			existing.UnitPriceSnapshot = product.Price
			if err := st.UpdateCartItem(ctx, existing); err != nil {
				return fmt.Errorf("failed to update cart item: %w", err)
			}
		} else {
			if product.Stock < quantity {
				return &InsufficientStockError{ProductName: product.Name, Required: quantity, Available: product.Stock}
			}
			item := &models.CartItem{
				ID:                uuid.New().String(),
				CartID:            cart.ID,
				ProductID:         productID,
				Quantity:          quantity,
				UnitPriceSnapshot: product.Price,
				CreatedAt:         time.Now(),
			}
			if err := st.CreateCartItem(ctx, item); err != nil {
				return fmt.Errorf("failed to create cart item: %w", err)
			}
		}

		cart, err = st.FindActiveCart(ctx, customerID)
		if err != nil {
			return fmt.Errorf("failed to reload cart: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return cart, nil
}

// GetCart returns the customer's active cart and its running total.
func (s *CartService) GetCart(ctx context.Context, customerID string) (*models.Cart, decimal.Decimal, error) {
	cart, err := s.store.FindActiveCart(ctx, customerID)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("failed to look up cart: %w", err)
	}
	if cart == nil {
		return nil, decimal.Zero, ErrNoActiveCart
	}

	total := decimal.Zero
	for _, item := range cart.Items {
		total = total.Add(item.Subtotal())
	}
	return cart, total, nil
}
