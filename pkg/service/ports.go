package service

import (
	"context"

	"github.com/example/pharmacart/pkg/models"
)

// Store is the persistence port for the checkout flow. WithTx runs fn against
// a store bound to one transaction; every externally triggered operation is
// exactly one such unit of work.
type Store interface {
	WithTx(ctx context.Context, fn func(Store) error) error

	CustomerExists(ctx context.Context, id string) (bool, error)
	CustomerEmailExists(ctx context.Context, email string) (bool, error)
	CustomerPhoneExists(ctx context.Context, phone string) (bool, error)
	FindCustomer(ctx context.Context, id string) (*models.Customer, error)
	CreateCustomer(ctx context.Context, customer *models.Customer) error

	FindProduct(ctx context.Context, id string) (*models.Product, error)
	SearchProducts(ctx context.Context, minStock int) ([]models.Product, error)
	CountProducts(ctx context.Context) (int64, error)
	CreateProducts(ctx context.Context, products []models.Product) error
	// DecrementStock is the only stock mutation in the system. It applies
	// "stock = stock - qty" guarded by "stock >= qty" and reports whether a
	// row was updated, so a lost race is a detected failure.
	DecrementStock(ctx context.Context, productID string, quantity int) (bool, error)

	// FindActiveCart returns the customer's ACTIVE cart with items in
	// insertion order, or nil when there is none.
	FindActiveCart(ctx context.Context, customerID string) (*models.Cart, error)
	CreateCart(ctx context.Context, cart *models.Cart) error
	CreateCartItem(ctx context.Context, item *models.CartItem) error
	UpdateCartItem(ctx context.Context, item *models.CartItem) error
	UpdateCartStatus(ctx context.Context, cartID string, status models.CartStatus) error

	TokenExists(ctx context.Context, id string) (bool, error)
	CreateToken(ctx context.Context, token *models.CardToken) error

	CreateOrder(ctx context.Context, order *models.Order) error
	FindOrder(ctx context.Context, id string) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error

	CountPayments(ctx context.Context, orderID string) (int, error)
	CreatePayment(ctx context.Context, payment *models.Payment) error
	UpdatePayment(ctx context.Context, payment *models.Payment) error
}

// Audit is the structured event sink. Implementations are fire-and-forget and
// must never fail or block the caller's transaction.
type Audit interface {
	Record(ctx context.Context, eventType, level, message string, payload map[string]interface{})
}

// Notifier delivers customer-facing emails. Best effort: delivery failures
// are logged by the implementation, never propagated.
type Notifier interface {
	NotifySuccess(email, orderID, total string)
	NotifyFailure(email, orderID, reason string)
}

// ProductCache fronts product search results. A miss is reported as an error
// and treated by callers as "go to the database".
type ProductCache interface {
	GetProducts(ctx context.Context, minStock int) ([]models.Product, error)
	SetProducts(ctx context.Context, minStock int, products []models.Product) error
}

// SearchLog records search intent, not necessarily a successful query.
type SearchLog interface {
	RecordSearch(ctx context.Context, minStock int, txID string) error
}
