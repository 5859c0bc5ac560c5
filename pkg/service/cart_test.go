package service

import (
	"context"
	"testing"

	"github.com/example/pharmacart/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func seedCustomer(store *memStore, id string) {
	store.customers[id] = models.Customer{
		ID:    id,
		Name:  "Ana Gomez",
		Email: id + "@example.com",
		Phone: "300" + id,
	}
}

func seedProduct(store *memStore, id, name string, price string, stock int) {
	store.products[id] = models.Product{
		ID:    id,
		Name:  name,
		Price: decimal.RequireFromString(price),
		Stock: stock,
	}
}

func TestAddItem_CreatesCartLazily(t *testing.T) {
	store := newMemStore()
	seedCustomer(store, "c1")
	seedProduct(store, "p1", "Paracetamol 500mg", "3500", 10)
	svc := NewCartService(store, zap.NewNop())

	cart, err := svc.AddItem(context.Background(), "c1", "p1", 2)
	require.NoError(t, err)
	require.NotNil(t, cart)

	assert.Equal(t, models.CartStatusActive, cart.Status)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "p1", cart.Items[0].ProductID)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.True(t, cart.Items[0].UnitPriceSnapshot.Equal(decimal.RequireFromString("3500")))
}

func TestAddItem_ReusesActiveCart(t *testing.T) {
	store := newMemStore()
	seedCustomer(store, "c1")
	seedProduct(store, "p1", "Paracetamol 500mg", "3500", 10)
	seedProduct(store, "p2", "Ibuprofen 400mg", "4200", 10)
	svc := NewCartService(store, zap.NewNop())

	first, err := svc.AddItem(context.Background(), "c1", "p1", 1)
	require.NoError(t, err)
	second, err := svc.AddItem(context.Background(), "c1", "p2", 3)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, second.Items, 2)
	assert.Len(t, store.carts, 1)
}

func TestAddItem_MergesLineAndResnapshotsPrice(t *testing.T) {
	store := newMemStore()
	seedCustomer(store, "c1")
	seedProduct(store, "p1", "Paracetamol 500mg", "3500", 10)
	svc := NewCartService(store, zap.NewNop())

	_, err := svc.AddItem(context.Background(), "c1", "p1", 2)
	require.NoError(t, err)

	// Catalog price changes while the cart is open.
	p := store.products["p1"]
	p.Price = decimal.RequireFromString("4000")
	store.products["p1"] = p

	cart, err := svc.AddItem(context.Background(), "c1", "p1", 1)
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.True(t, cart.Items[0].UnitPriceSnapshot.Equal(decimal.RequireFromString("4000")),
		"merged line re-snapshots the current price")
}

func TestAddItem_InsufficientStockForNewTotal(t *testing.T) {
	store := newMemStore()
	seedCustomer(store, "c1")
	seedProduct(store, "p1", "Paracetamol 500mg", "3500", 5)
	svc := NewCartService(store, zap.NewNop())

	_, err := svc.AddItem(context.Background(), "c1", "p1", 3)
	require.NoError(t, err)

	_, err = svc.AddItem(context.Background(), "c1", "p1", 3)
	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 6, insufficient.Required)
	assert.Equal(t, 5, insufficient.Available)

	// The failed add rolled back: the line still holds the original quantity.
	cart, _, err := svc.GetCart(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
}

func TestAddItem_Validation(t *testing.T) {
	store := newMemStore()
	seedCustomer(store, "c1")
	seedProduct(store, "p1", "Paracetamol 500mg", "3500", 10)
	seedProduct(store, "gone", "Loratadine 10mg", "3800", 0)
	svc := NewCartService(store, zap.NewNop())

	_, err := svc.AddItem(context.Background(), "missing", "p1", 1)
	assert.ErrorIs(t, err, ErrCustomerNotFound)

	_, err = svc.AddItem(context.Background(), "c1", "missing", 1)
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = svc.AddItem(context.Background(), "c1", "gone", 1)
	assert.ErrorIs(t, err, ErrOutOfStock)

	_, err = svc.AddItem(context.Background(), "c1", "p1", 0)
	assert.Error(t, err)
	assert.Empty(t, store.carts, "no cart is created when validation fails")
}

func TestGetCart_Total(t *testing.T) {
	store := newMemStore()
	seedCustomer(store, "c1")
	seedProduct(store, "p1", "Paracetamol 500mg", "3500", 10)
	seedProduct(store, "p2", "Ibuprofen 400mg", "4200", 10)
	svc := NewCartService(store, zap.NewNop())

	_, err := svc.AddItem(context.Background(), "c1", "p1", 2)
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), "c1", "p2", 1)
	require.NoError(t, err)

	cart, total, err := svc.GetCart(context.Background(), "c1")
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
	assert.True(t, total.Equal(decimal.RequireFromString("11200")), "got %s", total)
}

func TestGetCart_NoActiveCart(t *testing.T) {
	store := newMemStore()
	seedCustomer(store, "c1")
	svc := NewCartService(store, zap.NewNop())

	_, _, err := svc.GetCart(context.Background(), "c1")
	assert.ErrorIs(t, err, ErrNoActiveCart)
}
