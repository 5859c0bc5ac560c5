package service

import (
	"context"
	"sync"

	"github.com/example/pharmacart/pkg/models"
)

// memStore is an in-memory Store. WithTx snapshots the state and restores it
// when fn fails, so rollback-sensitive behavior is observable in tests.
type memStore struct {
	customers map[string]models.Customer
	products  map[string]models.Product
	carts     map[string]models.Cart
	tokens    map[string]models.CardToken
	orders    map[string]models.Order
	payments  []models.Payment
}

func newMemStore() *memStore {
	return &memStore{
		customers: make(map[string]models.Customer),
		products:  make(map[string]models.Product),
		carts:     make(map[string]models.Cart),
		tokens:    make(map[string]models.CardToken),
		orders:    make(map[string]models.Order),
	}
}

func copyCart(c models.Cart) models.Cart {
	out := c
	out.Items = append([]models.CartItem(nil), c.Items...)
	return out
}

func copyOrder(o models.Order) models.Order {
	out := o
	out.Items = append([]models.OrderItem(nil), o.Items...)
	return out
}

type memSnapshot struct {
	customers map[string]models.Customer
	products  map[string]models.Product
	carts     map[string]models.Cart
	tokens    map[string]models.CardToken
	orders    map[string]models.Order
	payments  []models.Payment
}

func (m *memStore) snapshot() memSnapshot {
	s := memSnapshot{
		customers: make(map[string]models.Customer, len(m.customers)),
		products:  make(map[string]models.Product, len(m.products)),
		carts:     make(map[string]models.Cart, len(m.carts)),
		tokens:    make(map[string]models.CardToken, len(m.tokens)),
		orders:    make(map[string]models.Order, len(m.orders)),
		payments:  append([]models.Payment(nil), m.payments...),
	}
	for k, v := range m.customers {
		s.customers[k] = v
	}
	for k, v := range m.products {
		s.products[k] = v
	}
	for k, v := range m.carts {
		s.carts[k] = copyCart(v)
	}
	for k, v := range m.tokens {
		s.tokens[k] = v
	}
	for k, v := range m.orders {
		s.orders[k] = copyOrder(v)
	}
	return s
}

func (m *memStore) restore(s memSnapshot) {
	m.customers = s.customers
	m.products = s.products
	m.carts = s.carts
	m.tokens = s.tokens
	m.orders = s.orders
	m.payments = s.payments
}

func (m *memStore) WithTx(ctx context.Context, fn func(Store) error) error {
	snap := m.snapshot()
	if err := fn(m); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

func (m *memStore) CustomerExists(ctx context.Context, id string) (bool, error) {
	_, ok := m.customers[id]
	return ok, nil
}

func (m *memStore) CustomerEmailExists(ctx context.Context, email string) (bool, error) {
	for _, c := range m.customers {
		if c.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) CustomerPhoneExists(ctx context.Context, phone string) (bool, error) {
	for _, c := range m.customers {
		if c.Phone == phone {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) FindCustomer(ctx context.Context, id string) (*models.Customer, error) {
	c, ok := m.customers[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *memStore) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	m.customers[customer.ID] = *customer
	return nil
}

func (m *memStore) FindProduct(ctx context.Context, id string) (*models.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *memStore) SearchProducts(ctx context.Context, minStock int) ([]models.Product, error) {
	var out []models.Product
	for _, p := range m.products {
		if p.Stock >= minStock {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) CountProducts(ctx context.Context) (int64, error) {
	return int64(len(m.products)), nil
}

func (m *memStore) CreateProducts(ctx context.Context, products []models.Product) error {
	for _, p := range products {
		m.products[p.ID] = p
	}
	return nil
}

func (m *memStore) DecrementStock(ctx context.Context, productID string, quantity int) (bool, error) {
	p, ok := m.products[productID]
	if !ok || p.Stock < quantity {
		return false, nil
	}
	p.Stock -= quantity
	m.products[productID] = p
	return true, nil
}

func (m *memStore) FindActiveCart(ctx context.Context, customerID string) (*models.Cart, error) {
	for _, c := range m.carts {
		if c.CustomerID == customerID && c.Status == models.CartStatusActive {
			out := copyCart(c)
			return &out, nil
		}
	}
	return nil, nil
}

func (m *memStore) CreateCart(ctx context.Context, cart *models.Cart) error {
	m.carts[cart.ID] = copyCart(*cart)
	return nil
}

func (m *memStore) CreateCartItem(ctx context.Context, item *models.CartItem) error {
	c := m.carts[item.CartID]
	c.Items = append(c.Items, *item)
	m.carts[item.CartID] = c
	return nil
}

func (m *memStore) UpdateCartItem(ctx context.Context, item *models.CartItem) error {
	c := m.carts[item.CartID]
	for i := range c.Items {
		if c.Items[i].ID == item.ID {
			c.Items[i].Quantity = item.Quantity
			c.Items[i].UnitPriceSnapshot = item.UnitPriceSnapshot
		}
	}
	m.carts[item.CartID] = c
	return nil
}

func (m *memStore) UpdateCartStatus(ctx context.Context, cartID string, status models.CartStatus) error {
	c := m.carts[cartID]
	c.Status = status
	m.carts[cartID] = c
	return nil
}

func (m *memStore) TokenExists(ctx context.Context, id string) (bool, error) {
	_, ok := m.tokens[id]
	return ok, nil
}

func (m *memStore) CreateToken(ctx context.Context, token *models.CardToken) error {
	m.tokens[token.ID] = *token
	return nil
}

func (m *memStore) CreateOrder(ctx context.Context, order *models.Order) error {
	m.orders[order.ID] = copyOrder(*order)
	return nil
}

func (m *memStore) FindOrder(ctx context.Context, id string) (*models.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	out := copyOrder(o)
	return &out, nil
}

func (m *memStore) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error {
	o := m.orders[orderID]
	o.Status = status
	m.orders[orderID] = o
	return nil
}

func (m *memStore) CountPayments(ctx context.Context, orderID string) (int, error) {
	count := 0
	for _, p := range m.payments {
		if p.OrderID == orderID {
			count++
		}
	}
	return count, nil
}

func (m *memStore) CreatePayment(ctx context.Context, payment *models.Payment) error {
	m.payments = append(m.payments, *payment)
	return nil
}

func (m *memStore) UpdatePayment(ctx context.Context, payment *models.Payment) error {
	for i := range m.payments {
		if m.payments[i].ID == payment.ID {
			m.payments[i].Status = payment.Status
			m.payments[i].LastError = payment.LastError
		}
	}
	return nil
}

func (m *memStore) paymentsFor(orderID string) []models.Payment {
	var out []models.Payment
	for _, p := range m.payments {
		if p.OrderID == orderID {
			out = append(out, p)
		}
	}
	return out
}

type auditRecord struct {
	EventType string
	Level     string
	Message   string
	Payload   map[string]interface{}
}

type memAudit struct {
	mu     sync.Mutex
	events []auditRecord
}

func (a *memAudit) Record(ctx context.Context, eventType, level, message string, payload map[string]interface{}) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, auditRecord{EventType: eventType, Level: level, Message: message, Payload: payload})
}

func (a *memAudit) byType(eventType string) []auditRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []auditRecord
	for _, e := range a.events {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

type notification struct {
	Email   string
	OrderID string
	Detail  string
}

type memNotifier struct {
	mu        sync.Mutex
	successes []notification
	failures  []notification
}

func (n *memNotifier) NotifySuccess(email, orderID, total string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, notification{Email: email, OrderID: orderID, Detail: total})
}

func (n *memNotifier) NotifyFailure(email, orderID, reason string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failures = append(n.failures, notification{Email: email, OrderID: orderID, Detail: reason})
}
