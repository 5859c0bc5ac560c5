package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/pharmacart/pkg/config"
	"github.com/example/pharmacart/pkg/models"
	"github.com/example/pharmacart/pkg/service"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// Store is the gorm-backed implementation of the service persistence port.
type Store struct {
	db *gorm.DB
}

func NewStore(cfg *config.MySQLConfig) (*Store, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql db: %w", err)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	// Auto migrate
	if err := db.AutoMigrate(
		&models.Customer{},
		&models.Product{},
		&models.Cart{},
		&models.CartItem{},
		&models.CardToken{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return &Store{db: db}, nil
}

func NewStoreWithDB(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) WithTx(ctx context.Context, fn func(service.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) CustomerExists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Customer{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (s *Store) CustomerEmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Customer{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

func (s *Store) CustomerPhoneExists(ctx context.Context, phone string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Customer{}).Where("phone = ?", phone).Count(&count).Error
	return count > 0, err
}

func (s *Store) FindCustomer(ctx context.Context, id string) (*models.Customer, error) {
	var customer models.Customer
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (s *Store) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	return s.db.WithContext(ctx).Create(customer).Error
}

func (s *Store) FindProduct(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *Store) SearchProducts(ctx context.Context, minStock int) ([]models.Product, error) {
	var products []models.Product
	err := s.db.WithContext(ctx).
		Where("stock >= ?", minStock).
		Order("name ASC").
		Find(&products).Error
	return products, err
}

func (s *Store) CountProducts(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Product{}).Count(&count).Error
	return count, err
}

func (s *Store) CreateProducts(ctx context.Context, products []models.Product) error {
	return s.db.WithContext(ctx).Create(&products).Error
}

// DecrementStock is conditional: zero rows affected means another order beat
// this one to the remaining stock.
func (s *Store) DecrementStock(ctx context.Context, productID string, quantity int) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) FindActiveCart(ctx context.Context, customerID string) (*models.Cart, error) {
	var cart models.Cart
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("customer_id = ? AND status = ?", customerID, models.CartStatusActive).
		First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (s *Store) CreateCart(ctx context.Context, cart *models.Cart) error {
	return s.db.WithContext(ctx).Create(cart).Error
}

func (s *Store) CreateCartItem(ctx context.Context, item *models.CartItem) error {
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) UpdateCartItem(ctx context.Context, item *models.CartItem) error {
	return s.db.WithContext(ctx).Model(&models.CartItem{}).
		Where("id = ?", item.ID).
		Updates(map[string]interface{}{
			"quantity":            item.Quantity,
			"unit_price_snapshot": item.UnitPriceSnapshot,
		}).Error
}

func (s *Store) UpdateCartStatus(ctx context.Context, cartID string, status models.CartStatus) error {
	return s.db.WithContext(ctx).Model(&models.Cart{}).
		Where("id = ?", cartID).
		Update("status", status).Error
}

func (s *Store) TokenExists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.CardToken{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (s *Store) CreateToken(ctx context.Context, token *models.CardToken) error {
	return s.db.WithContext(ctx).Create(token).Error
}

func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	return s.db.WithContext(ctx).Create(order).Error
}

func (s *Store) FindOrder(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Store) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error {
	return s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("status", status).Error
}

func (s *Store) CountPayments(ctx context.Context, orderID string) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Payment{}).Where("order_id = ?", orderID).Count(&count).Error
	return int(count), err
}

func (s *Store) CreatePayment(ctx context.Context, payment *models.Payment) error {
	return s.db.WithContext(ctx).Create(payment).Error
}

func (s *Store) UpdatePayment(ctx context.Context, payment *models.Payment) error {
	return s.db.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ?", payment.ID).
		Updates(map[string]interface{}{
			"status":     payment.Status,
			"last_error": payment.LastError,
		}).Error
}
