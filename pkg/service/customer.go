package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/pharmacart/pkg/models"
	"github.com/example/pharmacart/pkg/txid"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CreateCustomerInput struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

type CustomerService struct {
	store  Store
	audit  Audit
	logger *zap.Logger
}

func NewCustomerService(store Store, audit Audit, logger *zap.Logger) *CustomerService {
	return &CustomerService{store: store, audit: audit, logger: logger}
}

// Create registers a customer. Email and phone are unique; conflicts surface
// as validation errors, not retries.
func (s *CustomerService) Create(ctx context.Context, in CreateCustomerInput) (*models.Customer, error) {
	tx := txid.FromContext(ctx)

	email := strings.ToLower(strings.TrimSpace(in.Email))
	phone := strings.TrimSpace(in.Phone)

	var customer *models.Customer
	err := s.store.WithTx(ctx, func(st Store) error {
		taken, err := st.CustomerEmailExists(ctx, email)
		if err != nil {
			return fmt.Errorf("failed to check email: %w", err)
		}
		if taken {
			s.audit.Record(ctx, "customer_conflict", "WARN", "Email already registered",
				map[string]interface{}{"field": "email", "email": email})
			return ErrEmailRegistered
		}

		taken, err = st.CustomerPhoneExists(ctx, phone)
		if err != nil {
			return fmt.Errorf("failed to check phone: %w", err)
		}
		if taken {
			s.audit.Record(ctx, "customer_conflict", "WARN", "Phone already registered",
				map[string]interface{}{"field": "phone", "phone": phone})
			return ErrPhoneRegistered
		}

		customer = &models.Customer{
			ID:        uuid.New().String(),
			Name:      strings.TrimSpace(in.Name),
			Email:     email,
			Phone:     phone,
			Address:   strings.TrimSpace(in.Address),
			TxID:      tx,
			CreatedAt: time.Now(),
		}
		if err := st.CreateCustomer(ctx, customer); err != nil {
			return fmt.Errorf("failed to create customer: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, "customer_created", "INFO", "Customer registered successfully",
		map[string]interface{}{"customerId": customer.ID, "email": customer.Email})
	s.logger.Info("customer created", zap.String("customer_id", customer.ID), zap.String("tx_id", tx))

	return customer, nil
}

func (s *CustomerService) Get(ctx context.Context, id string) (*models.Customer, error) {
	customer, err := s.store.FindCustomer(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to look up customer: %w", err)
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}
	return customer, nil
}
