package service

import (
	"context"
	"fmt"
	"time"

	"github.com/example/pharmacart/pkg/models"
	"github.com/example/pharmacart/pkg/txid"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ProductService struct {
	store           Store
	cache           ProductCache
	searchLog       SearchLog
	defaultMinStock int
	logger          *zap.Logger
}

func NewProductService(store Store, cache ProductCache, searchLog SearchLog,
	defaultMinStock int, logger *zap.Logger) *ProductService {
	return &ProductService{
		store:           store,
		cache:           cache,
		searchLog:       searchLog,
		defaultMinStock: defaultMinStock,
		logger:          logger,
	}
}

// Search lists products with stock >= minStock ordered by name. Search intent
// is logged asynchronously on a detached context; the tx id travels in the
// payload because the goroutine outlives the request.
func (s *ProductService) Search(ctx context.Context, minStock *int) ([]models.Product, error) {
	ms := s.defaultMinStock
	if minStock != nil {
		ms = *minStock
	}
	tx := txid.FromContext(ctx)

	if s.searchLog != nil {
		go func() {
			logCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.searchLog.RecordSearch(logCtx, ms, tx); err != nil {
				s.logger.Warn("failed to persist product search log",
					zap.Int("min_stock", ms), zap.String("tx_id", tx), zap.Error(err))
			}
		}()
	}

	if s.cache != nil {
		if products, err := s.cache.GetProducts(ctx, ms); err == nil {
			return products, nil
		}
	}

	products, err := s.store.SearchProducts(ctx, ms)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetProducts(ctx, ms, products); err != nil {
			s.logger.Warn("failed to cache products", zap.Error(err))
		}
	}

	return products, nil
}

func (s *ProductService) Get(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.store.FindProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to look up product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// Seed loads the starter catalog once; subsequent runs are no-ops.
func (s *ProductService) Seed(ctx context.Context) error {
	count, err := s.store.CountProducts(ctx)
	if err != nil {
		return fmt.Errorf("failed to count products: %w", err)
	}
	if count > 0 {
		return nil
	}

	now := time.Now()
	catalog := []struct {
		name, description string
		price             string
		stock             int
	}{
		{"Paracetamol 500mg", "Pain and fever relief", "3500", 100},
		{"Ibuprofen 400mg", "Non-steroidal anti-inflammatory", "4200", 80},
		{"Vitamin C 1000mg", "Vitamin supplement", "8500", 50},
		{"Omeprazole 20mg", "Proton pump inhibitor", "5200", 120},
		{"Loratadine 10mg", "Antihistamine", "3800", 60},
		{"Amoxicillin 500mg", "Broad-spectrum antibiotic", "9500", 40},
		{"Metformin 850mg", "Oral antidiabetic", "6100", 70},
		{"Salbutamol Inhaler", "Bronchodilator", "18200", 30},
	}

	products := make([]models.Product, 0, len(catalog))
	for _, c := range catalog {
		price, err := decimal.NewFromString(c.price)
		if err != nil {
			return fmt.Errorf("failed to parse seed price: %w", err)
		}
		products = append(products, models.Product{
			ID:          uuid.New().String(),
			Name:        c.name,
			Description: c.description,
			Price:       price,
			Stock:       c.stock,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}

	if err := s.store.CreateProducts(ctx, products); err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}

	s.logger.Info("product catalog seeded", zap.Int("count", len(products)))
	return nil
}
