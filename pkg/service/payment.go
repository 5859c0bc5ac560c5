package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/example/pharmacart/pkg/config"
	"github.com/example/pharmacart/pkg/models"
	"github.com/example/pharmacart/pkg/txid"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// stockRaceError rolls back the whole approval transaction when a conditional
// stock decrement reports zero rows: another order won the race.
type stockRaceError struct {
	productID string
	quantity  int
}

func (e *stockRaceError) Error() string {
	return fmt.Sprintf("stock contention on product %s (quantity %d)", e.productID, e.quantity)
}

// PaymentService drives the settlement state machine:
// PAYMENT_PENDING -> PAID, or PAYMENT_PENDING -> PAYMENT_FAILED on retry
// exhaustion. Each attempt is its own transaction.
type PaymentService struct {
	store    Store
	audit    Audit
	notifier Notifier
	cfg      config.PaymentConfig
	logger   *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

func NewPaymentService(store Store, audit Audit, notifier Notifier,
	cfg config.PaymentConfig, rng *rand.Rand, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		store:    store,
		audit:    audit,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
		rng:      rng,
	}
}

func (s *PaymentService) draw() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// Settle runs the bounded retry loop: attempts are sequential, separated by
// an exponentially growing delay, and only the typed decline retries. After
// the budget is spent the exhaustion compensation runs once and Settle
// returns nil; the terminal failure is visible on the order itself.
func (s *PaymentService) Settle(ctx context.Context, orderID string) error {
	delay := s.cfg.RetryDelay
	var lastDecline *PaymentDeclinedError

	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		err := s.attempt(ctx, orderID)
		if err == nil {
			return nil
		}

		var declined *PaymentDeclinedError
		if !errors.As(err, &declined) {
			return err
		}
		lastDecline = declined

		if attempt == s.cfg.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay = time.Duration(float64(delay) * s.cfg.RetryMultiplier)
	}

	return s.exhaust(ctx, orderID, lastDecline)
}

// attempt performs one settlement try in one transaction. The attempt ordinal
// is the payment-row count plus one, recomputed here every time so the loop
// and the stored history share a single source of truth across restarts.
func (s *PaymentService) attempt(ctx context.Context, orderID string) error {
	tx := txid.FromContext(ctx)
	var declined *PaymentDeclinedError

	err := s.store.WithTx(ctx, func(st Store) error {
		order, err := st.FindOrder(ctx, orderID)
		if err != nil {
			return fmt.Errorf("failed to look up order: %w", err)
		}
		if order == nil {
			return fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
		}
		// Duplicate invocation guard: already settled orders are left alone.
		if order.Status != models.OrderStatusPaymentPending {
			return nil
		}

		count, err := st.CountPayments(ctx, orderID)
		if err != nil {
			return fmt.Errorf("failed to count payments: %w", err)
		}
		attemptNo := count + 1

		payment := &models.Payment{
			ID:        uuid.New().String(),
			OrderID:   orderID,
			TokenID:   order.TokenID,
			Status:    models.PaymentStatusInitiated,
			Attempt:   attemptNo,
			TxID:      tx,
			CreatedAt: time.Now(),
		}
		if err := st.CreatePayment(ctx, payment); err != nil {
			return fmt.Errorf("failed to create payment: %w", err)
		}

		if s.draw() >= s.cfg.ApproveProbability {
			msg := fmt.Sprintf("payment rejected by simulator (attempt %d)", attemptNo)
			payment.Status = models.PaymentStatusFailed
			payment.LastError = msg
			if err := st.UpdatePayment(ctx, payment); err != nil {
				return fmt.Errorf("failed to update payment: %w", err)
			}
			s.logger.Warn("payment attempt failed",
				zap.Int("attempt", attemptNo),
				zap.String("order_id", orderID),
				zap.String("tx_id", tx))
			declined = &PaymentDeclinedError{Attempt: attemptNo, Reason: msg}
			// Committing keeps the failed attempt in the append-only history.
			return nil
		}

		// Approved: decrement every line conditionally before anything is
		// marked paid. A lost race aborts and rolls back the whole attempt.
		for _, item := range order.Items {
			ok, err := st.DecrementStock(ctx, item.ProductID, item.Quantity)
			if err != nil {
				return fmt.Errorf("failed to decrement stock: %w", err)
			}
			if !ok {
				return &stockRaceError{productID: item.ProductID, quantity: item.Quantity}
			}
		}

		payment.Status = models.PaymentStatusSuccess
		if err := st.UpdatePayment(ctx, payment); err != nil {
			return fmt.Errorf("failed to update payment: %w", err)
		}
		if err := st.UpdateOrderStatus(ctx, orderID, models.OrderStatusPaid); err != nil {
			return fmt.Errorf("failed to mark order paid: %w", err)
		}

		s.audit.Record(ctx, "payment_success", "INFO", "Payment successful",
			map[string]interface{}{"orderId": orderID, "attempts": attemptNo})
		s.logger.Info("payment successful",
			zap.String("order_id", orderID),
			zap.Int("attempt", attemptNo),
			zap.String("tx_id", tx))

		customer, err := st.FindCustomer(ctx, order.CustomerID)
		if err == nil && customer != nil {
			s.notifier.NotifySuccess(customer.Email, orderID, order.TotalAmount.String())
		}
		return nil
	})

	var race *stockRaceError
	if errors.As(err, &race) {
		// The approval rolled back entirely; record the lost race as a
		// numbered failed attempt in a fresh transaction so the history and
		// the retry loop stay consistent.
		return s.recordStockRace(ctx, orderID, race)
	}
	if err != nil {
		return err
	}
	if declined != nil {
		return declined
	}
	return nil
}

func (s *PaymentService) recordStockRace(ctx context.Context, orderID string, race *stockRaceError) error {
	tx := txid.FromContext(ctx)
	var declined *PaymentDeclinedError

	err := s.store.WithTx(ctx, func(st Store) error {
		order, err := st.FindOrder(ctx, orderID)
		if err != nil {
			return fmt.Errorf("failed to look up order: %w", err)
		}
		if order == nil {
			return fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
		}

		count, err := st.CountPayments(ctx, orderID)
		if err != nil {
			return fmt.Errorf("failed to count payments: %w", err)
		}
		attemptNo := count + 1

		msg := fmt.Sprintf("insufficient stock for product %s during settlement (attempt %d)", race.productID, attemptNo)
		payment := &models.Payment{
			ID:        uuid.New().String(),
			OrderID:   orderID,
			TokenID:   order.TokenID,
			Status:    models.PaymentStatusFailed,
			Attempt:   attemptNo,
			LastError: msg,
			TxID:      tx,
			CreatedAt: time.Now(),
		}
		if err := st.CreatePayment(ctx, payment); err != nil {
			return fmt.Errorf("failed to create payment: %w", err)
		}

		s.logger.Warn("settlement lost stock race",
			zap.String("order_id", orderID),
			zap.String("product_id", race.productID),
			zap.Int("attempt", attemptNo),
			zap.String("tx_id", tx))
		declined = &PaymentDeclinedError{Attempt: attemptNo, Reason: msg}
		return nil
	})
	if err != nil {
		return err
	}
	return declined
}

// exhaust runs once after the retry budget is spent, in its own transaction:
// the order goes terminal, a sentinel attempt-0 row records the last decline
// text, and the customer is told that exact reason.
func (s *PaymentService) exhaust(ctx context.Context, orderID string, lastDecline *PaymentDeclinedError) error {
	tx := txid.FromContext(ctx)

	reason := "payment rejected"
	if lastDecline != nil {
		reason = lastDecline.Reason
	}

	var customer *models.Customer
	err := s.store.WithTx(ctx, func(st Store) error {
		order, err := st.FindOrder(ctx, orderID)
		if err != nil {
			return fmt.Errorf("failed to look up order: %w", err)
		}
		if order == nil {
			return fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
		}

		if err := st.UpdateOrderStatus(ctx, orderID, models.OrderStatusPaymentFailed); err != nil {
			return fmt.Errorf("failed to mark order failed: %w", err)
		}

		sentinel := &models.Payment{
			ID:        uuid.New().String(),
			OrderID:   orderID,
			TokenID:   order.TokenID,
			Status:    models.PaymentStatusFailed,
			Attempt:   0,
			LastError: reason,
			TxID:      tx,
			CreatedAt: time.Now(),
		}
		if err := st.CreatePayment(ctx, sentinel); err != nil {
			return fmt.Errorf("failed to create sentinel payment: %w", err)
		}

		customer, err = st.FindCustomer(ctx, order.CustomerID)
		if err != nil {
			return fmt.Errorf("failed to look up customer: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Warn("all payment retries exhausted",
		zap.String("order_id", orderID), zap.String("tx_id", tx))
	s.audit.Record(ctx, "payment_failed", "WARN", "Payment failed after all retries",
		map[string]interface{}{"orderId": orderID, "error": reason})
	s.audit.Record(ctx, "email_sent_payment_failed", "INFO", "Failure notification sent",
		map[string]interface{}{"orderId": orderID})

	if customer != nil {
		s.notifier.NotifyFailure(customer.Email, orderID, reason)
	}
	return nil
}
