package service

import (
	"context"
	"encoding/base64"
	"math/rand"
	"sync"
	"time"

	"github.com/example/pharmacart/pkg/crypto"
	"github.com/example/pharmacart/pkg/models"
	"github.com/example/pharmacart/pkg/txid"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CreateTokenInput struct {
	CardNumber  string
	CVV         string
	ExpiryMonth int
	ExpiryYear  int
	HolderName  string
}

// TokenService turns validated card input into a stored opaque token plus a
// masked PAN. The CVV is accepted but never stored or logged.
type TokenService struct {
	store             Store
	audit             Audit
	cipher            *crypto.Cipher
	rejectProbability float64
	logger            *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

func NewTokenService(store Store, audit Audit, cipher *crypto.Cipher,
	rejectProbability float64, rng *rand.Rand, logger *zap.Logger) *TokenService {
	return &TokenService{
		store:             store,
		audit:             audit,
		cipher:            cipher,
		rejectProbability: rejectProbability,
		logger:            logger,
		rng:               rng,
	}
}

func (s *TokenService) draw() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// CreateToken applies the probabilistic rejection gate before any side
// effect: a rejected request encrypts nothing and persists nothing.
func (s *TokenService) CreateToken(ctx context.Context, in CreateTokenInput) (*models.CardToken, error) {
	tx := txid.FromContext(ctx)

	v := s.draw()
	if v < s.rejectProbability {
		s.logger.Info("tokenization rejected by probability",
			zap.Float64("draw", v),
			zap.Float64("threshold", s.rejectProbability),
			zap.String("tx_id", tx))
		s.audit.Record(ctx, "token_rejected", "WARN",
			"Tokenization rejected by configured probability",
			map[string]interface{}{"reason": "probability", "randomValue": v, "threshold": s.rejectProbability})
		return nil, ErrTokenRejected
	}

	encrypted, err := s.cipher.Encrypt(in.CardNumber)
	if err != nil {
		s.logger.Error("encryption error during tokenization", zap.Error(err), zap.String("tx_id", tx))
		return nil, ErrEncryption
	}

	token := &models.CardToken{
		ID:         uuid.New().String(),
		Ciphertext: base64.StdEncoding.EncodeToString(encrypted.Ciphertext),
		IV:         base64.StdEncoding.EncodeToString(encrypted.IV),
		AuthTag:    base64.StdEncoding.EncodeToString(encrypted.AuthTag),
		MaskedPan:  maskPan(in.CardNumber),
		TxID:       tx,
		CreatedAt:  time.Now(),
	}

	if err := s.store.CreateToken(ctx, token); err != nil {
		s.logger.Error("failed to save token", zap.Error(err), zap.String("tx_id", tx))
		return nil, ErrEncryption
	}

	s.audit.Record(ctx, "token_created", "INFO", "Token created successfully",
		map[string]interface{}{"token": token.ID, "maskedPan": token.MaskedPan})
	s.logger.Info("token created", zap.String("token", token.ID), zap.String("tx_id", tx))

	return token, nil
}

func maskPan(pan string) string {
	if len(pan) <= 4 {
		return pan
	}
	return "**** **** **** " + pan[len(pan)-4:]
}
