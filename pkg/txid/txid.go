// Package txid threads a per-request transaction id through context so every
// persisted record and audit event can be correlated back to the request that
// produced it.
package txid

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey struct{}

const unknown = "unknown"

func New() string {
	return uuid.New().String()
}

func NewContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the transaction id, or "unknown" when the caller did
// not pass through the gateway (seeders, tests).
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ctxKey{}).(string); ok && id != "" {
		return id
	}
	return unknown
}
