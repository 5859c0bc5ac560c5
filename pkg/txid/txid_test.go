package txid

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromContext_Fallback(t *testing.T) {
	assert.Equal(t, "unknown", FromContext(context.Background()))
}

func TestRoundTrip(t *testing.T) {
	id := New()
	assert.NotEmpty(t, id)

	ctx := NewContext(context.Background(), id)
	assert.Equal(t, id, FromContext(ctx))
}

func TestNew_Unique(t *testing.T) {
	assert.NotEqual(t, New(), New())
}
