package scrape

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNopLimiter(t *testing.T) {
	t.Parallel()
	assert.NoError(t, NopLimiter{}.Wait(context.Background(), "any"))
}

func TestHostLimiter_BurstThenWait(t *testing.T) {
	t.Parallel()

	l := NewHostLimiter(1, 2)
	ctx := context.Background()
	require.NoError(t, l.Wait(ctx, "a.com"))
	require.NoError(t, l.Wait(ctx, "a.com"))

	// Bucket for a.com is empty; a.com must wait but b.com has its own bucket.
	require.NoError(t, l.Wait(ctx, "b.com"))

	short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Wait(short, "a.com"))
}

func TestHostLimiter_Unlimited(t *testing.T) {
	t.Parallel()

	l := NewHostLimiter(0, 0)
	for range 100 {
		require.NoError(t, l.Wait(context.Background(), "a.com"))
	}
}
