package mock_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/becomeliminal/acc-agent/memory/embedder/mock"
)

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func TestEmbed_Deterministic(t *testing.T) {
	e := mock.New()
	ctx := context.Background()

	a, err := e.Embed(ctx, "The secret code is ALPHA")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "The secret code is ALPHA")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, mock.DefaultDimensions)
	assert.InDelta(t, 1.0, math.Sqrt(dot(a, a)), 1e-5)
}

func TestEmbed_SharedWordsScoreHigher(t *testing.T) {
	e := mock.NewWithDimensions(256)
	ctx := context.Background()

	query, _ := e.Embed(ctx, "what is the secret code?")
	related, _ := e.Embed(ctx, "The secret code is ALPHA")
	unrelated, _ := e.Embed(ctx, "Bananas grow in tropical climates")

	assert.Greater(t, dot(query, related), dot(query, unrelated))
}

func TestEmbed_NoWords(t *testing.T) {
	e := mock.New()
	v, err := e.Embed(context.Background(), "?!")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, math.Sqrt(dot(v, v)), 1e-5)
}

func TestEmbed_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := mock.New().Embed(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}
