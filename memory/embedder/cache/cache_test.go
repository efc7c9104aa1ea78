package cache_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/becomeliminal/acc-agent/memory"
	"github.com/becomeliminal/acc-agent/memory/embedder/cache"
	"github.com/becomeliminal/acc-agent/memory/embedder/mock"
)

func TestCache_Memoizes(t *testing.T) {
	var calls atomic.Int32
	base := mock.New()
	counting := memory.EmbedderFunc(func(ctx context.Context, text string) ([]float32, error) {
		calls.Add(1)
		return base.Embed(ctx, text)
	})

	e, err := cache.New(counting, 100)
	require.NoError(t, err)
	defer e.Close()

	ctx := context.Background()
	first, err := e.Embed(ctx, "The secret code is ALPHA")
	require.NoError(t, err)
	e.Wait()

	second, err := e.Embed(ctx, "The secret code is ALPHA")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCache_ErrorsNotCached(t *testing.T) {
	var calls atomic.Int32
	failing := memory.EmbedderFunc(func(ctx context.Context, text string) ([]float32, error) {
		calls.Add(1)
		return nil, errors.New("down")
	})

	e, err := cache.New(failing, 0)
	require.NoError(t, err)
	defer e.Close()

	_, err = e.Embed(context.Background(), "x")
	assert.Error(t, err)
	e.Wait()
	_, err = e.Embed(context.Background(), "x")
	assert.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCache_Dimensions(t *testing.T) {
	e, err := cache.New(mock.NewWithDimensions(16), 10)
	require.NoError(t, err)
	defer e.Close()
	assert.Equal(t, 16, e.Dimensions())
}
