package gemini_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/becomeliminal/acc-agent/memory/embedder/gemini"
)

func TestNew_MissingKey(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")
	_, err := gemini.New(context.Background(), "", "")
	assert.Error(t, err)
}

func TestNew_DefaultModel(t *testing.T) {
	e, err := gemini.New(context.Background(), "test-key", "")
	if assert.NoError(t, err) {
		assert.Equal(t, 768, e.Dimensions())
	}
}
