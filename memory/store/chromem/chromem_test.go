package chromem_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/becomeliminal/acc-agent/memory"
	"github.com/becomeliminal/acc-agent/memory/embedder/mock"
	"github.com/becomeliminal/acc-agent/memory/store/chromem"
)

func newStore(t *testing.T) *chromem.Store {
	t.Helper()
	s, err := chromem.New(mock.New())
	require.NoError(t, err)
	return s
}

func TestStore_EmptyRecall(t *testing.T) {
	s := newStore(t)
	assert.Empty(t, s.Recall(context.Background(), "anything", 3))
	assert.Equal(t, 0, s.Count())
}

func TestStore_AddAndRecall(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	id, err := s.Add(ctx, "The secret code is ALPHA", memory.FactMetadata())
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	got := s.Recall(ctx, "what is the secret code", 3)
	require.Len(t, got, 1)
	assert.Equal(t, "The secret code is ALPHA", got[0])
}

func TestStore_RecallOrderedAndBounded(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	for _, c := range []string{
		"Bananas grow in tropical climates",
		"The secret code is ALPHA",
		"Rivers flow toward the sea",
		"Mountains are cold at the top",
	} {
		_, err := s.Add(ctx, c, memory.EpisodeMetadata("s1"))
		require.NoError(t, err)
	}

	got := s.Recall(ctx, "secret code", 2)
	require.Len(t, got, 2)
	assert.Equal(t, "The secret code is ALPHA", got[0])
}

func TestStore_KClampedToCount(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.Add(ctx, "only one", nil)
	require.NoError(t, err)

	assert.Len(t, s.Recall(ctx, "one", 10), 1)
	assert.Empty(t, s.Recall(ctx, "one", 0))
}

func TestStore_DuplicatesAllowed(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	id1, err := s.Add(ctx, "same", nil)
	require.NoError(t, err)
	id2, err := s.Add(ctx, "same", nil)
	require.NoError(t, err)

	assert.NotEqual(t, id1, id2)
	assert.Equal(t, 2, s.Count())
	assert.Equal(t, []string{"same", "same"}, s.Recall(ctx, "same", 3))
}

func TestStore_EmbedFailureIsSoft(t *testing.T) {
	ctx := context.Background()
	healthy := mock.New()
	fail := false
	emb := memory.EmbedderFunc(func(ctx context.Context, text string) ([]float32, error) {
		if fail {
			return nil, errors.New("embedding backend down")
		}
		return healthy.Embed(ctx, text)
	})

	s, err := chromem.New(emb)
	require.NoError(t, err)
	_, err = s.Add(ctx, "stored before outage", nil)
	require.NoError(t, err)

	fail = true
	assert.Empty(t, s.Recall(ctx, "stored", 3))

	_, err = s.Add(ctx, "during outage", nil)
	assert.Error(t, err)
}

func TestStore_Persistent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := chromem.OpenPersistent(dir, mock.New())
	require.NoError(t, err)
	_, err = s.Add(ctx, "User's name is Jack", memory.FactMetadata())
	require.NoError(t, err)

	reopened, err := chromem.OpenPersistent(dir, mock.New())
	require.NoError(t, err)
	assert.Equal(t, 1, reopened.Count())
	assert.Equal(t, []string{"User's name is Jack"}, reopened.Recall(ctx, "name", 3))
}

func TestNew_RequiresEmbedder(t *testing.T) {
	_, err := chromem.New(nil)
	assert.Error(t, err)
}
