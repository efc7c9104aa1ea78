package memory_test

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

type recordedAdd struct {
	content  string
	metadata map[string]string
}

// fakeStore records writes and optionally fails them.
type fakeStore struct {
	adds    []recordedAdd
	failAdd error
	recall  []string
	lastK   int
}

func (f *fakeStore) Add(ctx context.Context, content string, metadata map[string]string) (string, error) {
	if f.failAdd != nil {
		return "", f.failAdd
	}
	f.adds = append(f.adds, recordedAdd{content, metadata})
	return "id", nil
}

func (f *fakeStore) Recall(ctx context.Context, query string, k int) []string {
	f.lastK = k
	return f.recall
}

func (f *fakeStore) Count() int { return len(f.adds) }

func newDurable(t *testing.T) *memory.DurableStore {
	t.Helper()
	d, err := memory.NewDurableStore(t.TempDir())
	require.NoError(t, err)
	return d
}

func TestManager_RecordFacts(t *testing.T) {
	store := &fakeStore{}
	m := memory.NewManager(store, newDurable(t))

	require.NoError(t, m.RecordFacts(context.Background(), []string{"User's name is Jack", "User likes Python"}))

	require.Len(t, store.adds, 2)
	for _, a := range store.adds {
		assert.Equal(t, memory.TypeSemantic, a.metadata[memory.MetaType])
		assert.Equal(t, memory.SourceMemoryFlush, a.metadata[memory.MetaSource])
		assert.NotEmpty(t, a.metadata[memory.MetaCreatedAt])
	}

	ledger, err := m.ReadLongTerm()
	require.NoError(t, err)
	assert.Contains(t, ledger, "- User's name is Jack\n- User likes Python\n")
}

func TestManager_RecordFactsEmpty(t *testing.T) {
	store := &fakeStore{}
	m := memory.NewManager(store, newDurable(t))

	require.NoError(t, m.RecordFacts(context.Background(), nil))
	assert.Empty(t, store.adds)
}

func TestManager_RecordFactsLedgerWrittenDespiteStoreFailure(t *testing.T) {
	boom := errors.New("disk full")
	m := memory.NewManager(&fakeStore{failAdd: boom}, newDurable(t))

	err := m.RecordFacts(context.Background(), []string{"fact"})
	assert.ErrorIs(t, err, boom)

	ledger, rerr := m.ReadLongTerm()
	require.NoError(t, rerr)
	assert.Contains(t, ledger, "- fact\n")
}

func TestManager_RecordEpisode(t *testing.T) {
	store := &fakeStore{}
	m := memory.NewManager(store, newDurable(t))

	require.NoError(t, m.RecordEpisode(context.Background(), "s1", "hi", "hello", "greeting"))

	require.Len(t, store.adds, 1)
	assert.Equal(t, "User: hi\nAssistant: hello\nGist: greeting", store.adds[0].content)
	assert.Equal(t, memory.TypeEpisodic, store.adds[0].metadata[memory.MetaType])
	assert.Equal(t, "s1", store.adds[0].metadata[memory.MetaSessionID])
}

func TestManager_RecallDefaultLimit(t *testing.T) {
	store := &fakeStore{recall: []string{"a"}}
	m := memory.NewManager(store, newDurable(t))

	assert.Equal(t, []string{"a"}, m.Recall(context.Background(), "q", 0))
	assert.Equal(t, memory.DefaultConfig.RecallLimit, store.lastK)

	m = memory.NewManager(store, newDurable(t), memory.WithConfig(&memory.Config{RecallLimit: 7, JournalDays: 1}))
	m.Recall(context.Background(), "q", 0)
	assert.Equal(t, 7, store.lastK)
}

func TestManager_WithChromem(t *testing.T) {
	ctx := context.Background()
	store, err := chromem.New(mock.New())
	require.NoError(t, err)
	m := memory.NewManager(store, newDurable(t))

	require.NoError(t, m.RecordFacts(ctx, []string{"The secret code is ALPHA"}))
	require.NoError(t, m.RecordEpisode(ctx, "default", "what is the weather", "sunny", "weather talk"))

	got := m.Recall(ctx, "secret code", 1)
	assert.Equal(t, []string{"The secret code is ALPHA"}, got)
	assert.Equal(t, 2, store.Count())
}

func TestNewArtifact(t *testing.T) {
	meta := map[string]string{"k": "v"}
	a := memory.NewArtifact("", "content", meta)

	assert.Len(t, a.ID, 36)
	assert.Equal(t, "v", a.Metadata["k"])
	assert.NotEmpty(t, a.Metadata[memory.MetaCreatedAt])
	_, leaked := meta[memory.MetaCreatedAt]
	assert.False(t, leaked)

	b := memory.NewArtifact("fixed", "content", nil)
	assert.Equal(t, "fixed", b.ID)
}
