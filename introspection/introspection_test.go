package introspection_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/becomeliminal/acc-agent/core"
	"github.com/becomeliminal/acc-agent/introspection"
	"github.com/becomeliminal/acc-agent/memory"
	"github.com/becomeliminal/acc-agent/memory/embedder/mock"
	"github.com/becomeliminal/acc-agent/memory/store/chromem"
	"github.com/becomeliminal/acc-agent/oracle"
	oraclemock "github.com/becomeliminal/acc-agent/oracle/mock"
	"github.com/becomeliminal/acc-agent/settings"
)

var today = time.Date(2025, 3, 10, 14, 30, 0, 0, time.Local)

type fixture struct {
	oracle  *oraclemock.Oracle
	store   *chromem.Store
	durable *memory.DurableStore
	dir     *settings.Dir
	cycle   *introspection.Cycle
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	dir := settings.NewDir(root, "jack")

	durable, err := memory.NewDurableStore(dir.UserDir(), memory.WithClock(func() time.Time { return today }))
	require.NoError(t, err)
	store, err := chromem.New(mock.New())
	require.NoError(t, err)

	o := oraclemock.New()
	return &fixture{
		oracle:  o,
		store:   store,
		durable: durable,
		dir:     dir,
		cycle:   introspection.New(o, memory.NewManager(store, durable), dir),
	}
}

func (f *fixture) on(step string, v interface{}, err error) {
	f.oracle.OnStructured(step, func(*oracle.Request) (interface{}, error) {
		return v, err
	})
}

func (f *fixture) quiet() {
	f.on(introspection.StepJournal, introspection.JournalEntry{Content: introspection.NoJournalEntry}, nil)
	f.on(introspection.StepFacts, introspection.FactExtraction{}, nil)
	f.on(introspection.StepConfig, introspection.ConfigUpdate{Reason: "nothing changed"}, nil)
}

func ptr(s string) *string { return &s }

func exchange() introspection.Exchange {
	return introspection.Exchange{
		SessionID: "default",
		Input:     "I'm Jack and I like Python",
		Reply:     "Nice to meet you, Jack!",
		CCS:       &core.CCS{SemanticGist: "introductions"},
	}
}

func TestRun_FactsAndEpisode(t *testing.T) {
	f := newFixture(t)
	f.quiet()
	f.on(introspection.StepFacts, introspection.FactExtraction{Facts: []string{"User's name is Jack", "  ", "User likes Python"}}, nil)

	res, err := f.cycle.Run(context.Background(), exchange())
	require.NoError(t, err)

	assert.Equal(t, []string{"User's name is Jack", "User likes Python"}, res.Facts)
	ledger, err := f.durable.ReadLongTerm()
	require.NoError(t, err)
	assert.Contains(t, ledger, "- User's name is Jack\n- User likes Python\n")

	// Two facts plus one episodic trace.
	assert.Equal(t, 3, f.store.Count())
	got := f.store.Recall(context.Background(), "User: I'm Jack and I like Python", 3)
	assert.Contains(t, got, "User: I'm Jack and I like Python\nAssistant: Nice to meet you, Jack!\nGist: introductions")
}

func TestRun_JournalNoneLeavesFileUntouched(t *testing.T) {
	f := newFixture(t)
	f.quiet()
	require.NoError(t, f.durable.WriteDailyLog(today, "## 09:00 - Kickoff\nStarted."))

	res, err := f.cycle.Run(context.Background(), exchange())
	require.NoError(t, err)

	assert.False(t, res.JournalUpdated)
	got, err := f.durable.ReadDailyLog(today)
	require.NoError(t, err)
	assert.Equal(t, "## 09:00 - Kickoff\nStarted.", got)
}

func TestRun_JournalRewritesDay(t *testing.T) {
	f := newFixture(t)
	f.quiet()
	require.NoError(t, f.durable.WriteDailyLog(today, "## 09:00 - Kickoff\nStarted."))

	var prompt string
	f.oracle.OnStructured(introspection.StepJournal, func(req *oracle.Request) (interface{}, error) {
		prompt = req.System
		return introspection.JournalEntry{Content: "## 09:00 - Kickoff\nStarted.\n\n## 14:30 - Met Jack\nJack likes Python."}, nil
	})

	res, err := f.cycle.Run(context.Background(), exchange())
	require.NoError(t, err)

	assert.True(t, res.JournalUpdated)
	assert.Contains(t, prompt, "## 09:00 - Kickoff")
	got, err := f.durable.ReadDailyLog(today)
	require.NoError(t, err)
	assert.Equal(t, res.Journal, got)
	assert.Contains(t, got, "Met Jack")
}

func TestRun_JournalFallback(t *testing.T) {
	f := newFixture(t)
	f.quiet()
	f.on(introspection.StepJournal, nil, errors.New("model overloaded"))

	res, err := f.cycle.Run(context.Background(), exchange())
	require.NoError(t, err)
	assert.False(t, res.JournalUpdated)

	got, err := f.durable.ReadDailyLog(today)
	require.NoError(t, err)
	assert.Equal(t,
		"\n[journal generation failed: model overloaded]"+
			"\n## [14:30:00]\n**User**: I'm Jack and I like Python\n\n**Agent**: Nice to meet you, Jack!\n",
		got)
}

func TestRun_ConfigRewriteGates(t *testing.T) {
	f := newFixture(t)
	f.quiet()
	require.NoError(t, f.dir.Write(settings.UserFile, "Name: unknown"))
	require.NoError(t, f.dir.Write(settings.AgentsFile, "Be polite."))

	f.on(introspection.StepConfig, introspection.ConfigUpdate{
		NewUserMD:     ptr("Name: Jack\nLikes: Python"),
		NewAgentsMD:   ptr("  Be polite.\n"), // identical after trim
		NewIdentityMD: ptr("short"),          // too short
		Reason:        "user introduced themselves",
	}, nil)

	res, err := f.cycle.Run(context.Background(), exchange())
	require.NoError(t, err)

	assert.Equal(t, []string{settings.UserFile}, res.UpdatedDocuments)
	docs, err := f.dir.Load()
	require.NoError(t, err)
	assert.Equal(t, "Name: Jack\nLikes: Python", docs.User)
	assert.Equal(t, "Be polite.", docs.Agents)
	assert.Empty(t, docs.Identity)
}

func TestRun_ConfigNullsAndEmptyAreNoChange(t *testing.T) {
	f := newFixture(t)
	f.quiet()
	f.on(introspection.StepConfig, introspection.ConfigUpdate{NewUserMD: ptr(""), Reason: "none"}, nil)

	res, err := f.cycle.Run(context.Background(), exchange())
	require.NoError(t, err)
	assert.Empty(t, res.UpdatedDocuments)
	assert.NoFileExists(t, filepath.Join(f.dir.UserDir(), settings.UserFile))
}

func TestRun_AllOracleStepsFailing(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("down")
	f.on(introspection.StepJournal, nil, boom)
	f.on(introspection.StepFacts, nil, boom)
	f.on(introspection.StepConfig, nil, boom)

	res, err := f.cycle.Run(context.Background(), exchange())
	require.NoError(t, err)
	assert.Empty(t, res.Facts)
	assert.Empty(t, res.UpdatedDocuments)
	// The episode is still recorded.
	assert.Equal(t, 1, f.store.Count())
}

func TestRun_StoreErrorReturnedAfterAllSideEffects(t *testing.T) {
	f := newFixture(t)
	f.quiet()
	f.on(introspection.StepFacts, introspection.FactExtraction{Facts: []string{"fact"}}, nil)
	f.on(introspection.StepConfig, introspection.ConfigUpdate{NewUserMD: ptr("Name: Jack, developer")}, nil)

	failing := memory.EmbedderFunc(func(context.Context, string) ([]float32, error) {
		return nil, errors.New("embedding backend down")
	})
	store, err := chromem.New(failing)
	require.NoError(t, err)
	cycle := introspection.New(f.oracle, memory.NewManager(store, f.durable), f.dir)

	res, err := cycle.Run(context.Background(), exchange())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding backend down")

	// Ledger and config writes were still attempted.
	ledger, _ := f.durable.ReadLongTerm()
	assert.Contains(t, ledger, "- fact\n")
	assert.Equal(t, []string{settings.UserFile}, res.UpdatedDocuments)
}

func TestRun_ContextEndReportedAfterSideEffects(t *testing.T) {
	f := newFixture(t)
	f.quiet()
	f.on(introspection.StepFacts, introspection.FactExtraction{Facts: []string{"User likes Python"}}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.cycle.Run(ctx, exchange())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	ledger, _ := f.durable.ReadLongTerm()
	assert.Contains(t, ledger, "- User likes Python\n", "local writes are still attempted")
}
