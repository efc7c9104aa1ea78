package settings_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/becomeliminal/acc-agent/settings"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDir_Paths(t *testing.T) {
	d := settings.NewDir("/cfg", "jack")

	p, err := d.Path(settings.UserFile)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/cfg", "jack", "USER.md"), p)

	p, err = d.Path(settings.AgentsFile)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/cfg", "common", "AGENTS.md"), p)

	_, err = d.Path("MEMORY.md")
	assert.ErrorIs(t, err, settings.ErrUnknownDocument)

	assert.Equal(t, "default", settings.NewDir("/cfg", "").User())
}

func TestDir_LoadSplitsUserAndCommon(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "jack", "SOUL.md"), "calm")
	writeFile(t, filepath.Join(root, "jack", "USER.md"), "Jack likes Go")
	writeFile(t, filepath.Join(root, "common", "AGENTS.md"), "be brief")
	// A per-user AGENTS.md is not read.
	writeFile(t, filepath.Join(root, "jack", "AGENTS.md"), "ignored")

	docs, err := settings.NewDir(root, "jack").Load()
	require.NoError(t, err)

	assert.Equal(t, settings.Documents{Soul: "calm", User: "Jack likes Go", Agents: "be brief"}, docs)
}

func TestDir_WriteCreatesDirectories(t *testing.T) {
	root := t.TempDir()
	d := settings.NewDir(root, "jack")

	require.NoError(t, d.Write(settings.AgentsFile, "rule one"))
	require.NoError(t, d.Write(settings.IdentityFile, "名前はアシスタント"))

	b, err := os.ReadFile(filepath.Join(root, "common", "AGENTS.md"))
	require.NoError(t, err)
	assert.Equal(t, "rule one", string(b))

	docs, err := d.Load()
	require.NoError(t, err)
	assert.Equal(t, "名前はアシスタント", docs.Identity)

	assert.ErrorIs(t, d.Write("NOPE.md", "x"), settings.ErrUnknownDocument)
}

func TestCell_SwapAndReload(t *testing.T) {
	root := t.TempDir()
	d := settings.NewDir(root, "jack")
	require.NoError(t, d.Write(settings.UserFile, "v1"))

	cell, err := settings.NewCell(d)
	require.NoError(t, err)
	assert.Equal(t, "v1", cell.Load().User)

	before := cell.Load()
	require.NoError(t, cell.Swap(settings.UserFile, "swapped"))
	assert.Equal(t, "swapped", cell.Load().User)
	assert.Equal(t, "v1", before.User, "snapshots are values")

	require.NoError(t, d.Write(settings.UserFile, "v2"))
	require.NoError(t, cell.Reload())
	assert.Equal(t, "v2", cell.Load().User)

	assert.ErrorIs(t, cell.Swap("bad", "x"), settings.ErrUnknownDocument)
}

func TestStaticCell(t *testing.T) {
	cell := settings.NewStaticCell(settings.Documents{Agents: "rules"})
	require.NoError(t, cell.Reload())
	assert.Equal(t, "rules", cell.Load().Agents)
	assert.Nil(t, cell.Dir())

	_, err := settings.WatchCell(cell)
	assert.Error(t, err)
}

func TestCell_ConcurrentAccess(t *testing.T) {
	cell := settings.NewStaticCell(settings.Documents{})
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = cell.Swap(settings.SoulFile, "x")
		}()
		go func() {
			defer wg.Done()
			_ = cell.Load()
		}()
	}
	wg.Wait()
	assert.Equal(t, "x", cell.Load().Soul)
}

func TestWatchCell_ReloadsOnChange(t *testing.T) {
	root := t.TempDir()
	d := settings.NewDir(root, "jack")
	cell, err := settings.NewCell(d)
	require.NoError(t, err)

	w, err := settings.WatchCell(cell, settings.WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	w.Start(t.Context())
	defer w.Close()

	writeFile(t, filepath.Join(root, "common", "AGENTS.md"), "edited on disk")

	assert.Eventually(t, func() bool {
		return cell.Load().Agents == "edited on disk"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	root := t.TempDir()
	d := settings.NewDir(root, "jack")

	changed := make(chan string, 4)
	w, err := settings.NewWatcher(d, func(name string) { changed <- name }, settings.WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	w.Start(t.Context())

	writeFile(t, filepath.Join(root, "jack", "MEMORY.md"), "ledger")
	writeFile(t, filepath.Join(root, "jack", "USER.md"), "profile")

	select {
	case name := <-changed:
		assert.Equal(t, settings.UserFile, name)
	case <-time.After(2 * time.Second):
		t.Fatal("no change reported")
	}

	require.NoError(t, w.Close())
	<-w.Done()
}
