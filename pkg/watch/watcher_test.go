package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/borderux/recursica-forge-sub006/pkg/document"
	"github.com/borderux/recursica-forge-sub006/pkg/host"
	"github.com/borderux/recursica-forge-sub006/pkg/util"
)

func writeDocs(t *testing.T, dir, gap string) document.Paths {
	t.Helper()
	paths := document.Paths{
		Tokens: filepath.Join(dir, "tokens.json"),
		Theme:  filepath.Join(dir, "brand.json"),
		Spec:   filepath.Join(dir, "ui-kit.json"),
	}
	require.NoError(t, os.WriteFile(paths.Tokens, []byte(`{}`), 0o644))
	require.NoError(t, os.WriteFile(paths.Theme, []byte(`{}`), 0o644))
	writeSpec(t, paths, gap)
	return paths
}

func writeSpec(t *testing.T, paths document.Paths, gap string) {
	t.Helper()
	data := []byte(`{"ui-kit": {"global": {"gap": {"type": "dimension", "value": {"value": ` + gap + `, "unit": "px"}}}}}`)
	require.NoError(t, os.WriteFile(paths.Spec, data, 0o644))
}

func newTestWatcher(t *testing.T, paths document.Paths, opts Options) (*DocumentWatcher, *host.Host) {
	t.Helper()
	cache := util.NewFileCache(nil)
	t.Cleanup(func() { _ = cache.Close() })

	h := host.New(host.DefaultConfig(), nil)
	w, err := New(paths, cache, h, opts, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })
	return w, h
}

func TestNew_Validation(t *testing.T) {
	cache := util.NewFileCache(nil)
	defer cache.Close()
	h := host.New(host.DefaultConfig(), nil)

	_, err := New(document.Paths{}, cache, h, DefaultOptions(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "spec document path is required")

	paths := writeDocs(t, t.TempDir(), "4")
	_, err = New(paths, cache, h, Options{IgnorePatterns: []string{"[bad"}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid ignore pattern")
}

func TestStart_InitialLoad(t *testing.T) {
	paths := writeDocs(t, t.TempDir(), "4")
	w, h := newTestWatcher(t, paths, Options{DebounceMs: 10})

	require.NoError(t, w.Start())
	assert.Equal(t, "4px", h.Current().Bindings["recursica-global-gap"])
	assert.True(t, w.GetStats().IsRunning)
	assert.Equal(t, int64(1), w.GetStats().Reloads)

	assert.Error(t, w.Start())
}

func TestStart_MissingDocument(t *testing.T) {
	dir := t.TempDir()
	paths := writeDocs(t, dir, "4")
	require.NoError(t, os.Remove(paths.Theme))

	w, _ := newTestWatcher(t, paths, DefaultOptions())
	err := w.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load documents")
	assert.Equal(t, int64(1), w.GetStats().Failures)
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	paths := writeDocs(t, t.TempDir(), "4")
	w, h := newTestWatcher(t, paths, Options{DebounceMs: 20})
	require.NoError(t, w.Start())

	updates := make(chan host.Update, 8)
	h.Subscribe(func(u host.Update) { updates <- u })

	writeSpec(t, paths, "8")

	select {
	case u := <-updates:
		assert.Equal(t, []string{"recursica-global-gap"}, u.Diff.Changed)
		assert.Equal(t, "8px", u.Result.Bindings["recursica-global-gap"])
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	paths := writeDocs(t, dir, "4")
	w, _ := newTestWatcher(t, paths, Options{DebounceMs: 10})
	require.NoError(t, w.Start())

	w.handleEvent(fsnotify.Event{Name: filepath.Join(dir, "notes.txt"), Op: fsnotify.Write})
	assert.False(t, w.GetStats().PendingReload)

	w.handleEvent(fsnotify.Event{Name: paths.Spec, Op: fsnotify.Chmod})
	assert.False(t, w.GetStats().PendingReload)
}

func TestWatcher_IgnorePatterns(t *testing.T) {
	paths := writeDocs(t, t.TempDir(), "4")
	w, _ := newTestWatcher(t, paths, Options{DebounceMs: 1000, IgnorePatterns: []string{"**/ui-kit.json"}})

	assert.True(t, w.shouldIgnore(paths.Spec))
	assert.False(t, w.shouldIgnore(paths.Tokens))

	w.handleEvent(fsnotify.Event{Name: paths.Spec, Op: fsnotify.Write})
	assert.False(t, w.GetStats().PendingReload)

	w.handleEvent(fsnotify.Event{Name: paths.Tokens, Op: fsnotify.Write})
	assert.True(t, w.GetStats().PendingReload)
}

func TestWatcher_FailedReloadKeepsBindings(t *testing.T) {
	paths := writeDocs(t, t.TempDir(), "4")
	w, h := newTestWatcher(t, paths, Options{DebounceMs: 10})
	require.NoError(t, w.Start())

	require.NoError(t, os.WriteFile(paths.Spec, []byte(`{not json`), 0o644))
	w.cache.Invalidate(paths.Spec)
	_, err := w.Reload()
	require.Error(t, err)

	assert.Equal(t, "4px", h.Current().Bindings["recursica-global-gap"])
}

func TestStop_Idempotent(t *testing.T) {
	paths := writeDocs(t, t.TempDir(), "4")
	w, _ := newTestWatcher(t, paths, Options{DebounceMs: 10})
	require.NoError(t, w.Start())

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
	assert.False(t, w.GetStats().IsRunning)
	assert.Error(t, w.Start())
}
