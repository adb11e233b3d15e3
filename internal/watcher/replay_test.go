package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/firewatch/internal/model"
)

func TestScanAll_MissingFileYieldsEmptyList(t *testing.T) {
	w := newTestWatcher(t, &captureBroadcaster{}, filepath.Join(t.TempDir(), "nope.log"))

	entries, err := w.ScanAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NotNil(t, entries)
}

func TestScanAll_NoAlertingLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	content := alertLine("FW-A", "Normal traffic") + "\n" + alertLine("FW-B", "Normal traffic") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	w := newTestWatcher(t, &captureBroadcaster{}, path)

	entries, err := w.ScanAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestScanAll_IndexesAreLinePositions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	lines := []string{
		alertLine("FW-A", "Normal traffic"),
		alertLine("FW-B", "SQL injection attempt"),
		"",
		alertLine("FW-C", "Port scan detected"),
	}
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644))

	w := newTestWatcher(t, &captureBroadcaster{}, path)

	entries, err := w.ScanAll(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, uint64(2), entries[0].Index)
	assert.Equal(t, model.BugSQLInjection, entries[0].BugType)
	assert.Equal(t, "FW-B", entries[0].FirewallID)

	assert.Equal(t, uint64(4), entries[1].Index)
	assert.Equal(t, model.BugPortScan, entries[1].BugType)
	assert.Nil(t, entries[1].Explanation)
}

func TestScanAll_IndependentOfLiveDedup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	line := alertLine("FW-A", "DDoS attack")
	require.NoError(t, os.WriteFile(path, []byte(line+"\n"), 0644))

	w := newTestWatcher(t, &captureBroadcaster{}, path)

	// Seeing the line live must not hide it from replay.
	w.process(line)

	entries, err := w.ScanAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestScanAll_Cancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, []byte(alertLine("FW-A", "DDoS attack")+"\n"), 0644))

	w := newTestWatcher(t, &captureBroadcaster{}, path)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := w.ScanAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
