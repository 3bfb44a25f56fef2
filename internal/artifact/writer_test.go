package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"callbench/internal/domain"
)

func TestWriter_WritesRowsAndFinalManifest(t *testing.T) {
	base := t.TempDir()

	w, err := Open(base, "run-1", domain.DatasetBounds{Interval: "1m", CallsCount: 1})
	require.NoError(t, err)

	require.NoError(t, w.WriteAlert(domain.AlertRecord{CallID: "c1", Mint: "MINT"}))
	require.NoError(t, w.WriteTrade(domain.TradeRow{RunID: "run-1", CallID: "c1", ScenarioID: "s1"}))
	w.MarkCompleted("s1")

	require.NoError(t, w.Finish(domain.RunStatusOK, domain.Timing{TotalMs: 10}, ""))

	data, err := os.ReadFile(filepath.Join(w.Dir(), "manifest.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"status": "ok"`)
	assert.Contains(t, string(data), "s1")

	_, err = os.Stat(filepath.Join(w.Dir(), "checksums.sha256"))
	require.NoError(t, err)
}

func TestWriter_ResumeLoadsCompletedSet(t *testing.T) {
	base := t.TempDir()

	w1, err := Open(base, "run-resume", domain.DatasetBounds{})
	require.NoError(t, err)
	w1.MarkCompleted("s1")
	require.NoError(t, w1.Finish(domain.RunStatusFailed, domain.Timing{}, "cancelled"))

	w2, err := Open(base, "run-resume", domain.DatasetBounds{})
	require.NoError(t, err)
	assert.True(t, w2.IsCompleted("s1"))
	assert.False(t, w2.IsCompleted("s2"))
}
