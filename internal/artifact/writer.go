// Package artifact implements the run-directory writer (C9): directory
// creation, provisional/final manifest, append-only per-call rows, and
// resume support via the completed-scenario-ID set recorded in the
// manifest.
package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"callbench/internal/domain"
	"callbench/internal/observability"
)

var checksummedFiles = []string{
	"manifest.json",
	"alerts.ndjson",
	"paths.ndjson",
	"trades.ndjson",
	"matrix.json",
	"per_caller.ndjson",
	"errors.ndjson",
}

// Writer owns every output file under one run directory. All mutations
// to the manifest and row files are serialised through mu; the candle
// slice itself is never touched here.
type Writer struct {
	mu  sync.Mutex
	dir string

	manifest domain.Manifest
	rowFiles map[string]*os.File

	completed map[string]struct{}
}

// Open creates (or reopens, for resume) the run directory, writes a
// provisional manifest with status "pending", and returns a Writer ready
// to accept rows. If manifest.json already exists, its completed
// scenario-ID set is loaded for resume.
func Open(baseDir, runID string, dataset domain.DatasetBounds) (*Writer, error) {
	dir := filepath.Join(baseDir, runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create run directory: %w", err)
	}

	w := &Writer{
		dir:       dir,
		rowFiles:  make(map[string]*os.File),
		completed: make(map[string]struct{}),
	}

	manifestPath := filepath.Join(dir, "manifest.json")
	if existing, err := readManifest(manifestPath); err == nil {
		w.manifest = existing
		for _, id := range existing.CompletedScenarioIDs {
			w.completed[id] = struct{}{}
		}
	}

	w.manifest.RunID = runID
	w.manifest.Status = domain.RunStatusPending
	w.manifest.Git = gitInfo()
	w.manifest.Dataset = dataset

	if err := w.writeManifest(); err != nil {
		return nil, err
	}

	for _, name := range []string{"alerts.ndjson", "paths.ndjson", "trades.ndjson", "errors.ndjson"} {
		f, err := os.OpenFile(filepath.Join(dir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		w.rowFiles[name] = f
	}

	return w, nil
}

// IsCompleted reports whether scenarioID is already in the resumed
// completed set (C8 resume: skip already-completed scenarios).
func (w *Writer) IsCompleted(scenarioID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.completed[scenarioID]
	return ok
}

// MarkCompleted records scenarioID as done; the manifest's completed set
// is updated by this single serialised writer (no two workers race here).
func (w *Writer) MarkCompleted(scenarioID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.completed[scenarioID] = struct{}{}
}

func (w *Writer) WriteAlert(rec domain.AlertRecord) error {
	return w.appendRow("alerts.ndjson", rec)
}

func (w *Writer) WritePath(row domain.PathRow) error {
	return w.appendRow("paths.ndjson", row)
}

func (w *Writer) WriteTrade(row domain.TradeRow) error {
	return w.appendRow("trades.ndjson", row)
}

func (w *Writer) WriteError(rec domain.ErrorRecord) error {
	return w.appendRow("errors.ndjson", rec)
}

func (w *Writer) appendRow(file string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s row: %w", file, err)
	}
	data = append(data, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	f, ok := w.rowFiles[file]
	if !ok {
		return fmt.Errorf("%w: no row file open for %s", domain.ErrStorageFault, file)
	}
	if _, err := f.Write(data); err != nil {
		observability.RecordStorageFault(file)
		return fmt.Errorf("%w: append to %s: %v", domain.ErrStorageFault, file, err)
	}
	return nil
}

// WriteAggregates writes the sweep's final matrix.json and
// per_caller.ndjson (C10 outputs).
func (w *Writer) WriteAggregates(matrix []domain.MatrixEntry, perCaller []domain.PerCallerAggregate) error {
	data, err := json.MarshalIndent(matrix, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal matrix: %w", err)
	}
	if err := os.WriteFile(filepath.Join(w.dir, "matrix.json"), data, 0o644); err != nil {
		return fmt.Errorf("%w: write matrix.json: %v", domain.ErrStorageFault, err)
	}

	f, err := os.Create(filepath.Join(w.dir, "per_caller.ndjson"))
	if err != nil {
		return fmt.Errorf("%w: create per_caller.ndjson: %v", domain.ErrStorageFault, err)
	}
	defer f.Close()
	for _, row := range perCaller {
		line, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("marshal per-caller row: %w", err)
		}
		if _, err := f.Write(append(line, '\n')); err != nil {
			return fmt.Errorf("%w: write per_caller.ndjson: %v", domain.ErrStorageFault, err)
		}
	}
	return nil
}

// Finish rewrites the manifest with a terminal status, timings, and the
// completed scenario set, then computes the checksums sidecar. It must be
// called on every path (success, failure, cancel).
func (w *Writer) Finish(status domain.RunStatus, timing domain.Timing, failErr string) error {
	w.mu.Lock()
	ids := make([]string, 0, len(w.completed))
	for id := range w.completed {
		ids = append(ids, id)
	}
	w.manifest.Status = status
	w.manifest.Timing = timing
	w.manifest.CompletedScenarioIDs = ids
	w.manifest.Error = failErr
	w.mu.Unlock()

	if err := w.writeManifest(); err != nil {
		return err
	}

	for _, f := range w.rowFiles {
		_ = f.Close()
	}

	return w.writeChecksums()
}

func (w *Writer) writeManifest() error {
	data, err := json.MarshalIndent(w.manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(w.dir, "manifest.json"), data, 0o644); err != nil {
		return fmt.Errorf("%w: write manifest.json: %v", domain.ErrStorageFault, err)
	}
	return nil
}

func readManifest(path string) (domain.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Manifest{}, err
	}
	var m domain.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return domain.Manifest{}, err
	}
	return m, nil
}

func (w *Writer) writeChecksums() error {
	var lines []string
	for _, name := range checksummedFiles {
		data, err := os.ReadFile(filepath.Join(w.dir, name))
		if err != nil {
			continue // skip outputs this run never produced
		}
		sum := sha256.Sum256(data)
		lines = append(lines, fmt.Sprintf("%s  %s", hex.EncodeToString(sum[:]), name))
	}
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	return os.WriteFile(filepath.Join(w.dir, "checksums.sha256"), []byte(content), 0o644)
}

// Dir returns the run directory path.
func (w *Writer) Dir() string { return w.dir }
