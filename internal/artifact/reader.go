package artifact

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"

	"callbench/internal/domain"
)

// ReadTradeRows reads back every record from a run directory's
// trades.ndjson, deduplicated by (scenarioId, callId, overlayIndex) with
// the last occurrence winning. A scenario interrupted mid-write before it
// was marked completed re-runs in full on resume, so its rows appear
// twice; dedup here makes aggregation exact without requiring the
// run-loop to truncate prior partial output before re-running.
func ReadTradeRows(dir string) ([]domain.TradeRow, error) {
	type key struct {
		scenarioID string
		callID     string
		overlay    int
	}
	order := make([]key, 0)
	byKey := make(map[key]domain.TradeRow)

	err := readNDJSON(filepath.Join(dir, "trades.ndjson"), func(line []byte) error {
		var row domain.TradeRow
		if err := json.Unmarshal(line, &row); err != nil {
			return err
		}
		k := key{scenarioID: row.ScenarioID, callID: row.CallID, overlay: row.OverlayIndex}
		if _, seen := byKey[k]; !seen {
			order = append(order, k)
		}
		byKey[k] = row
		return nil
	})
	if err != nil {
		return nil, err
	}

	rows := make([]domain.TradeRow, 0, len(order))
	for _, k := range order {
		rows = append(rows, byKey[k])
	}
	return rows, nil
}

// ReadPathRows reads back every record from a run directory's
// paths.ndjson.
func ReadPathRows(dir string) ([]domain.PathRow, error) {
	var rows []domain.PathRow
	err := readNDJSON(filepath.Join(dir, "paths.ndjson"), func(line []byte) error {
		var row domain.PathRow
		if err := json.Unmarshal(line, &row); err != nil {
			return err
		}
		rows = append(rows, row)
		return nil
	})
	return rows, err
}

func readNDJSON(path string, handle func(line []byte) error) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := handle(line); err != nil {
			return err
		}
	}
	return scanner.Err()
}
