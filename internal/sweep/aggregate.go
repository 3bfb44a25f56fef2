package sweep

import (
	"sort"
	"strconv"

	"callbench/internal/domain"
)

type matrixKey struct {
	lagMs        int64
	interval     string
	overlaySetID string
}

// Aggregate groups trade rows by (lagMs, interval, overlaySetId,
// overlayIndex) into median/win-rate/min/avg/max statistics, and records
// the overlay with the highest median net return per matrix row. Per-
// caller aggregates are grouped by (callerName, scenarioId).
func Aggregate(trades []domain.TradeRow) ([]domain.MatrixEntry, []domain.PerCallerAggregate) {
	type bucket struct {
		key     matrixKey
		overlay int
		returns []float64
	}
	buckets := make(map[string]*bucket)

	type callerBucket struct {
		caller, scenario string
		returns          []float64
	}
	callerBuckets := make(map[string]*callerBucket)

	for _, t := range trades {
		if !t.OK || t.NetReturnPct == nil {
			continue
		}

		mk := matrixKey{lagMs: t.LagMs, interval: t.Interval, overlaySetID: t.OverlaySetID}
		bKey := bucketKey(mk, t.OverlayIndex)
		b, ok := buckets[bKey]
		if !ok {
			b = &bucket{key: mk, overlay: t.OverlayIndex}
			buckets[bKey] = b
		}
		b.returns = append(b.returns, *t.NetReturnPct)

		if t.CallerName != "" {
			cKey := t.CallerName + "|" + t.ScenarioID
			cb, ok := callerBuckets[cKey]
			if !ok {
				cb = &callerBucket{caller: t.CallerName, scenario: t.ScenarioID}
				callerBuckets[cKey] = cb
			}
			cb.returns = append(cb.returns, *t.NetReturnPct)
		}
	}

	matrixByKey := make(map[matrixKey]*domain.MatrixEntry)
	for _, b := range buckets {
		entry, ok := matrixByKey[b.key]
		if !ok {
			entry = &domain.MatrixEntry{
				LagMs: b.key.lagMs, Interval: b.key.interval, OverlaySetID: b.key.overlaySetID,
				ByOverlay: make(map[int]domain.MatrixStats),
			}
			matrixByKey[b.key] = entry
		}
		entry.ByOverlay[b.overlay] = stats(b.returns)
	}

	var matrix []domain.MatrixEntry
	for _, entry := range matrixByKey {
		entry.BestOverlay = bestOverlay(entry.ByOverlay)
		matrix = append(matrix, *entry)
	}
	sort.Slice(matrix, func(i, j int) bool {
		if matrix[i].Interval != matrix[j].Interval {
			return matrix[i].Interval < matrix[j].Interval
		}
		if matrix[i].LagMs != matrix[j].LagMs {
			return matrix[i].LagMs < matrix[j].LagMs
		}
		return matrix[i].OverlaySetID < matrix[j].OverlaySetID
	})

	var perCaller []domain.PerCallerAggregate
	for _, cb := range callerBuckets {
		perCaller = append(perCaller, domain.PerCallerAggregate{
			CallerName: cb.caller, ScenarioID: cb.scenario, Stats: stats(cb.returns),
		})
	}
	sort.Slice(perCaller, func(i, j int) bool {
		if perCaller[i].CallerName != perCaller[j].CallerName {
			return perCaller[i].CallerName < perCaller[j].CallerName
		}
		return perCaller[i].ScenarioID < perCaller[j].ScenarioID
	})

	return matrix, perCaller
}

func bucketKey(mk matrixKey, overlay int) string {
	return mk.interval + "|" + mk.overlaySetID + "|" + strconv.FormatInt(mk.lagMs, 10) + "|" + strconv.Itoa(overlay)
}

func bestOverlay(byOverlay map[int]domain.MatrixStats) int {
	best := 0
	haveBest := false
	var bestMedian float64
	overlays := make([]int, 0, len(byOverlay))
	for k := range byOverlay {
		overlays = append(overlays, k)
	}
	sort.Ints(overlays)
	for _, k := range overlays {
		median := byOverlay[k].MedianNetReturn
		if !haveBest || median > bestMedian {
			best = k
			bestMedian = median
			haveBest = true
		}
	}
	return best
}

func stats(returns []float64) domain.MatrixStats {
	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	wins := 0
	sum := 0.0
	for _, r := range sorted {
		if r > 0 {
			wins++
		}
		sum += r
	}

	return domain.MatrixStats{
		Count:           len(sorted),
		MedianNetReturn: median(sorted),
		WinRate:         float64(wins) / float64(len(sorted)),
		MinNetReturn:    sorted[0],
		AvgNetReturn:    sum / float64(len(sorted)),
		MaxNetReturn:    sorted[len(sorted)-1],
	}
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
