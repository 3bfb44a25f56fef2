// Package idhash computes deterministic, content-addressed identifiers:
// a slice name from its (call-ids, dataset bounds, interval) inputs, and
// a run ID from its provenance fields. Same inputs always hash to the
// same hex string.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// SliceID hashes the sorted call-id set together with the dataset bounds
// and interval, so that an identical later request reuses the same slice
// name instead of re-materialising it.
func SliceID(callIDs []string, fromMs, toMs int64, interval string) string {
	sorted := make([]string, len(callIDs))
	copy(sorted, callIDs)
	sort.Strings(sorted)

	parts := []string{
		strings.Join(sorted, ","),
		fmt.Sprintf("%d", fromMs),
		fmt.Sprintf("%d", toMs),
		interval,
	}
	return hashPipe(parts)
}

// RunID hashes the run's config fingerprint (scenario enumeration source)
// together with the dataset's interval label and time bounds, so that a
// resumed run with an unchanged config reproduces the same run directory.
func RunID(configFingerprint, interval string, fromMs, toMs int64) string {
	parts := []string{
		configFingerprint,
		interval,
		fmt.Sprintf("%d", fromMs),
		fmt.Sprintf("%d", toMs),
	}
	return hashPipe(parts)
}

func hashPipe(parts []string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
