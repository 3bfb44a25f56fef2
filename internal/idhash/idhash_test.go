package idhash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSliceID_DeterministicAndOrderIndependent(t *testing.T) {
	a := SliceID([]string{"c1", "c2", "c3"}, 100, 200, "1m")
	b := SliceID([]string{"c3", "c1", "c2"}, 100, 200, "1m")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestSliceID_DiffersOnBounds(t *testing.T) {
	a := SliceID([]string{"c1"}, 100, 200, "1m")
	b := SliceID([]string{"c1"}, 100, 201, "1m")
	assert.NotEqual(t, a, b)
}

func TestRunID_Deterministic(t *testing.T) {
	a := RunID("cfg-v1", "1m", 0, 1000)
	b := RunID("cfg-v1", "1m", 0, 1000)
	assert.Equal(t, a, b)
}
