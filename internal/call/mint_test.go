package call

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"callbench/internal/domain"
)

const wsolMint = "So11111111111111111111111111111111111111112"

func TestValidateMint_AcceptsKnownOnCurveMint(t *testing.T) {
	require.NoError(t, ValidateMint(wsolMint))
}

func TestValidateMint_RejectsEmpty(t *testing.T) {
	err := ValidateMint("")
	assert.ErrorIs(t, err, domain.ErrBadInput)
}

func TestValidateMint_RejectsNonBase58(t *testing.T) {
	err := ValidateMint("not-base58-!!!")
	assert.ErrorIs(t, err, domain.ErrBadInput)
}

func TestValidateMint_RejectsWrongLength(t *testing.T) {
	err := ValidateMint("abc") // decodes to far fewer than 32 bytes
	assert.ErrorIs(t, err, domain.ErrBadInput)
}

func TestValidateCalls_PartitionsByMintValidity(t *testing.T) {
	calls := []domain.Call{
		{ID: "ok", Mint: wsolMint},
		{ID: "bad", Mint: "!!!not-valid"},
	}
	valid, excluded := ValidateCalls(calls)
	require.Len(t, valid, 1)
	require.Len(t, excluded, 1)
	assert.Equal(t, "ok", valid[0].ID)
	assert.Equal(t, "bad", excluded[0].CallID)
	assert.Equal(t, domain.ExcludeInvalidMint, excluded[0].Reason)
}
