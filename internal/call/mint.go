// Package call validates the token address carried by an incoming call
// before it is admitted to the planner. A Solana mint address is the
// base58 encoding of a 32-byte ed25519 public key, and a real mint is
// always on-curve (it is a keypair account, never a program-derived
// address) — the same on-curve test the teacher pipeline used to tell
// mint accounts apart from PDAs during discovery.
package call

import (
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"

	"callbench/internal/domain"
)

// ValidateMint decodes addr as base58 and rejects anything that is not a
// well-formed, on-curve ed25519 public key. It does not call out to any
// network or RPC: it is a pure, deterministic syntactic check so replay
// runs stay reproducible.
func ValidateMint(addr string) error {
	if addr == "" {
		return fmt.Errorf("%w: empty mint address", domain.ErrBadInput)
	}

	decoded, err := base58.Decode(addr)
	if err != nil {
		return fmt.Errorf("%w: mint %q is not valid base58: %v", domain.ErrBadInput, addr, err)
	}
	if len(decoded) != 32 {
		return fmt.Errorf("%w: mint %q decodes to %d bytes, want 32", domain.ErrBadInput, addr, len(decoded))
	}
	if !isOnCurve(decoded) {
		return fmt.Errorf("%w: mint %q is off-curve, looks like a program-derived address", domain.ErrBadInput, addr)
	}
	return nil
}

// ValidateCalls filters calls to those with a syntactically valid mint,
// reporting the rest as domain.ExcludedCall rows with reason
// ExcludeInvalidMint so the caller can record them alongside the
// planner's own exclusions.
func ValidateCalls(calls []domain.Call) (valid []domain.Call, excluded []domain.ExcludedCall) {
	for _, c := range calls {
		if err := ValidateMint(c.Mint); err != nil {
			excluded = append(excluded, domain.ExcludedCall{CallID: c.ID, Reason: domain.ExcludeInvalidMint})
			continue
		}
		valid = append(valid, c)
	}
	return valid, excluded
}

func isOnCurve(point []byte) bool {
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
