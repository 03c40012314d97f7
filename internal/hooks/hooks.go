// Package hooks defines the pluggable per-auction bid-decoration and
// pre-flight-validation capability (SPEC_FULL.md §4.7).
package hooks

import "cca-agent/pkg/types"

// ValidationHook is a polymorphic capability attached to bid submission.
// Implementations must be safe to share across goroutines — the
// AuctionClient holds one shared instance for its entire lifetime.
type ValidationHook interface {
	// PrepareHookData computes the auction-specific payload (e.g. an
	// allowlist proof) to embed in the submit call.
	PrepareHookData(params types.SubmitBidParams, state types.AuctionState) ([]byte, error)

	// Validate runs a pre-flight off-chain check, rejecting with a
	// *types.HookError before any transaction is sent.
	Validate(params types.SubmitBidParams, state types.AuctionState) error
}

// NoOp accepts every bid and attaches no payload. It is the default hook
// used when an auction's configured HookAddr is unset.
type NoOp struct{}

func (NoOp) PrepareHookData(types.SubmitBidParams, types.AuctionState) ([]byte, error) {
	return []byte{}, nil
}

func (NoOp) Validate(types.SubmitBidParams, types.AuctionState) error { return nil }
