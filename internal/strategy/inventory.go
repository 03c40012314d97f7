// Package strategy implements a reference bidding strategy for a single
// continuous clearing auction: size bids against a target currency
// exposure, back off when the clearing price is moving fast, and sweep
// exits/claims once they become available.
// Grounded on internal/strategy/inventory.go (position/exposure tracking,
// restyled from a two-sided YES/NO position to one running commitment).
package strategy

import (
	"sync"

	"cca-agent/pkg/types"
)

// Inventory tracks how much currency this agent has already committed to
// an auction across all of its own tracked bids, so a strategy can size
// new bids against a fixed target rather than re-deriving it from chain
// state every block.
type Inventory struct {
	mu        sync.RWMutex
	target    types.CurrencyAmount
	committed types.CurrencyAmount
}

func NewInventory(target types.CurrencyAmount) *Inventory {
	return &Inventory{target: target}
}

// RecordSubmission adds amount to the running committed total. Called
// when a SubmitBid intent is proposed, before it executes; Revert undoes
// it if that intent fails.
func (inv *Inventory) RecordSubmission(amount types.CurrencyAmount) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	sum, overflow := inv.committed.Add(amount)
	if overflow {
		panic("strategy: committed currency overflow")
	}
	inv.committed = sum
}

// Remaining returns how much currency may still be committed before
// reaching target. Zero once the target is met or exceeded.
func (inv *Inventory) Remaining() types.CurrencyAmount {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	if inv.committed.GE(inv.target) {
		return types.CurrencyAmount{}
	}
	return inv.target.Sub(inv.committed)
}

func (inv *Inventory) Committed() types.CurrencyAmount {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.committed
}

// Revert undoes an optimistic RecordSubmission after its intent turns out
// to have failed. Clamped at zero rather than panicking: a revert racing
// a concurrent reconciliation is a bookkeeping nit, not a fatal invariant
// violation.
func (inv *Inventory) Revert(amount types.CurrencyAmount) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if amount.GE(inv.committed) {
		inv.committed = types.CurrencyAmount{}
		return
	}
	inv.committed = inv.committed.Sub(amount)
}
