// Package cache memoizes auction facts that are monotonic once observed
// true, so the executor can elide redundant RPCs. See SPEC_FULL.md §4.3.
package cache

import "cca-agent/pkg/types"

// Cache holds three upgrade-only facts about one auction. It is owned
// exclusively by the IntentExecutor and mutated only while handling one
// intent for one block.
type Cache struct {
	tokensReceived  types.TokenDepositStatus
	graduated       types.GraduationStatus
	finalCheckpoint *types.Checkpoint
	lastCheckpoint  *types.Checkpoint
}

func New() *Cache {
	return &Cache{tokensReceived: types.TokenDepositUnknown, graduated: types.NotGraduated}
}

func (c *Cache) TokensReceived() types.TokenDepositStatus { return c.tokensReceived }
func (c *Cache) Graduated() types.GraduationStatus        { return c.graduated }

// FinalCheckpoint returns the cached checkpoint taken at or after the
// auction's end block, and whether one has been recorded yet.
func (c *Cache) FinalCheckpoint() (types.Checkpoint, bool) {
	if c.finalCheckpoint == nil {
		return types.Checkpoint{}, false
	}
	return *c.finalCheckpoint, true
}

// LastCheckpoint returns the most recent checkpoint observed by any
// fetch this block, regardless of auction phase. Unlike FinalCheckpoint
// it is overwritten every time, so a Strategy can use it as a cheap
// (already-fetched) clearing-price signal without issuing its own RPC.
func (c *Cache) LastCheckpoint() (types.Checkpoint, bool) {
	if c.lastCheckpoint == nil {
		return types.Checkpoint{}, false
	}
	return *c.lastCheckpoint, true
}

// Update promotes newly-observed facts. tokensReceived and graduated only
// ever move forward (Unknown/NotReceived -> Received, NotGraduated ->
// Graduated); finalCheckpoint is write-once, populated only when
// pastEndBlock is true and checkpoint is non-nil and nothing is cached yet.
func (c *Cache) Update(tokensReceived types.TokenDepositStatus, graduated types.GraduationStatus, checkpoint *types.Checkpoint, pastEndBlock bool) {
	if tokensReceived == types.TokenDepositReceived {
		c.tokensReceived = types.TokenDepositReceived
	}
	if graduated == types.Graduated {
		c.graduated = types.Graduated
	}
	if pastEndBlock && checkpoint != nil && c.finalCheckpoint == nil {
		cp := *checkpoint
		c.finalCheckpoint = &cp
	}
	if checkpoint != nil {
		cp := *checkpoint
		c.lastCheckpoint = &cp
	}
}

func (c *Cache) NeedsTokenBalance() bool { return c.tokensReceived != types.TokenDepositReceived }
func (c *Cache) NeedsGraduation() bool   { return c.graduated != types.Graduated }

// NeedsCheckpoint is pessimistic before the auction ends: the clearing
// price is not monotonic pre-end, so a checkpoint fetch is always needed
// until pastEndBlock is true and one has already been cached.
func (c *Cache) NeedsCheckpoint(pastEndBlock bool) bool {
	if !pastEndBlock {
		return true
	}
	return c.finalCheckpoint == nil
}
