package strategy

import (
	"math"
	"math/big"
	"sync"

	"cca-agent/pkg/types"
)

// priceSample is one observed clearing price at a block.
type priceSample struct {
	block types.BlockNumber
	price types.Price
}

// FlowTracker watches the clearing price across blocks and flags runs
// where it is moving quickly, so a strategy can back off rather than bid
// into a price it can't keep up with. Windowed by block count rather than
// wall-clock time, since block number is this domain's natural clock.
// Grounded on internal/strategy/flow_tracker.go's rolling-window toxicity
// detector, re-themed from fill-direction imbalance (which requires a
// live fill feed this agent doesn't have) to clearing-price volatility,
// fed from the same checkpoint the executor cache already holds.
type FlowTracker struct {
	mu sync.RWMutex

	windowBlocks      uint64
	samples           []priceSample
	volatileThreshold float64 // fractional move within window that counts as volatile
	cooldownBlocks    uint64
	lastVolatileAt    types.BlockNumber
	everVolatile      bool
}

func NewFlowTracker(windowBlocks uint64, volatileThreshold float64, cooldownBlocks uint64) *FlowTracker {
	return &FlowTracker{
		windowBlocks:      windowBlocks,
		samples:           make([]priceSample, 0, 64),
		volatileThreshold: volatileThreshold,
		cooldownBlocks:    cooldownBlocks,
	}
}

func (ft *FlowTracker) Observe(block types.BlockNumber, price types.Price) {
	ft.mu.Lock()
	defer ft.mu.Unlock()

	ft.samples = append(ft.samples, priceSample{block: block, price: price})
	ft.evictStaleLocked(block)

	if ft.isVolatileLocked() {
		ft.lastVolatileAt = block
		ft.everVolatile = true
	}
}

func (ft *FlowTracker) evictStaleLocked(current types.BlockNumber) {
	cutoff := uint64(0)
	if uint64(current) > ft.windowBlocks {
		cutoff = uint64(current) - ft.windowBlocks
	}
	idx := 0
	for idx < len(ft.samples) && uint64(ft.samples[idx].block) < cutoff {
		idx++
	}
	ft.samples = ft.samples[idx:]
}

func (ft *FlowTracker) isVolatileLocked() bool {
	if len(ft.samples) < 2 {
		return false
	}
	first := ft.samples[0].price.Big()
	last := ft.samples[len(ft.samples)-1].price.Big()
	if first.Sign() == 0 {
		return false
	}

	firstF, _ := new(big.Float).SetInt(first).Float64()
	lastF, _ := new(big.Float).SetInt(last).Float64()
	change := math.Abs(lastF-firstF) / firstF
	return change >= ft.volatileThreshold
}

// ShouldBackOff reports whether the current block is within cooldownBlocks
// of the last detected volatile move.
func (ft *FlowTracker) ShouldBackOff(block types.BlockNumber) bool {
	ft.mu.RLock()
	defer ft.mu.RUnlock()
	if !ft.everVolatile {
		return false
	}
	return uint64(block)-uint64(ft.lastVolatileAt) < ft.cooldownBlocks
}
