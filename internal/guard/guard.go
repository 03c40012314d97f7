// Package guard is a safety breaker that watches the stream of
// IntentOutcomes an orchestrator produces and trips when the agent is
// clearly malfunctioning against the chain — not against a price model,
// since a single-auction agent holds no USD position to protect.
//
// Only consecutive TransactionError failures count: a ValidationError
// rejection is an expected, routine "not yet" answer from a pure
// precondition check, never a malfunction signal.
// Grounded on internal/risk/manager.go's killSwitchActive/killSwitchUntil
// fields, mu-guarded state, Run(ctx) consumer goroutine, and
// drain-then-send emitKill pattern, re-themed from USD exposure/price-shock
// limits to a transaction-revert streak.
package guard

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"cca-agent/pkg/types"
)

// Config tunes the breaker.
type Config struct {
	// FailureThreshold is how many consecutive transaction failures within
	// Window trip the breaker.
	FailureThreshold int
	// Window is how many blocks a failure stays eligible to count toward
	// FailureThreshold before it ages out.
	Window uint64
	// Cooldown is how many blocks the breaker stays tripped before it
	// resets and resumes normal operation.
	Cooldown uint64
}

// DefaultConfig matches the core spec's documented defaults.
func DefaultConfig() Config {
	return Config{FailureThreshold: 3, Window: 10, Cooldown: 50}
}

// TripSignal is emitted each time the breaker trips.
type TripSignal struct {
	Block  types.BlockNumber
	Reason string
}

type report struct {
	outcome types.IntentOutcome
	block   types.BlockNumber
}

// Guard is safe for concurrent use: Report, IsTripped, Snapshot and TripCh
// may be called from any goroutine while Run consumes the reports.
type Guard struct {
	cfg    Config
	logger *slog.Logger

	mu            sync.RWMutex
	failureBlocks []types.BlockNumber
	tripped       bool
	trippedUntil  types.BlockNumber

	reportCh chan report
	tripCh   chan TripSignal
}

func New(cfg Config, logger *slog.Logger) *Guard {
	return &Guard{
		cfg:      cfg,
		logger:   logger.With("component", "guard"),
		reportCh: make(chan report, 64),
		tripCh:   make(chan TripSignal, 4),
	}
}

// Run consumes reported outcomes until ctx is cancelled.
func (g *Guard) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case r := <-g.reportCh:
			g.process(r)
		}
	}
}

// Report submits an executed intent's outcome for the given block
// (non-blocking — a full channel drops the report and logs a warning,
// exactly as the teacher's risk manager drops position reports rather
// than block the caller).
func (g *Guard) Report(outcome types.IntentOutcome, block types.BlockNumber) {
	select {
	case g.reportCh <- report{outcome: outcome, block: block}:
	default:
		g.logger.Warn("guard report channel full, dropping report", "block", block)
	}
}

// TripCh returns the channel trip signals are published on.
func (g *Guard) TripCh() <-chan TripSignal {
	return g.tripCh
}

// IsTripped reports whether the breaker is currently open at block,
// auto-clearing (and resetting the failure streak) once the cooldown set
// by the last trip has elapsed.
func (g *Guard) IsTripped(block types.BlockNumber) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.tripped {
		return false
	}
	if block >= g.trippedUntil {
		g.tripped = false
		g.failureBlocks = nil
		g.logger.Info("guard cooldown expired", "block", block)
		return false
	}
	return true
}

// Status is a read-only view of the breaker's current state, for
// observability surfaces that poll rather than subscribe to TripCh.
type Status struct {
	Tripped      bool
	TrippedUntil types.BlockNumber
	FailureCount int
	Threshold    int
	Window       uint64
	Cooldown     uint64
}

// Snapshot reports the breaker's state without mutating it (unlike
// IsTripped, it never clears an expired cooldown).
func (g *Guard) Snapshot() Status {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return Status{
		Tripped:      g.tripped,
		TrippedUntil: g.trippedUntil,
		FailureCount: len(g.failureBlocks),
		Threshold:    g.cfg.FailureThreshold,
		Window:       g.cfg.Window,
		Cooldown:     g.cfg.Cooldown,
	}
}

func (g *Guard) process(r report) {
	if r.outcome.Ok {
		g.mu.Lock()
		g.failureBlocks = nil
		g.mu.Unlock()
		return
	}

	var txErr *types.TransactionError
	if !errors.As(r.outcome.Err, &txErr) {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.evictStaleLocked(r.block)
	g.failureBlocks = append(g.failureBlocks, r.block)

	if len(g.failureBlocks) >= g.cfg.FailureThreshold {
		g.tripLocked(r.block, txErr)
	}
}

func (g *Guard) evictStaleLocked(current types.BlockNumber) {
	cutoff := uint64(0)
	if uint64(current) > g.cfg.Window {
		cutoff = uint64(current) - g.cfg.Window
	}
	idx := 0
	for idx < len(g.failureBlocks) && uint64(g.failureBlocks[idx]) < cutoff {
		idx++
	}
	g.failureBlocks = g.failureBlocks[idx:]
}

// tripLocked assumes mu is held.
func (g *Guard) tripLocked(block types.BlockNumber, cause *types.TransactionError) {
	g.tripped = true
	g.trippedUntil = types.BlockNumber(uint64(block) + g.cfg.Cooldown)
	g.failureBlocks = nil

	g.logger.Error("guard tripped",
		"block", block,
		"cause", cause.Error(),
		"cooldown_until", g.trippedUntil,
	)

	sig := TripSignal{Block: block, Reason: cause.Error()}
	select {
	case g.tripCh <- sig:
	default:
		select {
		case <-g.tripCh:
		default:
		}
		g.tripCh <- sig
	}
}
