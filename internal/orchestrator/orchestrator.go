// Package orchestrator drives the per-block loop: for every block it reads
// auction phase, asks a Strategy for intents, and executes them through an
// IntentExecutor. Grounded on original_source/crates/core/src/orchestrator/core.rs
// and internal/strategy/maker.go's Run-loop shape (ctx.Done()/channel select).
package orchestrator

import (
	"context"
	"log/slog"
	"sync"

	"cca-agent/internal/api"
	"cca-agent/internal/executor"
	"cca-agent/internal/guard"
	"cca-agent/pkg/types"
)

// Orchestrator owns one IntentExecutor for an auction's whole lifetime and
// runs strategy.Evaluate once per observed block.
type Orchestrator struct {
	executor *executor.IntentExecutor
	strategy Strategy
	guard    *guard.Guard
	dash     chan api.DashboardEvent

	mu            sync.RWMutex
	currentBlock  types.BlockNumber
	bidsSubmitted uint32
	bidsExited    uint32
	tokensClaimed types.TokenAmount

	logger *slog.Logger
}

// New wires an Orchestrator to its executor, strategy, and safety guard.
// g and dash may both be nil: a nil guard never trips, and a nil dash
// channel means no dashboard events are ever sent (handleBlock's sends are
// all non-blocking no-ops against a nil channel). dash is owned by the
// orchestrator once passed in — only it ever sends on the channel; the
// dashboard server only ever receives, via DashboardEvents.
func New(exec *executor.IntentExecutor, strategy Strategy, g *guard.Guard, dash chan api.DashboardEvent, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		executor: exec,
		strategy: strategy,
		guard:    g,
		dash:     dash,
		logger:   logger.With("component", "orchestrator"),
	}
}

// Run consumes blocks until the auction is fully processed, the stream
// closes, or ctx is cancelled.
func (o *Orchestrator) Run(ctx context.Context, blocks <-chan types.BlockNumber) types.OrchestratorResult {
	go o.watchGuardTrips(ctx)

	for {
		select {
		case <-ctx.Done():
			return o.finalize(types.ReasonBlockStreamEnded)

		case block, ok := <-blocks:
			if !ok {
				return o.finalize(types.ReasonBlockStreamEnded)
			}
			if done, result := o.handleBlock(ctx, block); done {
				return result
			}
		}
	}
}

// handleBlock returns (true, result) when the auction is fully processed.
func (o *Orchestrator) handleBlock(ctx context.Context, block types.BlockNumber) (bool, types.OrchestratorResult) {
	evalCtx := o.executor.Context(ctx, block)
	o.recordBlock(block)
	o.emitDashboardEvent(api.DashboardEvent{Type: "block", Data: api.NewBlockEvent(uint64(block), evalCtx.Phase.String())})

	if isComplete(evalCtx) {
		return true, o.finalize(types.ReasonAllBidsProcessed)
	}

	if o.guard != nil && o.guard.IsTripped(block) {
		o.logger.Warn("guard tripped, skipping strategy evaluation", "block", block)
		return false, types.OrchestratorResult{}
	}

	intents := o.strategy.Evaluate(evalCtx)
	if allSkip(intents) {
		return false, types.OrchestratorResult{}
	}

	for _, intent := range intents {
		if intent.Kind == types.IntentSkip {
			continue
		}
		outcome := o.executor.Execute(ctx, intent, block)
		o.recordOutcome(outcome)
		o.strategy.OnOutcome(outcome)
		if o.guard != nil {
			o.guard.Report(outcome, block)
		}
		o.emitDashboardEvent(api.DashboardEvent{Type: "intent", Data: intentEvent(intent, outcome, block)})
	}

	return false, types.OrchestratorResult{}
}

func intentEvent(intent types.Intent, outcome types.IntentOutcome, block types.BlockNumber) api.IntentEvent {
	kind := "submit_bid"
	var bidID, txHash string
	switch intent.Kind {
	case types.IntentExit:
		kind = "exit"
	case types.IntentClaim:
		kind = "claim"
	}
	errMsg := ""
	if !outcome.Ok {
		errMsg = outcome.Err.Error()
	} else {
		switch outcome.Result.Kind {
		case types.ResultBidSubmitted:
			bidID = outcome.Result.Submit.BidId.String()
			txHash = outcome.Result.Submit.TxHash.Hex()
		case types.ResultBidExited:
			bidID = outcome.Result.Exit.BidId.String()
		case types.ResultTokensClaimed:
			txHash = outcome.Result.Claim.TxHash.Hex()
		}
	}
	return api.NewIntentEvent(kind, outcome.Ok, errMsg, bidID, txHash, uint64(block))
}

// emitDashboardEvent sends an event to the dashboard, never blocking the
// orchestrator loop. A nil dash channel (no dashboard attached) or a full
// one both silently drop the event.
func (o *Orchestrator) emitDashboardEvent(evt api.DashboardEvent) {
	if o.dash == nil {
		return
	}
	select {
	case o.dash <- evt:
	default:
		o.logger.Warn("dashboard event channel full, dropping event", "type", evt.Type)
	}
}

// watchGuardTrips forwards guard trip signals to the dashboard as they
// happen, independent of the per-block loop's cadence — a trip can be
// minutes stale by the time the next block arrives on a slow chain.
func (o *Orchestrator) watchGuardTrips(ctx context.Context) {
	if o.guard == nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-o.guard.TripCh():
			o.emitDashboardEvent(api.DashboardEvent{
				Type: "guard_trip",
				Data: api.NewGuardTripEvent(uint64(sig.Block), sig.Reason),
			})
		}
	}
}

func allSkip(intents []types.Intent) bool {
	for _, i := range intents {
		if i.Kind != types.IntentSkip {
			return false
		}
	}
	return true
}

func isComplete(ctx executor.EvaluationContext) bool {
	noTrackedBids := len(ctx.TrackedBids) == 0

	switch {
	case ctx.Phase.IsClaimable():
		return noTrackedBids
	case ctx.Phase.IsEnded():
		return noTrackedBids && ctx.Cache.Graduated() == types.NotGraduated
	default:
		return false
	}
}

func (o *Orchestrator) recordOutcome(outcome types.IntentOutcome) {
	if !outcome.Ok {
		o.logger.Warn("intent failed", "error", outcome.Err)
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	switch outcome.Result.Kind {
	case types.ResultBidSubmitted:
		o.bidsSubmitted++
	case types.ResultBidExited:
		o.bidsExited++
	case types.ResultTokensClaimed:
		o.tokensClaimed = o.tokensClaimed.Add(outcome.Result.Claim.TotalTokens)
	}
}

func (o *Orchestrator) recordBlock(block types.BlockNumber) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.currentBlock = block
}

func (o *Orchestrator) finalize(reason types.CompletionReason) types.OrchestratorResult {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return types.OrchestratorResult{
		BidsSubmitted: o.bidsSubmitted,
		BidsExited:    o.bidsExited,
		TokensClaimed: o.tokensClaimed,
		Reason:        reason,
	}
}

// DashboardEvents returns the read end of the dashboard event channel, or
// nil if none was wired in New.
func (o *Orchestrator) DashboardEvents() <-chan api.DashboardEvent {
	return o.dash
}

// AuctionSnapshot reports the auction's current state for the dashboard.
// Safe to call concurrently with Run.
func (o *Orchestrator) AuctionSnapshot() api.AuctionStatus {
	evalCtx := o.executor.Context(context.Background(), o.currentBlockSnapshot())
	cfg := evalCtx.Config

	return api.AuctionStatus{
		Address:        cfg.Address.Hex(),
		CurrentBlock:   uint64(evalCtx.Block),
		Phase:          evalCtx.Phase.String(),
		StartBlock:     uint64(cfg.StartBlock),
		EndBlock:       uint64(cfg.EndBlock),
		ClaimBlock:     uint64(cfg.ClaimBlock),
		ClearingPrice:  evalCtx.LastCheckpoint.ClearingPrice.String(),
		CumulativeMps:  uint32(evalCtx.LastCheckpoint.CumulativeMps),
		RemainingMps:   uint32(evalCtx.LastCheckpoint.RemainingMps()),
		IsSoldOut:      evalCtx.LastCheckpoint.IsSoldOut(),
		IsTerminal:     evalCtx.LastCheckpoint.IsTerminal(),
		Graduated:      evalCtx.Cache.Graduated() == types.Graduated,
		TokensReceived: evalCtx.Cache.TokensReceived() == types.TokenDepositReceived,
		TrackedBids:    len(evalCtx.TrackedBids),
		HasCheckpoint:  evalCtx.HasCheckpoint,
	}
}

func (o *Orchestrator) currentBlockSnapshot() types.BlockNumber {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.currentBlock
}

// GuardSnapshot reports the safety breaker's state, or the zero value if
// no guard was wired in New.
func (o *Orchestrator) GuardSnapshot() api.GuardStatus {
	if o.guard == nil {
		return api.GuardStatus{}
	}
	status := o.guard.Snapshot()
	return api.GuardStatus{
		Tripped:       status.Tripped,
		TrippedUntil:  uint64(status.TrippedUntil),
		FailureCount:  status.FailureCount,
		FailureWindow: status.Window,
		Cooldown:      status.Cooldown,
		Threshold:     status.Threshold,
	}
}

// Stats reports the running tallies of submitted/exited bids and claimed
// tokens. Safe to call concurrently with Run.
func (o *Orchestrator) Stats() api.OrchestratorStats {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return api.OrchestratorStats{
		BidsSubmitted: o.bidsSubmitted,
		BidsExited:    o.bidsExited,
		TokensClaimed: o.tokensClaimed.String(),
	}
}
