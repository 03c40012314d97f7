// Package executor turns a single Intent into on-chain effect: it
// assembles exactly the state the intent needs (reusing the executor's own
// ExecutorCache to skip redundant RPCs), runs the pure validators, and
// invokes the matching AuctionClient write-path method. It never returns
// an error to its caller — every failure becomes a Failed IntentOutcome,
// so a single bad intent can never crash the orchestrator loop.
// Grounded on original_source/crates/core/src/executor/core.rs.
package executor

import (
	"context"
	"log/slog"

	"cca-agent/internal/auction"
	"cca-agent/internal/cache"
	"cca-agent/internal/validation"
	"cca-agent/pkg/types"
)

// EvaluationContext is what a Strategy sees when deciding what to do next.
// Bids is only populated when a strategy can actually act on lifecycle
// state — Ended/Claimable (NeedsExit/NeedsClaim), or Active once the
// auction has graduated (CanEarlyExit) — so a plain Active block with no
// early-exit path available costs no Bids RPC at all.
type EvaluationContext struct {
	Block          types.BlockNumber
	Phase          types.AuctionPhase
	Cache          *cache.Cache
	TrackedBids    []types.BidId
	Bids           []types.Bid
	Config         types.AuctionConfig
	LastCheckpoint types.Checkpoint
	HasCheckpoint  bool
}

// IntentExecutor owns the one AuctionClient and ExecutorCache for an
// auction's lifetime.
type IntentExecutor struct {
	client *auction.AuctionClient
	cache  *cache.Cache
	logger *slog.Logger
}

func NewIntentExecutor(client *auction.AuctionClient, logger *slog.Logger) *IntentExecutor {
	return &IntentExecutor{client: client, cache: cache.New(), logger: logger.With("component", "executor")}
}

func (e *IntentExecutor) Client() *auction.AuctionClient { return e.client }
func (e *IntentExecutor) Cache() *cache.Cache            { return e.cache }

// AuctionState builds the point-in-time view CanSubmitBid/CanEarlyExit
// derive their answers from, out of this context's own fields.
func (c EvaluationContext) AuctionState() types.AuctionState {
	return types.AuctionState{
		CurrentBlock:   c.Block,
		Phase:          c.Phase,
		Checkpoint:     c.LastCheckpoint,
		Graduation:     c.Cache.Graduated(),
		TokensReceived: c.Cache.TokensReceived(),
	}
}

// Context builds the EvaluationContext a strategy evaluates against for
// the given block. It performs a Bids RPC only when there are tracked
// bids and the phase makes lifecycle state actionable (see
// EvaluationContext.Bids); any other phase is RPC-free. A failed Bids
// fetch degrades to an empty Bids slice rather than propagating — a
// transient RPC error here must not stall the per-block loop.
func (e *IntentExecutor) Context(ctx context.Context, block types.BlockNumber) EvaluationContext {
	config := e.client.Config()
	phase := types.ComputePhase(config, block, e.cache.TokensReceived())

	tracked := e.client.TrackedBids()
	ids := make([]types.BidId, len(tracked))
	for i, t := range tracked {
		ids[i] = t.Id
	}

	lastCheckpoint, hasCheckpoint := e.cache.LastCheckpoint()

	evalCtx := EvaluationContext{
		Block:          block,
		Phase:          phase,
		Cache:          e.cache,
		TrackedBids:    ids,
		Config:         config,
		LastCheckpoint: lastCheckpoint,
		HasCheckpoint:  hasCheckpoint,
	}

	needsLifecycleData := phase.IsEnded() || phase.IsClaimable() ||
		(phase.IsActive() && e.cache.Graduated() == types.Graduated)
	if len(ids) > 0 && needsLifecycleData {
		bids, err := e.client.FetchBids(ctx, ids)
		if err != nil {
			e.logger.Warn("fetch tracked bids for evaluation context failed, strategy will see no lifecycle data this block", "block", block, "error", err)
		} else {
			evalCtx.Bids = bids
		}
	}

	return evalCtx
}

// Execute never panics and never returns an error directly — every
// failure path is captured as a Failed IntentOutcome.
func (e *IntentExecutor) Execute(ctx context.Context, intent types.Intent, block types.BlockNumber) types.IntentOutcome {
	result, err := e.executeInner(ctx, intent, block)
	if err != nil {
		return types.Failed(intent, err)
	}
	return types.Succeeded(result)
}

func (e *IntentExecutor) executeInner(ctx context.Context, intent types.Intent, block types.BlockNumber) (types.IntentResult, error) {
	switch intent.Kind {
	case types.IntentSubmitBid:
		return e.executeSubmitBid(ctx, intent.Submit, block)
	case types.IntentExit:
		return e.executeExit(ctx, intent.ExitBid, block)
	case types.IntentClaim:
		return e.executeClaim(ctx, intent.ClaimIds, block)
	default:
		// IntentSkip never reaches the executor — the orchestrator filters
		// it out before dispatch.
		return types.IntentResult{}, nil
	}
}

func (e *IntentExecutor) isPastEnd(block types.BlockNumber) bool {
	return block >= e.client.Config().EndBlock
}

func (e *IntentExecutor) executeSubmitBid(ctx context.Context, input types.SubmitBidInput, block types.BlockNumber) (types.IntentResult, error) {
	checkpoint, err := e.client.FetchCheckpoint(ctx)
	if err != nil {
		return types.IntentResult{}, err
	}

	tokensReceived := e.cache.TokensReceived()
	if e.cache.NeedsTokenBalance() {
		tokensReceived, err = e.client.FetchTokenBalance(ctx)
		if err != nil {
			return types.IntentResult{}, err
		}
	}

	pastEnd := e.isPastEnd(block)
	e.cache.Update(tokensReceived, e.cache.Graduated(), &checkpoint, pastEnd)

	config := e.client.Config()
	state := types.AuctionState{
		CurrentBlock:   block,
		Phase:          types.ComputePhase(config, block, tokensReceived),
		Checkpoint:     checkpoint,
		Graduation:     e.cache.Graduated(),
		TokensReceived: tokensReceived,
	}

	input.Owner = e.client.Owner()
	if err := validation.SubmitBid(input, state, config); err != nil {
		return types.IntentResult{}, err
	}

	params, err := e.client.PrepareBid(ctx, input, state)
	if err != nil {
		return types.IntentResult{}, err
	}

	if err := e.client.Hook().Validate(params, state); err != nil {
		return types.IntentResult{}, err
	}

	result, err := e.client.SubmitBid(ctx, params)
	if err != nil {
		return types.IntentResult{}, err
	}
	return types.IntentResult{Kind: types.ResultBidSubmitted, Submit: result}, nil
}

func (e *IntentExecutor) executeExit(ctx context.Context, bidId types.BidId, block types.BlockNumber) (types.IntentResult, error) {
	pastEnd := e.isPastEnd(block)

	var checkpoint types.Checkpoint
	if e.cache.NeedsCheckpoint(pastEnd) {
		cp, err := e.client.FetchCheckpoint(ctx)
		if err != nil {
			return types.IntentResult{}, err
		}
		e.cache.Update(e.cache.TokensReceived(), e.cache.Graduated(), &cp, pastEnd)
		checkpoint = cp
	} else {
		cp, ok := e.cache.FinalCheckpoint()
		if !ok {
			return types.IntentResult{}, types.ErrFinalCheckpointNotCached
		}
		checkpoint = cp
	}

	graduation := e.cache.Graduated()
	if e.cache.NeedsGraduation() {
		g, err := e.client.FetchGraduation(ctx)
		if err != nil {
			return types.IntentResult{}, err
		}
		e.cache.Update(e.cache.TokensReceived(), g, nil, pastEnd)
		graduation = g
	}

	bids, err := e.client.FetchBids(ctx, []types.BidId{bidId})
	if err != nil {
		return types.IntentResult{}, err
	}
	if len(bids) == 0 {
		return types.IntentResult{}, types.ErrBidNotFound
	}
	bid := bids[0]

	config := e.client.Config()
	state := types.AuctionState{
		CurrentBlock:   block,
		Phase:          types.ComputePhase(config, block, e.cache.TokensReceived()),
		Checkpoint:     checkpoint,
		Graduation:     graduation,
		TokensReceived: e.cache.TokensReceived(),
	}

	status := bid.Status(checkpoint.ClearingPrice)

	var exitResult types.ExitResult
	switch status {
	case types.ITM:
		if err := validation.ExitBid(bid, state, config); err != nil {
			return types.IntentResult{}, err
		}
		exitResult, err = e.client.ExitBid(ctx, types.ExitBidParams{BidId: bidId})
	default: // ATM, OTM
		if err := validation.ExitPartiallyFilled(bid, state, config); err != nil {
			return types.IntentResult{}, err
		}
		var params types.ExitPartiallyFilledParams
		params, err = e.client.PrepareExitPartiallyFilled(ctx, bidId)
		if err != nil {
			return types.IntentResult{}, err
		}
		exitResult, err = e.client.ExitPartiallyFilled(ctx, params)
	}
	if err != nil {
		return types.IntentResult{}, err
	}

	return types.IntentResult{Kind: types.ResultBidExited, Exit: exitResult}, nil
}

func (e *IntentExecutor) executeClaim(ctx context.Context, bidIds []types.BidId, block types.BlockNumber) (types.IntentResult, error) {
	pastEnd := e.isPastEnd(block)

	graduation := e.cache.Graduated()
	if e.cache.NeedsGraduation() {
		g, err := e.client.FetchGraduation(ctx)
		if err != nil {
			return types.IntentResult{}, err
		}
		e.cache.Update(e.cache.TokensReceived(), g, nil, pastEnd)
		graduation = g
	}

	bids, err := e.client.FetchBids(ctx, bidIds)
	if err != nil {
		return types.IntentResult{}, err
	}

	checkpoint, ok := e.cache.FinalCheckpoint()
	if !ok {
		return types.IntentResult{}, types.ErrFinalCheckpointNotCached
	}

	config := e.client.Config()
	state := types.AuctionState{
		CurrentBlock:   block,
		Phase:          types.ComputePhase(config, block, e.cache.TokensReceived()),
		Checkpoint:     checkpoint,
		Graduation:     graduation,
		TokensReceived: e.cache.TokensReceived(),
	}

	owner := e.client.Owner()
	if err := validation.Claim(bids, owner, state, config); err != nil {
		return types.IntentResult{}, err
	}

	result, err := e.client.Claim(ctx, types.ClaimParams{Owner: owner, BidIds: bidIds})
	if err != nil {
		return types.IntentResult{}, err
	}
	return types.IntentResult{Kind: types.ResultTokensClaimed, Claim: result}, nil
}
