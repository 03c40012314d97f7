package strategy

import (
	"log/slog"

	"cca-agent/internal/executor"
	"cca-agent/pkg/types"
)

// Config tunes the reference bidding strategy.
type Config struct {
	MaxPrice                types.Price
	BidChunk                types.CurrencyAmount
	Target                  types.CurrencyAmount
	PriceTicksAboveClearing uint64
	FlowWindowBlocks        uint64
	FlowVolatileThreshold   float64
	FlowCooldownBlocks      uint64
}

// Default submits bids in fixed-size chunks up to a target exposure while
// the auction is active, backing off when the clearing price is moving
// fast, then sweeps exits once the auction ends and claims once it's
// claimable.
// Grounded on internal/strategy/maker.go's per-tick reconcile shape,
// restyled from continuous quoting to one-shot-per-phase intents (a CCA
// has no order book to reconcile against, only a monotone block clock).
type Default struct {
	cfg       Config
	inventory *Inventory
	flow      *FlowTracker
	logger    *slog.Logger
}

func NewDefault(cfg Config, logger *slog.Logger) *Default {
	return &Default{
		cfg:       cfg,
		inventory: NewInventory(cfg.Target),
		flow:      NewFlowTracker(cfg.FlowWindowBlocks, cfg.FlowVolatileThreshold, cfg.FlowCooldownBlocks),
		logger:    logger.With("component", "strategy"),
	}
}

func (d *Default) Evaluate(ctx executor.EvaluationContext) []types.Intent {
	if ctx.HasCheckpoint {
		d.flow.Observe(ctx.Block, ctx.LastCheckpoint.ClearingPrice)
	}

	switch {
	case ctx.Phase.IsActive():
		return d.evaluateActive(ctx)
	case ctx.Phase.IsEnded():
		return d.evaluateEnded(ctx)
	case ctx.Phase.IsClaimable():
		return d.evaluateClaimable(ctx)
	default:
		return []types.Intent{types.NewSkipIntent()}
	}
}

// evaluateActive proposes early exits for any ITM bid once the auction has
// graduated (CanEarlyExit), then, unless flow is toxic or the state no
// longer accepts new bids (CanSubmitBid), tops up the remaining inventory
// gap at a clearing-price-adaptive price.
func (d *Default) evaluateActive(ctx executor.EvaluationContext) []types.Intent {
	state := ctx.AuctionState()

	var intents []types.Intent
	if state.CanEarlyExit() {
		for _, bid := range ctx.Bids {
			if bid.NeedsExit() && bid.Status(ctx.LastCheckpoint.ClearingPrice) == types.ITM {
				intents = append(intents, types.NewExitIntent(bid.Id))
			}
		}
	}

	if d.flow.ShouldBackOff(ctx.Block) || !state.CanSubmitBid() {
		return skipOr(intents)
	}

	remaining := d.inventory.Remaining()
	if remaining.IsZero() {
		return skipOr(intents)
	}

	amount := d.cfg.BidChunk
	if d.cfg.BidChunk.GE(remaining) {
		amount = remaining
	}

	d.inventory.RecordSubmission(amount)
	intents = append(intents, types.NewSubmitBidIntent(types.SubmitBidInput{
		MaxPrice: d.bidPrice(ctx),
		Amount:   amount,
	}))
	return intents
}

// bidPrice tracks a rising clearing price instead of pinning a static
// ceiling: clamp_to_nearest_tick(clearing_price + N*tick_spacing), capped
// at cfg.MaxPrice. Without a checkpoint yet observed it falls back to
// cfg.MaxPrice outright.
func (d *Default) bidPrice(ctx executor.EvaluationContext) types.Price {
	if !ctx.HasCheckpoint {
		return d.cfg.MaxPrice
	}

	spacing := ctx.Config.TickSpacing
	target := ctx.LastCheckpoint.ClearingPrice.AddTicksN(spacing, d.cfg.PriceTicksAboveClearing)
	return target.ClampToNearestTick(spacing, ctx.Config.FloorPrice, d.cfg.MaxPrice)
}

// evaluateEnded sweeps Exit intents only for tracked bids that still need
// one — NeedsExit is false once a bid has already been exited, which
// TrackedBids itself never forgets.
func (d *Default) evaluateEnded(ctx executor.EvaluationContext) []types.Intent {
	var intents []types.Intent
	for _, bid := range ctx.Bids {
		if bid.NeedsExit() {
			intents = append(intents, types.NewExitIntent(bid.Id))
		}
	}
	return skipOr(intents)
}

// evaluateClaimable claims only the tracked bids that exited with a
// nonzero fill still outstanding.
func (d *Default) evaluateClaimable(ctx executor.EvaluationContext) []types.Intent {
	var ids []types.BidId
	for _, bid := range ctx.Bids {
		if bid.NeedsClaim() {
			ids = append(ids, bid.Id)
		}
	}
	if len(ids) == 0 {
		return []types.Intent{types.NewSkipIntent()}
	}
	return []types.Intent{types.NewClaimIntent(ids)}
}

func skipOr(intents []types.Intent) []types.Intent {
	if len(intents) == 0 {
		return []types.Intent{types.NewSkipIntent()}
	}
	return intents
}

// OnOutcome reverts the optimistic inventory debit on a failed submission.
// Clearing-price observation happens unconditionally in Evaluate, not here,
// since a failed or skipped intent still needs the flow tracker fed.
func (d *Default) OnOutcome(outcome types.IntentOutcome) {
	if !outcome.Ok {
		if outcome.Intent.Kind == types.IntentSubmitBid {
			d.inventory.Revert(outcome.Intent.Submit.Amount)
		}
		return
	}

	d.logger.Debug("intent succeeded", "kind", outcome.Result.Kind)
}
