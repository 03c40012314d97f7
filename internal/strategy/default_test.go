package strategy

import (
	"io"
	"log/slog"
	"testing"

	"cca-agent/internal/cache"
	"cca-agent/internal/executor"
	"cca-agent/pkg/types"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func activeCtx(block types.BlockNumber, hasCheckpoint bool, price types.Price) executor.EvaluationContext {
	config := types.AuctionConfig{StartBlock: 0, EndBlock: 1000, ClaimBlock: 2000}
	return executor.EvaluationContext{
		Block:          block,
		Phase:          types.ComputePhase(config, block, types.TokenDepositReceived),
		Cache:          cache.New(),
		Config:         config,
		LastCheckpoint: types.Checkpoint{Block: block, ClearingPrice: price},
		HasCheckpoint:  hasCheckpoint,
	}
}

func TestDefaultEvaluateActiveSizesBidFromRemaining(t *testing.T) {
	cfg := Config{
		MaxPrice: types.PriceFromUint64(500),
		BidChunk: types.CurrencyAmountFromUint64(10),
		Target:   types.CurrencyAmountFromUint64(25),
	}
	d := NewDefault(cfg, discardLogger())

	ctx := activeCtx(1, true, types.PriceFromUint64(100))
	intents := d.Evaluate(ctx)
	if len(intents) != 1 || intents[0].Kind != types.IntentSubmitBid {
		t.Fatalf("expected one submit-bid intent, got %+v", intents)
	}
	if got := intents[0].Submit.Amount; got.Big().Int64() != 10 {
		t.Fatalf("expected first chunk of 10, got %s", got)
	}

	// Second and third chunks consume the rest of the 25-unit target; the
	// last one is clamped to the 5 units actually remaining.
	d.Evaluate(activeCtx(2, true, types.PriceFromUint64(100)))
	third := d.Evaluate(activeCtx(3, true, types.PriceFromUint64(100)))
	if got := third[0].Submit.Amount; got.Big().Int64() != 5 {
		t.Fatalf("expected final chunk clamped to 5, got %s", got)
	}

	fourth := d.Evaluate(activeCtx(4, true, types.PriceFromUint64(100)))
	if fourth[0].Kind != types.IntentSkip {
		t.Fatalf("expected skip once target is fully committed, got %+v", fourth)
	}
}

func TestDefaultEvaluateActivePricesOffClearing(t *testing.T) {
	cfg := Config{
		MaxPrice:                types.PriceFromUint64(1000),
		BidChunk:                types.CurrencyAmountFromUint64(10),
		Target:                  types.CurrencyAmountFromUint64(10),
		PriceTicksAboveClearing: 3,
	}
	d := NewDefault(cfg, discardLogger())

	ctx := activeCtx(1, true, types.PriceFromUint64(100))
	ctx.Config.TickSpacing = types.TickSpacingFromUint64(5)
	ctx.Config.FloorPrice = types.PriceFromUint64(0)

	intents := d.Evaluate(ctx)
	if len(intents) != 1 || intents[0].Kind != types.IntentSubmitBid {
		t.Fatalf("expected one submit-bid intent, got %+v", intents)
	}
	// clearing(100) + 3 ticks of 5 = 115, already tick-aligned, under the
	// 1000 ceiling.
	if got := intents[0].Submit.MaxPrice; got.Big().Int64() != 115 {
		t.Fatalf("expected clearing-adaptive price 115, got %s", got)
	}
}

func TestDefaultEvaluateActivePriceClampsToConfiguredCeiling(t *testing.T) {
	cfg := Config{
		MaxPrice:                types.PriceFromUint64(200),
		BidChunk:                types.CurrencyAmountFromUint64(10),
		Target:                  types.CurrencyAmountFromUint64(10),
		PriceTicksAboveClearing: 50,
	}
	d := NewDefault(cfg, discardLogger())

	ctx := activeCtx(1, true, types.PriceFromUint64(100))
	ctx.Config.TickSpacing = types.TickSpacingFromUint64(5)

	// clearing(100) + 50 ticks of 5 = 350, which must be capped at 200: a
	// rising clearing price must never lock the strategy out of bidding by
	// producing a price the contract rejects.
	intents := d.Evaluate(ctx)
	if got := intents[0].Submit.MaxPrice; !got.Eq(cfg.MaxPrice) {
		t.Fatalf("expected price capped at configured ceiling 200, got %s", got)
	}
}

func TestDefaultEvaluateActiveWithoutCheckpointFallsBackToMaxPrice(t *testing.T) {
	cfg := Config{
		MaxPrice: types.PriceFromUint64(500),
		BidChunk: types.CurrencyAmountFromUint64(10),
		Target:   types.CurrencyAmountFromUint64(10),
	}
	d := NewDefault(cfg, discardLogger())

	intents := d.Evaluate(activeCtx(1, false, types.Price{}))
	if got := intents[0].Submit.MaxPrice; !got.Eq(cfg.MaxPrice) {
		t.Fatalf("expected fallback to cfg.MaxPrice before any checkpoint is observed, got %s", got)
	}
}

func TestDefaultEvaluateActiveSkipsOnceSoldOut(t *testing.T) {
	cfg := Config{
		MaxPrice: types.PriceFromUint64(500),
		BidChunk: types.CurrencyAmountFromUint64(10),
		Target:   types.CurrencyAmountFromUint64(100),
	}
	d := NewDefault(cfg, discardLogger())

	ctx := activeCtx(1, true, types.PriceFromUint64(100))
	ctx.LastCheckpoint.CumulativeMps = types.MpsFull

	intents := d.Evaluate(ctx)
	if len(intents) != 1 || intents[0].Kind != types.IntentSkip {
		t.Fatalf("expected skip once the checkpoint reports sold out, got %+v", intents)
	}
}

func TestDefaultEvaluateActiveExitsITMOnceGraduated(t *testing.T) {
	cfg := Config{Target: types.CurrencyAmountFromUint64(0)}
	d := NewDefault(cfg, discardLogger())

	ctx := activeCtx(1, true, types.PriceFromUint64(100))
	c := cache.New()
	c.Update(types.TokenDepositReceived, types.Graduated, nil, false)
	ctx.Cache = c
	ctx.Bids = []types.Bid{
		{Id: types.BidIdFromUint64(1), MaxPrice: types.PriceFromUint64(150)}, // ITM
		{Id: types.BidIdFromUint64(2), MaxPrice: types.PriceFromUint64(50)},  // OTM
	}

	intents := d.Evaluate(ctx)
	if len(intents) != 1 || intents[0].Kind != types.IntentExit {
		t.Fatalf("expected a single exit intent for the ITM bid, got %+v", intents)
	}
	if !intents[0].ExitBid.Eq(types.BidIdFromUint64(1)) {
		t.Fatalf("expected exit for bid 1, got %s", intents[0].ExitBid)
	}
}

func TestDefaultEvaluateBacksOffOnVolatility(t *testing.T) {
	cfg := Config{
		MaxPrice:              types.PriceFromUint64(500),
		BidChunk:              types.CurrencyAmountFromUint64(10),
		Target:                types.CurrencyAmountFromUint64(100),
		FlowWindowBlocks:      10,
		FlowVolatileThreshold: 0.1,
		FlowCooldownBlocks:    5,
	}
	d := NewDefault(cfg, discardLogger())

	d.Evaluate(activeCtx(1, true, types.PriceFromUint64(100)))
	intents := d.Evaluate(activeCtx(2, true, types.PriceFromUint64(200)))
	if intents[0].Kind != types.IntentSkip {
		t.Fatalf("expected skip immediately after a volatile clearing-price move, got %+v", intents)
	}
}

func TestDefaultOnOutcomeRevertsFailedSubmission(t *testing.T) {
	cfg := Config{
		MaxPrice: types.PriceFromUint64(500),
		BidChunk: types.CurrencyAmountFromUint64(10),
		Target:   types.CurrencyAmountFromUint64(10),
	}
	d := NewDefault(cfg, discardLogger())

	intents := d.Evaluate(activeCtx(1, false, types.Price{}))
	submitted := intents[0]
	if got := d.inventory.Committed(); got.Big().Int64() != 10 {
		t.Fatalf("expected optimistic commit of 10, got %s", got)
	}

	d.OnOutcome(types.Failed(submitted, errBoom))
	if got := d.inventory.Committed(); !got.IsZero() {
		t.Fatalf("expected commit to be reverted on failure, got %s", got)
	}
}

func endedCtx(block types.BlockNumber, bids []types.Bid) executor.EvaluationContext {
	config := types.AuctionConfig{StartBlock: 0, EndBlock: 10, ClaimBlock: 20}
	ids := make([]types.BidId, len(bids))
	for i, b := range bids {
		ids[i] = b.Id
	}
	return executor.EvaluationContext{
		Phase:       types.ComputePhase(config, block, types.TokenDepositReceived),
		Cache:       cache.New(),
		TrackedBids: ids,
		Bids:        bids,
	}
}

func TestDefaultEvaluateEndedExitsOnlyBidsNeedingExit(t *testing.T) {
	cfg := Config{Target: types.CurrencyAmountFromUint64(0)}
	d := NewDefault(cfg, discardLogger())

	exitedBlock := types.BlockNumber(9)
	ctx := endedCtx(15, []types.Bid{
		{Id: types.BidIdFromUint64(1)},                            // not yet exited
		{Id: types.BidIdFromUint64(2), ExitedBlock: &exitedBlock}, // already exited
	})

	intents := d.Evaluate(ctx)
	if len(intents) != 1 || intents[0].Kind != types.IntentExit {
		t.Fatalf("expected a single exit intent for the unexited bid, got %+v", intents)
	}
	if !intents[0].ExitBid.Eq(types.BidIdFromUint64(1)) {
		t.Fatalf("expected exit for bid 1, got %s", intents[0].ExitBid)
	}
}

func TestDefaultEvaluateEndedSkipsWhenAllBidsAlreadyExited(t *testing.T) {
	cfg := Config{Target: types.CurrencyAmountFromUint64(0)}
	d := NewDefault(cfg, discardLogger())

	exitedBlock := types.BlockNumber(9)
	ctx := endedCtx(15, []types.Bid{
		{Id: types.BidIdFromUint64(1), ExitedBlock: &exitedBlock},
	})

	intents := d.Evaluate(ctx)
	if len(intents) != 1 || intents[0].Kind != types.IntentSkip {
		t.Fatalf("expected skip once every tracked bid has already been exited, got %+v", intents)
	}
}

func TestDefaultEvaluateClaimableClaimsOnlyBidsNeedingClaim(t *testing.T) {
	cfg := Config{Target: types.CurrencyAmountFromUint64(0)}
	d := NewDefault(cfg, discardLogger())

	exitedBlock := types.BlockNumber(9)
	config := types.AuctionConfig{StartBlock: 0, EndBlock: 10, ClaimBlock: 20}
	bids := []types.Bid{
		{Id: types.BidIdFromUint64(1), ExitedBlock: &exitedBlock, TokensFilled: types.TokenAmountFromUint64(5)}, // needs claim
		{Id: types.BidIdFromUint64(2), ExitedBlock: &exitedBlock, TokensFilled: types.TokenAmountFromUint64(0)}, // already claimed
	}
	ids := []types.BidId{bids[0].Id, bids[1].Id}
	ctx := executor.EvaluationContext{
		Phase:       types.ComputePhase(config, 25, types.TokenDepositReceived),
		Cache:       cache.New(),
		TrackedBids: ids,
		Bids:        bids,
	}

	intents := d.Evaluate(ctx)
	if len(intents) != 1 || intents[0].Kind != types.IntentClaim {
		t.Fatalf("expected a single claim intent, got %+v", intents)
	}
	if len(intents[0].ClaimIds) != 1 || !intents[0].ClaimIds[0].Eq(bids[0].Id) {
		t.Fatalf("expected claim to cover only the bid still needing one, got %+v", intents[0].ClaimIds)
	}
}

func TestDefaultEvaluateClaimableSkipsWhenNoneNeedClaim(t *testing.T) {
	cfg := Config{Target: types.CurrencyAmountFromUint64(0)}
	d := NewDefault(cfg, discardLogger())

	exitedBlock := types.BlockNumber(9)
	config := types.AuctionConfig{StartBlock: 0, EndBlock: 10, ClaimBlock: 20}
	ctx := executor.EvaluationContext{
		Phase: types.ComputePhase(config, 25, types.TokenDepositReceived),
		Cache: cache.New(),
		Bids: []types.Bid{
			{Id: types.BidIdFromUint64(1), ExitedBlock: &exitedBlock, TokensFilled: types.TokenAmountFromUint64(0)},
		},
	}

	intents := d.Evaluate(ctx)
	if len(intents) != 1 || intents[0].Kind != types.IntentSkip {
		t.Fatalf("expected skip once nothing left to claim, got %+v", intents)
	}
}

type boomError struct{}

func (boomError) Error() string { return "boom" }

var errBoom = boomError{}
