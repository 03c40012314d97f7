package orchestrator

import (
	"testing"

	"cca-agent/internal/cache"
	"cca-agent/internal/executor"
	"cca-agent/pkg/types"
)

func claimablePhase() types.AuctionPhase {
	return types.ComputePhase(
		types.AuctionConfig{StartBlock: 0, EndBlock: 10, ClaimBlock: 20},
		25,
		types.TokenDepositReceived,
	)
}

func endedPhase() types.AuctionPhase {
	return types.ComputePhase(
		types.AuctionConfig{StartBlock: 0, EndBlock: 10, ClaimBlock: 20},
		15,
		types.TokenDepositReceived,
	)
}

func TestIsCompleteClaimableRequiresNoTrackedBids(t *testing.T) {
	c := cache.New()
	ctx := executor.EvaluationContext{Phase: claimablePhase(), Cache: c, TrackedBids: nil}
	if !isComplete(ctx) {
		t.Fatalf("claimable phase with no tracked bids should be complete")
	}

	ctx.TrackedBids = []types.BidId{types.BidIdFromUint64(1)}
	if isComplete(ctx) {
		t.Fatalf("claimable phase with tracked bids outstanding should not be complete")
	}
}

func TestIsCompleteEndedRequiresNotGraduated(t *testing.T) {
	c := cache.New()
	ctx := executor.EvaluationContext{Phase: endedPhase(), Cache: c, TrackedBids: nil}
	if !isComplete(ctx) {
		t.Fatalf("ended + not graduated + no tracked bids should be complete")
	}

	checkpoint := types.Checkpoint{}
	c.Update(types.TokenDepositReceived, types.Graduated, &checkpoint, true)
	if isComplete(ctx) {
		t.Fatalf("ended + graduated should not be complete (claim still pending)")
	}
}

func TestIsCompletePreEndedNeverComplete(t *testing.T) {
	c := cache.New()
	phase := types.ComputePhase(
		types.AuctionConfig{StartBlock: 0, EndBlock: 10, ClaimBlock: 20},
		5,
		types.TokenDepositReceived,
	)
	ctx := executor.EvaluationContext{Phase: phase, Cache: c}
	if isComplete(ctx) {
		t.Fatalf("active phase should never be complete")
	}
}

func TestAllSkip(t *testing.T) {
	if !allSkip([]types.Intent{types.NewSkipIntent(), types.NewSkipIntent()}) {
		t.Fatalf("all-skip slice should report true")
	}
	if allSkip([]types.Intent{types.NewSkipIntent(), types.NewExitIntent(types.BidIdFromUint64(1))}) {
		t.Fatalf("mixed slice should report false")
	}
	if !allSkip(nil) {
		t.Fatalf("empty slice should vacuously report true")
	}
}
