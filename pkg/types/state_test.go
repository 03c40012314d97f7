package types

import "testing"

func activePhase() AuctionPhase {
	return ComputePhase(AuctionConfig{StartBlock: 0, EndBlock: 100, ClaimBlock: 200}, 50, TokenDepositReceived)
}

func TestAuctionStateCanSubmitBid(t *testing.T) {
	s := AuctionState{Phase: activePhase(), Checkpoint: Checkpoint{CumulativeMps: 0}}
	if !s.CanSubmitBid() {
		t.Fatalf("expected CanSubmitBid true while active and not sold out")
	}

	s.Checkpoint.CumulativeMps = MpsFull
	if s.CanSubmitBid() {
		t.Fatalf("expected CanSubmitBid false once sold out")
	}
}

func TestAuctionStateCanEarlyExit(t *testing.T) {
	s := AuctionState{Phase: activePhase(), Graduation: NotGraduated}
	if s.CanEarlyExit() {
		t.Fatalf("expected CanEarlyExit false before graduation")
	}

	s.Graduation = Graduated
	if !s.CanEarlyExit() {
		t.Fatalf("expected CanEarlyExit true once graduated and still active")
	}

	s.Phase = ComputePhase(AuctionConfig{StartBlock: 0, EndBlock: 100, ClaimBlock: 200}, 150, TokenDepositReceived)
	if s.CanEarlyExit() {
		t.Fatalf("expected CanEarlyExit false once the auction has ended")
	}
}
