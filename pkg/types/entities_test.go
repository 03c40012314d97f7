package types

import "testing"

func TestCheckpointRemainingMps(t *testing.T) {
	c := Checkpoint{CumulativeMps: 3_000_000}
	if got := c.RemainingMps(); got != 7_000_000 {
		t.Fatalf("RemainingMps = %d, want 7_000_000", got)
	}

	c.CumulativeMps = MpsFull
	if got := c.RemainingMps(); got != 0 {
		t.Fatalf("RemainingMps at full should be 0, got %d", got)
	}
}

func TestCheckpointIsTerminal(t *testing.T) {
	c := Checkpoint{NextBlock: TailSentinel}
	if !c.IsTerminal() {
		t.Fatalf("expected IsTerminal true when NextBlock is the tail sentinel")
	}

	c.NextBlock = 42
	if c.IsTerminal() {
		t.Fatalf("expected IsTerminal false with a real next block")
	}
}

func TestBidLifecycleNeedsExitNeedsClaim(t *testing.T) {
	active := Bid{}
	if !active.NeedsExit() {
		t.Fatalf("a bid with no ExitedBlock should still need exit")
	}
	if active.NeedsClaim() {
		t.Fatalf("an active bid should never need claim")
	}

	exitedBlock := BlockNumber(10)
	claimed := Bid{ExitedBlock: &exitedBlock, TokensFilled: TokenAmountFromUint64(0)}
	if claimed.NeedsExit() || claimed.NeedsClaim() {
		t.Fatalf("an exited bid with no fill needs neither exit nor claim")
	}

	pending := Bid{ExitedBlock: &exitedBlock, TokensFilled: TokenAmountFromUint64(5)}
	if pending.NeedsExit() {
		t.Fatalf("an exited bid should not need exit again")
	}
	if !pending.NeedsClaim() {
		t.Fatalf("an exited bid with a nonzero fill should need claim")
	}
}
