package guard

import (
	"io"
	"log/slog"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"cca-agent/pkg/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func txFailure() types.IntentOutcome {
	return types.Failed(types.NewSkipIntent(), types.Reverted(common.Hash{}))
}

func validationFailure() types.IntentOutcome {
	return types.Failed(types.NewSkipIntent(), types.NewValidationError(types.AmountTooSmall))
}

func TestGuardTripsAfterConsecutiveTransactionFailures(t *testing.T) {
	g := New(Config{FailureThreshold: 3, Window: 10, Cooldown: 50}, testLogger())

	g.process(report{outcome: txFailure(), block: 1})
	g.process(report{outcome: txFailure(), block: 2})
	if g.IsTripped(2) {
		t.Fatalf("guard should not trip before reaching the threshold")
	}

	g.process(report{outcome: txFailure(), block: 3})
	if !g.IsTripped(3) {
		t.Fatalf("guard should trip on the third consecutive transaction failure")
	}

	select {
	case sig := <-g.tripCh:
		if sig.Block != 3 {
			t.Fatalf("expected trip signal at block 3, got %d", sig.Block)
		}
	default:
		t.Fatalf("expected a trip signal to be published")
	}
}

func TestGuardIgnoresValidationErrors(t *testing.T) {
	g := New(Config{FailureThreshold: 2, Window: 10, Cooldown: 50}, testLogger())

	g.process(report{outcome: validationFailure(), block: 1})
	g.process(report{outcome: validationFailure(), block: 2})
	g.process(report{outcome: validationFailure(), block: 3})

	if g.IsTripped(3) {
		t.Fatalf("routine validation rejections must never trip the guard")
	}
}

func TestGuardEvictsStaleFailuresOutsideWindow(t *testing.T) {
	g := New(Config{FailureThreshold: 3, Window: 2, Cooldown: 50}, testLogger())

	g.process(report{outcome: txFailure(), block: 1})
	g.process(report{outcome: txFailure(), block: 2})
	// block 1 is now outside the 2-block window measured from block 10.
	g.process(report{outcome: txFailure(), block: 10})

	if g.IsTripped(10) {
		t.Fatalf("a stale failure evicted by the window must not count toward the threshold")
	}
}

func TestGuardResetsAfterCooldown(t *testing.T) {
	g := New(Config{FailureThreshold: 1, Window: 10, Cooldown: 5}, testLogger())

	g.process(report{outcome: txFailure(), block: 1})
	if !g.IsTripped(1) {
		t.Fatalf("guard should trip immediately at the threshold")
	}
	if !g.IsTripped(5) {
		t.Fatalf("guard should remain tripped inside the cooldown window")
	}
	if g.IsTripped(6) {
		t.Fatalf("guard should clear once the cooldown window has elapsed")
	}

	// After clearing, a fresh failure streak must be able to trip it again.
	g.process(report{outcome: txFailure(), block: 6})
	if !g.IsTripped(6) {
		t.Fatalf("guard should be able to trip again after resetting")
	}
}

func TestGuardReportDropsOnFullChannelWithoutBlocking(t *testing.T) {
	g := New(Config{FailureThreshold: 3, Window: 10, Cooldown: 50}, testLogger())

	// Fill the buffered channel past capacity; must never block the caller.
	for i := 0; i < 128; i++ {
		g.Report(txFailure(), types.BlockNumber(i))
	}
}

func TestGuardSnapshotReportsStateWithoutClearingCooldown(t *testing.T) {
	g := New(Config{FailureThreshold: 1, Window: 10, Cooldown: 5}, testLogger())

	g.process(report{outcome: txFailure(), block: 1})

	snap := g.Snapshot()
	if !snap.Tripped {
		t.Fatalf("expected Snapshot to report tripped state")
	}
	if snap.TrippedUntil != 6 {
		t.Fatalf("TrippedUntil = %d, want 6", snap.TrippedUntil)
	}
	if snap.Threshold != 1 || snap.Window != 10 || snap.Cooldown != 5 {
		t.Fatalf("Snapshot did not echo the breaker's configured thresholds: %+v", snap)
	}

	// Unlike IsTripped, polling Snapshot past the cooldown must not clear it.
	_ = g.Snapshot()
	if !g.IsTripped(1) {
		t.Fatalf("Snapshot must not mutate breaker state")
	}
}

func TestGuardTripSignalCarriesTransactionErrorReason(t *testing.T) {
	g := New(Config{FailureThreshold: 1, Window: 10, Cooldown: 50}, testLogger())

	cause := types.MissingEvent("BidSubmitted", common.Hash{})
	outcome := types.Failed(types.NewSkipIntent(), cause)
	g.process(report{outcome: outcome, block: 1})

	select {
	case sig := <-g.tripCh:
		if sig.Reason != cause.Error() {
			t.Fatalf("expected trip reason %q, got %q", cause.Error(), sig.Reason)
		}
	default:
		t.Fatalf("expected a trip signal")
	}
}
