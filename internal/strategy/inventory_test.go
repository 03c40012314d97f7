package strategy

import (
	"testing"

	"cca-agent/pkg/types"
)

func TestInventoryRemainingTracksCommitted(t *testing.T) {
	inv := NewInventory(types.CurrencyAmountFromUint64(100))

	if got := inv.Remaining(); got.Big().Int64() != 100 {
		t.Fatalf("fresh inventory should have full target remaining, got %s", got)
	}

	inv.RecordSubmission(types.CurrencyAmountFromUint64(40))
	if got := inv.Remaining(); got.Big().Int64() != 60 {
		t.Fatalf("expected 60 remaining, got %s", got)
	}
	if got := inv.Committed(); got.Big().Int64() != 40 {
		t.Fatalf("expected 40 committed, got %s", got)
	}
}

func TestInventoryRemainingClampsAtZero(t *testing.T) {
	inv := NewInventory(types.CurrencyAmountFromUint64(50))
	inv.RecordSubmission(types.CurrencyAmountFromUint64(50))
	inv.RecordSubmission(types.CurrencyAmountFromUint64(1))

	if got := inv.Remaining(); !got.IsZero() {
		t.Fatalf("remaining should clamp at zero once target is exceeded, got %s", got)
	}
}

func TestInventoryRevertUndoesSubmission(t *testing.T) {
	inv := NewInventory(types.CurrencyAmountFromUint64(100))
	inv.RecordSubmission(types.CurrencyAmountFromUint64(30))
	inv.Revert(types.CurrencyAmountFromUint64(30))

	if got := inv.Committed(); !got.IsZero() {
		t.Fatalf("revert should undo the submission, got %s committed", got)
	}
}

func TestInventoryRevertClampsAtZeroRatherThanPanicking(t *testing.T) {
	inv := NewInventory(types.CurrencyAmountFromUint64(100))
	inv.RecordSubmission(types.CurrencyAmountFromUint64(10))

	// Reverting more than is committed must not panic.
	inv.Revert(types.CurrencyAmountFromUint64(999))

	if got := inv.Committed(); !got.IsZero() {
		t.Fatalf("over-revert should clamp committed to zero, got %s", got)
	}
}

func TestInventoryRecordSubmissionOverflowPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on committed overflow")
		}
	}()

	max := types.CurrencyAmountFromBig(maxUint256())
	inv := NewInventory(max)
	inv.RecordSubmission(max)
	inv.RecordSubmission(types.CurrencyAmountFromUint64(1))
}
