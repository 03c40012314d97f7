package hooks

import (
	"testing"

	"cca-agent/pkg/types"
)

func TestNoOpAcceptsEveryBid(t *testing.T) {
	var h ValidationHook = NoOp{}

	data, err := h.PrepareHookData(types.SubmitBidParams{}, types.AuctionState{})
	if err != nil {
		t.Fatalf("PrepareHookData: %v", err)
	}
	if len(data) != 0 {
		t.Fatalf("expected empty payload, got %v", data)
	}

	if err := h.Validate(types.SubmitBidParams{}, types.AuctionState{}); err != nil {
		t.Fatalf("Validate: expected nil, got %v", err)
	}
}
