package api

import "time"

// DashboardEvent is the envelope for every message pushed to WebSocket
// clients. Data's concrete type is selected by Type.
type DashboardEvent struct {
	Type      string      `json:"type"` // "snapshot", "intent", "guard_trip", "block"
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// IntentEvent reports one executed intent's outcome.
type IntentEvent struct {
	Kind    string `json:"kind"`   // "submit_bid", "exit", "claim"
	Ok      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
	BidID   string `json:"bid_id,omitempty"`
	TxHash  string `json:"tx_hash,omitempty"`
	Block   uint64 `json:"block"`
}

// GuardTripEvent reports the breaker opening.
type GuardTripEvent struct {
	Block  uint64 `json:"block"`
	Reason string `json:"reason"`
}

// BlockEvent reports a new block observed by the orchestrator, cheap
// enough to emit every block without a full snapshot rebuild.
type BlockEvent struct {
	Block uint64 `json:"block"`
	Phase string `json:"phase"`
}

func NewIntentEvent(kind string, ok bool, errMsg, bidID, txHash string, block uint64) IntentEvent {
	return IntentEvent{Kind: kind, Ok: ok, Error: errMsg, BidID: bidID, TxHash: txHash, Block: block}
}

func NewGuardTripEvent(block uint64, reason string) GuardTripEvent {
	return GuardTripEvent{Block: block, Reason: reason}
}

func NewBlockEvent(block uint64, phase string) BlockEvent {
	return BlockEvent{Block: block, Phase: phase}
}
