// Package api exposes the agent's running state over HTTP and WebSocket,
// for an operator dashboard to poll or subscribe to. It never drives the
// agent — Orchestrator.Run keeps running identically whether or not a
// dashboard server is attached.
// Grounded on internal/api/types.go, fields re-themed from per-market
// order book/position/risk state to this agent's single-auction
// phase/checkpoint/guard/orchestrator state.
package api

import "time"

// DashboardSnapshot is the full state a freshly connected client (or a
// GET /api/snapshot poller) receives.
type DashboardSnapshot struct {
	Timestamp time.Time `json:"timestamp"`

	Auction      AuctionStatus      `json:"auction"`
	Orchestrator OrchestratorStats  `json:"orchestrator"`
	Guard        GuardStatus        `json:"guard"`
	Config       ConfigSummary      `json:"config"`
}

// AuctionStatus is a point-in-time view of the auction this agent
// operates against.
type AuctionStatus struct {
	Address        string  `json:"address"`
	CurrentBlock   uint64  `json:"current_block"`
	Phase          string  `json:"phase"`
	StartBlock     uint64  `json:"start_block"`
	EndBlock       uint64  `json:"end_block"`
	ClaimBlock     uint64  `json:"claim_block"`
	ClearingPrice  string  `json:"clearing_price"`
	CumulativeMps  uint32  `json:"cumulative_mps"`
	RemainingMps   uint32  `json:"remaining_mps"`
	IsSoldOut      bool    `json:"is_sold_out"`
	IsTerminal     bool    `json:"is_terminal"`
	Graduated      bool    `json:"graduated"`
	TokensReceived bool    `json:"tokens_received"`
	TrackedBids    int     `json:"tracked_bids"`
	HasCheckpoint  bool    `json:"has_checkpoint"`
}

// OrchestratorStats tallies what this run has done so far.
type OrchestratorStats struct {
	BidsSubmitted uint32 `json:"bids_submitted"`
	BidsExited    uint32 `json:"bids_exited"`
	TokensClaimed string `json:"tokens_claimed"`
}

// GuardStatus mirrors guard.Status in a JSON-friendly shape.
type GuardStatus struct {
	Tripped        bool   `json:"tripped"`
	TrippedUntil   uint64 `json:"tripped_until,omitempty"`
	FailureCount   int    `json:"failure_count"`
	FailureWindow  uint64 `json:"failure_window_blocks"`
	Cooldown       uint64 `json:"cooldown_blocks"`
	Threshold      int    `json:"failure_threshold"`
}

// ConfigSummary surfaces the operational knobs an operator cares about
// without leaking the private key or RPC URL.
type ConfigSummary struct {
	DryRun          bool    `json:"dry_run"`
	MaxPrice        string  `json:"max_price"`
	BidChunk        string  `json:"bid_chunk"`
	Target          string  `json:"target"`
	GuardThreshold  int     `json:"guard_failure_threshold"`
	GuardCooldown   uint64  `json:"guard_cooldown_blocks"`
}
