package api

import "time"

// StateProvider is implemented by the orchestrator. It reports state only
// — the dashboard never calls back into it to change behavior.
type StateProvider interface {
	DashboardEvents() <-chan DashboardEvent
	AuctionSnapshot() AuctionStatus
	GuardSnapshot() GuardStatus
	Stats() OrchestratorStats
}

// BuildSnapshot aggregates state from the orchestrator into one dashboard
// snapshot.
func BuildSnapshot(provider StateProvider, cfg ConfigSummary) DashboardSnapshot {
	return DashboardSnapshot{
		Timestamp:    time.Now(),
		Auction:      provider.AuctionSnapshot(),
		Orchestrator: provider.Stats(),
		Guard:        provider.GuardSnapshot(),
		Config:       cfg,
	}
}
