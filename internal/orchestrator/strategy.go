package orchestrator

import (
	"cca-agent/internal/executor"
	"cca-agent/pkg/types"
)

// Strategy decides what to do for one block. It must be pure and fast —
// all chain reads have already happened by the time Evaluate is called;
// ctx carries only what the executor's cache and tracked-bid list already
// know. Implementations must be safe for the orchestrator's single
// goroutine to call repeatedly; nothing here is called concurrently.
type Strategy interface {
	Evaluate(ctx executor.EvaluationContext) []types.Intent

	// OnOutcome is called once per executed intent, in order, right after
	// that intent runs and before the block's next intent executes. It lets a strategy learn from fills
	// (e.g. update inventory, observe the price a bid cleared at) without
	// making Evaluate itself perform any chain I/O.
	OnOutcome(outcome types.IntentOutcome)
}
