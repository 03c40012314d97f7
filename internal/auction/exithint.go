package auction

import (
	"context"

	"cca-agent/pkg/types"
)

// ComputeExitHints walks the checkpoint list forward from a bid's start
// block in two passes: first to find the last checkpoint that still fully
// filled the bid (clearing price below the bid's max), then to find the
// first checkpoint that strictly outbid it (clearing price above the
// bid's max). Both hints are required by exitPartiallyFilledBid so the
// contract doesn't have to re-walk the list on-chain.
// Ported from original_source/crates/core/src/client.rs compute_exit_hints.
func (c *AuctionClient) ComputeExitHints(ctx context.Context, bid types.Bid) (types.ExitHints, error) {
	if err := c.rateLimiter.Read.Wait(ctx); err != nil {
		return types.ExitHints{}, err
	}
	currentRaw, err := c.cca.CheckpointAt(ctx, uint64(bid.StartBlock))
	if err != nil {
		return types.ExitHints{}, err
	}
	current := currentRaw.ToCheckpoint()
	lastFullyFilled := bid.StartBlock

	for !current.IsTerminal() {
		nextBlock := current.NextBlock
		if err := c.rateLimiter.Read.Wait(ctx); err != nil {
			return types.ExitHints{}, err
		}
		nextRaw, err := c.cca.CheckpointAt(ctx, uint64(nextBlock))
		if err != nil {
			return types.ExitHints{}, err
		}
		next := nextRaw.ToCheckpoint()

		if next.ClearingPrice.GE(bid.MaxPrice) {
			break
		}
		lastFullyFilled = nextBlock
		current = next
	}

	var outbidBlock *types.BlockNumber
	for !current.IsTerminal() {
		nextBlock := current.NextBlock
		if err := c.rateLimiter.Read.Wait(ctx); err != nil {
			return types.ExitHints{}, err
		}
		nextRaw, err := c.cca.CheckpointAt(ctx, uint64(nextBlock))
		if err != nil {
			return types.ExitHints{}, err
		}
		next := nextRaw.ToCheckpoint()

		if next.ClearingPrice.GT(bid.MaxPrice) {
			b := nextBlock
			outbidBlock = &b
			break
		}
		current = next
	}

	return types.ExitHints{
		LastFullyFilledCheckpointBlock: lastFullyFilled,
		OutbidBlock:                    outbidBlock,
	}, nil
}
