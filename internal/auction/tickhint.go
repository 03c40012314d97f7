package auction

import (
	"context"

	"cca-agent/pkg/types"
)

// ComputePrevTickPrice walks the on-chain tick list forward from the
// floor price (or the next active tick, if it sits below maxPrice) until
// it finds the tick immediately preceding maxPrice. The contract's
// submitBid call needs this as an insertion hint for its linked list.
// Ported from original_source/crates/core/src/client.rs
// compute_prev_tick_price.
func (c *AuctionClient) ComputePrevTickPrice(ctx context.Context, maxPrice types.Price) (types.Price, error) {
	if err := c.rateLimiter.Read.Wait(ctx); err != nil {
		return types.Price{}, err
	}
	prev := c.config.FloorPrice

	nextActiveRaw, err := c.cca.NextActiveTickPrice(ctx)
	if err != nil {
		return types.Price{}, err
	}
	nextActive := types.PriceFromBig(nextActiveRaw)
	if nextActive.LT(maxPrice) && nextActive.GE(prev) {
		prev = nextActive
	}

	for {
		if err := c.rateLimiter.Read.Wait(ctx); err != nil {
			return types.Price{}, err
		}
		nextRaw, err := c.cca.TickNext(ctx, prev.Big())
		if err != nil {
			return types.Price{}, err
		}
		next := types.PriceFromBig(nextRaw)

		if next.GE(maxPrice) {
			return prev, nil
		}
		if next.Eq(prev) {
			return prev, nil
		}
		prev = next
	}
}
