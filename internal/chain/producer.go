// producer.go implements the block producer: a push feed (eth_subscribe
// newHeads) that falls back to polling (eth_blockNumber) when the backing
// RPC transport does not support subscriptions (most HTTP-only providers).
//
// Both feeds auto-reconnect with exponential backoff (1s -> 30s max),
// mirroring ws.go's WSFeed.Run. Emitted BlockNumbers are strictly
// monotonic increasing but make no contiguity guarantee — a burst of
// blocks produced between two polling ticks, or a subscription gap during
// reconnect, can skip numbers. Callers must not assume every block number
// arrives.
package chain

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"

	cctypes "cca-agent/pkg/types"
)

const (
	maxReconnectWait   = 30 * time.Second
	headChannelBuffer  = 16
	defaultPollPeriod  = 2 * time.Second
)

// ChainReader is the subset of ethclient.Client the producer depends on,
// kept narrow so tests can supply a fake.
type ChainReader interface {
	SubscribeNewHead(ctx context.Context, ch chan<- *types.Header) (ethereum.Subscription, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

// BlockProducer emits each newly observed chain head on Blocks(). It owns
// its output channel for its entire lifetime; callers must drain it.
type BlockProducer struct {
	client       ChainReader
	pollInterval time.Duration
	logger       *slog.Logger
	out          chan cctypes.BlockNumber
}

func NewBlockProducer(client ChainReader, pollInterval time.Duration, logger *slog.Logger) *BlockProducer {
	if pollInterval <= 0 {
		pollInterval = defaultPollPeriod
	}
	return &BlockProducer{
		client:       client,
		pollInterval: pollInterval,
		logger:       logger.With("component", "block_producer"),
		out:          make(chan cctypes.BlockNumber, headChannelBuffer),
	}
}

// Blocks returns the read-only stream of observed block numbers.
func (p *BlockProducer) Blocks() <-chan cctypes.BlockNumber { return p.out }

// Run drives the producer until ctx is cancelled, reconnecting the
// subscription (or polling loop) with exponential backoff on failure.
func (p *BlockProducer) Run(ctx context.Context) error {
	backoff := time.Second
	var last cctypes.BlockNumber
	haveLast := false

	for {
		err := p.subscribeAndRead(ctx, &last, &haveLast)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		p.logger.Warn("block feed disconnected, reconnecting", "error", err, "backoff", backoff)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > maxReconnectWait {
			backoff = maxReconnectWait
		}
	}
}

func (p *BlockProducer) subscribeAndRead(ctx context.Context, last *cctypes.BlockNumber, haveLast *bool) error {
	headCh := make(chan *types.Header, headChannelBuffer)
	sub, err := p.client.SubscribeNewHead(ctx, headCh)
	if err != nil {
		p.logger.Warn("newHeads subscription unavailable, polling instead", "error", err)
		return p.pollLoop(ctx, last, haveLast)
	}
	defer sub.Unsubscribe()

	p.logger.Info("block feed subscribed")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sub.Err():
			return fmt.Errorf("subscription: %w", err)
		case h := <-headCh:
			p.emit(ctx, cctypes.BlockNumber(h.Number.Uint64()), last, haveLast)
		}
	}
}

func (p *BlockProducer) pollLoop(ctx context.Context, last *cctypes.BlockNumber, haveLast *bool) error {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n, err := p.client.BlockNumber(ctx)
			if err != nil {
				return fmt.Errorf("eth_blockNumber: %w", err)
			}
			p.emit(ctx, cctypes.BlockNumber(n), last, haveLast)
		}
	}
}

func (p *BlockProducer) emit(ctx context.Context, bn cctypes.BlockNumber, last *cctypes.BlockNumber, haveLast *bool) {
	if *haveLast && bn <= *last {
		return
	}
	*last = bn
	*haveLast = true
	select {
	case p.out <- bn:
	case <-ctx.Done():
	}
}
