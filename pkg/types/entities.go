package types

import "github.com/ethereum/go-ethereum/common"

// AuctionConfig is fetched once at client construction and cached for the
// agent's lifetime. Invariant: StartBlock < EndBlock <= ClaimBlock;
// FloorPrice > 0; TickSpacing >= MinTickSpacing.
type AuctionConfig struct {
	Address        common.Address
	StartBlock     BlockNumber
	EndBlock       BlockNumber
	ClaimBlock     BlockNumber
	TotalSupply    TokenAmount
	TickSpacing    TickSpacing
	FloorPrice     Price
	MaxBidPrice    Price
	Currency       CurrencyAddr
	Token          TokenAddr
	ValidationHook HookAddr
}

// IsValidPrice reports whether price sits strictly above the floor, at or
// below the ceiling, and on the tick lattice.
func (c AuctionConfig) IsValidPrice(price Price) bool {
	return price.GT(c.FloorPrice) && price.LE(c.MaxBidPrice) && price.IsAligned(c.TickSpacing)
}

func (c AuctionConfig) IsNativeCurrency() bool { return c.Currency.IsNative() }

// Checkpoint is a snapshot of the clearing price at some block, linked into
// the on-chain checkpoint list via PrevBlock/NextBlock.
type Checkpoint struct {
	Block          BlockNumber
	ClearingPrice  Price
	CumulativeMps  Mps
	PrevBlock      BlockNumber
	NextBlock      BlockNumber
}

func (c Checkpoint) RemainingMps() Mps {
	if c.CumulativeMps >= MpsFull {
		return 0
	}
	return MpsFull - c.CumulativeMps
}

func (c Checkpoint) IsSoldOut() bool  { return c.CumulativeMps.IsSoldOut() }
func (c Checkpoint) IsTerminal() bool { return c.NextBlock.IsTail() }

// BidStatus classifies a bid's max price relative to a clearing price.
type BidStatus int

const (
	ITM BidStatus = iota // in-the-money: max_price > clearing
	ATM                  // at-the-money: max_price == clearing
	OTM                  // out-of-the-money: max_price < clearing
)

func (s BidStatus) String() string {
	switch s {
	case ITM:
		return "ITM"
	case ATM:
		return "ATM"
	case OTM:
		return "OTM"
	default:
		return "unknown"
	}
}

// BidLifecycle is a derived view of a Bid's progress.
type BidLifecycle int

const (
	LifecycleActive BidLifecycle = iota
	LifecycleExited
	LifecycleClaimed
)

// Bid is one position in the auction. ExitedBlock is nil while the bid has
// not been exited.
type Bid struct {
	Id                  BidId
	Owner               common.Address
	MaxPrice            Price
	Amount              CurrencyAmount
	StartBlock          BlockNumber
	StartCumulativeMps  Mps
	ExitedBlock         *BlockNumber
	TokensFilled        TokenAmount
}

// Status classifies the bid relative to a clearing price. Total: exactly
// one of ITM/ATM/OTM is returned.
func (b Bid) Status(clearing Price) BidStatus {
	switch {
	case b.MaxPrice.GT(clearing):
		return ITM
	case b.MaxPrice.Eq(clearing):
		return ATM
	default:
		return OTM
	}
}

// Lifecycle derives the bid's stage from ExitedBlock/TokensFilled.
func (b Bid) Lifecycle() BidLifecycle {
	if b.ExitedBlock == nil {
		return LifecycleActive
	}
	if b.TokensFilled.IsZero() {
		return LifecycleClaimed
	}
	return LifecycleExited
}

func (b Bid) NeedsExit() bool  { return b.ExitedBlock == nil }
func (b Bid) NeedsClaim() bool { return b.ExitedBlock != nil && !b.TokensFilled.IsZero() }

// TrackedBid is a bid id plus the transaction hash that submitted it, held
// in the orchestrator's session memory (and optionally persisted).
type TrackedBid struct {
	Id     BidId
	TxHash common.Hash
}
