package types

// GraduationStatus records whether the auction has raised its minimum and
// tokens are deliverable. Upgrade-only once observed Graduated.
type GraduationStatus int

const (
	NotGraduated GraduationStatus = iota
	Graduated
)

// TokenDepositStatus records whether the auctioned supply has actually
// landed in the auction contract's balance.
type TokenDepositStatus int

const (
	TokenDepositUnknown TokenDepositStatus = iota
	TokenDepositNotReceived
	TokenDepositReceived
)

// AuctionPhase is the derived lifecycle stage of the auction at a block.
// Exactly one variant applies at any given (config, block) pair.
type AuctionPhase struct {
	kind            phaseKind
	blocksUntil     uint64 // valid for PreStart/Ended
	blocksRemaining uint64 // valid for Active
}

type phaseKind int

const (
	PhasePreStart phaseKind = iota
	PhasePreTokens
	PhaseActive
	PhaseEnded
	PhaseClaimable
)

func (p AuctionPhase) Kind() phaseKind { return p.kind }
func (p AuctionPhase) IsPreStart() bool  { return p.kind == PhasePreStart }
func (p AuctionPhase) IsPreTokens() bool { return p.kind == PhasePreTokens }
func (p AuctionPhase) IsActive() bool    { return p.kind == PhaseActive }
func (p AuctionPhase) IsEnded() bool     { return p.kind == PhaseEnded }
func (p AuctionPhase) IsClaimable() bool { return p.kind == PhaseClaimable }

// BlocksUntilStart is only meaningful when IsPreStart.
func (p AuctionPhase) BlocksUntilStart() uint64 { return p.blocksUntil }

// BlocksRemaining is only meaningful when IsActive.
func (p AuctionPhase) BlocksRemaining() uint64 { return p.blocksRemaining }

// BlocksUntilClaim is only meaningful when IsEnded.
func (p AuctionPhase) BlocksUntilClaim() uint64 { return p.blocksUntil }

func (p AuctionPhase) String() string {
	switch p.kind {
	case PhasePreStart:
		return "pre_start"
	case PhasePreTokens:
		return "pre_tokens"
	case PhaseActive:
		return "active"
	case PhaseEnded:
		return "ended"
	case PhaseClaimable:
		return "claimable"
	default:
		return "unknown"
	}
}

// ComputePhase derives the auction phase from config, the current block,
// and whether the auctioned tokens have been deposited.
func ComputePhase(config AuctionConfig, current BlockNumber, tokensReceived TokenDepositStatus) AuctionPhase {
	switch {
	case current < config.StartBlock:
		return AuctionPhase{kind: PhasePreStart, blocksUntil: uint64(config.StartBlock) - uint64(current)}
	case tokensReceived != TokenDepositReceived:
		return AuctionPhase{kind: PhasePreTokens}
	case current < config.EndBlock:
		return AuctionPhase{kind: PhaseActive, blocksRemaining: uint64(config.EndBlock) - uint64(current)}
	case current < config.ClaimBlock:
		return AuctionPhase{kind: PhaseEnded, blocksUntil: uint64(config.ClaimBlock) - uint64(current)}
	default:
		return AuctionPhase{kind: PhaseClaimable}
	}
}

// AuctionState is a point-in-time view of the auction.
type AuctionState struct {
	CurrentBlock   BlockNumber
	Phase          AuctionPhase
	Checkpoint     Checkpoint
	Graduation     GraduationStatus
	TokensReceived TokenDepositStatus
	CurrencyRaised CurrencyAmount
}

// CanSubmitBid is a cheap helper a strategy can use instead of re-deriving
// phase/sold-out logic inline.
func (s AuctionState) CanSubmitBid() bool {
	return s.Phase.IsActive() && !s.Checkpoint.IsSoldOut()
}

// CanEarlyExit reports whether an ITM exit is meaningful before the auction
// has ended (only once graduated).
func (s AuctionState) CanEarlyExit() bool {
	return s.Graduation == Graduated && s.Phase.IsActive()
}
