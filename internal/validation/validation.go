// Package validation implements the pure, synchronous precondition checks
// the intent executor runs before touching the chain. Every function here
// is total: for any input it returns either nil or a *types.ValidationError,
// and the rejection order within each function is the order a caller
// should reason about precedence.
package validation

import (
	"github.com/ethereum/go-ethereum/common"

	"cca-agent/pkg/types"
)

// SubmitBid checks whether input may be submitted against state and config.
// Checks run in the order listed; the first failing check wins.
func SubmitBid(input types.SubmitBidInput, state types.AuctionState, config types.AuctionConfig) error {
	switch {
	case state.CurrentBlock < config.StartBlock:
		return types.NewValidationError(types.AuctionNotStarted)
	case state.CurrentBlock >= config.EndBlock:
		return types.NewValidationError(types.AuctionIsOver)
	case !state.Phase.IsActive():
		return types.NewValidationError(types.AuctionNotActive)
	case state.TokensReceived != types.TokenDepositReceived:
		return types.NewValidationError(types.TokensNotReceived)
	case input.Amount.IsZero():
		return types.NewValidationError(types.AmountTooSmall)
	case input.Owner == (common.Address{}):
		return types.NewValidationError(types.OwnerIsZeroAddress)
	case !config.IsValidPrice(input.MaxPrice):
		return types.NewValidationError(types.InvalidPrice)
	case state.Checkpoint.IsSoldOut():
		return types.NewValidationError(types.AuctionSoldOut)
	case input.MaxPrice.LE(state.Checkpoint.ClearingPrice):
		return types.NewValidationError(types.BidBelowClearingPrice)
	default:
		return nil
	}
}

// ExitBid checks whether bid may be fully exited (the ITM path).
func ExitBid(bid types.Bid, state types.AuctionState, config types.AuctionConfig) error {
	switch {
	case state.CurrentBlock < config.EndBlock:
		return types.NewValidationError(types.AuctionNotOver)
	case bid.ExitedBlock != nil:
		return types.NewValidationError(types.BidAlreadyExited)
	case state.Graduation == types.Graduated && bid.Status(state.Checkpoint.ClearingPrice) != types.ITM:
		return types.NewValidationError(types.BidNotITM)
	default:
		return nil
	}
}

// ExitPartiallyFilled checks whether bid may be partially exited (the
// ATM/OTM path). Branches on (graduated, ended) exactly as tabulated in
// SPEC_FULL.md §4.6 — see DESIGN.md for the Open Question resolution on
// the BidIsITM branch.
func ExitPartiallyFilled(bid types.Bid, state types.AuctionState, config types.AuctionConfig) error {
	if bid.ExitedBlock != nil {
		return types.NewValidationError(types.BidAlreadyExited)
	}

	graduated := state.Graduation == types.Graduated
	ended := state.CurrentBlock >= config.EndBlock
	status := bid.Status(state.Checkpoint.ClearingPrice)

	switch {
	case graduated && !ended:
		if status == types.OTM {
			return nil
		}
		return types.NewValidationError(types.BidNotOutbid)
	case graduated && ended:
		if status == types.ITM {
			return types.NewValidationError(types.BidIsITM)
		}
		return nil
	case !graduated && ended:
		return types.NewValidationError(types.UseExitBidForRefund)
	default: // !graduated && !ended
		return types.NewValidationError(types.CannotPartiallyExitBeforeGraduation)
	}
}

// Claim checks whether bids may be claimed by expectedOwner.
func Claim(bids []types.Bid, expectedOwner common.Address, state types.AuctionState, config types.AuctionConfig) error {
	if state.CurrentBlock < config.ClaimBlock {
		return types.NewValidationError(types.ClaimBlockNotReached)
	}
	if state.Graduation != types.Graduated {
		return types.NewValidationError(types.NotGraduatedErr)
	}
	for _, bid := range bids {
		switch {
		case bid.ExitedBlock == nil:
			return types.NewValidationError(types.BidNotExited)
		case bid.TokensFilled.IsZero():
			return types.NewValidationError(types.NoTokensToClaim)
		case bid.Owner != expectedOwner:
			return types.NewValidationError(types.OwnerMismatch)
		}
	}
	return nil
}
