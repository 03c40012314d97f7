package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ConfigError wraps a failure constructing an AuctionClient — fetching or
// decoding the static AuctionConfig. Construction failures are
// unrecoverable to the caller.
type ConfigError struct {
	Op  string
	Err error
}

func (e *ConfigError) Error() string { return fmt.Sprintf("config: %s: %v", e.Op, e.Err) }
func (e *ConfigError) Unwrap() error { return e.Err }
func (e *ConfigError) Kind() string  { return "config_error" }

// ValidationErrorKind enumerates every pure precondition rejection a
// validator may return. Order here has no significance — precedence is
// enforced by the validation functions themselves, not by this type.
type ValidationErrorKind int

const (
	AuctionNotStarted ValidationErrorKind = iota
	AuctionIsOver
	AuctionNotActive
	TokensNotReceived
	AmountTooSmall
	OwnerIsZeroAddress
	InvalidPrice
	AuctionSoldOut
	BidBelowClearingPrice
	AuctionNotOver
	BidAlreadyExited
	BidNotITM
	BidNotOutbid
	BidIsITM
	UseExitBidForRefund
	CannotPartiallyExitBeforeGraduation
	ClaimBlockNotReached
	NotGraduatedErr
	BidNotExited
	NoTokensToClaim
	OwnerMismatch
)

var validationErrorNames = map[ValidationErrorKind]string{
	AuctionNotStarted:                   "auction_not_started",
	AuctionIsOver:                       "auction_is_over",
	AuctionNotActive:                    "auction_not_active",
	TokensNotReceived:                   "tokens_not_received",
	AmountTooSmall:                      "amount_too_small",
	OwnerIsZeroAddress:                  "owner_is_zero_address",
	InvalidPrice:                        "invalid_price",
	AuctionSoldOut:                      "auction_sold_out",
	BidBelowClearingPrice:               "bid_below_clearing_price",
	AuctionNotOver:                      "auction_not_over",
	BidAlreadyExited:                    "bid_already_exited",
	BidNotITM:                           "bid_not_itm",
	BidNotOutbid:                        "bid_not_outbid",
	BidIsITM:                            "bid_is_itm",
	UseExitBidForRefund:                 "use_exit_bid_for_refund",
	CannotPartiallyExitBeforeGraduation: "cannot_partially_exit_before_graduation",
	ClaimBlockNotReached:                "claim_block_not_reached",
	NotGraduatedErr:                     "not_graduated",
	BidNotExited:                        "bid_not_exited",
	NoTokensToClaim:                     "no_tokens_to_claim",
	OwnerMismatch:                       "owner_mismatch",
}

// ValidationError is a pure, synchronous precondition rejection. It never
// reaches the wire — IntentExecutor returns it as a Failed IntentOutcome
// immediately.
type ValidationError struct {
	Kind_ ValidationErrorKind
}

func NewValidationError(kind ValidationErrorKind) *ValidationError { return &ValidationError{Kind_: kind} }

func (e *ValidationError) Error() string { return "validation: " + e.Kind_.String() }
func (e *ValidationError) Kind() string  { return e.Kind_.String() }

func (k ValidationErrorKind) String() string {
	if name, ok := validationErrorNames[k]; ok {
		return name
	}
	return "unknown_validation_error"
}

// HookError reports a ValidationHook rejection or malfunction.
type HookError struct {
	Reason string
	Stage  string // "prepare" | "validate"
	Err    error
}

func (e *HookError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("hook %s failed: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("hook rejected: %s", e.Reason)
}
func (e *HookError) Unwrap() error { return e.Err }
func (e *HookError) Kind() string  { return "hook_error" }

// StateError reports a failure reading auction state.
type StateError struct {
	Op  string
	Err error
}

func (e *StateError) Error() string { return fmt.Sprintf("state: %s: %v", e.Op, e.Err) }
func (e *StateError) Unwrap() error { return e.Err }
func (e *StateError) Kind() string  { return "state_error" }

var (
	ErrBidNotFound             = fmt.Errorf("bid not found")
	ErrFinalCheckpointNotCached = fmt.Errorf("final checkpoint not cached")
)

// TransactionError reports a failure in the write-path: sending,
// confirming, or decoding a transaction.
type TransactionError struct {
	Op     string
	TxHash common.Hash
	Err    error
}

func (e *TransactionError) Error() string {
	if (e.TxHash != common.Hash{}) {
		return fmt.Sprintf("transaction: %s: %s: %v", e.Op, e.TxHash.Hex(), e.Err)
	}
	return fmt.Sprintf("transaction: %s: %v", e.Op, e.Err)
}
func (e *TransactionError) Unwrap() error { return e.Err }
func (e *TransactionError) Kind() string  { return "transaction_error" }

func Reverted(txHash common.Hash) *TransactionError {
	return &TransactionError{Op: "send", TxHash: txHash, Err: fmt.Errorf("transaction reverted")}
}

func MissingEvent(name string, txHash common.Hash) *TransactionError {
	return &TransactionError{Op: "decode_receipt", TxHash: txHash, Err: fmt.Errorf("missing %s event", name)}
}

// BlockStreamError reports a fault in the underlying block transport.
// Nothing in this module constructs one: chain.BlockProducer logs
// transport faults and reconnects, and Orchestrator.Run reads a plain
// block channel, so a transport fault never ends Run with an error.
type BlockStreamError struct {
	Err error
}

func (e *BlockStreamError) Error() string { return fmt.Sprintf("block stream: %v", e.Err) }
func (e *BlockStreamError) Unwrap() error { return e.Err }
func (e *BlockStreamError) Kind() string  { return "block_stream_error" }
