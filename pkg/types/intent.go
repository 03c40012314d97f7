package types

// IntentKind discriminates the Intent union. The zero value is
// IntentSubmitBid, so every Intent must be built through one of the
// constructors below rather than a bare struct literal.
type IntentKind int

const (
	IntentSubmitBid IntentKind = iota
	IntentExit
	IntentClaim
	IntentSkip
)

// Intent is a declarative unit of work a Strategy wants the executor to
// perform this block. Only one payload field is meaningful, selected by
// Kind — Go has no tagged-union syntax, so this mirrors the shape of the
// source's enum the way a hand-rolled discriminated struct would.
type Intent struct {
	Kind     IntentKind
	Submit   SubmitBidInput
	ExitBid  BidId
	ClaimIds []BidId
}

func NewSubmitBidIntent(input SubmitBidInput) Intent {
	return Intent{Kind: IntentSubmitBid, Submit: input}
}

func NewExitIntent(id BidId) Intent { return Intent{Kind: IntentExit, ExitBid: id} }

func NewClaimIntent(ids []BidId) Intent { return Intent{Kind: IntentClaim, ClaimIds: ids} }

func NewSkipIntent() Intent { return Intent{Kind: IntentSkip} }

// IntentResultKind discriminates IntentResult.
type IntentResultKind int

const (
	ResultBidSubmitted IntentResultKind = iota
	ResultBidExited
	ResultTokensClaimed
	ResultSkipped
)

// IntentResult is the successful outcome of executing one Intent.
// ResultSkipped only ever arises at the orchestrator level (the executor is
// never invoked with an IntentSkip — the orchestrator filters those out
// before dispatch).
type IntentResult struct {
	Kind   IntentResultKind
	Submit SubmitBidResult
	Exit   ExitResult
	Claim  ClaimResult
}

// IntentOutcome is either a successful IntentResult or a failed attempt
// that never reached or survived the wire. A Failed outcome never aborts
// the orchestrator loop.
type IntentOutcome struct {
	Ok     bool
	Result IntentResult
	Intent Intent
	Err    error
}

func Succeeded(result IntentResult) IntentOutcome { return IntentOutcome{Ok: true, Result: result} }

func Failed(intent Intent, err error) IntentOutcome {
	return IntentOutcome{Ok: false, Intent: intent, Err: err}
}

// CompletionReason explains why Orchestrator.Run returned.
type CompletionReason int

const (
	ReasonAllBidsProcessed CompletionReason = iota
	ReasonAuctionEndedWithPending
	ReasonBlockStreamEnded
	ReasonError
)

func (r CompletionReason) String() string {
	switch r {
	case ReasonAllBidsProcessed:
		return "all_bids_processed"
	case ReasonAuctionEndedWithPending:
		return "auction_ended_with_pending"
	case ReasonBlockStreamEnded:
		return "block_stream_ended"
	case ReasonError:
		return "error"
	default:
		return "unknown"
	}
}

// OrchestratorResult is returned when Orchestrator.Run terminates.
type OrchestratorResult struct {
	BidsSubmitted uint32
	BidsExited    uint32
	TokensClaimed TokenAmount
	Reason        CompletionReason
	Err           error // set iff Reason == ReasonError
}
