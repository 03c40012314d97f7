package types

import "github.com/ethereum/go-ethereum/common"

// SubmitBidInput is what a strategy supplies; SubmitBidParams is what the
// client actually sends on-chain, after tick-hint computation and hook
// decoration (AuctionClient.PrepareBid).
type SubmitBidInput struct {
	MaxPrice Price
	Amount   CurrencyAmount
	Owner    common.Address
}

type SubmitBidParams struct {
	MaxPrice      Price
	Amount        CurrencyAmount
	Owner         common.Address
	PrevTickPrice Price
	HookData      []byte
	Value         CurrencyAmount // == Amount iff currency is native, else zero
}

type ExitBidParams struct {
	BidId BidId
}

// ExitHints is produced by AuctionClient.ComputeExitHints by walking the
// on-chain checkpoint list. OutbidBlock is nil when the bid was never
// outbid; LastFullyFilledCheckpointBlock is always set (it defaults to the
// bid's start block).
type ExitHints struct {
	LastFullyFilledCheckpointBlock BlockNumber
	OutbidBlock                    *BlockNumber
}

type ExitPartiallyFilledParams struct {
	BidId                          BidId
	LastFullyFilledCheckpointBlock BlockNumber
	OutbidBlock                    *BlockNumber // nil serializes as 0 on-chain
}

type ClaimParams struct {
	Owner  common.Address
	BidIds []BidId
}

type SubmitBidResult struct {
	BidId  BidId
	TxHash common.Hash
}

type ExitResult struct {
	BidId             BidId
	TokensFilled      TokenAmount
	CurrencyRefunded  CurrencyAmount
	TxHash            common.Hash
}

type ClaimResult struct {
	BidIds      []BidId
	TotalTokens TokenAmount
	TxHash      common.Hash
}
