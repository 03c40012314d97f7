// Package chain holds the on-chain transport: the block producer, the
// hand-written ABI bindings for IContinuousClearingAuction/IERC20Minimal/
// Multicall3 (no abigen output exists in this repository — the Go
// toolchain is never invoked, so these are authored directly against the
// ABI JSON, in the same Call/Send/Abi shape blackhole.go's ContractClient
// uses), and the RPC-category rate limiter.
package chain

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"

	"cca-agent/pkg/types"
)

// ccaABIJSON is the ABI surface of IContinuousClearingAuction this agent
// consumes, ported from original_source/crates/abi/src/cca.rs.
const ccaABIJSON = `[
	{"type":"function","name":"startBlock","stateMutability":"view","inputs":[],"outputs":[{"type":"uint64"}]},
	{"type":"function","name":"endBlock","stateMutability":"view","inputs":[],"outputs":[{"type":"uint64"}]},
	{"type":"function","name":"claimBlock","stateMutability":"view","inputs":[],"outputs":[{"type":"uint64"}]},
	{"type":"function","name":"totalSupply","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"tickSpacing","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"floorPrice","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"MAX_BID_PRICE","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"MAX_BLOCK_NUMBER","stateMutability":"view","inputs":[],"outputs":[{"type":"uint64"}]},
	{"type":"function","name":"currency","stateMutability":"view","inputs":[],"outputs":[{"type":"address"}]},
	{"type":"function","name":"token","stateMutability":"view","inputs":[],"outputs":[{"type":"address"}]},
	{"type":"function","name":"validationHook","stateMutability":"view","inputs":[],"outputs":[{"type":"address"}]},
	{"type":"function","name":"latestCheckpoint","stateMutability":"view","inputs":[],"outputs":[
		{"name":"block","type":"uint64"},
		{"name":"clearingPrice","type":"uint256"},
		{"name":"cumulativeMps","type":"uint32"},
		{"name":"prevBlock","type":"uint64"},
		{"name":"nextBlock","type":"uint64"}
	]},
	{"type":"function","name":"checkpoints","stateMutability":"view","inputs":[{"type":"uint64"}],"outputs":[
		{"name":"block","type":"uint64"},
		{"name":"clearingPrice","type":"uint256"},
		{"name":"cumulativeMps","type":"uint32"},
		{"name":"prevBlock","type":"uint64"},
		{"name":"nextBlock","type":"uint64"}
	]},
	{"type":"function","name":"isGraduated","stateMutability":"view","inputs":[],"outputs":[{"type":"bool"}]},
	{"type":"function","name":"currencyRaised","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"lastCheckpointedBlock","stateMutability":"view","inputs":[],"outputs":[{"type":"uint64"}]},
	{"type":"function","name":"ticks","stateMutability":"view","inputs":[{"type":"uint256"}],"outputs":[{"name":"next","type":"uint256"}]},
	{"type":"function","name":"nextActiveTickPrice","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"bids","stateMutability":"view","inputs":[{"type":"uint256"}],"outputs":[
		{"name":"owner","type":"address"},
		{"name":"maxPrice","type":"uint256"},
		{"name":"amount","type":"uint256"},
		{"name":"startBlock","type":"uint64"},
		{"name":"startCumulativeMps","type":"uint32"},
		{"name":"exitedBlock","type":"uint64"},
		{"name":"tokensFilled","type":"uint256"}
	]},
	{"type":"function","name":"submitBid","stateMutability":"payable","inputs":[
		{"name":"maxPrice","type":"uint256"},
		{"name":"amount","type":"uint256"},
		{"name":"owner","type":"address"},
		{"name":"prevTickPrice","type":"uint256"},
		{"name":"hookData","type":"bytes"}
	],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"exitBid","stateMutability":"nonpayable","inputs":[{"name":"bidId","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"exitPartiallyFilledBid","stateMutability":"nonpayable","inputs":[
		{"name":"bidId","type":"uint256"},
		{"name":"lastFullyFilledCheckpointBlock","type":"uint64"},
		{"name":"outbidBlock","type":"uint64"}
	],"outputs":[]},
	{"type":"function","name":"claimTokens","stateMutability":"nonpayable","inputs":[{"name":"bidId","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"claimTokensBatch","stateMutability":"nonpayable","inputs":[
		{"name":"owner","type":"address"},
		{"name":"bidIds","type":"uint256[]"}
	],"outputs":[]},
	{"type":"event","name":"BidSubmitted","anonymous":false,"inputs":[
		{"name":"id","type":"uint256","indexed":true},
		{"name":"owner","type":"address","indexed":true},
		{"name":"price","type":"uint256","indexed":false},
		{"name":"amount","type":"uint256","indexed":false}
	]},
	{"type":"event","name":"BidExited","anonymous":false,"inputs":[
		{"name":"bidId","type":"uint256","indexed":true},
		{"name":"owner","type":"address","indexed":true},
		{"name":"tokensFilled","type":"uint256","indexed":false},
		{"name":"currencyRefunded","type":"uint256","indexed":false}
	]},
	{"type":"event","name":"TokensClaimed","anonymous":false,"inputs":[
		{"name":"bidId","type":"uint256","indexed":true},
		{"name":"owner","type":"address","indexed":true},
		{"name":"tokensFilled","type":"uint256","indexed":false}
	]}
]`

// CheckpointRaw mirrors the on-chain checkpoint tuple before conversion to
// types.Checkpoint.
type CheckpointRaw struct {
	Block         uint64
	ClearingPrice *big.Int
	CumulativeMps uint32
	PrevBlock     uint64
	NextBlock     uint64
}

func (r CheckpointRaw) ToCheckpoint() types.Checkpoint {
	return types.Checkpoint{
		Block:         types.BlockNumber(r.Block),
		ClearingPrice: types.PriceFromBig(r.ClearingPrice),
		CumulativeMps: types.Mps(r.CumulativeMps),
		PrevBlock:     types.BlockNumber(r.PrevBlock),
		NextBlock:     types.BlockNumber(r.NextBlock),
	}
}

// BidRaw mirrors the on-chain bid tuple.
type BidRaw struct {
	Owner              common.Address
	MaxPrice           *big.Int
	Amount             *big.Int
	StartBlock         uint64
	StartCumulativeMps uint32
	ExitedBlock        uint64 // 0 means "not exited" on-chain
	TokensFilled       *big.Int
}

func (r BidRaw) ToBid(id types.BidId) types.Bid {
	bid := types.Bid{
		Id:                 id,
		Owner:              r.Owner,
		MaxPrice:           types.PriceFromBig(r.MaxPrice),
		Amount:             types.CurrencyAmountFromBig(r.Amount),
		StartBlock:         types.BlockNumber(r.StartBlock),
		StartCumulativeMps: types.Mps(r.StartCumulativeMps),
		TokensFilled:       types.TokenAmountFromBig(r.TokensFilled),
	}
	if r.ExitedBlock != 0 {
		b := types.BlockNumber(r.ExitedBlock)
		bid.ExitedBlock = &b
	}
	return bid
}

// CCA is a hand-written binding over IContinuousClearingAuction, in the
// same Call/Send/Abi/ContractAddress shape as blackholedex's ContractClient.
type CCA struct {
	address common.Address
	abi     abi.ABI
	bound   *bind.BoundContract
}

func NewCCA(address common.Address, backend bind.ContractBackend) (*CCA, error) {
	parsed, err := abi.JSON(strings.NewReader(ccaABIJSON))
	if err != nil {
		return nil, err
	}
	return &CCA{
		address: address,
		abi:     parsed,
		bound:   bind.NewBoundContract(address, parsed, backend, backend, backend),
	}, nil
}

func (c *CCA) Address() common.Address { return c.address }
func (c *CCA) ABI() abi.ABI            { return c.abi }

func (c *CCA) call(ctx context.Context, result *[]interface{}, method string, args ...interface{}) error {
	opts := &bind.CallOpts{Context: ctx}
	return c.bound.Call(opts, result, method, args...)
}

func (c *CCA) StartBlock(ctx context.Context) (uint64, error) {
	var out []interface{}
	if err := c.call(ctx, &out, "startBlock"); err != nil {
		return 0, err
	}
	return *abi.ConvertType(out[0], new(uint64)).(*uint64), nil
}

func (c *CCA) EndBlock(ctx context.Context) (uint64, error) {
	var out []interface{}
	if err := c.call(ctx, &out, "endBlock"); err != nil {
		return 0, err
	}
	return *abi.ConvertType(out[0], new(uint64)).(*uint64), nil
}

func (c *CCA) ClaimBlock(ctx context.Context) (uint64, error) {
	var out []interface{}
	if err := c.call(ctx, &out, "claimBlock"); err != nil {
		return 0, err
	}
	return *abi.ConvertType(out[0], new(uint64)).(*uint64), nil
}

func (c *CCA) TotalSupply(ctx context.Context) (*big.Int, error) {
	var out []interface{}
	if err := c.call(ctx, &out, "totalSupply"); err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

func (c *CCA) TickSpacing(ctx context.Context) (*big.Int, error) {
	var out []interface{}
	if err := c.call(ctx, &out, "tickSpacing"); err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

func (c *CCA) FloorPrice(ctx context.Context) (*big.Int, error) {
	var out []interface{}
	if err := c.call(ctx, &out, "floorPrice"); err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

func (c *CCA) MaxBidPrice(ctx context.Context) (*big.Int, error) {
	var out []interface{}
	if err := c.call(ctx, &out, "MAX_BID_PRICE"); err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

func (c *CCA) Currency(ctx context.Context) (common.Address, error) {
	var out []interface{}
	if err := c.call(ctx, &out, "currency"); err != nil {
		return common.Address{}, err
	}
	return out[0].(common.Address), nil
}

func (c *CCA) Token(ctx context.Context) (common.Address, error) {
	var out []interface{}
	if err := c.call(ctx, &out, "token"); err != nil {
		return common.Address{}, err
	}
	return out[0].(common.Address), nil
}

func (c *CCA) ValidationHook(ctx context.Context) (common.Address, error) {
	var out []interface{}
	if err := c.call(ctx, &out, "validationHook"); err != nil {
		return common.Address{}, err
	}
	return out[0].(common.Address), nil
}

func (c *CCA) LatestCheckpoint(ctx context.Context) (CheckpointRaw, error) {
	var out []interface{}
	if err := c.call(ctx, &out, "latestCheckpoint"); err != nil {
		return CheckpointRaw{}, err
	}
	return decodeCheckpoint(out), nil
}

func (c *CCA) CheckpointAt(ctx context.Context, block uint64) (CheckpointRaw, error) {
	var out []interface{}
	if err := c.call(ctx, &out, "checkpoints", block); err != nil {
		return CheckpointRaw{}, err
	}
	return decodeCheckpoint(out), nil
}

func decodeCheckpoint(out []interface{}) CheckpointRaw {
	return CheckpointRaw{
		Block:         *abi.ConvertType(out[0], new(uint64)).(*uint64),
		ClearingPrice: out[1].(*big.Int),
		CumulativeMps: *abi.ConvertType(out[2], new(uint32)).(*uint32),
		PrevBlock:     *abi.ConvertType(out[3], new(uint64)).(*uint64),
		NextBlock:     *abi.ConvertType(out[4], new(uint64)).(*uint64),
	}
}

func (c *CCA) IsGraduated(ctx context.Context) (bool, error) {
	var out []interface{}
	if err := c.call(ctx, &out, "isGraduated"); err != nil {
		return false, err
	}
	return out[0].(bool), nil
}

func (c *CCA) CurrencyRaised(ctx context.Context) (*big.Int, error) {
	var out []interface{}
	if err := c.call(ctx, &out, "currencyRaised"); err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

func (c *CCA) LastCheckpointedBlock(ctx context.Context) (uint64, error) {
	var out []interface{}
	if err := c.call(ctx, &out, "lastCheckpointedBlock"); err != nil {
		return 0, err
	}
	return *abi.ConvertType(out[0], new(uint64)).(*uint64), nil
}

func (c *CCA) TickNext(ctx context.Context, price *big.Int) (*big.Int, error) {
	var out []interface{}
	if err := c.call(ctx, &out, "ticks", price); err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

func (c *CCA) NextActiveTickPrice(ctx context.Context) (*big.Int, error) {
	var out []interface{}
	if err := c.call(ctx, &out, "nextActiveTickPrice"); err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

func (c *CCA) BidAt(ctx context.Context, id *big.Int) (BidRaw, error) {
	var out []interface{}
	if err := c.call(ctx, &out, "bids", id); err != nil {
		return BidRaw{}, err
	}
	return BidRaw{
		Owner:              out[0].(common.Address),
		MaxPrice:           out[1].(*big.Int),
		Amount:             out[2].(*big.Int),
		StartBlock:         *abi.ConvertType(out[3], new(uint64)).(*uint64),
		StartCumulativeMps: *abi.ConvertType(out[4], new(uint32)).(*uint32),
		ExitedBlock:        *abi.ConvertType(out[5], new(uint64)).(*uint64),
		TokensFilled:       out[6].(*big.Int),
	}, nil
}

// --- write path ---

func (c *CCA) SubmitBid(opts *bind.TransactOpts, maxPrice, amount *big.Int, owner common.Address, prevTickPrice *big.Int, hookData []byte) (*gethtypes.Transaction, error) {
	return c.bound.Transact(opts, "submitBid", maxPrice, amount, owner, prevTickPrice, hookData)
}

func (c *CCA) ExitBid(opts *bind.TransactOpts, bidId *big.Int) (*gethtypes.Transaction, error) {
	return c.bound.Transact(opts, "exitBid", bidId)
}

func (c *CCA) ExitPartiallyFilledBid(opts *bind.TransactOpts, bidId *big.Int, lastFullyFilled, outbidBlock uint64) (*gethtypes.Transaction, error) {
	return c.bound.Transact(opts, "exitPartiallyFilledBid", bidId, lastFullyFilled, outbidBlock)
}

func (c *CCA) ClaimTokens(opts *bind.TransactOpts, bidId *big.Int) (*gethtypes.Transaction, error) {
	return c.bound.Transact(opts, "claimTokens", bidId)
}

func (c *CCA) ClaimTokensBatch(opts *bind.TransactOpts, owner common.Address, bidIds []*big.Int) (*gethtypes.Transaction, error) {
	return c.bound.Transact(opts, "claimTokensBatch", owner, bidIds)
}

// --- event decoding ---

type BidSubmittedEvent struct {
	Id    *big.Int
	Owner common.Address
	Price *big.Int
	Amount *big.Int
}

type BidExitedEvent struct {
	BidId            *big.Int
	Owner            common.Address
	TokensFilled     *big.Int
	CurrencyRefunded *big.Int
}

type TokensClaimedEvent struct {
	BidId        *big.Int
	Owner        common.Address
	TokensFilled *big.Int
}

// FindBidSubmitted searches receipt logs for the first decodable
// BidSubmitted event emitted by this contract.
func (c *CCA) FindBidSubmitted(logs []*gethtypes.Log) (*BidSubmittedEvent, bool) {
	id := c.abi.Events["BidSubmitted"].ID
	for _, log := range logs {
		if log.Address != c.address || len(log.Topics) == 0 || log.Topics[0] != id {
			continue
		}
		var evt struct {
			Price  *big.Int
			Amount *big.Int
		}
		if err := c.abi.UnpackIntoInterface(&evt, "BidSubmitted", log.Data); err != nil {
			continue
		}
		return &BidSubmittedEvent{
			Id:     new(big.Int).SetBytes(log.Topics[1].Bytes()),
			Owner:  common.BytesToAddress(log.Topics[2].Bytes()),
			Price:  evt.Price,
			Amount: evt.Amount,
		}, true
	}
	return nil, false
}

func (c *CCA) FindBidExited(logs []*gethtypes.Log) (*BidExitedEvent, bool) {
	id := c.abi.Events["BidExited"].ID
	for _, log := range logs {
		if log.Address != c.address || len(log.Topics) == 0 || log.Topics[0] != id {
			continue
		}
		var evt struct {
			TokensFilled     *big.Int
			CurrencyRefunded *big.Int
		}
		if err := c.abi.UnpackIntoInterface(&evt, "BidExited", log.Data); err != nil {
			continue
		}
		return &BidExitedEvent{
			BidId:            new(big.Int).SetBytes(log.Topics[1].Bytes()),
			Owner:            common.BytesToAddress(log.Topics[2].Bytes()),
			TokensFilled:     evt.TokensFilled,
			CurrencyRefunded: evt.CurrencyRefunded,
		}, true
	}
	return nil, false
}

// FindTokensClaimed returns every TokensClaimed log matching the given bid
// ids — a batch claim emits one per bid, and callers must sum TokensFilled
// across all of them.
func (c *CCA) FindTokensClaimed(logs []*gethtypes.Log, wantIds map[string]bool) []TokensClaimedEvent {
	id := c.abi.Events["TokensClaimed"].ID
	var out []TokensClaimedEvent
	for _, log := range logs {
		if log.Address != c.address || len(log.Topics) == 0 || log.Topics[0] != id {
			continue
		}
		bidId := new(big.Int).SetBytes(log.Topics[1].Bytes())
		if wantIds != nil && !wantIds[bidId.String()] {
			continue
		}
		var evt struct {
			TokensFilled *big.Int
		}
		if err := c.abi.UnpackIntoInterface(&evt, "TokensClaimed", log.Data); err != nil {
			continue
		}
		out = append(out, TokensClaimedEvent{
			BidId:        bidId,
			Owner:        common.BytesToAddress(log.Topics[2].Bytes()),
			TokensFilled: evt.TokensFilled,
		})
	}
	return out
}
