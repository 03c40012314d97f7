package chain

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

const erc20ABIJSON = `[
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"type":"uint8"}]}
]`

// ERC20 is the minimal read-only surface needed to observe token-deposit
// status ahead of an auction's PreTokens -> Active transition.
type ERC20 struct {
	address common.Address
	abi     abi.ABI
	bound   *bind.BoundContract
}

func NewERC20(address common.Address, backend bind.ContractBackend) (*ERC20, error) {
	parsed, err := abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		return nil, err
	}
	return &ERC20{
		address: address,
		abi:     parsed,
		bound:   bind.NewBoundContract(address, parsed, backend, backend, backend),
	}, nil
}

func (e *ERC20) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	var out []interface{}
	if err := e.bound.Call(&bind.CallOpts{Context: ctx}, &out, "balanceOf", account); err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}
