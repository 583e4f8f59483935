package contracts

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ERC20MetaData contains the ABI used to interact with ERC20 tokens
const ERC20MetaData = `[
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"stateMutability":"view","type":"function"},
	{"constant":false,"inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"},
	{"constant":true,"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

// ERC20 is a minimal binding around an ERC20 token contract
type ERC20 struct {
	address  common.Address
	contract *bind.BoundContract
}

// NewERC20 creates a new ERC20 instance bound to the given address
func NewERC20(address common.Address, backend bind.ContractBackend) (*ERC20, error) {
	parsed, err := abi.JSON(strings.NewReader(ERC20MetaData))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC20 ABI: %v", err)
	}
	contract := bind.NewBoundContract(address, parsed, backend, backend, backend)
	return &ERC20{address: address, contract: contract}, nil
}

// Address returns the token contract address
func (t *ERC20) Address() common.Address {
	return t.address
}

// BalanceOf returns the token balance of the owner
func (t *ERC20) BalanceOf(opts *bind.CallOpts, owner common.Address) (*big.Int, error) {
	var out []interface{}
	err := t.contract.Call(opts, &out, "balanceOf", owner)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// Decimals returns the token's decimal places
func (t *ERC20) Decimals(opts *bind.CallOpts) (uint8, error) {
	var out []interface{}
	err := t.contract.Call(opts, &out, "decimals")
	if err != nil {
		return 0, err
	}
	return *abi.ConvertType(out[0], new(uint8)).(*uint8), nil
}

// Allowance returns the amount the spender may transfer on the owner's behalf
func (t *ERC20) Allowance(opts *bind.CallOpts, owner common.Address, spender common.Address) (*big.Int, error) {
	var out []interface{}
	err := t.contract.Call(opts, &out, "allowance", owner, spender)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// Approve authorizes the spender to transfer up to amount of the owner's tokens
func (t *ERC20) Approve(opts *bind.TransactOpts, spender common.Address, amount *big.Int) (*types.Transaction, error) {
	return t.contract.Transact(opts, "approve", spender, amount)
}
