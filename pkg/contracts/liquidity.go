package contracts

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// LiquidityMetaData contains the ABI of the DODO DVM liquidity proxy
const LiquidityMetaData = `[
	{"inputs":[
		{"name":"dvmAddress","type":"address"},
		{"name":"baseInAmount","type":"uint256"},
		{"name":"quoteInAmount","type":"uint256"},
		{"name":"baseMinAmount","type":"uint256"},
		{"name":"quoteMinAmount","type":"uint256"},
		{"name":"flag","type":"uint8"},
		{"name":"deadLine","type":"uint256"}
	],"name":"addDVMLiquidity","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`

var liquidityABI = mustParseABI(LiquidityMetaData)

// PackAddDVMLiquidity returns calldata for a DVM pool deposit
func PackAddDVMLiquidity(dvm common.Address, baseIn, quoteIn, baseMin, quoteMin *big.Int, flag uint8, deadline *big.Int) ([]byte, error) {
	data, err := liquidityABI.Pack("addDVMLiquidity", dvm, baseIn, quoteIn, baseMin, quoteMin, flag, deadline)
	if err != nil {
		return nil, fmt.Errorf("failed to pack addDVMLiquidity arguments: %v", err)
	}
	return data, nil
}

func mustParseABI(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(err)
	}
	return parsed
}
