package contracts

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TipMetaData contains the ABI of the Primus tipping contract
const TipMetaData = `[
	{"inputs":[
		{"name":"token","type":"tuple","components":[
			{"name":"tokenType","type":"uint32"},
			{"name":"tokenAddress","type":"address"}
		]},
		{"name":"recipient","type":"tuple","components":[
			{"name":"idSource","type":"string"},
			{"name":"id","type":"string"},
			{"name":"amount","type":"uint256"},
			{"name":"nftIds","type":"uint256[]"}
		]}
	],"name":"tip","outputs":[],"stateMutability":"payable","type":"function"}
]`

var tipABI = mustParseABI(TipMetaData)

// TipToken identifies the asset being tipped. Token type 1 with the zero
// address means the native coin.
type TipToken struct {
	TokenType    uint32
	TokenAddress common.Address
}

// TipRecipient identifies who receives the tip on an external platform
type TipRecipient struct {
	IdSource string
	Id       string
	Amount   *big.Int
	NftIds   []*big.Int
}

// PackTip returns calldata for a Primus tip call
func PackTip(token TipToken, recipient TipRecipient) ([]byte, error) {
	if recipient.NftIds == nil {
		recipient.NftIds = []*big.Int{}
	}
	data, err := tipABI.Pack("tip", token, recipient)
	if err != nil {
		return nil, fmt.Errorf("failed to pack tip arguments: %v", err)
	}
	return data, nil
}
