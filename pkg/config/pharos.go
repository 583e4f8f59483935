package config

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Pharos testnet chain parameters.
const (
	PharosChainID     = 688688
	PharosNetworkName = "pharos"

	DefaultPharosRPCURL = "https://testnet.dplabs-internal.com"
)

// Token addresses on the Pharos testnet. PHRS is the native asset sentinel
// used by the aggregator API to denote the chain's gas token.
var (
	TokenPHRS = common.HexToAddress("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE")
	TokenUSDT = common.HexToAddress("0xD4071393f8716661958F766DF660033b3d35fD29")
	TokenUSDC = common.HexToAddress("0x72df0bcd7276f2dfbac900d1ce63c272c4bccced")
)

// AquaFlux contracts. The NFT contract doubles as the spender for the
// crafting tokens.
var (
	AquaFluxNFTAddress = common.HexToAddress("0xcc8cf44e196cab28dba2d514dc7353af0efb370e")

	AquaFluxTokenP  = common.HexToAddress("0xb5d3ca5802453cc06199b9c40c855a874946a92c")
	AquaFluxTokenC  = common.HexToAddress("0x4374fbec42e0d46e66b379c0a6072c910ef10b32")
	AquaFluxTokenS  = common.HexToAddress("0x5df839de5e5a68ffe83b89d430dc45b1c5746851")
	AquaFluxTokenCS = common.HexToAddress("0xceb29754c54b4bfbf83882cb0dcef727a259d60a")
)

// DODO and Primus contracts.
var (
	DodoRouterAddress   = common.HexToAddress("0x73CAfc894dBfC181398264934f7Be4e482fc9d40")
	LiquidityAddress    = common.HexToAddress("0x4b177aded3b8bd1d5d747f91b9e853513838cd49")
	DVMPoolAddress      = common.HexToAddress("0xff7129709ebd3485c4ed4fef6dd923025d24e730")
	PrimusTipAddress    = common.HexToAddress("0xd17512b7ec12880bd94eca9d774089ff89805f02")
)

// Per-leg swap amounts in the source token's smallest unit.
var (
	PHRSToUSDTAmount = mustParseBig("2450000000000000") // 0.00245 PHRS (18 decimals)
	USDTToPHRSAmount = big.NewInt(1000000)              // 1 USDT (6 decimals)
	PHRSToUSDCAmount = mustParseBig("2450000000000000") // 0.00245 PHRS (18 decimals)
	USDCToPHRSAmount = big.NewInt(1000000)              // 1 USDC (6 decimals)
)

// Liquidity provision amounts in the pool tokens' smallest units.
var (
	USDCLiquidityAmount = big.NewInt(10000)
	USDTLiquidityAmount = big.NewInt(30427)
)

// Tip amount bounds in wei (0.0000001 to 0.00000015 PHRS).
var (
	TipMinAmount = big.NewInt(100000000000)
	TipMaxAmount = big.NewInt(150000000000)
)

// Gas limits per call type.
const (
	ClaimGasLimit       = 300000
	CraftGasLimit       = 300000
	MintGasLimit        = 400000
	DefaultSwapGasLimit = 500000
	LiquidityGasLimit   = 500000
	TipGasLimit         = 300000
)

func mustParseBig(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("invalid big integer literal: " + s)
	}
	return v
}
