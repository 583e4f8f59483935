package contracts

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// The AquaFlux craft and mint entry points are not part of the published ABI,
// so their selectors are pinned instead of derived from a signature.
var (
	craftMethodID = hexutil.MustDecode("0x4c10b523")
	mintMethodID  = hexutil.MustDecode("0x75e7e053")
)

var (
	uint256Type, _ = abi.NewType("uint256", "", nil)
	bytesType, _   = abi.NewType("bytes", "", nil)
)

// PackClaimTokens returns calldata for the parameterless claimTokens() call
func PackClaimTokens() []byte {
	return crypto.Keccak256([]byte("claimTokens()"))[:4]
}

// PackCraft returns calldata that crafts CS tokens from the given amount of C and S
func PackCraft(amount *big.Int) ([]byte, error) {
	args := abi.Arguments{{Type: uint256Type}}
	encoded, err := args.Pack(amount)
	if err != nil {
		return nil, fmt.Errorf("failed to pack craft arguments: %v", err)
	}
	return append(append([]byte{}, craftMethodID...), encoded...), nil
}

// PackMint returns calldata that mints an AquaFlux NFT with a server-issued
// signature grant.
func PackMint(nftType *big.Int, expiresAt *big.Int, signature []byte) ([]byte, error) {
	args := abi.Arguments{
		{Type: uint256Type},
		{Type: uint256Type},
		{Type: bytesType},
	}
	encoded, err := args.Pack(nftType, expiresAt, signature)
	if err != nil {
		return nil, fmt.Errorf("failed to pack mint arguments: %v", err)
	}
	return append(append([]byte{}, mintMethodID...), encoded...), nil
}
