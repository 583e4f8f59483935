package wallet

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Wallet pairs a signing key with its derived address.
type Wallet struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

// FromPrivateKey parses a 0x-prefixed hex private key into a Wallet
func FromPrivateKey(hexKey string) (*Wallet, error) {
	trimmed := strings.TrimPrefix(hexKey, "0x")
	key, err := crypto.HexToECDSA(trimmed)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %v", err)
	}

	return &Wallet{
		privateKey: key,
		address:    crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// Address returns the wallet's derived address
func (w *Wallet) Address() common.Address {
	return w.address
}

// PrivateKey returns the wallet's signing key
func (w *Wallet) PrivateKey() *ecdsa.PrivateKey {
	return w.privateKey
}

// SignPersonal signs a message with the EIP-191 personal-sign scheme and
// returns the 65-byte signature as a 0x-prefixed hex string with the
// recovery byte adjusted to the 27/28 convention.
func (w *Wallet) SignPersonal(message []byte) (string, error) {
	hash := accounts.TextHash(message)
	sig, err := crypto.Sign(hash, w.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign message: %v", err)
	}
	sig[64] += 27
	return hexutil.Encode(sig), nil
}
