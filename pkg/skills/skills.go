package skills

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/pharos-hq/pharosbot/pkg/approval"
	"github.com/pharos-hq/pharosbot/pkg/wallet"
)

// TxSender submits calldata transactions and waits for them to be mined
type TxSender interface {
	SendCall(ctx context.Context, w *wallet.Wallet, to common.Address, value *big.Int, data []byte, gasLimit uint64) (*types.Receipt, error)
}

// Approver ensures ERC20 allowances before token transfers
type Approver interface {
	Ensure(ctx context.Context, token approval.Token, auth *bind.TransactOpts, owner common.Address, spender common.Address, amount *big.Int, unlimited bool) (bool, error)
}

// Session carries the per-wallet state a skill run needs
type Session struct {
	Wallet *wallet.Wallet
	Auth   *bind.TransactOpts
}

// NewSession pairs a wallet with its transactor
func NewSession(w *wallet.Wallet, auth *bind.TransactOpts) *Session {
	return &Session{Wallet: w, Auth: auth}
}
