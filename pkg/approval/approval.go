package approval

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/pharos-hq/pharosbot/pkg/config"
	"github.com/pharos-hq/pharosbot/pkg/logger"
	"github.com/pharos-hq/pharosbot/pkg/metrics"
)

var (
	// ErrInsufficientBalance is returned when the wallet holds less than the amount to spend
	ErrInsufficientBalance = errors.New("insufficient token balance")

	// ErrApprovalFailed is returned when an approve transaction reverts on-chain
	ErrApprovalFailed = errors.New("approve transaction failed")

	// MaxUint256 represents the maximum possible uint256 value (2^256 - 1)
	MaxUint256 = new(big.Int).Sub(new(big.Int).Exp(big.NewInt(2), big.NewInt(256), nil), big.NewInt(1))
)

// Token is the ERC20 surface the approval flow needs
type Token interface {
	Address() common.Address
	BalanceOf(opts *bind.CallOpts, owner common.Address) (*big.Int, error)
	Allowance(opts *bind.CallOpts, owner common.Address, spender common.Address) (*big.Int, error)
	Approve(opts *bind.TransactOpts, spender common.Address, amount *big.Int) (*types.Transaction, error)
}

// Manager ensures spenders hold sufficient ERC20 allowances before a
// transfer, skipping the approve transaction whenever the existing
// allowance already covers the amount.
type Manager struct {
	backend bind.DeployBackend
	logger  logger.Logger
}

// NewManager creates an approval manager over the given backend
func NewManager(backend bind.DeployBackend, log logger.Logger) *Manager {
	return &Manager{backend: backend, logger: log}
}

// Ensure checks balance and allowance for the owner and approves the spender
// when needed. With unlimited set the approval is MaxUint256, otherwise the
// exact amount. It returns true when a new approval was mined and false when
// no transaction was needed, either because the allowance already covered the
// amount or because the token is the native coin.
func (m *Manager) Ensure(
	ctx context.Context,
	token Token,
	auth *bind.TransactOpts,
	owner common.Address,
	spender common.Address,
	amount *big.Int,
	unlimited bool,
) (bool, error) {
	// the native coin needs no allowance
	if token.Address() == config.TokenPHRS {
		return false, nil
	}

	callOpts := &bind.CallOpts{Context: ctx}

	balance, err := token.BalanceOf(callOpts, owner)
	if err != nil {
		return false, fmt.Errorf("failed to check balance of %s: %v", token.Address().Hex(), err)
	}
	if balance.Cmp(amount) < 0 {
		return false, fmt.Errorf("%w: have %s, need %s for token %s",
			ErrInsufficientBalance, balance.String(), amount.String(), token.Address().Hex())
	}

	allowance, err := token.Allowance(callOpts, owner, spender)
	if err != nil {
		return false, fmt.Errorf("failed to check allowance of %s: %v", token.Address().Hex(), err)
	}
	if allowance.Cmp(amount) >= 0 {
		m.logger.Debug("allowance %s already covers %s for token %s, skipping approval",
			allowance.String(), amount.String(), token.Address().Hex())
		metrics.ApprovalsSkipped.Inc()
		return false, nil
	}

	approvalAmount := amount
	if unlimited {
		approvalAmount = MaxUint256
	}

	tx, err := token.Approve(auth, spender, approvalAmount)
	if err != nil {
		return false, fmt.Errorf("failed to approve token %s: %v", token.Address().Hex(), err)
	}

	receipt, err := bind.WaitMined(ctx, m.backend, tx)
	if err != nil {
		return false, fmt.Errorf("failed to wait for approve transaction %s: %v", tx.Hash().Hex(), err)
	}
	if receipt.Status == 0 {
		return false, fmt.Errorf("%w: transaction %s reverted", ErrApprovalFailed, tx.Hash().Hex())
	}

	m.logger.Info("approved %s for spender %s (tx %s, gas used: %d)",
		token.Address().Hex(), spender.Hex(), tx.Hash().Hex(), receipt.GasUsed)
	metrics.ApprovalsSubmitted.Inc()
	return true, nil
}
