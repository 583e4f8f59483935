package approval

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharos-hq/pharosbot/pkg/config"
	"github.com/pharos-hq/pharosbot/pkg/logger"
)

var (
	owner   = common.HexToAddress("0x1111111111111111111111111111111111111111")
	spender = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

// mockToken is a scripted ERC20 for approval flow tests
type mockToken struct {
	address        common.Address
	balance        *big.Int
	allowance      *big.Int
	approveCalls   int
	approvedAmount *big.Int
	approveErr     error
}

func (m *mockToken) Address() common.Address { return m.address }

func (m *mockToken) BalanceOf(_ *bind.CallOpts, _ common.Address) (*big.Int, error) {
	return m.balance, nil
}

func (m *mockToken) Allowance(_ *bind.CallOpts, _, _ common.Address) (*big.Int, error) {
	return m.allowance, nil
}

func (m *mockToken) Approve(_ *bind.TransactOpts, _ common.Address, amount *big.Int) (*types.Transaction, error) {
	m.approveCalls++
	m.approvedAmount = amount
	if m.approveErr != nil {
		return nil, m.approveErr
	}
	return types.NewTx(&types.LegacyTx{Nonce: 1, Gas: 50000, GasPrice: big.NewInt(1), Value: big.NewInt(0)}), nil
}

// mockBackend resolves receipts immediately so WaitMined returns without polling
type mockBackend struct {
	status uint64
}

func (m *mockBackend) CodeAt(_ context.Context, _ common.Address, _ *big.Int) ([]byte, error) {
	return nil, nil
}

func (m *mockBackend) TransactionReceipt(_ context.Context, txHash common.Hash) (*types.Receipt, error) {
	return &types.Receipt{Status: m.status, TxHash: txHash, GasUsed: 46000}, nil
}

func newTestManager(status uint64) *Manager {
	return NewManager(&mockBackend{status: status}, &logger.EmptyLogger{})
}

func TestEnsureSkipsWhenAllowanceSufficient(t *testing.T) {
	token := &mockToken{balance: big.NewInt(1000), allowance: big.NewInt(500)}
	m := newTestManager(1)

	approved, err := m.Ensure(context.Background(), token, &bind.TransactOpts{}, owner, spender, big.NewInt(500), false)
	require.NoError(t, err)
	assert.False(t, approved)
	assert.Equal(t, 0, token.approveCalls)
}

func TestEnsureApprovesExactAmount(t *testing.T) {
	token := &mockToken{balance: big.NewInt(1000), allowance: big.NewInt(0)}
	m := newTestManager(1)

	approved, err := m.Ensure(context.Background(), token, &bind.TransactOpts{}, owner, spender, big.NewInt(500), false)
	require.NoError(t, err)
	assert.True(t, approved)
	assert.Equal(t, 1, token.approveCalls)
	assert.Equal(t, big.NewInt(500), token.approvedAmount)
}

func TestEnsureApprovesUnlimited(t *testing.T) {
	token := &mockToken{balance: big.NewInt(1000), allowance: big.NewInt(100)}
	m := newTestManager(1)

	approved, err := m.Ensure(context.Background(), token, &bind.TransactOpts{}, owner, spender, big.NewInt(500), true)
	require.NoError(t, err)
	assert.True(t, approved)
	assert.Equal(t, MaxUint256, token.approvedAmount)
}

func TestEnsureSkipsNativeCoin(t *testing.T) {
	// the PHRS sentinel address never needs an approval
	token := &mockToken{address: config.TokenPHRS, balance: big.NewInt(0), allowance: big.NewInt(0)}
	m := newTestManager(1)

	approved, err := m.Ensure(context.Background(), token, &bind.TransactOpts{}, owner, spender, big.NewInt(500), false)
	require.NoError(t, err)
	assert.False(t, approved)
	assert.Equal(t, 0, token.approveCalls)
}

func TestEnsureInsufficientBalance(t *testing.T) {
	token := &mockToken{balance: big.NewInt(100), allowance: big.NewInt(0)}
	m := newTestManager(1)

	_, err := m.Ensure(context.Background(), token, &bind.TransactOpts{}, owner, spender, big.NewInt(500), false)
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, 0, token.approveCalls)
}

func TestEnsureRevertedApproval(t *testing.T) {
	token := &mockToken{balance: big.NewInt(1000), allowance: big.NewInt(0)}
	m := newTestManager(0)

	_, err := m.Ensure(context.Background(), token, &bind.TransactOpts{}, owner, spender, big.NewInt(500), false)
	assert.ErrorIs(t, err, ErrApprovalFailed)
}

func TestEnsureApproveSubmitError(t *testing.T) {
	token := &mockToken{balance: big.NewInt(1000), allowance: big.NewInt(0), approveErr: errors.New("nonce too low")}
	m := newTestManager(1)

	_, err := m.Ensure(context.Background(), token, &bind.TransactOpts{}, owner, spender, big.NewInt(500), false)
	assert.ErrorContains(t, err, "nonce too low")
}
