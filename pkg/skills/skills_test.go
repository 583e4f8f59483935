package skills

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/pharos-hq/pharosbot/pkg/approval"
	"github.com/pharos-hq/pharosbot/pkg/wallet"
)

const testKey = "0x59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"

func testSession(t *testing.T) *Session {
	t.Helper()
	w, err := wallet.FromPrivateKey(testKey)
	require.NoError(t, err)
	return NewSession(w, &bind.TransactOpts{From: w.Address()})
}

// sentCall records one SendCall invocation
type sentCall struct {
	to       common.Address
	value    *big.Int
	data     []byte
	gasLimit uint64
}

// mockChain is a scripted TxSender
type mockChain struct {
	calls []sentCall
	errs  map[int]error // call index -> error
}

func newMockChain() *mockChain {
	return &mockChain{errs: make(map[int]error)}
}

func (m *mockChain) SendCall(_ context.Context, _ *wallet.Wallet, to common.Address, value *big.Int, data []byte, gasLimit uint64) (*types.Receipt, error) {
	idx := len(m.calls)
	m.calls = append(m.calls, sentCall{to: to, value: value, data: data, gasLimit: gasLimit})
	if err := m.errs[idx]; err != nil {
		return nil, err
	}
	return &types.Receipt{
		Status: 1,
		TxHash: crypto.Keccak256Hash(append(data, byte(idx))),
		GasUsed: 100000,
	}, nil
}

// approvalCall records one Ensure invocation
type approvalCall struct {
	token     common.Address
	spender   common.Address
	amount    *big.Int
	unlimited bool
}

// mockApprover is a scripted Approver
type mockApprover struct {
	calls []approvalCall
	err   error
}

func (m *mockApprover) Ensure(_ context.Context, token approval.Token, _ *bind.TransactOpts, _, spender common.Address, amount *big.Int, unlimited bool) (bool, error) {
	m.calls = append(m.calls, approvalCall{token: token.Address(), spender: spender, amount: amount, unlimited: unlimited})
	if m.err != nil {
		return false, m.err
	}
	return true, nil
}

// mockToken answers balance reads from a scripted queue
type mockToken struct {
	address  common.Address
	balances []*big.Int
}

func (m *mockToken) Address() common.Address { return m.address }

func (m *mockToken) BalanceOf(_ *bind.CallOpts, _ common.Address) (*big.Int, error) {
	if len(m.balances) == 0 {
		return big.NewInt(0), nil
	}
	next := m.balances[0]
	if len(m.balances) > 1 {
		m.balances = m.balances[1:]
	}
	return next, nil
}

func (m *mockToken) Allowance(_ *bind.CallOpts, _, _ common.Address) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (m *mockToken) Approve(_ *bind.TransactOpts, _ common.Address, _ *big.Int) (*types.Transaction, error) {
	return types.NewTx(&types.LegacyTx{}), nil
}
