package skills

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharos-hq/pharosbot/pkg/approval"
	"github.com/pharos-hq/pharosbot/pkg/config"
	"github.com/pharos-hq/pharosbot/pkg/dodo"
	"github.com/pharos-hq/pharosbot/pkg/logger"
)

// quoteRequest records one FetchRoute invocation
type quoteRequest struct {
	from   common.Address
	to     common.Address
	amount *big.Int
}

// mockQuotes is a scripted QuoteFetcher
type mockQuotes struct {
	requests []quoteRequest
	errs     map[int]error // request index -> error
}

func newMockQuotes() *mockQuotes {
	return &mockQuotes{errs: make(map[int]error)}
}

func (m *mockQuotes) FetchRoute(_ context.Context, from, to, _ common.Address, amount *big.Int) (*dodo.Route, error) {
	idx := len(m.requests)
	m.requests = append(m.requests, quoteRequest{from: from, to: to, amount: amount})
	if err := m.errs[idx]; err != nil {
		return nil, err
	}
	return &dodo.Route{
		To:       config.DodoRouterAddress.Hex(),
		Data:     "0xabcdef",
		Value:    "0",
		GasLimit: "321000",
	}, nil
}

func newTestSwapCycle(chain *mockChain, quotes *mockQuotes, approver *mockApprover) *SwapCycle {
	tokens := map[common.Address]approval.Token{
		config.TokenUSDT: &mockToken{address: config.TokenUSDT},
		config.TokenUSDC: &mockToken{address: config.TokenUSDC},
	}
	sc := NewSwapCycle(chain, quotes, approver, tokens, &logger.EmptyLogger{})
	sc.pacing = time.Millisecond
	return sc
}

func TestSwapCycleLegOrder(t *testing.T) {
	chain := newMockChain()
	quotes := newMockQuotes()
	sc := newTestSwapCycle(chain, quotes, &mockApprover{})

	err := sc.Run(context.Background(), testSession(t), 1)
	require.NoError(t, err)

	require.Len(t, quotes.requests, 4)
	assert.Equal(t, config.TokenPHRS, quotes.requests[0].from)
	assert.Equal(t, config.TokenUSDT, quotes.requests[0].to)
	assert.Equal(t, config.PHRSToUSDTAmount, quotes.requests[0].amount)
	assert.Equal(t, config.TokenUSDT, quotes.requests[1].from)
	assert.Equal(t, config.TokenPHRS, quotes.requests[1].to)
	assert.Equal(t, config.TokenPHRS, quotes.requests[2].from)
	assert.Equal(t, config.TokenUSDC, quotes.requests[2].to)
	assert.Equal(t, config.TokenUSDC, quotes.requests[3].from)

	assert.Len(t, chain.calls, 4)
}

func TestSwapCycleMultipleCycles(t *testing.T) {
	chain := newMockChain()
	quotes := newMockQuotes()
	sc := newTestSwapCycle(chain, quotes, &mockApprover{})

	err := sc.Run(context.Background(), testSession(t), 3)
	require.NoError(t, err)
	assert.Len(t, quotes.requests, 12)
	assert.Len(t, chain.calls, 12)
}

func TestSwapCycleApprovesOnlyERC20Sources(t *testing.T) {
	chain := newMockChain()
	quotes := newMockQuotes()
	approver := &mockApprover{}
	sc := newTestSwapCycle(chain, quotes, approver)

	err := sc.Run(context.Background(), testSession(t), 1)
	require.NoError(t, err)

	// only the USDT->PHRS and USDC->PHRS legs need approvals
	require.Len(t, approver.calls, 2)
	assert.Equal(t, config.TokenUSDT, approver.calls[0].token)
	assert.Equal(t, config.TokenUSDC, approver.calls[1].token)
	for _, call := range approver.calls {
		assert.Equal(t, config.DodoRouterAddress, call.spender)
		assert.False(t, call.unlimited)
	}
}

func TestSwapCycleLegFailureIsolated(t *testing.T) {
	chain := newMockChain()
	quotes := newMockQuotes()
	quotes.errs[1] = errors.New("route service down")
	sc := newTestSwapCycle(chain, quotes, &mockApprover{})

	err := sc.Run(context.Background(), testSession(t), 1)
	require.NoError(t, err)

	// all four legs attempted, only the failed one skipped submission
	assert.Len(t, quotes.requests, 4)
	assert.Len(t, chain.calls, 3)
}

func TestSwapCycleStopsOnContextCancel(t *testing.T) {
	chain := newMockChain()
	quotes := newMockQuotes()
	sc := newTestSwapCycle(chain, quotes, &mockApprover{})
	sc.pacing = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := sc.Run(ctx, testSession(t), 5)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, len(chain.calls), 20)
}
