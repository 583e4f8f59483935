package skills

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/pharos-hq/pharosbot/pkg/approval"
	"github.com/pharos-hq/pharosbot/pkg/config"
	"github.com/pharos-hq/pharosbot/pkg/dodo"
	"github.com/pharos-hq/pharosbot/pkg/logger"
	"github.com/pharos-hq/pharosbot/pkg/metrics"
)

// swapPacing is the pause between consecutive swap legs
const swapPacing = 2 * time.Second

// QuoteFetcher produces executable swap routes
type QuoteFetcher interface {
	FetchRoute(ctx context.Context, fromToken, toToken, user common.Address, amountWei *big.Int) (*dodo.Route, error)
}

// Leg is one directed swap in the daily cycle
type Leg struct {
	From       common.Address
	To         common.Address
	Amount     *big.Int
	FromSymbol string
	ToSymbol   string
}

// Pair returns the leg's human-readable pair label
func (l Leg) Pair() string {
	return l.FromSymbol + "->" + l.ToSymbol
}

// cycleLegs is the fixed four-leg round trip executed each cycle
var cycleLegs = []Leg{
	{From: config.TokenPHRS, To: config.TokenUSDT, Amount: config.PHRSToUSDTAmount, FromSymbol: "PHRS", ToSymbol: "USDT"},
	{From: config.TokenUSDT, To: config.TokenPHRS, Amount: config.USDTToPHRSAmount, FromSymbol: "USDT", ToSymbol: "PHRS"},
	{From: config.TokenPHRS, To: config.TokenUSDC, Amount: config.PHRSToUSDCAmount, FromSymbol: "PHRS", ToSymbol: "USDC"},
	{From: config.TokenUSDC, To: config.TokenPHRS, Amount: config.USDCToPHRSAmount, FromSymbol: "USDC", ToSymbol: "PHRS"},
}

// CycleLegs returns the leg sequence for the given number of cycles
func CycleLegs(cycles int) []Leg {
	legs := make([]Leg, 0, cycles*len(cycleLegs))
	for i := 0; i < cycles; i++ {
		legs = append(legs, cycleLegs...)
	}
	return legs
}

// SwapCycle executes round-trip swaps between PHRS and the testnet
// stablecoins through quotes from the route service. Legs fail independently,
// one reverted swap never aborts the remaining legs.
type SwapCycle struct {
	chain    TxSender
	quotes   QuoteFetcher
	approver Approver
	tokens   map[common.Address]approval.Token
	pacing   time.Duration
	logger   logger.Logger
}

// NewSwapCycle creates the swap executor. The tokens map must cover every
// non-native source token in the cycle.
func NewSwapCycle(chain TxSender, quotes QuoteFetcher, approver Approver, tokens map[common.Address]approval.Token, log logger.Logger) *SwapCycle {
	return &SwapCycle{
		chain:    chain,
		quotes:   quotes,
		approver: approver,
		tokens:   tokens,
		pacing:   swapPacing,
		logger:   log,
	}
}

// Run executes the given number of swap cycles for the session's wallet
func (sc *SwapCycle) Run(ctx context.Context, s *Session, cycles int) error {
	legs := CycleLegs(cycles)
	sc.logger.InfoWithScope(logger.Swap, "executing %d swaps (%d cycles) for %s", len(legs), cycles, s.Wallet.Address().Hex())

	for i, leg := range legs {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := sc.executeLeg(ctx, s, leg); err != nil {
			metrics.SwapLegs.WithLabelValues(leg.Pair(), "failure").Inc()
			sc.logger.ErrorWithScope(logger.Swap, "swap %d/%d (%s) failed: %v", i+1, len(legs), leg.Pair(), err)
		} else {
			metrics.SwapLegs.WithLabelValues(leg.Pair(), "success").Inc()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sc.pacing):
		}
	}
	return nil
}

// executeLeg fetches a route and submits one swap
func (sc *SwapCycle) executeLeg(ctx context.Context, s *Session, leg Leg) error {
	route, err := sc.quotes.FetchRoute(ctx, leg.From, leg.To, s.Wallet.Address(), leg.Amount)
	if err != nil {
		return err
	}

	if leg.From != config.TokenPHRS {
		token, ok := sc.tokens[leg.From]
		if !ok {
			return fmt.Errorf("no token binding for %s", leg.From.Hex())
		}
		if _, err := sc.approver.Ensure(ctx, token, s.Auth, s.Wallet.Address(), config.DodoRouterAddress, leg.Amount, false); err != nil {
			return err
		}
	}

	data, err := route.Calldata()
	if err != nil {
		return err
	}
	value, err := route.ValueWei()
	if err != nil {
		return err
	}

	receipt, err := sc.chain.SendCall(ctx, s.Wallet, route.ToAddress(), value, data, route.GasLimitOrDefault())
	if err != nil {
		return err
	}

	metrics.GasUsed.WithLabelValues("swap").Observe(float64(receipt.GasUsed))
	sc.logger.InfoWithScope(logger.Swap, "swap %s confirmed (tx %s)", leg.Pair(), receipt.TxHash.Hex())
	return nil
}
