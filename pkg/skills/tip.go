package skills

import (
	"context"
	"math/big"
	"math/rand"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"

	"github.com/pharos-hq/pharosbot/pkg/config"
	"github.com/pharos-hq/pharosbot/pkg/contracts"
	"github.com/pharos-hq/pharosbot/pkg/logger"
	"github.com/pharos-hq/pharosbot/pkg/metrics"
)

// nativeTokenType marks a tip paid in the chain's native coin
const nativeTokenType = 1

// RandomTipAmount draws a tip amount uniformly from the configured bounds,
// both ends inclusive.
func RandomTipAmount(rng *rand.Rand) *big.Int {
	span := new(big.Int).Sub(config.TipMaxAmount, config.TipMinAmount)
	span.Add(span, big.NewInt(1))
	offset := new(big.Int).Rand(rng, span)
	return offset.Add(offset, config.TipMinAmount)
}

// Tip sends small random amounts of PHRS to an X account through the Primus
// tipping contract.
type Tip struct {
	chain  TxSender
	rng    *rand.Rand
	logger logger.Logger
}

// NewTip creates the tip executor
func NewTip(chain TxSender, log logger.Logger) *Tip {
	return &Tip{
		chain:  chain,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		logger: log,
	}
}

// Run sends one tip to the username from the session's wallet
func (t *Tip) Run(ctx context.Context, s *Session, username string) error {
	start := time.Now()
	err := t.run(ctx, s, username)
	metrics.SkillDuration.WithLabelValues("tip").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SkillRuns.WithLabelValues("tip", "failure").Inc()
		return err
	}
	metrics.SkillRuns.WithLabelValues("tip", "success").Inc()
	return nil
}

func (t *Tip) run(ctx context.Context, s *Session, username string) error {
	amount := RandomTipAmount(t.rng)

	data, err := contracts.PackTip(
		contracts.TipToken{TokenType: nativeTokenType, TokenAddress: common.Address{}},
		contracts.TipRecipient{IdSource: "x", Id: username, Amount: amount},
	)
	if err != nil {
		return err
	}

	receipt, err := t.chain.SendCall(ctx, s.Wallet, config.PrimusTipAddress, amount, data, config.TipGasLimit)
	if err != nil {
		return err
	}

	metrics.GasUsed.WithLabelValues("tip").Observe(float64(receipt.GasUsed))
	t.logger.InfoWithScope(logger.Tip, "tipped %s wei (%s PHRS) to %s (tx %s)",
		amount.String(), new(big.Float).Quo(new(big.Float).SetInt(amount), big.NewFloat(params.Ether)).Text('f', 10),
		username, receipt.TxHash.Hex())
	return nil
}
