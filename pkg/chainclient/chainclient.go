package chainclient

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/pharos-hq/pharosbot/pkg/config"
	"github.com/pharos-hq/pharosbot/pkg/logger"
	"github.com/pharos-hq/pharosbot/pkg/wallet"
)

// Client wraps a connection to the Pharos chain
type Client struct {
	chainID *big.Int
	rpcURL  string
	eth     *ethclient.Client
	logger  logger.Logger
}

// New connects to the first healthy endpoint from the failover list
func New(ctx context.Context, failover *Failover, log logger.Logger) (*Client, error) {
	eth, rpcURL, err := failover.Connect(ctx)
	if err != nil {
		return nil, err
	}

	return &Client{
		chainID: big.NewInt(config.PharosChainID),
		rpcURL:  rpcURL,
		eth:     eth,
		logger:  log,
	}, nil
}

// Eth exposes the underlying client for contract bindings
func (c *Client) Eth() *ethclient.Client {
	return c.eth
}

// ChainID returns the connected chain ID
func (c *Client) ChainID() *big.Int {
	return new(big.Int).Set(c.chainID)
}

// RPCURL returns the endpoint the client is connected to
func (c *Client) RPCURL() string {
	return c.rpcURL
}

// Close releases the underlying connection
func (c *Client) Close() {
	if c.eth != nil {
		c.eth.Close()
	}
}

// NewAuth creates a transactor bound to the wallet's key and the Pharos chain
func (c *Client) NewAuth(w *wallet.Wallet) (*bind.TransactOpts, error) {
	auth, err := bind.NewKeyedTransactorWithChainID(w.PrivateKey(), c.chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %v", err)
	}
	return auth, nil
}

// NativeBalance returns the PHRS balance of the address
func (c *Client) NativeBalance(ctx context.Context, addr common.Address) (*big.Int, error) {
	if c.eth == nil {
		return nil, fmt.Errorf("client not connected")
	}
	return c.eth.BalanceAt(ctx, addr, nil)
}

// LatestBlockNumber gets the latest block number from the chain
func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	if c.eth == nil {
		return 0, fmt.Errorf("client not connected")
	}
	return c.eth.BlockNumber(ctx)
}

// SendCall signs and submits a legacy transaction carrying the given calldata
// and waits for it to be mined. A reverted receipt is an error.
func (c *Client) SendCall(ctx context.Context, w *wallet.Wallet, to common.Address, value *big.Int, data []byte, gasLimit uint64) (*types.Receipt, error) {
	if c.eth == nil {
		return nil, fmt.Errorf("client not connected")
	}
	if value == nil {
		value = big.NewInt(0)
	}

	nonce, err := c.eth.PendingNonceAt(ctx, w.Address())
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %v", err)
	}

	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %v", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})

	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainID), w.PrivateKey())
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %v", err)
	}

	if err := c.eth.SendTransaction(ctx, signedTx); err != nil {
		return nil, fmt.Errorf("failed to send transaction: %v", err)
	}
	c.logger.DebugWithScope(logger.Chain, "sent transaction %s to %s", signedTx.Hash().Hex(), to.Hex())

	receipt, err := c.waitMined(ctx, signedTx)
	if err != nil {
		return nil, fmt.Errorf("failed to wait for transaction %s: %v", signedTx.Hash().Hex(), err)
	}
	if receipt.Status == 0 {
		return receipt, fmt.Errorf("transaction %s reverted", signedTx.Hash().Hex())
	}

	return receipt, nil
}

// waitMined waits for the transaction receipt with a bounded timeout
func (c *Client) waitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	return bind.WaitMined(timeoutCtx, c.eth, tx)
}
