package chainclient

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/pharos-hq/pharosbot/pkg/config"
	"github.com/pharos-hq/pharosbot/pkg/logger"
)

// ErrProviderUnavailable is returned when every candidate RPC endpoint
// stayed busy through all probe attempts.
var ErrProviderUnavailable = errors.New("no healthy RPC provider available")

const (
	// DefaultProbeAttempts is the number of times each endpoint is probed before giving up
	DefaultProbeAttempts = 3

	// DefaultProbeDelay is the pause between probe attempts on the same endpoint
	DefaultProbeDelay = 2 * time.Second
)

// ProbeFunc dials an endpoint and verifies it serves the expected chain
type ProbeFunc func(ctx context.Context, rpcURL string) (*ethclient.Client, error)

// Failover selects the first healthy endpoint from an ordered candidate list.
// Busy endpoints are re-probed with a fixed delay; any other failure moves on
// to the next candidate immediately.
type Failover struct {
	urls     []string
	probe    ProbeFunc
	attempts int
	delay    time.Duration
	logger   logger.Logger
}

// NewFailover creates a failover selector over the given RPC URLs
func NewFailover(urls []string, log logger.Logger) *Failover {
	return &Failover{
		urls:     urls,
		probe:    defaultProbe,
		attempts: DefaultProbeAttempts,
		delay:    DefaultProbeDelay,
		logger:   log,
	}
}

// NewFailoverWithProbe creates a failover selector with a custom probe and timing
func NewFailoverWithProbe(urls []string, probe ProbeFunc, attempts int, delay time.Duration, log logger.Logger) *Failover {
	return &Failover{
		urls:     urls,
		probe:    probe,
		attempts: attempts,
		delay:    delay,
		logger:   log,
	}
}

// Connect returns a client for the first endpoint that answers a probe. Busy
// responses are retried up to the attempt budget per endpoint; when every
// endpoint stays busy the error wraps ErrProviderUnavailable.
func (f *Failover) Connect(ctx context.Context) (*ethclient.Client, string, error) {
	if len(f.urls) == 0 {
		return nil, "", fmt.Errorf("%w: no endpoints configured", ErrProviderUnavailable)
	}

	var lastErr error
	for _, rpcURL := range f.urls {
		for attempt := 1; attempt <= f.attempts; attempt++ {
			client, err := f.probe(ctx, rpcURL)
			if err == nil {
				f.logger.InfoWithScope(logger.Chain, "connected to RPC endpoint %s", rpcURL)
				return client, rpcURL, nil
			}

			lastErr = err
			if !IsBusyError(err) {
				f.logger.ErrorWithScope(logger.Chain, "endpoint %s failed probe: %v", rpcURL, err)
				break
			}

			f.logger.DebugWithScope(logger.Chain, "endpoint %s busy (attempt %d/%d)", rpcURL, attempt, f.attempts)
			if attempt < f.attempts {
				select {
				case <-ctx.Done():
					return nil, "", ctx.Err()
				case <-time.After(f.delay):
				}
			}
		}
	}

	// a hard failure on the final candidate propagates as itself, only
	// busy exhaustion reports the provider as unavailable
	if lastErr != nil && !IsBusyError(lastErr) {
		return nil, "", lastErr
	}
	return nil, "", fmt.Errorf("%w: last error: %v", ErrProviderUnavailable, lastErr)
}

// IsBusyError reports whether err looks like a transient overload response
// rather than a hard failure.
func IsBusyError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "-32603") ||
		strings.Contains(msg, "busy") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "too many requests")
}

// defaultProbe dials the endpoint, fetches the latest block height as a
// liveness check and verifies the endpoint serves the Pharos chain
func defaultProbe(ctx context.Context, rpcURL string) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %v", rpcURL, err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := client.BlockNumber(timeoutCtx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to get block number from %s: %v", rpcURL, err)
	}

	chainID, err := client.ChainID(timeoutCtx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to get chain ID from %s: %v", rpcURL, err)
	}
	if chainID.Cmp(big.NewInt(config.PharosChainID)) != 0 {
		client.Close()
		return nil, fmt.Errorf("unexpected chain ID %s from %s", chainID, rpcURL)
	}

	return client, nil
}
