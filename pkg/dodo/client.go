package dodo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/pharos-hq/pharosbot/pkg/config"
	"github.com/pharos-hq/pharosbot/pkg/logger"
	"github.com/pharos-hq/pharosbot/pkg/metrics"
	"github.com/pharos-hq/pharosbot/pkg/proxy"
	"github.com/pharos-hq/pharosbot/pkg/retry"
)

// ErrQuoteUnavailable is returned when the route service could not produce a
// usable quote after all retries.
var ErrQuoteUnavailable = errors.New("route quote unavailable")

const (
	routePath = "/route-service/v2/widget/getdodoroute"

	// quote requests time out individually, the retry budget sits above this
	requestTimeout = 15 * time.Second

	quoteAttempts   = 5
	quoteRetryDelay = 2000 * time.Millisecond

	// slippage tolerance in percent, matches the widget defaults
	slippage = "3.225"

	routeSource = "dodoV2AndMixWasm"

	// DefaultSwapGasLimit is used when the quote carries no gas estimate
	DefaultSwapGasLimit = config.DefaultSwapGasLimit
)

// Route is an executable swap quote returned by the route service
type Route struct {
	To        string      `json:"to"`
	Data      string      `json:"data"`
	Value     json.Number `json:"value"`
	GasLimit  json.Number `json:"gasLimit"`
	ResAmount json.Number `json:"resAmount"`
}

type routeResponse struct {
	Status int    `json:"status"`
	Data   *Route `json:"data"`
}

// ToAddress returns the router address the calldata must be sent to
func (r *Route) ToAddress() common.Address {
	return common.HexToAddress(r.To)
}

// Calldata decodes the quote's transaction payload
func (r *Route) Calldata() ([]byte, error) {
	return hexutil.Decode(r.Data)
}

// ValueWei returns the native value the swap transaction must carry
func (r *Route) ValueWei() (*big.Int, error) {
	if r.Value == "" {
		return big.NewInt(0), nil
	}
	value, ok := new(big.Int).SetString(r.Value.String(), 10)
	if !ok {
		return nil, fmt.Errorf("invalid value in route: %s", r.Value)
	}
	return value, nil
}

// GasLimitOrDefault returns the quote's gas estimate, falling back to the
// default swap gas limit when absent or malformed.
func (r *Route) GasLimitOrDefault() uint64 {
	if r.GasLimit == "" {
		return DefaultSwapGasLimit
	}
	limit, err := strconv.ParseUint(r.GasLimit.String(), 10, 64)
	if err != nil || limit == 0 {
		return DefaultSwapGasLimit
	}
	return limit
}

// Client fetches executable swap routes from the DODO route service
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	retry      *retry.Policy
	logger     logger.Logger
}

// NewClient creates a new route service client
func NewClient(endpoint, apiKey string, httpClient *http.Client, log logger.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	return &Client{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: httpClient,
		retry:      retry.NewPolicy(quoteAttempts, quoteRetryDelay, log),
		logger:     log,
	}
}

// FetchRoute requests a swap quote for the given pair and amount. Transient
// failures and not-ready responses are retried before giving up with
// ErrQuoteUnavailable.
func (c *Client) FetchRoute(ctx context.Context, fromToken, toToken, user common.Address, amountWei *big.Int) (*Route, error) {
	deadline := time.Now().Unix() + 600

	query := url.Values{}
	query.Set("chainId", strconv.Itoa(config.PharosChainID))
	query.Set("deadLine", strconv.FormatInt(deadline, 10))
	query.Set("apikey", c.apiKey)
	query.Set("slippage", slippage)
	query.Set("source", routeSource)
	query.Set("toTokenAddress", toToken.Hex())
	query.Set("fromTokenAddress", fromToken.Hex())
	query.Set("userAddr", user.Hex())
	query.Set("estimateGas", "true")
	query.Set("fromAmount", amountWei.String())

	requestURL := c.endpoint + routePath + "?" + query.Encode()

	var route *Route
	err := c.retry.Do(ctx, "fetch route", func(ctx context.Context) error {
		return retry.WithTimeout(ctx, requestTimeout, func(ctx context.Context) error {
			fetched, err := c.fetchOnce(ctx, requestURL)
			if err != nil {
				metrics.QuoteRetries.Inc()
				return err
			}
			route = fetched
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuoteUnavailable, err)
	}

	if route == nil || route.Data == "" || route.Data == "0x" {
		return nil, fmt.Errorf("%w: route carries no transaction data", ErrQuoteUnavailable)
	}

	c.logger.DebugWithScope(logger.Swap, "fetched route to %s (gas limit %d)", route.To, route.GasLimitOrDefault())
	return route, nil
}

// fetchOnce performs a single quote request
func (c *Client) fetchOnce(ctx context.Context, requestURL string) (*Route, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("User-Agent", proxy.RandomUserAgent())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("route request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("route service returned status %d", resp.StatusCode)
	}

	var decoded routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode route response: %v", err)
	}

	if decoded.Status == -1 {
		return nil, fmt.Errorf("%w: route not ready", retry.ErrNotReady)
	}
	if decoded.Data == nil {
		return nil, fmt.Errorf("route response missing data field")
	}

	return decoded.Data, nil
}
