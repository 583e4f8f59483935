package aquaflux

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"time"

	"github.com/pharos-hq/pharosbot/pkg/logger"
	"github.com/pharos-hq/pharosbot/pkg/proxy"
	"github.com/pharos-hq/pharosbot/pkg/wallet"
)

// ErrSignatureExpired is returned when a mint grant expires before it can be
// submitted on-chain.
var ErrSignatureExpired = errors.New("mint signature expired")

const (
	loginPath        = "/api/v1/users/wallet-login"
	checkHoldingPath = "/api/v1/users/check-token-holding"
	getSignaturePath = "/api/v1/users/get-signature"

	requestTimeout = 15 * time.Second
)

// SignatureGrant is a server-issued authorization to mint an NFT
type SignatureGrant struct {
	NftType   int64  `json:"nftType"`
	ExpiresAt int64  `json:"expiresAt"`
	Signature string `json:"signature"`
}

// Expired reports whether the grant can no longer be used at the given time
func (g *SignatureGrant) Expired(now time.Time) bool {
	return now.Unix() >= g.ExpiresAt
}

// NftTypeBig returns the grant's NFT type as a big integer for calldata packing
func (g *SignatureGrant) NftTypeBig() *big.Int {
	return big.NewInt(g.NftType)
}

// ExpiresAtBig returns the grant's expiry as a big integer for calldata packing
func (g *SignatureGrant) ExpiresAtBig() *big.Int {
	return big.NewInt(g.ExpiresAt)
}

// apiResponse is the envelope every mint-service endpoint answers with
type apiResponse struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

// Client talks to the AquaFlux mint service
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     logger.Logger
}

// NewClient creates a new mint-service client
func NewClient(endpoint string, httpClient *http.Client, log logger.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: httpClient,
		logger:     log,
	}
}

// WalletLogin authenticates the wallet by signing a timestamped challenge and
// returns a bearer token for the other endpoints.
func (c *Client) WalletLogin(ctx context.Context, w *wallet.Wallet) (string, error) {
	message := fmt.Sprintf("Sign in to AquaFlux with timestamp: %d", time.Now().UnixMilli())
	signature, err := w.SignPersonal([]byte(message))
	if err != nil {
		return "", fmt.Errorf("failed to sign login challenge: %v", err)
	}

	payload := map[string]string{
		"address":   w.Address().Hex(),
		"message":   message,
		"signature": signature,
	}

	var result struct {
		AccessToken string `json:"accessToken"`
	}
	if err := c.post(ctx, loginPath, "", payload, &result); err != nil {
		return "", fmt.Errorf("wallet login failed: %v", err)
	}
	if result.AccessToken == "" {
		return "", fmt.Errorf("wallet login returned empty access token")
	}

	c.logger.DebugWithScope(logger.NFT, "logged in wallet %s", w.Address().Hex())
	return result.AccessToken, nil
}

// CheckTokenHolding asks the service whether the authenticated wallet holds
// the required tokens.
func (c *Client) CheckTokenHolding(ctx context.Context, accessToken string) (bool, error) {
	var result struct {
		IsHoldingToken bool `json:"isHoldingToken"`
	}
	if err := c.post(ctx, checkHoldingPath, accessToken, nil, &result); err != nil {
		return false, fmt.Errorf("check token holding failed: %v", err)
	}
	return result.IsHoldingToken, nil
}

// GetSignature requests a mint grant for the wallet and NFT type
func (c *Client) GetSignature(ctx context.Context, accessToken string, walletAddress string, nftType int64) (*SignatureGrant, error) {
	payload := map[string]interface{}{
		"walletAddress":    walletAddress,
		"requestedNftType": nftType,
	}

	var grant SignatureGrant
	if err := c.post(ctx, getSignaturePath, accessToken, payload, &grant); err != nil {
		return nil, fmt.Errorf("get signature failed: %v", err)
	}
	if grant.Signature == "" {
		return nil, fmt.Errorf("get signature returned empty grant")
	}
	return &grant, nil
}

// post sends a JSON request and decodes the data field of a success envelope
func (c *Client) post(ctx context.Context, path string, accessToken string, payload interface{}, out interface{}) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %v", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("User-Agent", proxy.RandomUserAgent())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service returned status %d", resp.StatusCode)
	}

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to decode response: %v", err)
	}
	if envelope.Status != "success" {
		return fmt.Errorf("service reported status %q", envelope.Status)
	}

	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("failed to decode response data: %v", err)
		}
	}
	return nil
}
