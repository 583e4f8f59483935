package aquaflux

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharos-hq/pharosbot/pkg/logger"
	"github.com/pharos-hq/pharosbot/pkg/wallet"
)

const testKey = "0x59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, server.Client(), &logger.EmptyLogger{})
}

func testWallet(t *testing.T) *wallet.Wallet {
	t.Helper()
	w, err := wallet.FromPrivateKey(testKey)
	require.NoError(t, err)
	return w
}

func TestWalletLogin(t *testing.T) {
	w := testWallet(t)

	client := newTestClient(t, func(rw http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/users/wallet-login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, w.Address().Hex(), body["address"])
		assert.True(t, strings.HasPrefix(body["message"], "Sign in to AquaFlux with timestamp: "))
		assert.True(t, strings.HasPrefix(body["signature"], "0x"))

		fmt.Fprint(rw, `{"status":"success","data":{"accessToken":"token-123"}}`)
	})

	token, err := client.WalletLogin(context.Background(), w)
	require.NoError(t, err)
	assert.Equal(t, "token-123", token)
}

func TestWalletLoginFailureStatus(t *testing.T) {
	client := newTestClient(t, func(rw http.ResponseWriter, r *http.Request) {
		fmt.Fprint(rw, `{"status":"error","data":null}`)
	})

	_, err := client.WalletLogin(context.Background(), testWallet(t))
	assert.ErrorContains(t, err, "status")
}

func TestCheckTokenHolding(t *testing.T) {
	client := newTestClient(t, func(rw http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/users/check-token-holding", r.URL.Path)
		assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))
		fmt.Fprint(rw, `{"status":"success","data":{"isHoldingToken":true}}`)
	})

	holding, err := client.CheckTokenHolding(context.Background(), "token-123")
	require.NoError(t, err)
	assert.True(t, holding)
}

func TestGetSignature(t *testing.T) {
	client := newTestClient(t, func(rw http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/users/get-signature", r.URL.Path)
		assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(0), body["requestedNftType"])

		fmt.Fprint(rw, `{"status":"success","data":{"nftType":0,"expiresAt":1700000000,"signature":"0xabcd"}}`)
	})

	grant, err := client.GetSignature(context.Background(), "token-123", "0x70997970C51812dc3A010C7d01b50e0d17dc79C8", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), grant.NftType)
	assert.Equal(t, int64(1700000000), grant.ExpiresAt)
	assert.Equal(t, "0xabcd", grant.Signature)
}

func TestGetSignatureEmptyGrant(t *testing.T) {
	client := newTestClient(t, func(rw http.ResponseWriter, r *http.Request) {
		fmt.Fprint(rw, `{"status":"success","data":{}}`)
	})

	_, err := client.GetSignature(context.Background(), "token-123", "0x0", 0)
	assert.ErrorContains(t, err, "empty grant")
}

func TestSignatureGrantExpired(t *testing.T) {
	grant := &SignatureGrant{ExpiresAt: 1700000000}
	assert.False(t, grant.Expired(time.Unix(1699999999, 0)))
	assert.True(t, grant.Expired(time.Unix(1700000000, 0)))
	assert.True(t, grant.Expired(time.Unix(1700000001, 0)))
}
