package chainclient

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharos-hq/pharosbot/pkg/logger"
)

// fakeProbe records probe calls per endpoint and replays scripted errors
type fakeProbe struct {
	mu      sync.Mutex
	calls   map[string]int
	results map[string][]error
}

func newFakeProbe() *fakeProbe {
	return &fakeProbe{
		calls:   make(map[string]int),
		results: make(map[string][]error),
	}
}

func (f *fakeProbe) probe(_ context.Context, rpcURL string) (*ethclient.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.calls[rpcURL]
	f.calls[rpcURL] = n + 1

	script := f.results[rpcURL]
	if n < len(script) {
		if err := script[n]; err != nil {
			return nil, err
		}
	}
	// a nil *ethclient.Client stands in for a healthy connection
	return nil, nil
}

func (f *fakeProbe) callCount(rpcURL string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[rpcURL]
}

var errBusy = errors.New("rpc error: code -32603: server busy")

func newTestFailover(urls []string, p *fakeProbe) *Failover {
	return NewFailoverWithProbe(urls, p.probe, 3, time.Millisecond, &logger.EmptyLogger{})
}

func TestConnectFirstHealthy(t *testing.T) {
	p := newFakeProbe()
	f := newTestFailover([]string{"rpc-a", "rpc-b"}, p)

	_, url, err := f.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "rpc-a", url)
	assert.Equal(t, 0, p.callCount("rpc-b"))
}

func TestConnectRetriesBusyEndpoint(t *testing.T) {
	p := newFakeProbe()
	p.results["rpc-a"] = []error{errBusy, errBusy, nil}
	f := newTestFailover([]string{"rpc-a", "rpc-b"}, p)

	_, url, err := f.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "rpc-a", url)
	assert.Equal(t, 3, p.callCount("rpc-a"))
	assert.Equal(t, 0, p.callCount("rpc-b"))
}

func TestConnectSkipsHardFailureImmediately(t *testing.T) {
	p := newFakeProbe()
	p.results["rpc-a"] = []error{errors.New("dns lookup failed")}
	f := newTestFailover([]string{"rpc-a", "rpc-b"}, p)

	_, url, err := f.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "rpc-b", url)
	// hard failures get no retry budget
	assert.Equal(t, 1, p.callCount("rpc-a"))
}

func TestConnectExhaustsAllEndpoints(t *testing.T) {
	p := newFakeProbe()
	p.results["rpc-a"] = []error{errBusy, errBusy, errBusy}
	p.results["rpc-b"] = []error{errBusy, errBusy, errBusy}
	f := newTestFailover([]string{"rpc-a", "rpc-b"}, p)

	_, _, err := f.Connect(context.Background())
	assert.ErrorIs(t, err, ErrProviderUnavailable)
	assert.Equal(t, 3, p.callCount("rpc-a"))
	assert.Equal(t, 3, p.callCount("rpc-b"))
}

func TestConnectHardFailurePropagates(t *testing.T) {
	p := newFakeProbe()
	errHard := errors.New("unexpected chain ID 1 from rpc-a")
	p.results["rpc-a"] = []error{errHard}
	f := newTestFailover([]string{"rpc-a"}, p)

	_, _, err := f.Connect(context.Background())
	assert.ErrorIs(t, err, errHard)
	assert.NotErrorIs(t, err, ErrProviderUnavailable)
	assert.Equal(t, 1, p.callCount("rpc-a"))
}

func TestConnectNoEndpoints(t *testing.T) {
	f := newTestFailover(nil, newFakeProbe())
	_, _, err := f.Connect(context.Background())
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestConnectRespectsContextDuringBackoff(t *testing.T) {
	p := newFakeProbe()
	p.results["rpc-a"] = []error{errBusy, errBusy, errBusy}
	f := NewFailoverWithProbe([]string{"rpc-a"}, p.probe, 3, time.Hour, &logger.EmptyLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, _, err := f.Connect(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsBusyError(t *testing.T) {
	assert.True(t, IsBusyError(errBusy))
	assert.True(t, IsBusyError(errors.New("429 Too Many Requests")))
	assert.True(t, IsBusyError(errors.New("rate limit exceeded")))
	assert.False(t, IsBusyError(nil))
	assert.False(t, IsBusyError(errors.New("execution reverted")))
}
