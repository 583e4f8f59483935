package proxy

import (
	"bufio"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	xproxy "golang.org/x/net/proxy"
)

// userAgents is the pool of browser identities rotated across outbound requests.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:126.0) Gecko/20100101 Firefox/126.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
}

// RandomUserAgent returns a user agent drawn uniformly from the pool
func RandomUserAgent() string {
	return userAgents[rand.Intn(len(userAgents))]
}

// Rotator hands out proxies at random from a fixed pool. An empty pool is
// valid and yields direct connections.
type Rotator struct {
	mu      sync.Mutex
	proxies []string
}

// NewRotator creates a rotator over the given proxy URLs
func NewRotator(proxies []string) *Rotator {
	return &Rotator{proxies: proxies}
}

// LoadFromFile reads a newline-delimited proxy list. Blank lines and lines
// starting with # are skipped. A missing file yields an empty rotator.
func LoadFromFile(path string) (*Rotator, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewRotator(nil), nil
		}
		return nil, fmt.Errorf("failed to open proxy file: %v", err)
	}
	defer f.Close()

	var proxies []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		proxies = append(proxies, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read proxy file: %v", err)
	}

	return NewRotator(proxies), nil
}

// Size returns the number of proxies in the pool
func (r *Rotator) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.proxies)
}

// Pick returns a random proxy URL from the pool, or empty if the pool is empty
func (r *Rotator) Pick() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.proxies) == 0 {
		return ""
	}
	return r.proxies[rand.Intn(len(r.proxies))]
}

// NewHTTPClient builds an HTTP client routed through the given proxy URL.
// Supported schemes are http, https and socks5; empty means no proxy.
func NewHTTPClient(proxyURL string, timeout time.Duration) (*http.Client, error) {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	if proxyURL != "" {
		parsed, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL %s: %v", proxyURL, err)
		}

		switch parsed.Scheme {
		case "http", "https":
			transport.Proxy = http.ProxyURL(parsed)
		case "socks5", "socks5h":
			var auth *xproxy.Auth
			if parsed.User != nil {
				password, _ := parsed.User.Password()
				auth = &xproxy.Auth{User: parsed.User.Username(), Password: password}
			}
			dialer, err := xproxy.SOCKS5("tcp", parsed.Host, auth, &net.Dialer{Timeout: 30 * time.Second})
			if err != nil {
				return nil, fmt.Errorf("failed to create socks5 dialer: %v", err)
			}
			transport.Dial = dialer.Dial
		default:
			return nil, fmt.Errorf("unsupported proxy scheme: %s", parsed.Scheme)
		}
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}, nil
}
