package exchange

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"cex-withdraw-go/internal/models"

	"golang.org/x/net/http2"
)

const (
	defaultRequestTimeout  = 60 * time.Second
	defaultMaxConnsPerHost = 5
)

// NewHTTPClient builds the outbound client shared by every adapter. The
// client timeout is the only bound on a single exchange call besides the
// request context.
func NewHTTPClient(cfg models.ExchangesConfig) (*http.Client, error) {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	perHost := cfg.MaxConnsPerHost
	if perHost <= 0 {
		perHost = defaultMaxConnsPerHost
	}

	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   15 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		// Binance, MEXC and Prime each count as one host.
		MaxIdleConns:          perHost * 3,
		MaxIdleConnsPerHost:   perHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout / 2,
		ExpectContinueTimeout: time.Second,
	}

	if err := http2.ConfigureTransport(tr); err != nil {
		return nil, fmt.Errorf("unable to configure http2 transport: %w", err)
	}

	return &http.Client{Transport: tr, Timeout: timeout}, nil
}
