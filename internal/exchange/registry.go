package exchange

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

var builtinConstructors = map[string]Constructor{
	binanceName: NewBinanceClient,
	mexcName:    NewMEXCClient,
	primeName:   NewPrimeClient,
}

// Registry maps exchange names to adapter constructors
type Registry struct {
	catalog    *Catalog
	httpClient *http.Client
	now        func() time.Time

	mu           sync.RWMutex
	constructors map[string]Constructor
}

func NewRegistry(catalog *Catalog, httpClient *http.Client) *Registry {
	if catalog == nil {
		catalog = DefaultCatalog()
	}

	r := &Registry{
		catalog:      catalog,
		httpClient:   httpClient,
		now:          time.Now,
		constructors: make(map[string]Constructor, len(builtinConstructors)),
	}
	for name, ctor := range builtinConstructors {
		r.Register(name, ctor)
	}
	return r
}

// Register adds or replaces the constructor for name.
func (r *Registry) Register(name string, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.constructors[strings.ToLower(name)] = ctor
}

// CreateClient builds an adapter for name. Lookup is case-insensitive.
func (r *Registry) CreateClient(name string, creds Credentials) (Client, error) {
	key := strings.ToLower(name)

	r.mu.RLock()
	ctor, ok := r.constructors[key]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedExchange, name)
	}

	opts := ClientOptions{HTTPClient: r.httpClient, Now: r.now}
	if entry, found := r.catalog.Lookup(key); found {
		opts.BaseURL = entry.BaseURL
		if creds.Testnet {
			if entry.TestnetBaseURL != "" {
				opts.BaseURL = entry.TestnetBaseURL
			} else {
				zap.L().Warn("Testnet requested but no testnet URL configured",
					zap.String("exchange", key))
			}
		}
	}

	return ctor(creds, opts)
}

// SupportedExchanges is the advertised list, independent of which exchanges
// have an adapter.
func (r *Registry) SupportedExchanges() []string {
	return r.catalog.Names()
}

func (r *Registry) DisplayName(name string) string {
	if entry, ok := r.catalog.Lookup(name); ok && entry.DisplayName != "" {
		return entry.DisplayName
	}
	return strings.ToUpper(name)
}

func (r *Registry) IsImplemented(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.constructors[strings.ToLower(name)]
	return ok
}
