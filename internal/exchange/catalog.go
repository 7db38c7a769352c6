package exchange

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"
)

type CatalogEntry struct {
	Name           string `yaml:"name"`
	DisplayName    string `yaml:"display_name"`
	BaseURL        string `yaml:"base_url"`
	TestnetBaseURL string `yaml:"testnet_base_url"`
}

type Catalog struct {
	Exchanges []CatalogEntry `yaml:"exchanges"`
}

// DefaultCatalog lists the advertised exchanges. Only some of them have an
// adapter; the rest are display entries.
func DefaultCatalog() *Catalog {
	return &Catalog{Exchanges: []CatalogEntry{
		{Name: "mexc", DisplayName: "MEXC", BaseURL: "https://api.mexc.com"},
		{Name: "binance", DisplayName: "Binance", BaseURL: "https://api.binance.com", TestnetBaseURL: "https://testnet.binance.vision"},
		{Name: "kucoin", DisplayName: "KuCoin", BaseURL: "https://api.kucoin.com"},
		{Name: "bitget", DisplayName: "Bitget", BaseURL: "https://api.bitget.com"},
		{Name: "bitmart", DisplayName: "BitMart", BaseURL: "https://api-cloud.bitmart.com"},
		{Name: "gateio", DisplayName: "Gate.io", BaseURL: "https://api.gateio.ws"},
		{Name: "coinbaseprime", DisplayName: "Coinbase Prime", BaseURL: "https://api.prime.coinbase.com/v1"},
	}}
}

// LoadCatalog reads an exchanges file and merges it over the defaults.
// Entries with a known name override it; new names are appended.
func LoadCatalog(catalogFile string) (*Catalog, error) {
	var catalogPath string
	if filepath.IsAbs(catalogFile) {
		catalogPath = catalogFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		catalogPath = filepath.Join(wd, catalogFile)
	}

	data, err := os.ReadFile(catalogPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", catalogFile, err)
	}

	return ParseCatalog(data)
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var file Catalog
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unable to parse exchange catalog: %w", err)
	}

	catalog := DefaultCatalog()
	for i, entry := range file.Exchanges {
		entry.Name = strings.ToLower(strings.TrimSpace(entry.Name))
		if entry.Name == "" {
			return nil, fmt.Errorf("exchange at index %d missing name", i)
		}
		catalog.merge(entry)
	}

	return catalog, nil
}

func (c *Catalog) merge(entry CatalogEntry) {
	for i := range c.Exchanges {
		if c.Exchanges[i].Name != entry.Name {
			continue
		}
		existing := &c.Exchanges[i]
		if entry.DisplayName != "" {
			existing.DisplayName = entry.DisplayName
		}
		if entry.BaseURL != "" {
			existing.BaseURL = entry.BaseURL
		}
		if entry.TestnetBaseURL != "" {
			existing.TestnetBaseURL = entry.TestnetBaseURL
		}
		return
	}
	c.Exchanges = append(c.Exchanges, entry)
}

func (c *Catalog) Lookup(name string) (CatalogEntry, bool) {
	name = strings.ToLower(name)
	for _, entry := range c.Exchanges {
		if entry.Name == name {
			return entry, true
		}
	}
	return CatalogEntry{}, false
}

// Names returns exchange names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.Exchanges))
	for i, entry := range c.Exchanges {
		names[i] = entry.Name
	}
	return names
}
