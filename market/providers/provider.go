// Package providers contains the upstream data source adapters. Each
// supported market is served by exactly one adapter that maps the
// upstream payload into the canonical market.Bar schema.
package providers

import (
	"context"
	"fmt"

	"stockdata/market"
)

// BarProvider is the capability "fetch bars for symbol+period".
// Callers never branch on the concrete adapter; market selection is
// resolved once at request entry via Registry.ForMarket.
type BarProvider interface {
	Name() string
	FetchBars(ctx context.Context, symbol string, period market.Period) ([]market.Bar, error)
	FetchQuote(ctx context.Context, symbol string) (*market.Quote, error)
	HealthCheck() error
}

// Registry binds the closed set of markets to their adapters.
type Registry struct {
	byMarket map[market.Market]BarProvider
}

// NewRegistry wires the default adapters: Yahoo for US, A-share for CN.
func NewRegistry() *Registry {
	r := &Registry{byMarket: make(map[market.Market]BarProvider)}
	r.Register(market.US, NewYahooProvider())
	r.Register(market.CN, NewAShareProvider())
	return r
}

// Register replaces the adapter for a market. Tests use this to plug
// in the mock provider.
func (r *Registry) Register(m market.Market, p BarProvider) {
	r.byMarket[m] = p
}

// ForMarket resolves the adapter for a market token.
func (r *Registry) ForMarket(m market.Market) (BarProvider, error) {
	p, ok := r.byMarket[m]
	if !ok {
		return nil, fmt.Errorf("%w: %q", market.ErrUnsupportedMarket, m)
	}
	return p, nil
}

// Health runs every adapter's health check and reports status per
// market, keyed "market/adapter". "ok" means the check passed.
func (r *Registry) Health() map[string]string {
	statuses := make(map[string]string, len(r.byMarket))
	for m, p := range r.byMarket {
		status := "ok"
		if err := p.HealthCheck(); err != nil {
			status = err.Error()
		}
		statuses[string(m)+"/"+p.Name()] = status
	}
	return statuses
}
