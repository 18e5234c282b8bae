package providers

import (
	"errors"
	"testing"

	"stockdata/market"
)

func TestRegistryForMarket(t *testing.T) {
	r := NewRegistry()
	r.Register(market.US, NewMockProvider(market.US))

	if _, err := r.ForMarket(market.US); err != nil {
		t.Errorf("us should resolve: %v", err)
	}
	if _, err := r.ForMarket(market.Market("jp")); !errors.Is(err, market.ErrUnsupportedMarket) {
		t.Errorf("expected UnsupportedMarket, got %v", err)
	}
}

type failingProvider struct {
	*MockProvider
}

func (failingProvider) HealthCheck() error { return errors.New("connect timeout") }

func TestRegistryHealth(t *testing.T) {
	r := NewRegistry()
	r.Register(market.US, NewMockProvider(market.US))
	r.Register(market.CN, failingProvider{NewMockProvider(market.CN)})

	statuses := r.Health()
	if statuses["us/mock"] != "ok" {
		t.Errorf("us/mock = %q, want ok", statuses["us/mock"])
	}
	if statuses["cn/mock"] != "connect timeout" {
		t.Errorf("cn/mock = %q", statuses["cn/mock"])
	}
}
