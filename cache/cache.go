// Package cache is a TTL'd LRU in front of the source adapters so
// repeated analysis of the same symbol does not re-fetch upstream.
// The engine itself stays stateless; this layer is optional.
package cache

import (
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"stockdata/market"
)

type Bars struct {
	lru *expirable.LRU[string, []market.Bar]
}

func New(size int, ttl time.Duration) *Bars {
	return &Bars{lru: expirable.NewLRU[string, []market.Bar](size, nil, ttl)}
}

func (c *Bars) Get(m market.Market, symbol string, p market.Period) ([]market.Bar, bool) {
	return c.lru.Get(key(m, symbol, p))
}

func (c *Bars) Add(m market.Market, symbol string, p market.Period, bars []market.Bar) {
	c.lru.Add(key(m, symbol, p), bars)
}

func (c *Bars) Len() int { return c.lru.Len() }

func key(m market.Market, symbol string, p market.Period) string {
	return fmt.Sprintf("%s|%s|%s", m, symbol, p)
}
