package market

import "time"

// Bar is one trading session in the canonical schema every provider
// is mapped into. Invalid marks a bar whose OHLC relationship is
// broken; it keeps its date slot but is excluded from indicator math.
type Bar struct {
	Date    time.Time `json:"date"`
	Open    float64   `json:"open"`
	High    float64   `json:"high"`
	Low     float64   `json:"low"`
	Close   float64   `json:"close"`
	Volume  int64     `json:"volume"`
	Invalid bool      `json:"invalid,omitempty"`
}

// CheckOHLC reports whether low <= min(open,close) <= max(open,close) <= high
// holds with non-negative prices and volume.
func (b Bar) CheckOHLC() bool {
	if b.Open < 0 || b.High < 0 || b.Low < 0 || b.Close < 0 || b.Volume < 0 {
		return false
	}
	lo, hi := b.Open, b.Close
	if lo > hi {
		lo, hi = hi, lo
	}
	return b.Low <= lo && hi <= b.High
}

// Series is an ordered run of bars for one (symbol, market) pair,
// strictly increasing by date. It is owned by a single request and
// never mutated after the normalizer builds it.
type Series struct {
	Symbol string `json:"symbol"`
	Market Market `json:"market"`
	Bars   []Bar  `json:"bars"`
}

func (s Series) Len() int { return len(s.Bars) }

// Last returns the most recent bar. ok is false on an empty series.
func (s Series) Last() (Bar, bool) {
	if len(s.Bars) == 0 {
		return Bar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// Quote is a realtime snapshot for one symbol.
type Quote struct {
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name,omitempty"`
	Market    Market    `json:"market"`
	Currency  string    `json:"currency"`
	Price     float64   `json:"price"`
	Change    float64   `json:"change"`
	ChangePct float64   `json:"change_percent"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	PrevClose float64   `json:"prev_close"`
	Volume    int64     `json:"volume"`
	Time      time.Time `json:"time"`
}
