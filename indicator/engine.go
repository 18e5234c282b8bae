// Package indicator computes the technical indicator battery over a
// normalized bar series: MA(5/10/20/50), RSI(14), MACD(12,26,9) and
// Bollinger Bands(20,2). All values before an indicator's warm-up
// window are NaN, never zero, so "not yet computable" stays
// distinguishable from "computed as zero".
package indicator

import (
	"math"
	"strconv"

	"stockdata/market"
)

// Column is an indicator series aligned index-for-index with the bar
// series it was computed from. NaN entries render as JSON null.
type Column []float64

func (c Column) MarshalJSON() ([]byte, error) {
	buf := make([]byte, 0, 1+len(c)*8)
	buf = append(buf, '[')
	for i, v := range c {
		if i > 0 {
			buf = append(buf, ',')
		}
		if math.IsNaN(v) {
			buf = append(buf, "null"...)
		} else {
			buf = strconv.AppendFloat(buf, v, 'f', -1, 64)
		}
	}
	return append(buf, ']'), nil
}

// Defined reports whether an indicator value is past its warm-up.
func Defined(v float64) bool { return !math.IsNaN(v) }

// Undefined is the explicit "not yet computable" value.
func Undefined() float64 { return math.NaN() }

// Set holds every indicator column for one series.
type Set struct {
	MA5        Column `json:"ma5"`
	MA10       Column `json:"ma10"`
	MA20       Column `json:"ma20"`
	MA50       Column `json:"ma50"`
	RSI14      Column `json:"rsi14"`
	MACDLine   Column `json:"macd_line"`
	MACDSignal Column `json:"macd_signal"`
	MACDHist   Column `json:"macd_histogram"`
	BollUpper  Column `json:"boll_upper"`
	BollMid    Column `json:"boll_mid"`
	BollLower  Column `json:"boll_lower"`
}

// MAPeriods are the moving-average windows the engine computes.
var MAPeriods = []int{5, 10, 20, 50}

// MA returns the column for one of the supported MA windows.
func (s *Set) MA(period int) Column {
	switch period {
	case 5:
		return s.MA5
	case 10:
		return s.MA10
	case 20:
		return s.MA20
	case 50:
		return s.MA50
	default:
		return nil
	}
}

// Compute derives the full indicator set for a series. It is a pure
// function of its input: the series is never modified and the result
// depends only on bars at or before each index. Internally it replays
// the streaming state bar by bar, so batch and incremental
// computation cannot drift apart.
func Compute(series market.Series) *Set {
	n := series.Len()
	s := &Set{
		MA5:        make(Column, n),
		MA10:       make(Column, n),
		MA20:       make(Column, n),
		MA50:       make(Column, n),
		RSI14:      make(Column, n),
		MACDLine:   make(Column, n),
		MACDSignal: make(Column, n),
		MACDHist:   make(Column, n),
		BollUpper:  make(Column, n),
		BollMid:    make(Column, n),
		BollLower:  make(Column, n),
	}

	st := NewState()
	for i, b := range series.Bars {
		p := st.Append(b)
		s.MA5[i] = p.MA5
		s.MA10[i] = p.MA10
		s.MA20[i] = p.MA20
		s.MA50[i] = p.MA50
		s.RSI14[i] = p.RSI14
		s.MACDLine[i] = p.MACDLine
		s.MACDSignal[i] = p.MACDSignal
		s.MACDHist[i] = p.MACDHist
		s.BollUpper[i] = p.BollUpper
		s.BollMid[i] = p.BollMid
		s.BollLower[i] = p.BollLower
	}
	return s
}
