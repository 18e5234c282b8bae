package indicator

import (
	"math"

	"stockdata/market"
)

const (
	rsiPeriod    = 14
	emaFast      = 12
	emaSlow      = 26
	signalPeriod = 9
	bollPeriod   = 20
	bollWidth    = 2.0
	maxWindow    = 50
)

// Point is the indicator snapshot for a single bar index.
type Point struct {
	MA5, MA10, MA20, MA50          float64
	RSI14                          float64
	MACDLine, MACDSignal, MACDHist float64
	BollUpper, BollMid, BollLower  float64
}

// State carries the minimal smoothing state between successive bars
// so appending one bar costs O(window) instead of a full recompute.
// It is owned by one consumer and threaded through Append calls;
// nothing global holds it.
type State struct {
	count     int
	window    []float64 // trailing effective closes, at most maxWindow
	lastClose float64
	haveClose bool

	gainSum, lossSum float64 // accumulators for the first 14 deltas
	avgGain, avgLoss float64

	sumFast, sumSlow float64 // EMA seed accumulators
	emaFast, emaSlow float64

	sigCount int
	sigSum   float64
	signal   float64
}

func NewState() *State {
	return &State{window: make([]float64, 0, maxWindow)}
}

// Count returns how many bars the state has consumed.
func (st *State) Count() int { return st.count }

// Clone copies the state so a provisional bar can be appended without
// disturbing the confirmed run.
func (st *State) Clone() *State {
	cp := *st
	cp.window = append(make([]float64, 0, maxWindow), st.window...)
	return &cp
}

// Append consumes the next bar and returns the indicator values at
// its index. Invalid bars carry forward the previous valid close so
// windows stay calendar-aligned without trusting broken prices.
func (st *State) Append(b market.Bar) Point {
	close := b.Close
	if b.Invalid && st.haveClose {
		close = st.lastClose
	}

	i := st.count // index of the bar being appended
	st.count++

	st.window = append(st.window, close)
	if len(st.window) > maxWindow {
		st.window = st.window[1:]
	}

	p := Point{
		MA5: Undefined(), MA10: Undefined(), MA20: Undefined(), MA50: Undefined(),
		RSI14:    Undefined(),
		MACDLine: Undefined(), MACDSignal: Undefined(), MACDHist: Undefined(),
		BollUpper: Undefined(), BollMid: Undefined(), BollLower: Undefined(),
	}

	p.MA5 = st.trailingMean(5)
	p.MA10 = st.trailingMean(10)
	p.MA20 = st.trailingMean(20)
	p.MA50 = st.trailingMean(50)

	if st.count >= bollPeriod {
		mid, stdev := st.trailingMeanStdev(bollPeriod)
		// Flat runs give stdev 0 and the bands collapse to mid.
		p.BollMid = mid
		p.BollUpper = mid + bollWidth*stdev
		p.BollLower = mid - bollWidth*stdev
	}

	p.RSI14 = st.updateRSI(i, close)
	p.MACDLine, p.MACDSignal, p.MACDHist = st.updateMACD(i, close)

	st.lastClose = close
	if !b.Invalid {
		st.haveClose = true
	}
	return p
}

func (st *State) trailingMean(period int) float64 {
	if st.count < period {
		return Undefined()
	}
	sum := 0.0
	for _, v := range st.window[len(st.window)-period:] {
		sum += v
	}
	return sum / float64(period)
}

// trailingMeanStdev returns the mean and population standard
// deviation of the trailing window.
func (st *State) trailingMeanStdev(period int) (float64, float64) {
	mean := st.trailingMean(period)
	variance := 0.0
	for _, v := range st.window[len(st.window)-period:] {
		d := v - mean
		variance += d * d
	}
	variance /= float64(period)
	return mean, math.Sqrt(variance)
}

// updateRSI applies Wilder smoothing: the first average gain/loss is
// a simple mean over the first 14 deltas, every later one is
// (prev*13 + current)/14. A zero average loss pins RSI at 100.
func (st *State) updateRSI(i int, close float64) float64 {
	if i == 0 {
		return Undefined()
	}
	gain := math.Max(close-st.lastClose, 0)
	loss := math.Max(st.lastClose-close, 0)

	switch {
	case i <= rsiPeriod:
		st.gainSum += gain
		st.lossSum += loss
		if i < rsiPeriod {
			return Undefined()
		}
		st.avgGain = st.gainSum / rsiPeriod
		st.avgLoss = st.lossSum / rsiPeriod
	default:
		st.avgGain = (st.avgGain*(rsiPeriod-1) + gain) / rsiPeriod
		st.avgLoss = (st.avgLoss*(rsiPeriod-1) + loss) / rsiPeriod
	}

	if st.avgLoss == 0 {
		return 100
	}
	rs := st.avgGain / st.avgLoss
	return 100 - 100/(1+rs)
}

// updateMACD maintains the 12- and 26-bar EMAs (seeded by the simple
// mean of their first n closes) and the 9-bar signal EMA seeded the
// same way once 9 MACD values exist.
func (st *State) updateMACD(i int, close float64) (line, signal, hist float64) {
	line, signal, hist = Undefined(), Undefined(), Undefined()

	if i < emaFast {
		st.sumFast += close
		if i == emaFast-1 {
			st.emaFast = st.sumFast / emaFast
		}
	} else {
		k := 2.0 / float64(emaFast+1)
		st.emaFast = close*k + st.emaFast*(1-k)
	}

	if i < emaSlow {
		st.sumSlow += close
		if i == emaSlow-1 {
			st.emaSlow = st.sumSlow / emaSlow
		}
		if i < emaSlow-1 {
			return
		}
	} else {
		k := 2.0 / float64(emaSlow+1)
		st.emaSlow = close*k + st.emaSlow*(1-k)
	}

	line = st.emaFast - st.emaSlow

	st.sigCount++
	if st.sigCount <= signalPeriod {
		st.sigSum += line
		if st.sigCount < signalPeriod {
			return
		}
		st.signal = st.sigSum / signalPeriod
	} else {
		k := 2.0 / float64(signalPeriod+1)
		st.signal = line*k + st.signal*(1-k)
	}

	signal = st.signal
	hist = line - signal
	return
}
