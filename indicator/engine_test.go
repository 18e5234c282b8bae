package indicator

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"stockdata/market"
)

func seriesFromCloses(closes []float64) market.Series {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]market.Bar, len(closes))
	for i, c := range closes {
		bars[i] = market.Bar{
			Date:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c * 1.01,
			Low:    c * 0.99,
			Close:  c,
			Volume: 1000,
		}
	}
	return market.Series{Symbol: "TEST", Market: market.US, Bars: bars}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestMAWarmupAndValues(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	set := Compute(seriesFromCloses(closes))

	for _, period := range MAPeriods {
		col := set.MA(period)
		for i := 0; i < len(closes) && i < period-1; i++ {
			if Defined(col[i]) {
				t.Errorf("MA(%d)[%d] should be undefined in warm-up", period, i)
			}
		}
		for i := period - 1; i < len(closes); i++ {
			sum := 0.0
			for j := i - period + 1; j <= i; j++ {
				sum += closes[j]
			}
			want := sum / float64(period)
			if !almostEqual(col[i], want) {
				t.Errorf("MA(%d)[%d] = %f, want %f", period, i, col[i], want)
			}
		}
	}
}

func TestRSIRange(t *testing.T) {
	closes := []float64{10, 12, 11, 13, 12, 14, 13, 15, 14, 16, 15, 17, 16, 18, 17, 19, 18, 20}
	set := Compute(seriesFromCloses(closes))

	for i, v := range set.RSI14 {
		if i < 14 {
			if Defined(v) {
				t.Errorf("RSI14[%d] should be undefined in warm-up", i)
			}
			continue
		}
		if v < 0 || v > 100 {
			t.Errorf("RSI14[%d] = %f, outside [0,100]", i, v)
		}
	}
}

func TestRSIAllGains(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	set := Compute(seriesFromCloses(closes))

	for i := 14; i < len(closes); i++ {
		if set.RSI14[i] != 100 {
			t.Errorf("RSI14[%d] = %f, want 100 for monotonically increasing closes", i, set.RSI14[i])
		}
	}
}

func TestMACDHistogramIdentity(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + 10*math.Sin(float64(i)/5)
	}
	set := Compute(seriesFromCloses(closes))

	sawDefined := false
	for i := range closes {
		line, sig, hist := set.MACDLine[i], set.MACDSignal[i], set.MACDHist[i]
		if Defined(line) && Defined(sig) {
			sawDefined = true
			if hist != line-sig {
				t.Errorf("hist[%d] = %v, want exactly line-signal = %v", i, hist, line-sig)
			}
		} else if Defined(hist) {
			t.Errorf("hist[%d] defined while line/signal are not", i)
		}
	}
	if !sawDefined {
		t.Fatal("no defined MACD values in 60-bar series")
	}
}

func TestMACDWarmupBoundaries(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 50 + float64(i)
	}
	set := Compute(seriesFromCloses(closes))

	if Defined(set.MACDLine[24]) {
		t.Error("MACD line defined before 26 bars elapsed")
	}
	if !Defined(set.MACDLine[25]) {
		t.Error("MACD line undefined at index 25")
	}
	if Defined(set.MACDSignal[32]) {
		t.Error("signal defined before 9 MACD values exist")
	}
	if !Defined(set.MACDSignal[33]) {
		t.Error("signal undefined at index 33")
	}
}

func TestBollingerOrdering(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + 5*math.Cos(float64(i)/3)
	}
	set := Compute(seriesFromCloses(closes))

	for i := 19; i < len(closes); i++ {
		up, mid, lo := set.BollUpper[i], set.BollMid[i], set.BollLower[i]
		if !(up >= mid && mid >= lo) {
			t.Errorf("band ordering broken at %d: %f %f %f", i, up, mid, lo)
		}
	}
}

func TestFlatSeries(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100
	}
	set := Compute(seriesFromCloses(closes))

	for i := 19; i < 30; i++ {
		if set.MA5[i] != 100 || set.MA10[i] != 100 || set.MA20[i] != 100 {
			t.Errorf("flat series MAs not all 100 at %d", i)
		}
		if set.BollUpper[i] != 100 || set.BollMid[i] != 100 || set.BollLower[i] != 100 {
			t.Errorf("flat series bands should collapse to 100 at %d, got %f/%f/%f",
				i, set.BollUpper[i], set.BollMid[i], set.BollLower[i])
		}
	}
	// No losses at all, so once the window fills RSI pins at 100.
	for i := 14; i < 30; i++ {
		if set.RSI14[i] != 100 {
			t.Errorf("flat series RSI14[%d] = %f, want 100", i, set.RSI14[i])
		}
	}
}

func TestShortSeriesPartialCoverage(t *testing.T) {
	closes := make([]float64, 15) // fewer than 20 sessions
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	set := Compute(seriesFromCloses(closes))

	for i := range closes {
		if Defined(set.BollUpper[i]) || Defined(set.BollMid[i]) || Defined(set.BollLower[i]) {
			t.Errorf("Bollinger defined at %d with only 15 bars", i)
		}
		if Defined(set.MA50[i]) {
			t.Errorf("MA50 defined at %d with only 15 bars", i)
		}
	}
	if !Defined(set.MA5[14]) || !Defined(set.MA10[14]) {
		t.Error("MA5/MA10 should be defined at the last of 15 bars")
	}
}

func TestAppendDoesNotRewriteHistory(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + 7*math.Sin(float64(i)/4)
	}
	full := Compute(seriesFromCloses(closes))
	trimmed := Compute(seriesFromCloses(closes[:59]))

	check := func(name string, a, b Column) {
		for i := 0; i < 59; i++ {
			ai, bi := a[i], b[i]
			if math.IsNaN(ai) && math.IsNaN(bi) {
				continue
			}
			if ai != bi {
				t.Errorf("%s[%d] changed after append: %v vs %v", name, i, bi, ai)
			}
		}
	}
	check("ma5", full.MA5, trimmed.MA5)
	check("ma50", full.MA50, trimmed.MA50)
	check("rsi14", full.RSI14, trimmed.RSI14)
	check("macd_line", full.MACDLine, trimmed.MACDLine)
	check("macd_signal", full.MACDSignal, trimmed.MACDSignal)
	check("boll_upper", full.BollUpper, trimmed.BollUpper)
}

func TestInvalidBarsCarryForward(t *testing.T) {
	series := seriesFromCloses([]float64{10, 10, 10, 10, 10, 10})
	series.Bars[3].Close = 9999 // broken bar, flagged by the normalizer
	series.Bars[3].Invalid = true

	set := Compute(series)
	// With the invalid close carried forward the MA5 window is flat.
	if !almostEqual(set.MA5[4], 10) || !almostEqual(set.MA5[5], 10) {
		t.Errorf("invalid close leaked into MA5: %f, %f", set.MA5[4], set.MA5[5])
	}
}

func TestColumnJSONRendersNull(t *testing.T) {
	col := Column{Undefined(), 1.5, Undefined(), 2}
	out, err := json.Marshal(col)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `[null,1.5,null,2]`
	if string(out) != want {
		t.Errorf("got %s, want %s", out, want)
	}
}

func BenchmarkCompute(b *testing.B) {
	closes := make([]float64, 1250) // ~5y of sessions
	for i := range closes {
		closes[i] = 100 + 20*math.Sin(float64(i)/40)
	}
	series := seriesFromCloses(closes)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Compute(series)
	}
}
