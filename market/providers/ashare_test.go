package providers

import (
	"context"
	"errors"
	"testing"

	"stockdata/market"
)

func TestNormalizeCNSymbol(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"600519", "sh600519", false},
		{"000001", "sz000001", false},
		{"300750", "sz300750", false},
		{"430047", "bj430047", false},
		{"830799", "bj830799", false},
		{"sh600519", "sh600519", false},
		{"SZ000001", "sz000001", false},
		{"AAPL", "", true},
		{"12345", "", true},
		{"900001", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizeCNSymbol(tt.in)
		if tt.wantErr {
			if !errors.Is(err, market.ErrDataUnavailable) {
				t.Errorf("NormalizeCNSymbol(%q) error = %v, want DataUnavailable", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("NormalizeCNSymbol(%q) = %q, %v, want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestEastmoneySecID(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"600519", "1.600519"},
		{"sh600000", "1.600000"},
		{"000001", "0.000001"},
		{"430047", "0.430047"},
	}
	for _, tt := range tests {
		got, err := eastmoneySecID(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("eastmoneySecID(%q) = %q, %v, want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestAShareFetchBarsRejectsUnknownPeriod(t *testing.T) {
	ap := NewAShareProvider()
	_, err := ap.FetchBars(context.Background(), "600519", market.Period("10y"))
	if !errors.Is(err, market.ErrUnsupportedPeriod) {
		t.Errorf("expected UnsupportedPeriod, got %v", err)
	}
}

func TestParseEastmoneyKlines(t *testing.T) {
	body := []byte(`{"data":{"klines":[
		"2024-03-01,1688.00,1700.50,1710.00,1680.00,25000,42000000.0",
		"2024-03-04,1701.00,1695.00,1705.00,1690.00,18000,30500000.0"
	]}}`)

	bars, err := parseEastmoneyKlines(body, "sh600519")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("len = %d, want 2", len(bars))
	}

	// Eastmoney rows are date,open,close,high,low,volume: close and
	// high must land in the right canonical fields.
	b := bars[0]
	if b.Open != 1688.00 || b.Close != 1700.50 || b.High != 1710.00 || b.Low != 1680.00 {
		t.Errorf("field mapping wrong: %+v", b)
	}
	if b.Volume != 25000 {
		t.Errorf("volume = %d, want 25000", b.Volume)
	}
	if b.Date.Format("2006-01-02") != "2024-03-01" {
		t.Errorf("date = %s", b.Date)
	}
}

func TestParseEastmoneyKlinesUnknownSymbol(t *testing.T) {
	_, err := parseEastmoneyKlines([]byte(`{"data":null}`), "sh999999")
	if !errors.Is(err, market.ErrDataUnavailable) {
		t.Errorf("expected DataUnavailable for null data, got %v", err)
	}
}

func TestParseEastmoneyKlinesMalformed(t *testing.T) {
	_, err := parseEastmoneyKlines([]byte(`not json`), "sh600519")
	if !errors.Is(err, market.ErrUpstream) {
		t.Errorf("expected UpstreamError for bad payload, got %v", err)
	}

	_, err = parseEastmoneyKlines([]byte(`{"data":{"klines":["2024-03-01,1,2"]}}`), "sh600519")
	if !errors.Is(err, market.ErrUpstream) {
		t.Errorf("expected UpstreamError for short row, got %v", err)
	}
}

func TestParseSinaQuote(t *testing.T) {
	// Decoded (post-GBK) hq response for sh600519.
	payload := `var hq_str_sh600519="贵州茅台,1688.000,1690.000,1700.500,1710.000,1680.000,1700.000,1700.600,25000,42000000.000,` +
		`100,1700.000,200,1699.000,300,1698.000,400,1697.000,500,1696.000,` +
		`100,1701.000,200,1702.000,300,1703.000,400,1704.000,500,1705.000,` +
		`2024-03-01,15:00:00,00";`

	q, err := parseSinaQuote(payload, "sh600519")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Name != "贵州茅台" {
		t.Errorf("name = %q", q.Name)
	}
	if q.Price != 1700.50 || q.PrevClose != 1690.00 || q.Open != 1688.00 {
		t.Errorf("prices wrong: %+v", q)
	}
	if q.Currency != "CNY" || q.Market != market.CN {
		t.Errorf("market metadata wrong: %s %s", q.Market, q.Currency)
	}
	if q.Change != q.Price-q.PrevClose {
		t.Errorf("change = %f", q.Change)
	}
}

func TestParseSinaQuoteUnknownSymbol(t *testing.T) {
	_, err := parseSinaQuote(`var hq_str_sh999999="";`, "sh999999")
	if !errors.Is(err, market.ErrDataUnavailable) {
		t.Errorf("expected DataUnavailable, got %v", err)
	}
}
