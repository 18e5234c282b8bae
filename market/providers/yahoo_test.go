package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stockdata/market"
)

const yahooChartFixture = `{"chart":{"result":[{
	"meta":{"currency":"USD","symbol":"AAPL","shortName":"Apple Inc.","regularMarketPrice":187.5,"chartPreviousClose":185.0},
	"timestamp":[1709269200,1709355600,1709442000],
	"indicators":{"quote":[{
		"open":[184.0,null,186.5],
		"high":[186.0,null,188.0],
		"low":[183.0,null,185.5],
		"close":[185.0,null,187.5],
		"volume":[52000000,null,48000000]
	}]}
}],"error":null}}`

func newYahooTestProvider(handler http.HandlerFunc) (*YahooProvider, *httptest.Server) {
	srv := httptest.NewServer(handler)
	yp := NewYahooProvider()
	yp.baseURL = srv.URL
	return yp, srv
}

func TestYahooFetchBarsSkipsNullSlots(t *testing.T) {
	yp, srv := newYahooTestProvider(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(yahooChartFixture))
	})
	defer srv.Close()

	bars, err := yp.FetchBars(context.Background(), "AAPL", market.Period1Mo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Three timestamps, middle slot null (holiday): two bars out.
	if len(bars) != 2 {
		t.Fatalf("len = %d, want 2", len(bars))
	}
	if bars[0].Close != 185.0 || bars[1].Close != 187.5 {
		t.Errorf("closes = %f, %f", bars[0].Close, bars[1].Close)
	}
	if bars[0].Volume != 52000000 {
		t.Errorf("volume = %d", bars[0].Volume)
	}
	if !bars[0].Date.Before(bars[1].Date) {
		t.Errorf("bars out of order: %s, %s", bars[0].Date, bars[1].Date)
	}
}

func TestYahooFetchQuote(t *testing.T) {
	yp, srv := newYahooTestProvider(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(yahooChartFixture))
	})
	defer srv.Close()

	q, err := yp.FetchQuote(context.Background(), "aapl")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Symbol != "AAPL" {
		t.Errorf("symbol = %q", q.Symbol)
	}
	if q.Price != 187.5 || q.PrevClose != 185.0 {
		t.Errorf("price/prev = %f/%f", q.Price, q.PrevClose)
	}
	if q.Change != 2.5 {
		t.Errorf("change = %f", q.Change)
	}
	if q.Currency != "USD" || q.Market != market.US {
		t.Errorf("metadata wrong: %s %s", q.Market, q.Currency)
	}
}

func TestParseYahooChartNotFound(t *testing.T) {
	body := []byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`)
	_, err := parseYahooChart(body, "NOPE")
	if !errors.Is(err, market.ErrDataUnavailable) {
		t.Errorf("expected DataUnavailable, got %v", err)
	}
}

func TestParseYahooChartAPIError(t *testing.T) {
	body := []byte(`{"chart":{"result":null,"error":{"code":"Internal Server Error","description":"backend down"}}}`)
	_, err := parseYahooChart(body, "AAPL")
	if !errors.Is(err, market.ErrUpstream) {
		t.Errorf("expected UpstreamError, got %v", err)
	}
}

func TestParseYahooChartEmptyResult(t *testing.T) {
	_, err := parseYahooChart([]byte(`{"chart":{"result":[],"error":null}}`), "AAPL")
	if !errors.Is(err, market.ErrDataUnavailable) {
		t.Errorf("expected DataUnavailable, got %v", err)
	}
}

func TestYahooFetchBarsRejectsUnknownPeriod(t *testing.T) {
	yp, srv := newYahooTestProvider(func(w http.ResponseWriter, r *http.Request) {
		t.Error("upstream reached with an invalid period")
	})
	defer srv.Close()

	_, err := yp.FetchBars(context.Background(), "AAPL", market.Period("10y"))
	if !errors.Is(err, market.ErrUnsupportedPeriod) {
		t.Errorf("expected UnsupportedPeriod, got %v", err)
	}
}

func TestYahooHTTP404(t *testing.T) {
	yp, srv := newYahooTestProvider(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := yp.FetchBars(ctx, "NOPE", market.Period1Y)
	if !errors.Is(err, market.ErrDataUnavailable) {
		t.Errorf("expected DataUnavailable, got %v", err)
	}
}
