package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"stockdata/market"
)

// AShareProvider serves the CN market. Daily bars come from the
// Eastmoney kline API (forward-adjusted, comma-joined rows in the
// order date,open,close,high,low,volume) and realtime quotes from the
// Sina hq API, which is GBK encoded.
type AShareProvider struct {
	client   *http.Client
	klineURL string
	quoteURL string
}

func NewAShareProvider() *AShareProvider {
	return &AShareProvider{
		client:   &http.Client{Timeout: 10 * time.Second},
		klineURL: "https://push2his.eastmoney.com",
		quoteURL: "https://hq.sinajs.cn",
	}
}

func (ap *AShareProvider) Name() string { return "ashare" }

func (ap *AShareProvider) FetchBars(ctx context.Context, symbol string, period market.Period) ([]market.Bar, error) {
	secid, err := eastmoneySecID(symbol)
	if err != nil {
		return nil, err
	}
	days, err := period.Days()
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/api/qt/stock/kline/get?secid=%s&fields1=f1,f2,f3&fields2=f51,f52,f53,f54,f55,f56,f57&klt=101&fqt=1&end=20500101&lmt=%d",
		ap.klineURL, secid, days)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", market.ErrUpstream, err)
	}
	req.Header.Set("Referer", "https://quote.eastmoney.com/")

	resp, err := ap.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: eastmoney fetch: %v", market.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: eastmoney read body: %v", market.ErrUpstream, err)
	}

	return parseEastmoneyKlines(body, symbol)
}

func parseEastmoneyKlines(body []byte, symbol string) ([]market.Bar, error) {
	var result struct {
		Data *struct {
			Klines []string `json:"klines"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: eastmoney decode: %v", market.ErrUpstream, err)
	}
	if result.Data == nil {
		// The API answers data:null for unknown secids.
		return nil, fmt.Errorf("%w: eastmoney: %s", market.ErrDataUnavailable, symbol)
	}

	bars := make([]market.Bar, 0, len(result.Data.Klines))
	for _, row := range result.Data.Klines {
		parts := strings.Split(row, ",")
		if len(parts) < 6 {
			return nil, fmt.Errorf("%w: eastmoney: short kline row %q", market.ErrUpstream, row)
		}
		date, err := time.Parse("2006-01-02", parts[0])
		if err != nil {
			return nil, fmt.Errorf("%w: eastmoney: bad date in %q", market.ErrUpstream, row)
		}
		open, _ := strconv.ParseFloat(parts[1], 64)
		close, _ := strconv.ParseFloat(parts[2], 64)
		high, _ := strconv.ParseFloat(parts[3], 64)
		low, _ := strconv.ParseFloat(parts[4], 64)
		volume, _ := strconv.ParseInt(parts[5], 10, 64)

		bars = append(bars, market.Bar{
			Date:   date,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  close,
			Volume: volume,
		})
	}
	return bars, nil
}

func (ap *AShareProvider) FetchQuote(ctx context.Context, symbol string) (*market.Quote, error) {
	sinaSymbol, err := NormalizeCNSymbol(symbol)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/list=%s", ap.quoteURL, sinaSymbol)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", market.ErrUpstream, err)
	}
	req.Header.Set("Referer", "https://finance.sina.com.cn")

	resp, err := ap.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: sina fetch: %v", market.ErrUpstream, err)
	}
	defer resp.Body.Close()

	utf8Reader := transform.NewReader(resp.Body, simplifiedchinese.GBK.NewDecoder())
	body, err := io.ReadAll(utf8Reader)
	if err != nil {
		return nil, fmt.Errorf("%w: sina read body: %v", market.ErrUpstream, err)
	}

	return parseSinaQuote(string(body), sinaSymbol)
}

func parseSinaQuote(payload, symbol string) (*market.Quote, error) {
	parts := strings.Split(payload, "\"")
	if len(parts) < 2 {
		return nil, fmt.Errorf("%w: sina: unexpected response shape", market.ErrUpstream)
	}
	if parts[1] == "" {
		// Unknown symbols answer with an empty string literal.
		return nil, fmt.Errorf("%w: sina: %s", market.ErrDataUnavailable, symbol)
	}
	data := strings.Split(parts[1], ",")
	if len(data) < 32 {
		return nil, fmt.Errorf("%w: sina: unexpected field count %d", market.ErrUpstream, len(data))
	}

	open, _ := strconv.ParseFloat(data[1], 64)
	prevClose, _ := strconv.ParseFloat(data[2], 64)
	price, _ := strconv.ParseFloat(data[3], 64)
	high, _ := strconv.ParseFloat(data[4], 64)
	low, _ := strconv.ParseFloat(data[5], 64)
	volume, _ := strconv.ParseInt(data[8], 10, 64)

	ts, _ := time.ParseInLocation("2006-01-02 15:04:05", data[30]+" "+data[31], time.Local)

	change := price - prevClose
	changePct := 0.0
	if prevClose > 0 {
		changePct = change / prevClose * 100
	}

	return &market.Quote{
		Symbol:    symbol,
		Name:      strings.TrimSpace(data[0]),
		Market:    market.CN,
		Currency:  market.CN.Currency(),
		Price:     price,
		Change:    change,
		ChangePct: changePct,
		Open:      open,
		High:      high,
		Low:       low,
		PrevClose: prevClose,
		Volume:    volume,
		Time:      ts,
	}, nil
}

func (ap *AShareProvider) HealthCheck() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := ap.FetchQuote(ctx, "sh600000")
	return err
}

// NormalizeCNSymbol puts an exchange prefix on bare six-digit A-share
// codes: 6xx on Shanghai, 0xx/3xx on Shenzhen, 4xx/8xx on Beijing.
func NormalizeCNSymbol(symbol string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(symbol))
	if strings.HasPrefix(s, "sh") || strings.HasPrefix(s, "sz") || strings.HasPrefix(s, "bj") {
		if len(s) != 8 {
			return "", fmt.Errorf("%w: bad symbol %q", market.ErrDataUnavailable, symbol)
		}
		return s, nil
	}
	if len(s) != 6 {
		return "", fmt.Errorf("%w: bad symbol %q", market.ErrDataUnavailable, symbol)
	}
	switch s[0] {
	case '6':
		return "sh" + s, nil
	case '0', '3':
		return "sz" + s, nil
	case '4', '8':
		return "bj" + s, nil
	default:
		return "", fmt.Errorf("%w: unrecognized code %q", market.ErrDataUnavailable, symbol)
	}
}

// eastmoneySecID maps a normalized symbol to the secid scheme the
// Eastmoney API uses: 1.<code> for Shanghai, 0.<code> otherwise.
func eastmoneySecID(symbol string) (string, error) {
	s, err := NormalizeCNSymbol(symbol)
	if err != nil {
		return "", err
	}
	code := s[2:]
	if strings.HasPrefix(s, "sh") {
		return "1." + code, nil
	}
	return "0." + code, nil
}
