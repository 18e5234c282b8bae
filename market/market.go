package market

import "fmt"

// Market is the closed set of supported exchanges. Each market binds
// to exactly one data provider and one currency convention.
type Market string

const (
	US Market = "us"
	CN Market = "cn"
)

// ParseMarket validates a market token from a request.
func ParseMarket(s string) (Market, error) {
	switch Market(s) {
	case US:
		return US, nil
	case CN:
		return CN, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMarket, s)
	}
}

func (m Market) Currency() string {
	if m == CN {
		return "CNY"
	}
	return "USD"
}

// Period is a history span token, same vocabulary across providers.
type Period string

const (
	Period1D  Period = "1d"
	Period5D  Period = "5d"
	Period1Mo Period = "1mo"
	Period3Mo Period = "3mo"
	Period6Mo Period = "6mo"
	Period1Y  Period = "1y"
	Period2Y  Period = "2y"
	Period5Y  Period = "5y"
	PeriodMax Period = "max"
)

var periodDays = map[Period]int{
	Period1D:  1,
	Period5D:  5,
	Period1Mo: 30,
	Period3Mo: 90,
	Period6Mo: 180,
	Period1Y:  365,
	Period2Y:  730,
	Period5Y:  1825,
	PeriodMax: 3650,
}

// ParsePeriod validates a period token from a request.
func ParsePeriod(s string) (Period, error) {
	p := Period(s)
	if _, ok := periodDays[p]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedPeriod, s)
	}
	return p, nil
}

// Days maps a period to a calendar-day span, for providers that take
// a row count instead of a range token. Unknown tokens fail with
// UnsupportedPeriod rather than defaulting to some span.
func (p Period) Days() (int, error) {
	d, ok := periodDays[p]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedPeriod, p)
	}
	return d, nil
}
