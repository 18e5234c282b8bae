package market

// Error is the shared failure type across adapters, normalizer and
// assembler. The sentinels below are the whole taxonomy; callers test
// them with errors.Is and providers wrap them with context via %w.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

var (
	ErrUnsupportedMarket   = &Error{Code: "unsupported_market", Message: "unsupported market"}
	ErrUnsupportedPeriod   = &Error{Code: "unsupported_period", Message: "unsupported period"}
	ErrDataUnavailable     = &Error{Code: "data_unavailable", Message: "symbol not found upstream"}
	ErrUpstream            = &Error{Code: "upstream_error", Message: "upstream transport or parse failure"}
	ErrEmptySeries         = &Error{Code: "empty_series", Message: "provider returned zero bars"}
	ErrInsufficientHistory = &Error{Code: "insufficient_history", Message: "no bars available to report on"}
)
