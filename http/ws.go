package http

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"stockdata/indicator"
	"stockdata/market"
	"stockdata/report"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type wsMessage struct {
	Type   string         `json:"type"` // snapshot, update, error
	Time   time.Time      `json:"time"`
	Report *report.Report `json:"report,omitempty"`
	Update *wsUpdate      `json:"update,omitempty"`
	Error  string         `json:"error,omitempty"`
}

type wsUpdate struct {
	Symbol string     `json:"symbol"`
	Price  float64    `json:"price"`
	Bar    market.Bar `json:"bar"`
	Point  wsPoint    `json:"indicators"`
}

// wsPoint is a single-index indicator snapshot with warm-up values as
// JSON null.
type wsPoint struct {
	MA5        *float64 `json:"ma5"`
	MA10       *float64 `json:"ma10"`
	MA20       *float64 `json:"ma20"`
	MA50       *float64 `json:"ma50"`
	RSI14      *float64 `json:"rsi14"`
	MACDLine   *float64 `json:"macd_line"`
	MACDSignal *float64 `json:"macd_signal"`
	MACDHist   *float64 `json:"macd_histogram"`
	BollUpper  *float64 `json:"boll_upper"`
	BollMid    *float64 `json:"boll_mid"`
	BollLower  *float64 `json:"boll_lower"`
}

func toWSPoint(p indicator.Point) wsPoint {
	return wsPoint{
		MA5:        nullable(p.MA5),
		MA10:       nullable(p.MA10),
		MA20:       nullable(p.MA20),
		MA50:       nullable(p.MA50),
		RSI14:      nullable(p.RSI14),
		MACDLine:   nullable(p.MACDLine),
		MACDSignal: nullable(p.MACDSignal),
		MACDHist:   nullable(p.MACDHist),
		BollUpper:  nullable(p.BollUpper),
		BollMid:    nullable(p.BollMid),
		BollLower:  nullable(p.BollLower),
	}
}

func nullable(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

// handleWSAnalyze pushes a full snapshot on connect, then live
// updates: each tick fetches a quote, appends it as a provisional bar
// on a copy of the carried indicator state and sends the resulting
// point. Confirmed history is never recomputed.
func (h *handlers) handleWSAnalyze(w http.ResponseWriter, r *http.Request) {
	symbol, m, p, ok := requestParams(w, r, market.Period6Mo)
	if !ok {
		return
	}

	interval := 15 * time.Second
	if s := r.URL.Query().Get("interval"); s != "" {
		if secs, err := strconv.Atoi(s); err == nil && secs >= 1 {
			interval = time.Duration(secs) * time.Second
		}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnw("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	rep, err := h.asm.Analyze(r.Context(), symbol, m, p)
	if err != nil {
		conn.WriteJSON(wsMessage{Type: "error", Time: time.Now(), Error: err.Error()})
		return
	}
	if err := conn.WriteJSON(wsMessage{Type: "snapshot", Time: time.Now(), Report: rep}); err != nil {
		return
	}

	// Replay confirmed bars into the carried state, leaving today's
	// bar out so the live quote can stand in for it.
	today := time.Now().UTC().Truncate(24 * time.Hour)
	state := indicator.NewState()
	for _, b := range rep.Series.Bars {
		if b.Date.Equal(today) {
			break
		}
		state.Append(b)
	}

	// Read pump: we only care about the close notification.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
			quote, err := h.asm.Quote(r.Context(), symbol, m)
			if err != nil {
				conn.WriteJSON(wsMessage{Type: "error", Time: time.Now(), Error: err.Error()})
				continue
			}

			bar := market.Bar{
				Date:   today,
				Open:   quote.Open,
				High:   quote.High,
				Low:    quote.Low,
				Close:  quote.Price,
				Volume: quote.Volume,
			}
			point := state.Clone().Append(bar)

			msg := wsMessage{
				Type: "update",
				Time: time.Now(),
				Update: &wsUpdate{
					Symbol: symbol,
					Price:  quote.Price,
					Bar:    bar,
					Point:  toWSPoint(point),
				},
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}
}
