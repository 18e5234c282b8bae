// Package db persists normalized bars to SQLite so the history
// endpoint can answer without a live upstream round trip.
package db

import (
	"database/sql"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"stockdata/market"
)

var database *sql.DB

// InitDB opens (or creates) the SQLite database at path.
func InitDB(path string) error {
	var err error
	database, err = sql.Open("sqlite3", path)
	if err != nil {
		return err
	}

	query := `
    CREATE TABLE IF NOT EXISTS bars (
        id INTEGER PRIMARY KEY,
        symbol VARCHAR(20) NOT NULL,
        market VARCHAR(4) NOT NULL,
        date TEXT NOT NULL,
        open REAL,
        high REAL,
        low REAL,
        close REAL,
        volume INTEGER,
        invalid INTEGER DEFAULT 0,
        UNIQUE(symbol, market, date)
    );
    CREATE INDEX IF NOT EXISTS idx_bars_symbol ON bars(symbol, market, date);
    `
	_, err = database.Exec(query)
	return err
}

// Close releases the database handle.
func Close() error {
	if database == nil {
		return nil
	}
	return database.Close()
}

// SaveSeries upserts every bar of a normalized series.
func SaveSeries(s market.Series) error {
	if database == nil {
		return errors.New("db not initialized")
	}

	tx, err := database.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
        INSERT OR REPLACE INTO bars (symbol, market, date, open, high, low, close, volume, invalid)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, b := range s.Bars {
		invalid := 0
		if b.Invalid {
			invalid = 1
		}
		if _, err := stmt.Exec(s.Symbol, string(s.Market), b.Date.Format("2006-01-02"),
			b.Open, b.High, b.Low, b.Close, b.Volume, invalid); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// QueryBars returns up to limit most recent stored bars in ascending
// date order.
func QueryBars(symbol string, m market.Market, limit int) ([]market.Bar, error) {
	if database == nil {
		return nil, errors.New("db not initialized")
	}

	rows, err := database.Query(`
        SELECT date, open, high, low, close, volume, invalid
        FROM bars
        WHERE symbol = ? AND market = ?
        ORDER BY date DESC
        LIMIT ?`, symbol, string(m), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bars []market.Bar
	for rows.Next() {
		var b market.Bar
		var dateStr string
		var invalid int
		if err := rows.Scan(&dateStr, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &invalid); err != nil {
			return nil, err
		}
		b.Date, _ = time.Parse("2006-01-02", dateStr)
		b.Invalid = invalid == 1
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Rows arrive newest first; flip to chronological order.
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
	return bars, nil
}
