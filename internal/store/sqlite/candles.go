// Package sqlite persists candles and the trade journal in a single
// SQLite database (WAL mode), and serves candle reads for backtests.
package sqlite

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"insidebar-engine/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// Store wraps the SQLite database holding candles and trades.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database, enabling WAL and creating the
// schema.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Single-writer discipline
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened database at %s", dbPath)
	return &Store{db: db}, nil
}

// DB returns the underlying sql.DB for health checks.
func (s *Store) DB() *sql.DB { return s.db }

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS candles (
			symbol  TEXT    NOT NULL,
			tf      INTEGER NOT NULL,
			ts      INTEGER NOT NULL,
			open    INTEGER NOT NULL,
			high    INTEGER NOT NULL,
			low     INTEGER NOT NULL,
			close   INTEGER NOT NULL,
			volume  INTEGER,
			PRIMARY KEY (symbol, tf, ts)
		);

		CREATE TABLE IF NOT EXISTS trades (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			ts          TEXT    NOT NULL,
			symbol      TEXT    NOT NULL,
			strike      INTEGER NOT NULL,
			direction   TEXT    NOT NULL,
			order_id    TEXT,
			entry       INTEGER NOT NULL,
			stop_loss   INTEGER NOT NULL,
			take_profit INTEGER NOT NULL,
			exit        INTEGER,
			pnl         INTEGER,
			status      TEXT    NOT NULL,
			reason      TEXT,
			outcome     TEXT,
			qty         INTEGER NOT NULL,
			created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_trades_order ON trades(order_id);
		CREATE INDEX IF NOT EXISTS idx_trades_status ON trades(status);
	`)
	return err
}

// WriteCandles inserts candles in a single transaction, replacing
// duplicates on (symbol, tf, ts).
func (s *Store) WriteCandles(candles []model.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO candles (symbol, tf, ts, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, c := range candles {
		if _, err := stmt.Exec(c.Symbol, c.TF, c.TS.Unix(), c.Open, c.High, c.Low, c.Close, c.Volume); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// ReadCandles reads candles for a symbol and timeframe strictly after
// afterTS (Unix seconds), ordered by timestamp ascending for correct
// replay order.
func (s *Store) ReadCandles(symbol string, tf int, afterTS int64) ([]model.Candle, error) {
	rows, err := s.db.Query(`
		SELECT symbol, tf, ts, open, high, low, close, volume
		FROM candles
		WHERE symbol = ? AND tf = ? AND ts > ?
		ORDER BY ts ASC
	`, symbol, tf, afterTS)
	if err != nil {
		return nil, fmt.Errorf("sqlite query candles: %w", err)
	}
	defer rows.Close()

	var candles []model.Candle
	for rows.Next() {
		var c model.Candle
		var tsUnix int64
		if err := rows.Scan(&c.Symbol, &c.TF, &tsUnix, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("sqlite scan candles: %w", err)
		}
		c.TS = time.Unix(tsUnix, 0).UTC()
		candles = append(candles, c)
	}
	return candles, rows.Err()
}

// LastCandleTS returns the latest stored candle timestamp for a symbol
// and timeframe, or 0 if none exist.
func (s *Store) LastCandleTS(symbol string, tf int) (int64, error) {
	var ts sql.NullInt64
	err := s.db.QueryRow(
		`SELECT MAX(ts) FROM candles WHERE symbol = ? AND tf = ?`,
		symbol, tf,
	).Scan(&ts)
	if err != nil {
		return 0, err
	}
	if !ts.Valid {
		return 0, nil
	}
	return ts.Int64, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
