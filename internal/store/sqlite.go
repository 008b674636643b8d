package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apperrors "paper-trader/internal/errors"
	"paper-trader/internal/models"
)

// Compile-time interface check.
var _ Journal = (*SQLiteJournal)(nil)

// SQLiteJournal implements Journal using SQLite.
type SQLiteJournal struct {
	db *sql.DB
}

// NewSQLiteJournal opens (or creates) the journal database at dbPath.
func NewSQLiteJournal(dbPath string) (*SQLiteJournal, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	j := &SQLiteJournal{db: db}
	if err := j.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return j, nil
}

// initSchema creates the orders table and indexes.
func (j *SQLiteJournal) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		symbol TEXT NOT NULL,
		side TEXT NOT NULL,
		type TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		limit_price REAL,
		status TEXT NOT NULL,
		fill_price REAL,
		commission REAL,
		realized_pnl REAL,
		reject_reason TEXT,
		submitted_at DATETIME NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_orders_symbol ON orders(symbol);
	CREATE INDEX IF NOT EXISTS idx_orders_submitted ON orders(submitted_at);
	`
	_, err := j.db.Exec(schema)
	return err
}

// LogOrder appends a resolved order to the journal.
func (j *SQLiteJournal) LogOrder(ctx context.Context, order *models.Order) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO orders
		(id, symbol, side, type, quantity, limit_price, status, fill_price, commission, realized_pnl, reject_reason, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.Symbol, string(order.Side), string(order.Type), order.Quantity,
		order.LimitPrice, string(order.Status), order.FillPrice, order.Commission,
		order.RealizedPnL, order.RejectReason, order.SubmittedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrDatabaseError.Error())
	}
	return nil
}

// GetOrders returns journal entries matching the filter, newest first.
func (j *SQLiteJournal) GetOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	query := `
		SELECT id, symbol, side, type, quantity, limit_price, status, fill_price, commission, realized_pnl, reject_reason, submitted_at
		FROM orders WHERE 1=1`
	var args []interface{}

	if filter.Symbol != "" {
		query += " AND symbol = ?"
		args = append(args, strings.ToUpper(filter.Symbol))
	}
	if filter.Side != "" {
		query += " AND side = ?"
		args = append(args, string(filter.Side))
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, string(filter.Status))
	}
	if !filter.StartDate.IsZero() {
		query += " AND submitted_at >= ?"
		args = append(args, filter.StartDate)
	}
	if !filter.EndDate.IsZero() {
		query += " AND submitted_at <= ?"
		args = append(args, filter.EndDate)
	}

	query += " ORDER BY submitted_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseError.Error())
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		var side, otype, status string
		var limitPrice, fillPrice, commission, realized sql.NullFloat64
		var reason sql.NullString
		if err := rows.Scan(&o.ID, &o.Symbol, &side, &otype, &o.Quantity,
			&limitPrice, &status, &fillPrice, &commission, &realized, &reason, &o.SubmittedAt); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrDatabaseError.Error())
		}
		o.Side = models.OrderSide(side)
		o.Type = models.OrderType(otype)
		o.Status = models.OrderStatus(status)
		o.LimitPrice = limitPrice.Float64
		o.FillPrice = fillPrice.Float64
		o.Commission = commission.Float64
		o.RealizedPnL = realized.Float64
		o.RejectReason = reason.String
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// Close closes the underlying database.
func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
