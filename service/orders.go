package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ravicodry/dastaavej/model"

	_ "modernc.org/sqlite"
)

var (
	// ErrInvalidStatus is returned when a status update uses a value
	// outside the closed status set.
	ErrInvalidStatus = errors.New("invalid order status")
	// ErrOrderNotFound is returned when the order id does not exist.
	ErrOrderNotFound = errors.New("order not found")
)

// OrderStore is the durable record of document requests and inquiries.
// Rows are insert-only except for the status column.
type OrderStore struct {
	db *sql.DB
}

// NewOrderStore opens (or creates) the sqlite file at path and ensures the
// orders table exists.
func NewOrderStore(path string) (*OrderStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open order database: %w", err)
	}

	s := &OrderStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *OrderStore) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS orders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		doc_no TEXT NOT NULL,
		doc_name TEXT NOT NULL,
		customer_name TEXT NOT NULL,
		contact_info TEXT NOT NULL,
		request_date DATETIME NOT NULL,
		status TEXT NOT NULL DEFAULT 'Pending',
		stage_context TEXT NOT NULL DEFAULT ''
	);`
	if _, err := s.db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create orders table: %w", err)
	}
	return nil
}

// CreateOrder appends a new order row. An empty docNo is normalized to the
// MANUAL_SEARCH sentinel. Returns the new order's id.
func (s *OrderStore) CreateOrder(ctx context.Context, docNo, docName, customerName, contactInfo, stageContext string) (int64, error) {
	if docNo == "" {
		docNo = model.ManualSearchDocNo
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO orders (doc_no, doc_name, customer_name, contact_info, request_date, status, stage_context)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		docNo, docName, customerName, contactInfo, time.Now().UTC(), model.OrderPending, stageContext,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert order: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read order id: %w", err)
	}

	return id, nil
}

// ListOrders returns a snapshot of all orders, most recent first.
func (s *OrderStore) ListOrders(ctx context.Context) ([]model.Order, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, doc_no, doc_name, customer_name, contact_info, request_date, status, stage_context
		 FROM orders
		 ORDER BY request_date DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.DocNo, &o.DocName, &o.CustomerName, &o.ContactInfo, &o.RequestDate, &o.Status, &o.StageContext); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}

	return orders, nil
}

// UpdateStatus overwrites the status of one order. Unknown status values and
// unknown ids are rejected. Last write wins between concurrent admins.
func (s *OrderStore) UpdateStatus(ctx context.Context, id int64, status string) error {
	if !model.ValidOrderStatus(status) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	result, err := s.db.ExecContext(ctx, `UPDATE orders SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: id %d", ErrOrderNotFound, id)
	}

	return nil
}

// Close releases the underlying database handle.
func (s *OrderStore) Close() error {
	return s.db.Close()
}
