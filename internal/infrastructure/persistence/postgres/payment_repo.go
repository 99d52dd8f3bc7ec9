package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/studygotchi/studygotchi-hub/internal/domain/economy"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// PAYMENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// PaymentRepository implements economy.PaymentRepository for PostgreSQL.
type PaymentRepository struct {
	conn *Connection
}

// NewPaymentRepository creates a new PaymentRepository.
func NewPaymentRepository(conn *Connection) *PaymentRepository {
	return &PaymentRepository{conn: conn}
}

const orderColumns = "order_id, user_id, amount, status, created_at, updated_at"

// CreateOrder persists a new order.
func (r *PaymentRepository) CreateOrder(ctx context.Context, o *economy.Order) error {
	query := `
		INSERT INTO orders (order_id, user_id, amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.conn.Exec(ctx, query,
		o.OrderID, o.UserID, o.Amount, string(o.Status), o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

// GetOrder returns an order by its order ID.
func (r *PaymentRepository) GetOrder(ctx context.Context, orderID string) (*economy.Order, error) {
	query := fmt.Sprintf("SELECT %s FROM orders WHERE order_id = $1", orderColumns)
	row := r.conn.QueryRow(ctx, query, orderID)
	return r.scanOrder(row)
}

// UpdateOrder persists order state changes.
func (r *PaymentRepository) UpdateOrder(ctx context.Context, o *economy.Order) error {
	query := `
		UPDATE orders SET status = $1, updated_at = $2
		WHERE order_id = $3
	`

	result, err := r.conn.Exec(ctx, query, string(o.Status), time.Now().UTC(), o.OrderID)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if result.RowsAffected() == 0 {
		return economy.ErrOrderNotFound
	}
	return nil
}

// GetOrdersByUser returns a user's orders, newest first.
func (r *PaymentRepository) GetOrdersByUser(ctx context.Context, userID string, limit int) ([]*economy.Order, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, orderColumns)

	rows, err := r.conn.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	return r.scanOrders(rows)
}

// FindStaleReady returns READY orders older than the threshold.
func (r *PaymentRepository) FindStaleReady(ctx context.Context, olderThan time.Duration) ([]*economy.Order, error) {
	cutoff := time.Now().UTC().Add(-olderThan)

	query := fmt.Sprintf(`
		SELECT %s FROM orders
		WHERE status = 'READY' AND created_at < $1
		ORDER BY created_at ASC
	`, orderColumns)

	rows, err := r.conn.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to find stale orders: %w", err)
	}
	defer rows.Close()

	return r.scanOrders(rows)
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning Helpers
// ─────────────────────────────────────────────────────────────────────────────

func (r *PaymentRepository) scanOrder(row pgx.Row) (*economy.Order, error) {
	var (
		o      economy.Order
		status string
	)

	err := row.Scan(&o.OrderID, &o.UserID, &o.Amount, &status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, economy.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}

	o.Status = economy.OrderStatus(status)
	return &o, nil
}

func (r *PaymentRepository) scanOrders(rows pgx.Rows) ([]*economy.Order, error) {
	orders := make([]*economy.Order, 0)
	for rows.Next() {
		o, err := r.scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
