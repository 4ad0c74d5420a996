package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/fjod/go_cart/digital-store/domain"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PlaceOrder writes the order, its items and payment, records the discount
// redemption and clears the cart in a single transaction.
func (r *Repository) PlaceOrder(ctx context.Context, p *domain.OrderPlacement) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer rollback(tx)

	o := p.Order
	if err := clearCart(ctx, tx, o.UserID, p.CartProductIDs); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (id, user_id, subtotal, discount_amount, total, discount_code_id,
		                     discount_code_used, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`,
		o.ID, o.UserID, o.Subtotal, o.DiscountAmount, o.Total, o.DiscountCodeID,
		o.DiscountCodeUsed, o.Status, o.CreatedAt)
	if pqCode(err) == pqCheckViolation {
		return fmt.Errorf("insert order: %w", ErrConstraintViolation)
	}
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range o.Items {
		item := &o.Items[i]
		err := tx.QueryRowContext(ctx,
			`INSERT INTO order_items (order_id, product_id, title, author, price, file_ref)
			 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
			o.ID, item.ProductID, item.Title, item.Author, item.Price, item.FileRef).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	pay := p.Payment
	_, err = tx.ExecContext(ctx,
		`INSERT INTO payments (id, order_id, status, amount, webhook_received, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, FALSE, $5, $5)`,
		pay.ID, o.ID, pay.Status, pay.Amount, pay.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}

	if p.Discount != nil {
		if err := redeemDiscount(ctx, tx, p.Discount, o); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit order: %w", err)
	}
	return nil
}

// clearCart locks the user's cart row and deletes its items. The deleted
// set must match what was priced, otherwise the cart moved underneath us.
func clearCart(ctx context.Context, tx *sql.Tx, userID int64, priced []int64) error {
	var cartID int64
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM carts WHERE user_id = $1 FOR UPDATE`, userID).Scan(&cartID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrCartEmpty
	}
	if err != nil {
		return fmt.Errorf("lock cart: %w", err)
	}

	rows, err := tx.QueryContext(ctx,
		`DELETE FROM cart_items WHERE cart_id = $1 RETURNING product_id`, cartID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	defer rows.Close()

	deleted := make([]int64, 0, len(priced))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scan cleared item: %w", err)
		}
		deleted = append(deleted, id)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate cleared items: %w", err)
	}

	if len(deleted) == 0 {
		return ErrCartEmpty
	}
	if !sameIDs(deleted, priced) {
		return ErrCartChanged
	}
	return nil
}

// redeemDiscount increments the global counter only while it stays within
// the limit. The UPDATE holds the code's row lock until commit, so the
// per-user count below cannot race another redemption of the same code.
func redeemDiscount(ctx context.Context, tx *sql.Tx, dc *domain.DiscountCode, o *domain.Order) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE discount_codes SET usage_count = usage_count + 1, updated_at = NOW()
		 WHERE id = $1 AND is_active AND (usage_limit IS NULL OR usage_count < usage_limit)`, dc.ID)
	if err != nil {
		return fmt.Errorf("increment discount usage: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("increment discount usage: %w", err)
	}
	if n == 0 {
		return ErrDiscountExhausted
	}

	if dc.PerUserLimit != nil {
		used, err := countUsages(ctx, tx, dc.ID, o.UserID)
		if err != nil {
			return err
		}
		if used >= *dc.PerUserLimit {
			return ErrDiscountPerUserLimit
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO discount_usages (discount_code_id, user_id, order_id, created_at) VALUES ($1, $2, $3, $4)`,
		dc.ID, o.UserID, o.ID, o.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert discount usage: %w", err)
	}
	return nil
}

func sameIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	x := append([]int64(nil), a...)
	y := append([]int64(nil), b...)
	sort.Slice(x, func(i, j int) bool { return x[i] < x[j] })
	sort.Slice(y, func(i, j int) bool { return y[i] < y[j] })
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

const orderColumns = `id, user_id, subtotal, discount_amount, total, discount_code_id,
	discount_code_used, status, created_at, paid_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		o        domain.Order
		codeID   uuid.NullUUID
		codeUsed sql.NullString
		paidAt   sql.NullTime
	)
	err := row.Scan(&o.ID, &o.UserID, &o.Subtotal, &o.DiscountAmount, &o.Total, &codeID,
		&codeUsed, &o.Status, &o.CreatedAt, &paidAt)
	if err != nil {
		return nil, err
	}
	if codeID.Valid {
		o.DiscountCodeID = &codeID.UUID
	}
	if codeUsed.Valid {
		o.DiscountCodeUsed = &codeUsed.String
	}
	if paidAt.Valid {
		o.PaidAt = &paidAt.Time
	}
	o.Items = make([]domain.OrderItem, 0)
	return &o, nil
}

func (r *Repository) GetOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}

	if err := r.attachItems(ctx, map[uuid.UUID]*domain.Order{o.ID: o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *Repository) ListOrders(ctx context.Context, userID int64) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query orders by user: %w", err)
	}
	defer rows.Close()

	orders := make([]*domain.Order, 0)
	byID := make(map[uuid.UUID]*domain.Order)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
		byID[o.ID] = o
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	if len(orders) == 0 {
		return orders, nil
	}
	if err := r.attachItems(ctx, byID); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *Repository) attachItems(ctx context.Context, byID map[uuid.UUID]*domain.Order) error {
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id.String())
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, order_id, product_id, title, author, price, file_ref
		 FROM order_items WHERE order_id = ANY($1::uuid[]) ORDER BY id`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item      domain.OrderItem
			orderID   uuid.UUID
			productID sql.NullInt64
		)
		if err := rows.Scan(&item.ID, &orderID, &productID, &item.Title, &item.Author, &item.Price, &item.FileRef); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		if productID.Valid {
			item.ProductID = &productID.Int64
		}
		if o, ok := byID[orderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	return rows.Err()
}
