package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/digital-store/domain"
	"github.com/google/uuid"
)

func (r *Repository) GetPaymentByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Payment, error) {
	var (
		p             domain.Payment
		transactionID sql.NullString
		remoteOrderID sql.NullString
		method        sql.NullString
		failure       sql.NullString
		paidAt        sql.NullTime
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, order_id, status, amount, external_transaction_id, external_order_id, payment_method,
		        webhook_received, webhook_data, failure_reason, paid_at, created_at
		 FROM payments WHERE order_id = $1`, orderID,
	).Scan(&p.ID, &p.OrderID, &p.Status, &p.Amount, &transactionID, &remoteOrderID, &method,
		&p.WebhookReceived, &p.WebhookData, &failure, &paidAt, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query payment by order id: %w", err)
	}

	if transactionID.Valid {
		p.ExternalTransactionID = &transactionID.String
	}
	if remoteOrderID.Valid {
		p.ExternalOrderID = &remoteOrderID.String
	}
	if method.Valid {
		m := domain.PaymentMethod(method.String)
		p.Method = &m
	}
	if failure.Valid {
		p.FailureReason = &failure.String
	}
	if paidAt.Valid {
		p.PaidAt = &paidAt.Time
	}
	return &p, nil
}

// SetExternalOrderID records the processor order registered for a pending
// payment. An id that is already stored is kept.
func (r *Repository) SetExternalOrderID(ctx context.Context, orderID uuid.UUID, remoteOrderID string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE payments SET external_order_id = $2, updated_at = NOW()
		 WHERE order_id = $1 AND external_order_id IS NULL AND webhook_received = FALSE`,
		orderID, remoteOrderID)
	if err != nil {
		return fmt.Errorf("update payment external order id: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update payment external order id: %w", err)
	}
	if n == 0 {
		var exists bool
		if err := r.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM payments WHERE order_id = $1)`, orderID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("query payment by order id: %w", err)
		}
		if !exists {
			return ErrPaymentNotFound
		}
	}
	return nil
}

// ApplyPaymentResult moves the order and payment to their final state. The
// payment update only matches while webhook_received is false, so a replayed
// or concurrent delivery gets ErrWebhookAlreadyProcessed and changes nothing.
func (r *Repository) ApplyPaymentResult(ctx context.Context, res *domain.PaymentResult) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer rollback(tx)

	payment := domain.PaymentStatusFailed
	order := domain.OrderStatusFailed
	var (
		paidAt  sql.NullTime
		failure *string
		raw     *string
	)
	if res.Success {
		payment = domain.PaymentStatusCompleted
		order = domain.OrderStatusPaid
		paidAt = sql.NullTime{Time: res.ProcessedAt, Valid: true}
	} else {
		reason := res.FailureReason
		failure = &reason
	}
	if len(res.RawPayload) > 0 {
		s := string(res.RawPayload)
		raw = &s
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE payments
		 SET status = $2, external_transaction_id = $3, external_order_id = COALESCE($4, external_order_id), payment_method = $5,
		     paid_at = $6, failure_reason = $7, webhook_data = $8::json, webhook_received = TRUE, updated_at = $9
		 WHERE order_id = $1 AND webhook_received = FALSE`,
		res.OrderID, payment, nullIfEmpty(res.TransactionID), nullIfEmpty(res.RemoteOrderID),
		nullIfEmpty(string(res.Method)), paidAt, failure, raw, res.ProcessedAt)
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	if n == 0 {
		return ErrWebhookAlreadyProcessed
	}

	result, err = tx.ExecContext(ctx,
		`UPDATE orders SET status = $2, paid_at = $3, updated_at = $4
		 WHERE id = $1 AND status = 'PENDING'`,
		res.OrderID, order, paidAt, res.ProcessedAt)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	n, err = result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if n == 0 {
		return ErrOrderNotPending
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit payment result: %w", err)
	}
	return nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
