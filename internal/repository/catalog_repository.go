package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/digital-store/domain"
)

func (r *Repository) GetPublishedProduct(ctx context.Context, productID int64) (*domain.Product, error) {
	var p domain.Product
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, author, price, file_ref FROM products
		 WHERE id = $1 AND is_published AND deleted_at IS NULL`, productID,
	).Scan(&p.ID, &p.Title, &p.Author, &p.Price, &p.FileRef)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query product by id: %w", err)
	}
	return &p, nil
}

func (r *Repository) GetContact(ctx context.Context, userID int64) (*domain.Contact, error) {
	var c domain.Contact
	err := r.db.QueryRowContext(ctx,
		`SELECT email, full_name FROM users WHERE id = $1`, userID,
	).Scan(&c.Email, &c.FullName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user contact: %w", err)
	}
	return &c, nil
}
