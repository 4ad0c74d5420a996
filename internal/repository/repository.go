package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/digital-store/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

const (
	pqUniqueViolation = "23505"
	pqCheckViolation  = "23514"
)

var (
	ErrCartNotFound            = errors.New("cart not found")
	ErrCartEmpty               = errors.New("cart has no items")
	ErrCartChanged             = errors.New("cart changed during checkout")
	ErrDuplicateCartItem       = errors.New("product is already in the cart")
	ErrProductNotFound         = errors.New("product not found or not published")
	ErrUserNotFound            = errors.New("user not found")
	ErrOrderNotFound           = errors.New("order not found")
	ErrPaymentNotFound         = errors.New("payment not found")
	ErrOrderNotPending         = errors.New("order is not pending")
	ErrDiscountExhausted       = errors.New("discount code usage limit reached")
	ErrDiscountPerUserLimit    = errors.New("discount code per-user limit reached")
	ErrWebhookAlreadyProcessed = errors.New("payment webhook already processed")
	ErrConstraintViolation     = errors.New("order violates a consistency constraint")
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

type Repository struct {
	db *sql.DB
}

type RepoInterface interface {
	Close() error
	RunMigrations(*Credentials) error

	GetCart(ctx context.Context, userID int64) (*domain.Cart, error)
	AddCartItem(ctx context.Context, userID int64, product *domain.Product) (*domain.Cart, error)

	GetPublishedProduct(ctx context.Context, productID int64) (*domain.Product, error)
	GetContact(ctx context.Context, userID int64) (*domain.Contact, error)

	GetDiscountByCode(ctx context.Context, code string) (*domain.DiscountCode, error)
	CountDiscountUsages(ctx context.Context, discountID uuid.UUID, userID int64) (int, error)

	PlaceOrder(ctx context.Context, placement *domain.OrderPlacement) error
	GetOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error)
	ListOrders(ctx context.Context, userID int64) ([]*domain.Order, error)

	GetPaymentByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Payment, error)
	SetExternalOrderID(ctx context.Context, orderID uuid.UUID, remoteOrderID string) error
	ApplyPaymentResult(ctx context.Context, result *domain.PaymentResult) error
}

func NewRepository(cred *Credentials) (*Repository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	log.Info().Str("host", cred.Host).Str("db", cred.DBName).Msg("connected to postgres")
	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "store_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		log.Error().Err(err).Msg("rollback failed")
	}
}
