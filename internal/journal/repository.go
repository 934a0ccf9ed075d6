package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/diyanmhd/flygan-ecommerce-sub000/internal/domain"
)

// Config selects the SQL backend. Production runs on postgres; tests run on
// an embedded sqlite file.
type Config struct {
	Driver            string // "postgres" or "sqlite"
	DSN               string
	MigrationsDirPath string
}

type Repository struct {
	db     *sql.DB
	driver string
}

func NewRepository(cfg *Config) (*Repository, error) {
	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	if cfg.Driver == "sqlite" {
		// modernc sqlite misbehaves with concurrent writers on one file
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(50)
		db.SetMaxIdleConns(10)
	}

	return &Repository{db: db, driver: cfg.Driver}, nil
}

func (r *Repository) RunMigrations(cfg *Config) error {
	var (
		driver database.Driver
		err    error
	)
	switch cfg.Driver {
	case "postgres":
		driver, err = migratepg.WithInstance(r.db, &migratepg.Config{})
	case "sqlite":
		driver, err = migratesqlite.WithInstance(r.db, &migratesqlite.Config{})
	default:
		return fmt.Errorf("unsupported journal driver %q", cfg.Driver)
	}
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cfg.MigrationsDirPath),
		cfg.Driver,
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

// rebind rewrites ? placeholders to $n for postgres. Queries are written once
// in sqlite style.
func (r *Repository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

func (r *Repository) CreateAttempt(ctx context.Context, attempt *Attempt) error {
	now := time.Now().UTC()
	attempt.CreatedAt = now
	attempt.UpdatedAt = now

	query := r.rebind(`INSERT INTO checkout_attempts
		(id, user_id, status, cart_snapshot, subtotal, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, query,
		attempt.ID, attempt.UserID, attempt.Status.String(),
		string(attempt.CartSnapshot), attempt.Subtotal,
		attempt.CreatedAt, attempt.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create checkout attempt: %w", err)
	}
	return nil
}

func (r *Repository) GetAttempt(ctx context.Context, id string) (*Attempt, error) {
	query := r.rebind(`SELECT id, user_id, status, cart_snapshot, subtotal,
		order_id, order_number, gateway_order_id, gateway_payment_id,
		failure_reason, created_at, updated_at
		FROM checkout_attempts WHERE id = ?`)

	attempt, err := scanAttempt(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAttemptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get checkout attempt: %w", err)
	}
	return attempt, nil
}

func (r *Repository) SetOrder(ctx context.Context, id string, orderID int64, orderNumber string) error {
	query := r.rebind(`UPDATE checkout_attempts
		SET status = ?, order_id = ?, order_number = ?, updated_at = ?
		WHERE id = ?`)
	return r.exec(ctx, query, domain.AttemptStatusOrderCreated.String(), orderID, orderNumber, time.Now().UTC(), id)
}

func (r *Repository) SetGatewayOrder(ctx context.Context, id string, gatewayOrderID string) error {
	query := r.rebind(`UPDATE checkout_attempts
		SET status = ?, gateway_order_id = ?, updated_at = ?
		WHERE id = ?`)
	return r.exec(ctx, query, domain.AttemptStatusPaymentPending.String(), gatewayOrderID, time.Now().UTC(), id)
}

func (r *Repository) SetGatewayPayment(ctx context.Context, id string, gatewayPaymentID string) error {
	query := r.rebind(`UPDATE checkout_attempts
		SET gateway_payment_id = ?, updated_at = ?
		WHERE id = ?`)
	return r.exec(ctx, query, gatewayPaymentID, time.Now().UTC(), id)
}

func (r *Repository) MarkTerminal(ctx context.Context, id string, status domain.AttemptStatus, failureReason string, payload []byte) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	var reason interface{}
	if failureReason != "" {
		reason = failureReason
	}
	updateQ := r.rebind(`UPDATE checkout_attempts
		SET status = ?, failure_reason = ?, updated_at = ?
		WHERE id = ?`)
	res, err := tx.ExecContext(ctx, updateQ, status.String(), reason, now, id)
	if err != nil {
		return fmt.Errorf("failed to update checkout attempt: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAttemptNotFound
	}

	insertQ := r.rebind(`INSERT INTO outbox_events
		(id, attempt_id, event_type, payload, created_at)
		VALUES (?, ?, ?, ?, ?)`)
	_, err = tx.ExecContext(ctx, insertQ,
		uuid.NewString(), id, EventTypeFor(status), string(payload), now)
	if err != nil {
		return fmt.Errorf("failed to append outbox event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit terminal status: %w", err)
	}
	return nil
}

func (r *Repository) GetStuckAttempts(ctx context.Context, olderThan time.Time) ([]Attempt, error) {
	query := r.rebind(`SELECT id, user_id, status, cart_snapshot, subtotal,
		order_id, order_number, gateway_order_id, gateway_payment_id,
		failure_reason, created_at, updated_at
		FROM checkout_attempts
		WHERE status IN ('INITIATED', 'ORDER_CREATED', 'PAYMENT_PENDING')
		AND updated_at < ?`)

	rows, err := r.db.QueryContext(ctx, query, olderThan.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query stuck attempts: %w", err)
	}
	defer rows.Close()

	var attempts []Attempt
	for rows.Next() {
		attempt, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stuck attempt: %w", err)
		}
		attempts = append(attempts, *attempt)
	}
	return attempts, rows.Err()
}

func (r *Repository) GetUnprocessedEvents(ctx context.Context, limit int) ([]OutboxEvent, error) {
	query := r.rebind(`SELECT id, attempt_id, event_type, payload, created_at, processed_at
		FROM outbox_events
		WHERE processed_at IS NULL
		ORDER BY created_at
		LIMIT ?`)

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query outbox events: %w", err)
	}
	defer rows.Close()

	var events []OutboxEvent
	for rows.Next() {
		var (
			event       OutboxEvent
			payload     string
			processedAt sql.NullTime
		)
		if err := rows.Scan(&event.ID, &event.AttemptID, &event.EventType,
			&payload, &event.CreatedAt, &processedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		event.Payload = []byte(payload)
		if processedAt.Valid {
			t := processedAt.Time
			event.ProcessedAt = &t
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (r *Repository) MarkEventProcessed(ctx context.Context, eventID string) error {
	query := r.rebind(`UPDATE outbox_events SET processed_at = ? WHERE id = ?`)
	_, err := r.db.ExecContext(ctx, query, time.Now().UTC(), eventID)
	if err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}
	return nil
}

func (r *Repository) exec(ctx context.Context, query string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update checkout attempt: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAttemptNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAttempt(row rowScanner) (*Attempt, error) {
	var (
		attempt          Attempt
		status           string
		snapshot         string
		orderID          sql.NullInt64
		orderNumber      sql.NullString
		gatewayOrderID   sql.NullString
		gatewayPaymentID sql.NullString
		failureReason    sql.NullString
	)
	err := row.Scan(&attempt.ID, &attempt.UserID, &status, &snapshot,
		&attempt.Subtotal, &orderID, &orderNumber, &gatewayOrderID,
		&gatewayPaymentID, &failureReason, &attempt.CreatedAt, &attempt.UpdatedAt)
	if err != nil {
		return nil, err
	}

	attempt.Status = domain.AttemptStatus(status)
	attempt.CartSnapshot = []byte(snapshot)
	if orderID.Valid {
		attempt.OrderID = &orderID.Int64
	}
	if orderNumber.Valid {
		attempt.OrderNumber = &orderNumber.String
	}
	if gatewayOrderID.Valid {
		attempt.GatewayOrderID = &gatewayOrderID.String
	}
	if gatewayPaymentID.Valid {
		attempt.GatewayPaymentID = &gatewayPaymentID.String
	}
	if failureReason.Valid {
		attempt.FailureReason = &failureReason.String
	}
	return &attempt, nil
}
