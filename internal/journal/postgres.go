package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/lib/pq"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/dreamer95g/habana-express-app/internal/domain"
)

const saleCompletedEventType = "sale.completed"

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

type Repository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewRepository(cred *Credentials, logger *zap.Logger) (*Repository, error) {
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

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	logger.Info("connected to postgres", zap.String("db", cred.DBName))
	return &Repository{db: db, logger: logger}, nil
}

func (r *Repository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "pos_schema_migrations",
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

// RecordSale writes the sale row and its sale-completed outbox event in
// one transaction. A repeated draft id maps to ErrDuplicateDraft.
func (r *Repository) RecordSale(ctx context.Context, record *domain.SaleRecord) error {
	itemsJSON, err := json.Marshal(record.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal sale items: %w", err)
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal sale payload: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	saleQuery := `INSERT INTO pos_sales
	          (id, draft_id, sale_id, seller_id, buyer_phone, payment_method,
	           total_amount, exchange_rate, estimated_commission, currency, notes, items, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())`

	_, insertErr := tx.ExecContext(ctx, saleQuery,
		record.ID,
		record.DraftID,
		record.SaleID,
		record.SellerID,
		record.BuyerPhone,
		record.PaymentMethod,
		record.TotalAmount,
		record.ExchangeRate,
		record.EstimatedCommission,
		record.Currency,
		record.Notes,
		itemsJSON)

	if insertErr != nil {
		var pqErr *pq.Error
		if errors.As(insertErr, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateDraft
		}
		return fmt.Errorf("insert sale: %w", insertErr)
	}

	outboxQuery := `INSERT INTO pos_outbox (aggregate_id, event_type, payload, created_at)
	          VALUES ($1, $2, $3, NOW())`

	if _, err := tx.ExecContext(ctx, outboxQuery, record.DraftID.String(), saleCompletedEventType, payload); err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit sale transaction: %w", err)
	}
	return nil
}

func (r *Repository) GetSaleByID(ctx context.Context, id uuid.UUID) (*domain.SaleRecord, error) {
	query := `SELECT id, draft_id, sale_id, seller_id, buyer_phone, payment_method,
	           total_amount, exchange_rate, estimated_commission, currency, notes, items, created_at
	          FROM pos_sales WHERE id = $1`

	record, err := scanSale(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSaleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query sale by id: %w", err)
	}
	return record, nil
}

func (r *Repository) ListSalesBySeller(ctx context.Context, sellerID int64) ([]*domain.SaleRecord, error) {
	query := `SELECT id, draft_id, sale_id, seller_id, buyer_phone, payment_method,
	           total_amount, exchange_rate, estimated_commission, currency, notes, items, created_at
	          FROM pos_sales WHERE seller_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, sellerID)
	if err != nil {
		return nil, fmt.Errorf("query sales by seller: %w", err)
	}
	defer rows.Close()

	var records []*domain.SaleRecord
	for rows.Next() {
		record, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sale row: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSale(row rowScanner) (*domain.SaleRecord, error) {
	var record domain.SaleRecord
	var itemsJSON []byte
	if err := row.Scan(
		&record.ID,
		&record.DraftID,
		&record.SaleID,
		&record.SellerID,
		&record.BuyerPhone,
		&record.PaymentMethod,
		&record.TotalAmount,
		&record.ExchangeRate,
		&record.EstimatedCommission,
		&record.Currency,
		&record.Notes,
		&itemsJSON,
		&record.CreatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(itemsJSON, &record.Items); err != nil {
		return nil, fmt.Errorf("unmarshal sale items: %w", err)
	}
	return &record, nil
}

func (r *Repository) GetUnpublishedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	query := `SELECT id, aggregate_id, event_type, payload, created_at
	          FROM pos_outbox WHERE published_at IS NULL
	          ORDER BY created_at ASC LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query unpublished events: %w", err)
	}
	defer rows.Close()

	var events []*OutboxEvent
	for rows.Next() {
		var event OutboxEvent
		if err := rows.Scan(&event.ID, &event.AggregateID, &event.EventType, &event.Payload, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return events, nil
}

func (r *Repository) MarkEventPublished(ctx context.Context, id int64) error {
	query := `UPDATE pos_outbox SET published_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("mark event published: %w", err)
	}
	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}
