package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/easy-qr-codes/internal/qrcode"
)

// PostgresStore is a PostgreSQL implementation of qrcode.Repository.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed record store. Call Migrate first.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const selectRecord = `
	SELECT id, qr_code_url, target_url, usage_count, status, created_at
	FROM qr_codes
`

func (p *PostgresStore) Create(ctx context.Context, targetURL string) (qrcode.ID, error) {
	target, err := qrcode.ValidateTargetURL(targetURL)
	if err != nil {
		return 0, err
	}

	query := `
		INSERT INTO qr_codes (target_url, status)
		VALUES ($1, $2)
		RETURNING id
	`

	var id int64
	if err = p.pool.QueryRow(ctx, query, target, string(qrcode.StatusPending)).Scan(&id); err != nil {
		return 0, storageErr("insert qr code", err)
	}

	return qrcode.ID(id), nil
}

func (p *PostgresStore) Get(ctx context.Context, id qrcode.ID) (*qrcode.Record, error) {
	row := p.pool.QueryRow(ctx, selectRecord+" WHERE id = $1", int64(id))

	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound(id)
		}

		return nil, storageErr("get qr code", err)
	}

	return record, nil
}

func (p *PostgresStore) List(ctx context.Context) ([]*qrcode.Record, error) {
	rows, err := p.pool.Query(ctx, selectRecord+" ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, storageErr("list qr codes", err)
	}
	defer rows.Close()

	var records []*qrcode.Record

	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, storageErr("scan qr code", err)
		}

		records = append(records, record)
	}

	if err = rows.Err(); err != nil {
		return nil, storageErr("list qr codes", err)
	}

	return records, nil
}

func (p *PostgresStore) SetImageReference(ctx context.Context, id qrcode.ID, reference string) error {
	query := `UPDATE qr_codes SET qr_code_url = $2, status = $3 WHERE id = $1`

	return p.exec(ctx, "set image reference", id, query, int64(id), reference, string(qrcode.StatusRendered))
}

func (p *PostgresStore) SetTargetURL(ctx context.Context, id qrcode.ID, targetURL string) error {
	target, err := qrcode.ValidateTargetURL(targetURL)
	if err != nil {
		return err
	}

	query := `UPDATE qr_codes SET target_url = $2 WHERE id = $1`

	return p.exec(ctx, "set target url", id, query, int64(id), target)
}

// IncrementUsage bumps the counter in a single statement, so concurrent scans never lose updates.
func (p *PostgresStore) IncrementUsage(ctx context.Context, id qrcode.ID) (uint64, error) {
	query := `
		UPDATE qr_codes
		SET usage_count = usage_count + 1
		WHERE id = $1
		RETURNING usage_count
	`

	var count int64

	err := p.pool.QueryRow(ctx, query, int64(id)).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, notFound(id)
		}

		return 0, storageErr("increment usage", err)
	}

	return uint64(count), nil
}

func (p *PostgresStore) exec(ctx context.Context, op string, id qrcode.ID, query string, args ...any) error {
	tag, err := p.pool.Exec(ctx, query, args...)
	if err != nil {
		return storageErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return notFound(id)
	}

	return nil
}

func scanRecord(row pgx.Row) (*qrcode.Record, error) {
	var (
		record qrcode.Record
		id     int64
		count  int64
		status string
	)

	err := row.Scan(&id, &record.ImageReference, &record.TargetURL, &count, &status, &record.CreatedAt)
	if err != nil {
		return nil, err
	}

	record.ID = qrcode.ID(id)
	record.UsageCount = uint64(count)
	record.Status = qrcode.Status(status)

	return &record, nil
}

// Shutdown closes the connection pool.
func (p *PostgresStore) Shutdown() error {
	p.pool.Close()

	return nil
}

var _ qrcode.Repository = (*PostgresStore)(nil)
