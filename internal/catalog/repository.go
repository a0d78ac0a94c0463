package catalog

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"faultline/internal/fault"
	"faultline/internal/faults"
)

// Repository abstracts item storage. Implementations return typed
// fault values; no driver error ever crosses this boundary unwrapped.
type Repository interface {
	Get(ctx context.Context, id string) (Item, error)
	Create(ctx context.Context, item Item) error
	Delete(ctx context.Context, id string) error
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Dialect selects the placeholder style of the underlying driver.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// SQLRepository stores items through database/sql, backed by either the
// sqlite or the pgx driver. Queries are written with ? placeholders and
// rebound to $N for postgres.
type SQLRepository struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLRepository creates a repository over an opened database handle.
func NewSQLRepository(db *sql.DB, dialect Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect}
}

// Get loads one item by id.
func (r *SQLRepository) Get(ctx context.Context, id string) (Item, error) {
	q := r.bind(`SELECT id, sku, name, price_cents, updated_at FROM items WHERE id = ?`)

	var it Item
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&it.ID, &it.SKU, &it.Name, &it.PriceCents, &it.UpdatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return Item{}, faults.ErrResourceNotFound.New(
			fault.F("kind", "item"), fault.F("id", id))
	case err != nil:
		return Item{}, faults.ErrQueryFailed.Wrap(err, fault.F("op", "get"))
	}
	return it, nil
}

// Create inserts a new item. SKU uniqueness violations surface as the
// declared DuplicateSKU case.
func (r *SQLRepository) Create(ctx context.Context, item Item) error {
	q := r.bind(`INSERT INTO items (id, sku, name, price_cents, updated_at)
	             VALUES (?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, q,
		item.ID, item.SKU, item.Name, item.PriceCents, item.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return faults.ErrDuplicateSKU.New(fault.F("sku", item.SKU))
		}
		return faults.ErrQueryFailed.Wrap(err, fault.F("op", "create"))
	}
	return nil
}

// Delete removes an item by id.
func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	q := r.bind(`DELETE FROM items WHERE id = ?`)

	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return faults.ErrQueryFailed.Wrap(err, fault.F("op", "delete"))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return faults.ErrQueryFailed.Wrap(err, fault.F("op", "delete"))
	}
	if n == 0 {
		return faults.ErrResourceNotFound.New(
			fault.F("kind", "item"), fault.F("id", id))
	}
	return nil
}

// PruneOlderThan deletes items not updated since cutoff and returns the
// number of removed rows. Used by the maintenance scheduler.
func (r *SQLRepository) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	q := r.bind(`DELETE FROM items WHERE updated_at < ?`)

	res, err := r.db.ExecContext(ctx, q, cutoff)
	if err != nil {
		return 0, faults.ErrQueryFailed.Wrap(err, fault.F("op", "prune"))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, faults.ErrQueryFailed.Wrap(err, fault.F("op", "prune"))
	}
	return n, nil
}

// bind rewrites ? placeholders to $N for the postgres dialect.
func (r *SQLRepository) bind(query string) string {
	if r.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// isUniqueViolation detects unique constraint failures for both
// supported drivers: pgx reports SQLSTATE 23505, modernc sqlite only a
// message.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
