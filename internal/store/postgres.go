package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"item-catalog/internal/models"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// querier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore persists items in the items table.
type PostgresStore struct {
	db *sql.DB
	q  querier
}

// OpenPostgres opens a pgx-backed *sql.DB and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return NewPostgresStore(db), nil
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, q: db}
}

// DB exposes the underlying handle for migrations and health checks.
func (p *PostgresStore) DB() *sql.DB { return p.db }

// WithTx runs fn against a store bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func (p *PostgresStore) WithTx(ctx context.Context, fn func(ItemStore) error) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&PostgresStore{db: p.db, q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

const itemColumns = "id, name, description, created_at, updated_at"

func scanItem(row interface{ Scan(dest ...any) error }, it *models.Item) error {
	return row.Scan(&it.ID, &it.Name, &it.Description, &it.CreatedAt, &it.UpdatedAt)
}

func (p *PostgresStore) Create(ctx context.Context, it *models.Item) error {
	err := p.q.QueryRowContext(ctx, `
		INSERT INTO items (name, description)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at`, it.Name, it.Description).
		Scan(&it.ID, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

func (p *PostgresStore) Save(ctx context.Context, it *models.Item) error {
	err := scanItem(p.q.QueryRowContext(ctx, `
		UPDATE items SET name = $1, description = $2, updated_at = now()
		WHERE id = $3
		RETURNING `+itemColumns, it.Name, it.Description, it.ID), it)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update item %d: %w", it.ID, err)
	}
	return nil
}

func (p *PostgresStore) Get(ctx context.Context, id int64) (models.Item, error) {
	var it models.Item
	err := scanItem(p.q.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = $1`, id), &it)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Item{}, ErrNotFound
	}
	if err != nil {
		return models.Item{}, fmt.Errorf("get item %d: %w", id, err)
	}
	return it, nil
}

func (p *PostgresStore) GetByName(ctx context.Context, name string) (models.Item, error) {
	rows, err := p.q.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE name = $1 ORDER BY id LIMIT 2`, name)
	if err != nil {
		return models.Item{}, fmt.Errorf("get item by name: %w", err)
	}
	defer rows.Close()

	var found []models.Item
	for rows.Next() {
		var it models.Item
		if err := scanItem(rows, &it); err != nil {
			return models.Item{}, fmt.Errorf("scan item: %w", err)
		}
		found = append(found, it)
	}
	if err := rows.Err(); err != nil {
		return models.Item{}, fmt.Errorf("get item by name: %w", err)
	}

	switch len(found) {
	case 0:
		return models.Item{}, ErrNotFound
	case 1:
		return found[0], nil
	default:
		return models.Item{}, ErrMultipleItems
	}
}

func (p *PostgresStore) Delete(ctx context.Context, id int64) error {
	res, err := p.q.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete item %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete item %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := p.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return n, nil
}

// likeEscaper makes a search term match literally under ILIKE's default
// backslash escape.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (p *PostgresStore) List(ctx context.Context, opts ListOptions) ([]models.Item, int, error) {
	where := ""
	args := []any{}
	if q := strings.TrimSpace(opts.Query); q != "" {
		where = " WHERE (name ILIKE $1 OR description ILIKE $1)"
		args = append(args, "%"+likeEscaper.Replace(q)+"%")
	}

	sqlStr := `SELECT ` + itemColumns + `, COUNT(*) OVER() AS total_count FROM items` + where
	sqlStr += orderBy(opts.Sort)
	if opts.Limit > 0 {
		sqlStr += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}
	if opts.Offset > 0 {
		sqlStr += fmt.Sprintf(" OFFSET %d", opts.Offset)
	}

	rows, err := p.q.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := []models.Item{}
	total := 0
	for rows.Next() {
		var it models.Item
		if err := rows.Scan(&it.ID, &it.Name, &it.Description, &it.CreatedAt, &it.UpdatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list items: %w", err)
	}

	// An offset past the end yields no rows and so no window count.
	if len(items) == 0 && opts.Offset > 0 {
		countSQL := `SELECT COUNT(*) FROM items` + where
		if err := p.q.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count items: %w", err)
		}
	}
	return items, total, nil
}

func (p *PostgresStore) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// orderBy renders sort keys as an ORDER BY clause. Keys are whitelisted by
// parseSort so they are safe to interpolate.
func orderBy(sortParam string) string {
	keys := parseSort(sortParam)
	clauses := make([]string, 0, len(keys)+1)
	hasID := false
	for _, k := range keys {
		dir := " ASC"
		if k.desc {
			dir = " DESC"
		}
		clauses = append(clauses, k.field+dir)
		hasID = hasID || k.field == "id"
	}
	if !hasID {
		clauses = append(clauses, "id ASC")
	}
	return " ORDER BY " + strings.Join(clauses, ", ")
}
