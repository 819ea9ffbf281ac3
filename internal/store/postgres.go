package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"weeklychef/internal/catalog"
	"weeklychef/pkg/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres implements Store over database/sql with the pgx stdlib driver.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) DB() *sql.DB { return p.db }

/* ===================== USERS ===================== */

func (p *Postgres) GetUserStaffFlag(ctx context.Context, userID int64) (bool, error) {
	var staff bool
	err := p.db.QueryRowContext(ctx, `SELECT is_staff FROM users WHERE id = $1`, userID).Scan(&staff)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("store: staff flag: %w", err)
	}
	return staff, nil
}

func (p *Postgres) GetUserByUsername(ctx context.Context, username string) (User, error) {
	var u User
	err := p.db.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, is_staff, created_at
		FROM users
		WHERE username = $1`, username,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsStaff, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("store: user by username: %w", err)
	}
	return u, nil
}

func (p *Postgres) CreateUser(ctx context.Context, u User) (User, error) {
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO users (username, email, password_hash, is_staff)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		u.Username, u.Email, u.PasswordHash, u.IsStaff,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		if pgCode(err) == "23505" {
			return User{}, ErrUsernameTaken
		}
		return User{}, fmt.Errorf("store: create user: %w", err)
	}
	return u, nil
}

/* ===================== RESOURCES ===================== */

func (p *Postgres) GetByID(ctx context.Context, family catalog.Family, id int64) (catalog.Row, error) {
	t, err := catalog.Lookup(family)
	if err != nil {
		return catalog.Row{}, err
	}
	q := fmt.Sprintf(`SELECT * FROM %s WHERE id = $1`, ident(t.Name))
	return queryRow(ctx, p.db, family, q, id)
}

func (p *Postgres) Insert(ctx context.Context, family catalog.Family, values map[string]any) (catalog.Row, error) {
	t, err := catalog.Lookup(family)
	if err != nil {
		return catalog.Row{}, err
	}
	cols := sortedKeys(values)
	if len(cols) == 0 {
		return catalog.Row{}, ErrInvalidValue
	}

	names := make([]string, len(cols))
	params := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, c := range cols {
		names[i] = ident(c)
		params[i] = fmt.Sprintf("$%d", i+1)
		args[i] = normalize(values[c])
	}
	q := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) RETURNING *`,
		ident(t.Name), strings.Join(names, ", "), strings.Join(params, ", "))
	return queryRow(ctx, p.db, family, q, args...)
}

// Update locks the row before writing so concurrent updates serialize.
func (p *Postgres) Update(ctx context.Context, family catalog.Family, id int64, values map[string]any) (catalog.Row, error) {
	t, err := catalog.Lookup(family)
	if err != nil {
		return catalog.Row{}, err
	}

	var out catalog.Row
	err = utils.WithTx(ctx, p.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		lock := fmt.Sprintf(`SELECT * FROM %s WHERE id = $1 FOR UPDATE`, ident(t.Name))
		current, err := queryRow(ctx, tx, family, lock, id)
		if err != nil {
			return err
		}
		cols := sortedKeys(values)
		if len(cols) == 0 {
			out = current
			return nil
		}

		sets := make([]string, len(cols))
		args := make([]any, 0, len(cols)+1)
		args = append(args, id)
		for i, c := range cols {
			sets[i] = fmt.Sprintf("%s = $%d", ident(c), i+2)
			args = append(args, normalize(values[c]))
		}
		q := fmt.Sprintf(`UPDATE %s SET %s WHERE id = $1 RETURNING *`, ident(t.Name), strings.Join(sets, ", "))
		out, err = queryRow(ctx, tx, family, q, args...)
		return err
	})
	if err != nil {
		return catalog.Row{}, err
	}
	return out, nil
}

func (p *Postgres) Delete(ctx context.Context, family catalog.Family, id int64) error {
	t, err := catalog.Lookup(family)
	if err != nil {
		return err
	}
	res, err := p.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, ident(t.Name)), id)
	if err != nil {
		return mapPgError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

/* ===================== HELPERS ===================== */

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func queryRow(ctx context.Context, q querier, family catalog.Family, query string, args ...any) (catalog.Row, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return catalog.Row{}, mapPgError(err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return catalog.Row{}, mapPgError(err)
		}
		return catalog.Row{}, ErrNotFound
	}
	row, err := scanRow(rows, family)
	if err != nil {
		return catalog.Row{}, err
	}
	return row, rows.Err()
}

func scanRow(rows *sql.Rows, family catalog.Family) (catalog.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return catalog.Row{}, err
	}
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return catalog.Row{}, fmt.Errorf("store: scan %s: %w", family, err)
	}

	row := catalog.Row{Family: family, Values: make(map[string]any, len(cols))}
	for i, c := range cols {
		v := vals[i]
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		if c == "id" {
			row.ID, _ = catalog.ToInt64(v)
			continue
		}
		row.Values[c] = v
	}
	return row, nil
}

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func sortedKeys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// normalize turns decoded JSON numbers into driver friendly values.
func normalize(v any) any {
	switch n := v.(type) {
	case float64:
		if n == math.Trunc(n) && math.Abs(n) < 1<<53 {
			return int64(n)
		}
		return n
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return f
		}
		return string(n)
	default:
		return v
	}
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func mapPgError(err error) error {
	switch code := pgCode(err); {
	case code == "23505":
		return fmt.Errorf("%w: %v", ErrConflict, err)
	case code == "23503":
		return fmt.Errorf("%w: %v", ErrInvalidReference, err)
	case code == "23502", strings.HasPrefix(code, "22"):
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	default:
		return err
	}
}
