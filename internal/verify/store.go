package verify

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"strconv"
	"strings"
	"time"

	"github.com/terminally-online/verifyusers/internal/database"
)

const activityLogTable = "ActivityLogs"

// User is one row of the report. EmailVerified holds the stored flag as
// text: booleans become "1"/"0", NULL becomes "NULL", anything else is
// printed unchanged.
type User struct {
	Name          string
	Email         string
	EmailVerified string
}

type Result struct {
	Affected int64
}

type Counts struct {
	Total      int64
	Verified   int64
	Unverified int64
}

type Options struct {
	Table                   string
	ActivityLog             bool
	ClearVerificationTokens bool
}

type Store struct {
	db      *sql.DB
	dialect database.Dialect
	opts    Options
	now     func() time.Time
}

// Connect opens the database and reports failures as ErrConnect.
func Connect(ctx context.Context, d database.Dialect, dsn string, timeout time.Duration) (*sql.DB, error) {
	db, err := database.Open(ctx, d, dsn, timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnect, err)
	}
	return db, nil
}

func NewStore(db *sql.DB, d database.Dialect, opts Options) *Store {
	if opts.Table == "" {
		opts.Table = "Users"
	}
	return &Store{
		db:      db,
		dialect: d,
		opts:    opts,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) col(name string) string {
	return s.dialect.Quote(name)
}

func (s *Store) table() string {
	return s.dialect.Quote(s.opts.Table)
}

func (s *Store) updateSQL() string {
	set := []string{fmt.Sprintf("%s = %s", s.col("EmailVerified"), s.dialect.True)}
	if s.opts.ClearVerificationTokens {
		set = append(set,
			fmt.Sprintf("%s = NULL", s.col("VerificationToken")),
			fmt.Sprintf("%s = NULL", s.col("VerificationTokenExpiry")),
		)
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		s.table(), strings.Join(set, ", "), s.col("EmailVerified"), s.dialect.False)
}

func (s *Store) selectSQL() string {
	return fmt.Sprintf("SELECT %s, %s, %s FROM %s",
		s.col("Name"), s.col("Email"), s.col("EmailVerified"), s.table())
}

func (s *Store) activityLogSQL() string {
	d := s.dialect
	return fmt.Sprintf("INSERT INTO %s (%s, %s, %s, %s) VALUES (%s, %s, %s, %s)",
		d.Quote(activityLogTable),
		s.col("Timestamp"), s.col("Type"), s.col("Action"), s.col("Details"),
		d.Bind(1), d.Bind(2), d.Bind(3), d.Bind(4))
}

// MarkAllVerified flips EmailVerified from false to true on every row in a
// single transaction and reports how many rows changed.
func (s *Store) MarkAllVerified(ctx context.Context) (Result, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("%w: failed to acquire connection: %w", ErrConnect, err)
	}
	defer func() { _ = conn.Close() }()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return Result{}, fmt.Errorf("%w: failed to begin transaction: %w", ErrQuery, err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, s.updateSQL())
	if err != nil {
		return Result{}, fmt.Errorf("%w: failed to update %s: %w", ErrQuery, s.opts.Table, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return Result{}, fmt.Errorf("%w: failed to read affected rows: %w", ErrQuery, err)
	}

	if s.opts.ActivityLog && affected > 0 {
		if _, err := tx.ExecContext(ctx, s.activityLogSQL(),
			s.now(), "system", "Bulk verified user emails",
			fmt.Sprintf("Verified %d user(s)", affected),
		); err != nil {
			return Result{}, fmt.Errorf("%w: failed to record activity: %w", ErrQuery, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrCommit, err)
	}

	return Result{Affected: affected}, nil
}

// Cursor streams the rows of a user query. It can be ranged over once.
type Cursor struct {
	rows     *sql.Rows
	consumed bool
}

var errCursorConsumed = errors.New("cursor already consumed")

func (s *Store) QueryUsers(ctx context.Context) (*Cursor, error) {
	rows, err := s.db.QueryContext(ctx, s.selectSQL())
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query %s: %w", ErrQuery, s.opts.Table, err)
	}
	return &Cursor{rows: rows}, nil
}

func (c *Cursor) All() iter.Seq2[User, error] {
	return func(yield func(User, error) bool) {
		if c.consumed {
			yield(User{}, fmt.Errorf("%w: %w", ErrQuery, errCursorConsumed))
			return
		}
		c.consumed = true

		for c.rows.Next() {
			var name, email sql.NullString
			var flag any
			if err := c.rows.Scan(&name, &email, &flag); err != nil {
				yield(User{}, fmt.Errorf("%w: failed to scan user: %w", ErrQuery, err))
				return
			}
			u := User{
				Name:          name.String,
				Email:         email.String,
				EmailVerified: formatFlag(flag),
			}
			if !yield(u, nil) {
				return
			}
		}
		if err := c.rows.Err(); err != nil {
			yield(User{}, fmt.Errorf("%w: failed to read users: %w", ErrQuery, err))
		}
	}
}

// formatFlag renders a scanned EmailVerified value the way it is stored.
func formatFlag(v any) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if v {
			return "1"
		}
		return "0"
	case int64:
		return strconv.FormatInt(v, 10)
	case []byte:
		return string(v)
	case string:
		return v
	}
	return fmt.Sprint(v)
}

func (c *Cursor) Close() error {
	return c.rows.Close()
}

func (s *Store) CountUnverified(ctx context.Context) (int64, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = %s",
		s.table(), s.col("EmailVerified"), s.dialect.False)

	var n int64
	if err := s.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: failed to count unverified users: %w", ErrQuery, err)
	}
	return n, nil
}

func (s *Store) Counts(ctx context.Context) (Counts, error) {
	query := fmt.Sprintf("SELECT COUNT(*), COALESCE(SUM(CASE WHEN %s = %s THEN 1 ELSE 0 END), 0) FROM %s",
		s.col("EmailVerified"), s.dialect.True, s.table())

	var c Counts
	if err := s.db.QueryRowContext(ctx, query).Scan(&c.Total, &c.Verified); err != nil {
		return Counts{}, fmt.Errorf("%w: failed to count users: %w", ErrQuery, err)
	}
	c.Unverified = c.Total - c.Verified
	return c, nil
}

// CheckSchema confirms that every table and column the configured options
// touch exists, without reading any rows.
func (s *Store) CheckSchema(ctx context.Context) error {
	cols := []string{"Name", "Email", "EmailVerified"}
	if s.opts.ClearVerificationTokens {
		cols = append(cols, "VerificationToken", "VerificationTokenExpiry")
	}
	if err := s.checkColumns(ctx, s.opts.Table, cols); err != nil {
		return err
	}
	if s.opts.ActivityLog {
		return s.checkColumns(ctx, activityLogTable, []string{"Timestamp", "Type", "Action", "Details"})
	}
	return nil
}

func (s *Store) checkColumns(ctx context.Context, table string, cols []string) error {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = s.col(c)
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE 1 = 0", strings.Join(quoted, ", "), s.dialect.Quote(table))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("%w: table %s is missing or lacks columns %s: %w",
			ErrQuery, table, strings.Join(cols, ", "), err)
	}
	return rows.Close()
}
