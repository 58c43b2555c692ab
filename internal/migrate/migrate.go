// Package migrate applies versioned SQL migrations from an fs.FS, so
// the schema can ship embedded in the binary. Files pair as
// NNNN_name.up.sql / NNNN_name.down.sql and apply in lexical order,
// each inside its own transaction.
package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

const defaultTable = "schema_migrations"

// Runner tracks and applies migrations against one database.
type Runner struct {
	db    *sql.DB
	fsys  fs.FS
	table string
}

// Option configures Runner.
type Option func(*Runner)

// WithTable overrides the bookkeeping table name.
func WithTable(name string) Option {
	return func(r *Runner) {
		if name != "" {
			r.table = name
		}
	}
}

// NewRunner constructs a Runner reading migration files from fsys.
func NewRunner(db *sql.DB, fsys fs.FS, opts ...Option) *Runner {
	r := &Runner{db: db, fsys: fsys, table: defaultTable}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Up applies every pending migration and returns the names applied.
func (r *Runner) Up(ctx context.Context) ([]string, error) {
	if err := r.ensureTable(ctx); err != nil {
		return nil, err
	}
	done, err := r.applied(ctx)
	if err != nil {
		return nil, err
	}
	names, err := r.listFiles(".up.sql")
	if err != nil {
		return nil, err
	}
	var appliedNow []string
	for _, name := range names {
		if done[name] {
			continue
		}
		if err := r.execFile(ctx, name); err != nil {
			return appliedNow, fmt.Errorf("apply %s: %w", name, err)
		}
		if _, err := r.db.ExecContext(ctx,
			fmt.Sprintf(`insert into %s (name) values ($1)`, r.table), name); err != nil {
			return appliedNow, err
		}
		appliedNow = append(appliedNow, name)
	}
	return appliedNow, nil
}

// Down rolls back the most recently applied migration and returns its name.
func (r *Runner) Down(ctx context.Context) (string, error) {
	if err := r.ensureTable(ctx); err != nil {
		return "", err
	}
	history, err := r.Status(ctx)
	if err != nil {
		return "", err
	}
	if len(history) == 0 {
		return "", errors.New("migrate: nothing applied")
	}
	last := history[len(history)-1]
	down := strings.TrimSuffix(last, ".up.sql") + ".down.sql"
	if _, err := fs.Stat(r.fsys, down); err != nil {
		return "", fmt.Errorf("migrate: missing down file for %s", last)
	}
	if err := r.execFile(ctx, down); err != nil {
		return "", fmt.Errorf("rollback %s: %w", last, err)
	}
	if _, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`delete from %s where name = $1`, r.table), last); err != nil {
		return "", err
	}
	return last, nil
}

// Status returns applied migrations in application order.
func (r *Runner) Status(ctx context.Context) ([]string, error) {
	if err := r.ensureTable(ctx); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf(`select name from %s order by applied_at, name`, r.table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var history []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		history = append(history, name)
	}
	return history, rows.Err()
}

func (r *Runner) ensureTable(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, fmt.Sprintf(`
		create table if not exists %s (
			name text primary key,
			applied_at timestamptz not null default now()
		)`, r.table))
	return err
}

func (r *Runner) applied(ctx context.Context) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`select name from %s`, r.table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	done := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		done[name] = true
	}
	return done, rows.Err()
}

func (r *Runner) listFiles(suffix string) ([]string, error) {
	entries, err := fs.ReadDir(r.fsys, ".")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), suffix) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// execFile runs every statement of one migration file in a single
// transaction. The pgx stdlib driver will not take multi-statement
// strings, so the file is split on top-level semicolons.
func (r *Runner) execFile(ctx context.Context, name string) error {
	data, err := fs.ReadFile(r.fsys, name)
	if err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, stmt := range splitStatements(string(data)) {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// splitStatements cuts on semicolons outside single-quoted strings.
// Good enough for plain DDL; dollar-quoted bodies are not handled.
func splitStatements(script string) []string {
	var (
		stmts    []string
		current  strings.Builder
		inString bool
	)
	for _, r := range script {
		switch r {
		case '\'':
			inString = !inString
			current.WriteRune(r)
		case ';':
			if inString {
				current.WriteRune(r)
				continue
			}
			stmts = append(stmts, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	if strings.TrimSpace(current.String()) != "" {
		stmts = append(stmts, current.String())
	}
	return stmts
}
