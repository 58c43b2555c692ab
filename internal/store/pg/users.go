package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"userhub.org/internal/ids"
	"userhub.org/internal/permission"
	"userhub.org/internal/user"
)

const pgErrUniqueViolation = "23505"

var _ user.Store = (*Store)(nil)

// Create inserts the record inside one transaction with the bootstrap
// claim. The single-row update takes a row lock, so under concurrent
// first-time registrations exactly one transaction observes the claim
// succeed; a duplicate-email rollback releases the slot again.
func (s *Store) Create(ctx context.Context, u *user.User, requested permission.Flags) error {
	if u.ID == "" {
		u.ID = ids.New()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		update bootstrap set claimed_by = $1, claimed_at = now()
		where id = 1 and claimed_by is null
	`, u.ID)
	if err != nil {
		return err
	}
	claimed, err := res.RowsAffected()
	if err != nil {
		return err
	}
	u.Flags = permission.Initial(claimed == 1, requested)

	row := tx.QueryRowContext(ctx, `
		insert into users (id, email, password_hash, first_name, last_name, permission_flags)
		values ($1, $2, $3, $4, $5, $6)
		returning created_at, updated_at
	`, u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, int64(u.Flags))
	if err := row.Scan(&u.CreatedAt, &u.UpdatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return user.ErrConflict
		}
		return err
	}
	return tx.Commit()
}

// Get returns the record without the password hash; GetByEmail is the
// only read path that surfaces it.
func (s *Store) Get(ctx context.Context, id string) (user.User, error) {
	var (
		u     user.User
		flags int64
	)
	err := s.db.QueryRowContext(ctx, `
		select id, email, first_name, last_name, permission_flags, created_at, updated_at
		from users where id = $1
	`, id).Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &flags, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, err
	}
	u.Flags = permission.Flags(flags)
	return u, nil
}

func (s *Store) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var (
		u     user.User
		flags int64
	)
	err := s.db.QueryRowContext(ctx, `
		select id, email, password_hash, first_name, last_name, permission_flags, created_at, updated_at
		from users where email = $1
	`, email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &flags, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, err
	}
	u.Flags = permission.Flags(flags)
	return u, nil
}

func (s *Store) List(ctx context.Context, limit, offset int) ([]user.User, error) {
	if limit <= 0 {
		limit = 25
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.db.QueryContext(ctx, `
		select id, email, first_name, last_name, permission_flags, created_at, updated_at
		from users order by created_at asc, id asc
		limit $1 offset $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []user.User
	for rows.Next() {
		var (
			u     user.User
			flags int64
		)
		if err := rows.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &flags, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		u.Flags = permission.Flags(flags)
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) Update(ctx context.Context, id string, upd user.StoreUpdate) error {
	var (
		setClauses []string
		args       []any
		idx        = 1
	)
	if upd.PasswordHash != nil {
		setClauses = append(setClauses, fmt.Sprintf("password_hash = $%d", idx))
		args = append(args, *upd.PasswordHash)
		idx++
	}
	if upd.FirstName != nil {
		setClauses = append(setClauses, fmt.Sprintf("first_name = $%d", idx))
		args = append(args, *upd.FirstName)
		idx++
	}
	if upd.LastName != nil {
		setClauses = append(setClauses, fmt.Sprintf("last_name = $%d", idx))
		args = append(args, *upd.LastName)
		idx++
	}
	setClauses = append(setClauses, "updated_at = now()")
	query := fmt.Sprintf(`update users set %s where id = $%d`, strings.Join(setClauses, ", "), idx)
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (s *Store) SetFlags(ctx context.Context, id string, flags permission.Flags) error {
	res, err := s.db.ExecContext(ctx, `
		update users set permission_flags = $1, updated_at = now() where id = $2
	`, int64(flags), id)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from users where id = $1`, id)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `select count(*) from users`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func maybePgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}
