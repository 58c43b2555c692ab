package pg

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"userhub.org/internal/permission"
	"userhub.org/internal/user"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db), mock
}

func TestCreateFirstUserClaimsBootstrap(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec("update bootstrap set claimed_by").
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("insert into users").
		WithArgs(sqlmock.AnyArg(), "first@example.com", "hash", "", "", int64(permission.Paid|permission.Admin)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectCommit()

	u := &user.User{Email: "first@example.com", PasswordHash: "hash"}
	if err := store.Create(context.Background(), u, permission.Paid|permission.Admin); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.Flags != permission.Paid|permission.Admin {
		t.Fatalf("first user flags not honored: %v", u.Flags)
	}
	if u.ID == "" {
		t.Fatal("expected generated id")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateLaterUserForcedToDefault(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec("update bootstrap set claimed_by").
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("insert into users").
		WithArgs(sqlmock.AnyArg(), "second@example.com", "hash", "", "", int64(permission.Default())).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectCommit()

	u := &user.User{Email: "second@example.com", PasswordHash: "hash"}
	if err := store.Create(context.Background(), u, permission.Admin); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.Flags != permission.Default() {
		t.Fatalf("expected default flags, got %v", u.Flags)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateDuplicateEmailConflicts(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("update bootstrap set claimed_by").
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("insert into users").
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation})
	mock.ExpectRollback()

	u := &user.User{Email: "dupe@example.com", PasswordHash: "hash"}
	if err := store.Create(context.Background(), u, 0); !errors.Is(err, user.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("select id, email, first_name").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	if _, err := store.Get(context.Background(), "missing"); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetByEmailSurfacesHash(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery("select id, email, password_hash").
		WithArgs("login@example.com").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "email", "password_hash", "first_name", "last_name", "permission_flags", "created_at", "updated_at",
		}).AddRow("u-1", "login@example.com", "bcrypt-hash", "", "", int64(permission.Free), now, now))

	u, err := store.GetByEmail(context.Background(), "login@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if u.PasswordHash != "bcrypt-hash" {
		t.Fatalf("login lookup must include the hash, got %q", u.PasswordHash)
	}
	if u.Flags != permission.Free {
		t.Fatalf("unexpected flags %v", u.Flags)
	}
}

func TestUpdateMergesOnlyProvidedFields(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("update users set first_name").
		WithArgs("Paulo", "u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	name := "Paulo"
	if err := store.Update(context.Background(), "u-1", user.StoreUpdate{FirstName: &name}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateMissingUser(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("update users set").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.Update(context.Background(), "missing", user.StoreUpdate{}); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetFlags(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("update users set permission_flags").
		WithArgs(int64(permission.Paid), "u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.SetFlags(context.Background(), "u-1", permission.Paid); err != nil {
		t.Fatalf("SetFlags: %v", err)
	}

	mock.ExpectExec("update users set permission_flags").
		WithArgs(int64(permission.Paid), "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.SetFlags(context.Background(), "missing", permission.Paid); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteIsStrict(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("delete from users").
		WithArgs("u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := store.Delete(context.Background(), "u-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	mock.ExpectExec("delete from users").
		WithArgs("u-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	if err := store.Delete(context.Background(), "u-1"); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on repeat delete, got %v", err)
	}
}

func TestCount(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("select count").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(3)))

	count, err := store.Count(context.Background())
	if err != nil || count != 3 {
		t.Fatalf("Count = %d, %v", count, err)
	}
}
