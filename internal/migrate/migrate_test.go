package migrate

import (
	"context"
	"reflect"
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
)

var testFS = fstest.MapFS{
	"0001_users.up.sql": &fstest.MapFile{Data: []byte(
		"create table users (id text primary key);\n" +
			"create table bootstrap (id smallint primary key);\n",
	)},
	"0001_users.down.sql": &fstest.MapFile{Data: []byte(
		"drop table bootstrap;\ndrop table users;\n",
	)},
	"0002_seed.up.sql": &fstest.MapFile{Data: []byte(
		"insert into bootstrap (id) values (1);\n",
	)},
}

func TestUpAppliesPendingInOrder(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`create table if not exists schema_migrations`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`select name from schema_migrations`).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("0001_users.up.sql"))

	// Only 0002 is pending; its single statement runs in one tx.
	mock.ExpectBegin()
	mock.ExpectExec(`insert into bootstrap`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectExec(`insert into schema_migrations`).
		WithArgs("0002_seed.up.sql").
		WillReturnResult(sqlmock.NewResult(0, 1))

	r := NewRunner(db, testFS)
	applied, err := r.Up(context.Background())
	if err != nil {
		t.Fatalf("Up: %v", err)
	}
	if !reflect.DeepEqual(applied, []string{"0002_seed.up.sql"}) {
		t.Fatalf("applied = %v", applied)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestUpFreshDatabaseSplitsStatements(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`create table if not exists schema_migrations`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`select name from schema_migrations`).
		WillReturnRows(sqlmock.NewRows([]string{"name"}))

	mock.ExpectBegin()
	mock.ExpectExec(`create table users`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`create table bootstrap`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectExec(`insert into schema_migrations`).
		WithArgs("0001_users.up.sql").
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectBegin()
	mock.ExpectExec(`insert into bootstrap`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectExec(`insert into schema_migrations`).
		WithArgs("0002_seed.up.sql").
		WillReturnResult(sqlmock.NewResult(0, 1))

	r := NewRunner(db, testFS)
	applied, err := r.Up(context.Background())
	if err != nil {
		t.Fatalf("Up: %v", err)
	}
	if len(applied) != 2 {
		t.Fatalf("applied = %v, want both migrations", applied)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestDownRollsBackLast(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`create table if not exists schema_migrations`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`create table if not exists schema_migrations`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`select name from schema_migrations order by`).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("0001_users.up.sql"))

	mock.ExpectBegin()
	mock.ExpectExec(`drop table bootstrap`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`drop table users`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectExec(`delete from schema_migrations`).
		WithArgs("0001_users.up.sql").
		WillReturnResult(sqlmock.NewResult(0, 1))

	r := NewRunner(db, testFS)
	name, err := r.Down(context.Background())
	if err != nil {
		t.Fatalf("Down: %v", err)
	}
	if name != "0001_users.up.sql" {
		t.Fatalf("rolled back %q", name)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestDownWithoutDownFile(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`create table if not exists schema_migrations`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`create table if not exists schema_migrations`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`select name from schema_migrations order by`).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("0002_seed.up.sql"))

	r := NewRunner(db, testFS)
	if _, err := r.Down(context.Background()); err == nil {
		t.Fatal("Down succeeded without a down file")
	}
}

func TestSplitStatements(t *testing.T) {
	got := splitStatements("insert into t values ('a;b'); select 1;\n")
	if len(got) != 2 {
		t.Fatalf("statements = %d: %q", len(got), got)
	}
	if got[0] != "insert into t values ('a;b')" {
		t.Fatalf("first = %q", got[0])
	}
}
