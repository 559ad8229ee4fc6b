package revisions

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestNext_ReturnsIncrementedValue(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := regexp.MustCompile(`UPDATE sync_sequence SET value = value \+ 1 WHERE id = 1 RETURNING value`)

	mock.ExpectQuery(q.String()).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(int64(42)))

	got, err := repo.Next(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 {
		t.Fatalf("Next = %d, want 42", got)
	}
}

func TestNext_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`UPDATE sync_sequence`).WillReturnError(errors.New("db err"))

	_, err := repo.Next(context.Background())
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestLatest_ReturnsCurrentValue(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := regexp.MustCompile(`SELECT value FROM sync_sequence WHERE id = 1`)

	mock.ExpectQuery(q.String()).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(int64(7)))

	got, err := repo.Latest(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 7 {
		t.Fatalf("Latest = %d, want 7", got)
	}
}

func TestLatest_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT value FROM sync_sequence`).WillReturnError(errors.New("db err"))

	_, err := repo.Latest(context.Background())
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
