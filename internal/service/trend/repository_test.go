package trend

import (
	"context"
	"database/sql"
	stderrors "errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"go.uber.org/zap"

	"github.com/kapu/trend-script-go/internal/service/database"
	"github.com/kapu/trend-script-go/pkg/errors"
)

var columns = []string{"id", "title", "subreddit", "category", "score", "num_comments", "nes", "url", "created_at", "collected_at"}

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	pg, err := database.NewPostgresServiceWithDB(context.Background(), db, database.PostgresConfig{}, zap.NewNop())
	if err != nil {
		t.Fatalf("wrap db: %v", err)
	}
	return NewRepository(pg.GetDB(), zap.NewNop()), mock
}

func TestGetByID(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM trends WHERE id = $1`)).
		WithArgs("abc").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("abc", "Octopus dreams", "science", "science", 4200, 310, 87.5, nil, created, created))

	got, err := repo.GetByID(context.Background(), "abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Title != "Octopus dreams" || got.NES != 87.5 || got.NumComments != 310 || got.URL != "" {
		t.Fatalf("unexpected trend: %+v", got)
	}
	if got.Source() != "r/science" || !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected source/time: %s %v", got.Source(), got.CreatedAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM trends WHERE id = $1`)).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if !stderrors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetByIDRejectsEmptyID(t *testing.T) {
	repo, _ := newMockRepo(t)
	var valErr *errors.ValidationError
	if _, err := repo.GetByID(context.Background(), ""); !stderrors.As(err, &valErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListTop(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE nes >= $1`)).
		WithArgs(50.0, 2).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("a", "First", "todayilearned", "facts", 100, 10, 90.0, "https://example.com/a", now, now).
			AddRow("b", "Second", nil, nil, 50, 5, 60.0, nil, nil, nil))

	trends, err := repo.ListTop(context.Background(), 2, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trends) != 2 || trends[0].ID != "a" || trends[1].ID != "b" {
		t.Fatalf("unexpected trends: %+v", trends)
	}
	if trends[1].Source() != "unknown" || !trends[1].CreatedAt.IsZero() {
		t.Fatalf("null columns should map to zero values: %+v", trends[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestListTopQueryError(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE nes >= $1`)).WillReturnError(stderrors.New("connection reset"))

	_, err := repo.ListTop(context.Background(), 5, 0)
	var svcErr *errors.ServiceError
	if !stderrors.As(err, &svcErr) || svcErr.Operation != "list_trends" {
		t.Fatalf("expected service error, got %v", err)
	}
}

func TestListTopRejectsBadLimit(t *testing.T) {
	repo, _ := newMockRepo(t)
	if _, err := repo.ListTop(context.Background(), 0, 0); err == nil {
		t.Fatal("expected error for zero limit")
	}
}
