package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gumrukcum/gumrukcum-api/internal/domain/account"
	domain "github.com/gumrukcum/gumrukcum-api/internal/domain/analysis"
)

const decrementSQL = "UPDATE profiles SET credits = credits - 1 WHERE id=$1 AND credits > 0"

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

func TestDecrementCredit(t *testing.T) {
	db, mock := newMock(t)
	repo := NewProfileRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(decrementSQL)).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.DecrementCredit(context.Background(), "u1"))

	// zero balance: the guard matches no row
	mock.ExpectExec(regexp.QuoteMeta(decrementSQL)).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.DecrementCredit(context.Background(), "u1"), account.ErrNoCredit)

	mock.ExpectExec(regexp.QuoteMeta(decrementSQL)).WithArgs("u1").WillReturnError(errors.New("connection reset"))
	err := repo.DecrementCredit(context.Background(), "u1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, account.ErrNoCredit)
}

func TestProfileGet(t *testing.T) {
	db, mock := newMock(t)
	repo := NewProfileRepository(db)
	q := regexp.QuoteMeta("SELECT id, email, credits, subscription_tier FROM profiles WHERE id=$1")

	mock.ExpectQuery(q).WithArgs("u1").WillReturnRows(
		sqlmock.NewRows([]string{"id", "email", "credits", "subscription_tier"}).AddRow("u1", nil, 3, "kurumsal"))
	p, err := repo.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, p.Credits)
	assert.Empty(t, p.Email)
	assert.Equal(t, account.TierFree, p.Tier)

	mock.ExpectQuery(q).WithArgs("ghost").WillReturnError(sql.ErrNoRows)
	_, err = repo.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, account.ErrProfileNotFound)
}

func TestHistoryAppend(t *testing.T) {
	db, mock := newMock(t)
	repo := NewHistoryRepository(db)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO queries")).
		WithArgs("r1", "u1", "vida", sqlmock.AnyArg(), "-", true, nil, at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Append(context.Background(), &domain.HistoryRecord{
		ID: "r1", UserID: "u1", UserPrompt: "vida", Degraded: true, CreatedAt: at,
		Response: domain.Result{GTIP: "7318.15"},
	})
	assert.NoError(t, err)
}

func TestHistoryPaginateNewestFirst(t *testing.T) {
	db, mock := newMock(t)
	repo := NewHistoryRepository(db)
	newer := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM queries WHERE user_id=$1")).WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery(`WHERE user_id=\$1 ORDER BY created_at DESC, id DESC LIMIT \$2 OFFSET \$3`).WithArgs("u1", 5, 5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "user_prompt", "ai_response", "model", "degraded", "image_url", "created_at"}).
			AddRow("r2", "u1", "iki", []byte(`{"gtip":"2"}`), "m", false, "https://img/r2.png", newer).
			AddRow("r1", "u1", "bir", []byte(`{"gtip":"1"}`), "m", false, nil, older))

	page, err := repo.Paginate(context.Background(), "u1", 2, 5)
	require.NoError(t, err)
	require.Len(t, page.Data, 2)
	assert.Equal(t, domain.RecordID("r2"), page.Data[0].ID)
	assert.Equal(t, "2", page.Data[0].Response.GTIP)
	assert.Equal(t, "https://img/r2.png", page.Data[0].ImageURL)
	assert.Empty(t, page.Data[1].ImageURL)
	assert.Equal(t, int64(12), page.Total)
	assert.Equal(t, 3, page.TotalPages)
}
