package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NunoFAntunes/realtor-buddy/internal/apperrors"
)

const testQuery = "SELECT id, lokacija, price FROM agency_properties LIMIT 2"

func setupMockRepo(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	return newMockRepo(t, false)
}

// newMockRepo exists because sqlmock's option type is unexported and cannot
// be named in a variadic parameter.
func newMockRepo(t *testing.T, monitorPings bool) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(
		sqlmock.MonitorPingsOption(monitorPings),
		sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual),
	)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewWithDB(sqlx.NewDb(db, "postgres"), 10*time.Second, nil), mock
}

func TestExecute(t *testing.T) {
	repo, mock := setupMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("SET LOCAL statement_timeout = 10000").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(testQuery).WillReturnRows(
		sqlmock.NewRows([]string{"id", "lokacija", "price"}).
			AddRow(int64(1), []byte("Zagreb, Centar"), []byte("185000.00")).
			AddRow(int64(2), "Split", nil),
	)
	mock.ExpectRollback()

	rows, err := repo.Execute(context.Background(), testQuery, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0]["id"])
	assert.Equal(t, "Zagreb, Centar", rows[0]["lokacija"])
	assert.Equal(t, "185000.00", rows[0]["price"])
	assert.Nil(t, rows[1]["price"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteEmpty(t *testing.T) {
	repo, mock := setupMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("SET LOCAL statement_timeout = 10000").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(testQuery).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	rows, err := repo.Execute(context.Background(), testQuery, 2)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteTooManyRows(t *testing.T) {
	repo, mock := setupMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("SET LOCAL statement_timeout = 10000").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(testQuery).WillReturnRows(
		sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(2)).AddRow(int64(3)),
	)
	mock.ExpectRollback()

	_, err := repo.Execute(context.Background(), testQuery, 2)
	assert.ErrorIs(t, err, apperrors.ErrResultTooLarge)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteFailures(t *testing.T) {
	boom := errors.New("connection reset")

	t.Run("begin", func(t *testing.T) {
		repo, mock := setupMockRepo(t)
		mock.ExpectBegin().WillReturnError(boom)

		_, err := repo.Execute(context.Background(), testQuery, 2)
		assert.ErrorIs(t, err, apperrors.ErrDatabase)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("query", func(t *testing.T) {
		repo, mock := setupMockRepo(t)
		mock.ExpectBegin()
		mock.ExpectExec("SET LOCAL statement_timeout = 10000").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(testQuery).WillReturnError(boom)
		mock.ExpectRollback()

		_, err := repo.Execute(context.Background(), testQuery, 2)
		assert.ErrorIs(t, err, apperrors.ErrDatabase)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("row error", func(t *testing.T) {
		repo, mock := setupMockRepo(t)
		mock.ExpectBegin()
		mock.ExpectExec("SET LOCAL statement_timeout = 10000").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(testQuery).WillReturnRows(
			sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).RowError(0, boom),
		)
		mock.ExpectRollback()

		_, err := repo.Execute(context.Background(), testQuery, 2)
		assert.ErrorIs(t, err, apperrors.ErrDatabase)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPing(t *testing.T) {
	repo, mock := newMockRepo(t, true)

	mock.ExpectPing()
	assert.NoError(t, repo.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("down"))
	assert.ErrorIs(t, repo.Ping(context.Background()), apperrors.ErrDatabase)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTableStats(t *testing.T) {
	const countQuery = "SELECT count(*) FROM agency_properties"

	t.Run("counts rows", func(t *testing.T) {
		repo, mock := setupMockRepo(t)
		mock.ExpectQuery(countQuery).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1234)))

		stats, err := repo.TableStats(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "agency_properties", stats.Table)
		assert.Equal(t, int64(1234), stats.RowCount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query error", func(t *testing.T) {
		repo, mock := setupMockRepo(t)
		mock.ExpectQuery(countQuery).WillReturnError(errors.New("relation does not exist"))

		stats, err := repo.TableStats(context.Background())
		assert.Nil(t, stats)
		assert.ErrorIs(t, err, apperrors.ErrDatabase)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
