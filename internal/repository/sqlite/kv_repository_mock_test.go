package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"occurrences/internal/repository"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jknair0/beforeeach"
)

var (
	mockConn *sql.DB
	mock     sqlmock.Sqlmock
)

func setUp() {
	mockConn, mock, _ = sqlmock.New()
}

func tearDown() {
	mockConn.Close()
}

var it = beforeeach.Create(setUp, tearDown)

func TestKVRepository_PutFailure(t *testing.T) {
	it(func() {
		quota := errors.New("database or disk is full")
		mock.ExpectExec("INSERT INTO kv").WillReturnError(quota)

		repo := NewKVRepository(Wrap(mockConn))
		err := repo.Put(context.Background(), repository.RecordsKey, []byte("[]"))

		if !errors.Is(err, quota) {
			t.Errorf("Put error = %v, expected it to wrap %v", err, quota)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})
}

func TestKVRepository_GetReadsValue(t *testing.T) {
	it(func() {
		testCases := []struct {
			name        string
			rows        *sqlmock.Rows
			queryErr    error
			expectValue string
			expectErr   error
		}{
			{
				name:        "stored",
				rows:        sqlmock.NewRows([]string{"value"}).AddRow([]byte(`[{"id":7}]`)),
				expectValue: `[{"id":7}]`,
			},
			{
				name:      "missing",
				rows:      sqlmock.NewRows([]string{"value"}),
				expectErr: repository.ErrKeyNotFound,
			},
			{
				name:      "io error",
				queryErr:  sql.ErrConnDone,
				expectErr: sql.ErrConnDone,
			},
		}

		for _, testCase := range testCases {
			q := mock.ExpectQuery("SELECT value FROM kv").WithArgs(repository.RecordsKey)
			if testCase.queryErr != nil {
				q.WillReturnError(testCase.queryErr)
			} else {
				q.WillReturnRows(testCase.rows)
			}

			repo := NewKVRepository(Wrap(mockConn))
			got, err := repo.Get(context.Background(), repository.RecordsKey)

			if testCase.expectErr != nil {
				if !errors.Is(err, testCase.expectErr) {
					t.Errorf("%s: error = %v, expected %v", testCase.name, err, testCase.expectErr)
				}
				continue
			}
			if err != nil {
				t.Errorf("%s: unexpected error %v", testCase.name, err)
			}
			if string(got) != testCase.expectValue {
				t.Errorf("%s: value = %s, expected %s", testCase.name, got, testCase.expectValue)
			}
		}

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})
}
