package vector

import (
	"database/sql/driver"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kailas-cloud/ragd/internal/db/postgres"
)

// arrayConverter lets text[] arguments through to sqlmock the way pgx accepts them.
type arrayConverter struct{}

func (arrayConverter) ConvertValue(v any) (driver.Value, error) {
	if s, ok := v.([]string); ok {
		return s, nil
	}
	return driver.DefaultParameterConverter.ConvertValue(v)
}

func newTestRepo(t *testing.T, dims int) (*Repo, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New(sqlmock.ValueConverterOption(arrayConverter{}))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	s, err := postgres.NewStoreWithConn(conn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return New(s, dims), mock
}
