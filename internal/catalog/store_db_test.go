package catalog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MiniCatalog/internal/catalog"
)

var productCols = []string{"id", "name", "price", "description"}

func newMockPostgres(t *testing.T) (*catalog.PostgresStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})

	return catalog.NewPostgresStore(db), mock
}

func TestPostgresStore_Create(t *testing.T) {
	s, mock := newMockPostgres(t)
	p := catalog.Product{ID: "p_1", Name: "Widget", Price: 9.99}

	mock.ExpectExec(`INSERT INTO products`).
		WithArgs("p_1", "Widget", 9.99, "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, s.Create(context.Background(), p))
}

func TestPostgresStore_CreateConflictIsStorageError(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectExec(`INSERT INTO products`).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value"})

	err := s.Create(context.Background(), catalog.Product{ID: "p_1", Name: "Widget", Price: 1})

	var se *catalog.StorageError
	require.ErrorAs(t, err, &se)
	assert.True(t, se.Conflict)
	assert.Equal(t, "create", se.Op)
}

func TestPostgresStore_ListAll(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectQuery(`SELECT id, name, price, description\s+FROM products`).
		WillReturnRows(sqlmock.NewRows(productCols).
			AddRow("p_1", "Widget", 9.99, "blue").
			AddRow("p_2", "Gadget", 3.0, ""))

	got, err := s.ListAll(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []catalog.Product{
		{ID: "p_1", Name: "Widget", Price: 9.99, Description: "blue"},
		{ID: "p_2", Name: "Gadget", Price: 3},
	}, got)
}

func TestPostgresStore_ListAllFailure(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectQuery(`FROM products`).WillReturnError(errors.New("connection refused"))

	_, err := s.ListAll(context.Background())

	assert.True(t, catalog.IsStorageError(err))
}

func TestPostgresStore_GetNotFound(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectQuery(`WHERE id = \$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(productCols))

	_, err := s.Get(context.Background(), "missing")

	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestPostgresStore_Get(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectQuery(`WHERE id = \$1`).
		WithArgs("p_1").
		WillReturnRows(sqlmock.NewRows(productCols).AddRow("p_1", "Widget", 9.99, ""))

	got, err := s.Get(context.Background(), "p_1")

	require.NoError(t, err)
	assert.Equal(t, catalog.Product{ID: "p_1", Name: "Widget", Price: 9.99}, got)
}

func TestPostgresStore_Delete(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectExec(`DELETE FROM products`).WithArgs("p_1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM products`).WithArgs("p_1").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.Delete(context.Background(), "p_1"))
	assert.ErrorIs(t, s.Delete(context.Background(), "p_1"), catalog.ErrNotFound)
}

func TestPostgresStore_EnsureSchema(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS products`).WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, s.EnsureSchema(context.Background()))
}
