package store

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Postgres, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	return NewPostgresQuerier(mock, WithIDGenerator(func() string { return "doc-1" })), mock
}

func expectNotify(mock pgxmock.PgxPoolIface, collection string) {
	mock.ExpectExec(`SELECT pg_notify`).
		WithArgs(NotifyChannel, collection).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
}

func TestPostgres_ListAll(t *testing.T) {
	s, mock := newMockStore(t)

	rows := pgxmock.NewRows([]string{"id", "data"}).
		AddRow("a", []byte(`{"sku":"A"}`)).
		AddRow("b", []byte(`{"sku":"B"}`))
	mock.ExpectQuery(`SELECT id, data FROM documents WHERE collection = \$1 ORDER BY created_at, id`).
		WithArgs("products").
		WillReturnRows(rows)

	docs, err := s.ListAll(context.Background(), "products")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].ID)
	assert.JSONEq(t, `{"sku":"B"}`, string(docs[1].Data))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListAllError(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT`).WithArgs("products").WillReturnError(errors.New("connection reset"))

	_, err := s.ListAll(context.Background(), "products")
	var pe *PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "list", pe.Op)
}

func TestPostgres_Get(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT data FROM documents WHERE collection = \$1 AND id = \$2`).
		WithArgs("users", "u1").
		WillReturnRows(pgxmock.NewRows([]string{"data"}).AddRow([]byte(`{"approved":true}`)))

	doc, err := s.Get(context.Background(), "users", "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", doc.ID)
	assert.JSONEq(t, `{"approved":true}`, string(doc.Data))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetMissing(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT data FROM documents`).
		WithArgs("users", "nope").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.Get(context.Background(), "users", "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Create(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO documents \(collection,id,data\) VALUES \(\$1,\$2,\$3::jsonb\)`).
		WithArgs("products", "doc-1", `{"sku":"A"}`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	expectNotify(mock, "products")

	id, err := s.Create(context.Background(), "products", map[string]string{"sku": "A"})
	require.NoError(t, err)
	assert.Equal(t, "doc-1", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CreateRejectsNonObject(t *testing.T) {
	s, mock := newMockStore(t)
	_, err := s.Create(context.Background(), "products", []string{"x"})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Update(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		wantErr  error
	}{
		{name: "merged", affected: 1},
		{name: "missing", affected: 0, wantErr: ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMockStore(t)
			mock.ExpectExec(`UPDATE documents SET data = data \|\| \$1::jsonb, updated_at = now\(\) WHERE collection = \$2 AND id = \$3`).
				WithArgs(`{"status":"archived"}`, "products", "a").
				WillReturnResult(pgxmock.NewResult("UPDATE", tt.affected))
			if tt.wantErr == nil {
				expectNotify(mock, "products")
			}

			err := s.Update(context.Background(), "products", "a", map[string]string{"status": "archived"})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgres_Delete(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(`DELETE FROM documents WHERE collection = \$1 AND id = \$2`).
		WithArgs("products", "a").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	expectNotify(mock, "products")

	require.NoError(t, s.Delete(context.Background(), "products", "a"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_DeleteManyPartial(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`DELETE FROM documents WHERE collection = \$1 AND id IN \(\$2,\$3\) RETURNING id`).
		WithArgs("products", "a", "b").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("a"))
	expectNotify(mock, "products")

	err := s.DeleteMany(context.Background(), "products", []string{"a", "b"})

	var be *BatchError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, []string{"b"}, be.FailedIDs())
	assert.ErrorIs(t, be.Failures[0].Err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_DeleteManyStatementFails(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`DELETE FROM documents`).
		WithArgs("products", "a", "b").
		WillReturnError(errors.New("permission denied"))

	err := s.DeleteMany(context.Background(), "products", []string{"a", "b"})

	var be *BatchError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, []string{"a", "b"}, be.FailedIDs())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_DeleteManyEmpty(t *testing.T) {
	s, mock := newMockStore(t)
	assert.NoError(t, s.DeleteMany(context.Background(), "products", nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SubscribeWithoutPool(t *testing.T) {
	s, _ := newMockStore(t)
	_, err := s.Subscribe(context.Background(), "products")
	assert.ErrorIs(t, err, ErrSubscribeUnsupported)
}
