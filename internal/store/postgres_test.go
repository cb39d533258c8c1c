package store

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresWithPool(mock), mock
}

func TestPostgres_GetUser(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT email, name, company_name").
		WithArgs("jane@acme.com").
		WillReturnRows(pgxmock.NewRows(
			[]string{"email", "name", "company_name", "phone", "website", "tier", "search_count"},
		).AddRow("jane@acme.com", "Jane", "Acme", "", "", "PAID", 3))

	u, err := s.GetUser(context.Background(), "jane@acme.com")
	require.NoError(t, err)
	assert.Equal(t, TierPaid, u.Tier)
	assert.Equal(t, 3, u.SearchCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetUser_NotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT email, name, company_name").
		WithArgs("ghost@nowhere.com").
		WillReturnRows(pgxmock.NewRows(
			[]string{"email", "name", "company_name", "phone", "website", "tier", "search_count"},
		))

	_, err := s.GetUser(context.Background(), "ghost@nowhere.com")
	assert.True(t, eris.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpgradeTier(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("UPDATE users SET tier").
		WithArgs("PAID", "jane@acme.com").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, s.UpgradeTier(context.Background(), "jane@acme.com", TierPaid))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpgradeTier_NotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("UPDATE users SET tier").
		WithArgs("PAID", "ghost@nowhere.com").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpgradeTier(context.Background(), "ghost@nowhere.com", TierPaid)
	assert.True(t, eris.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetList(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT id, user_email, query, results").
		WithArgs("list-1").
		WillReturnRows(pgxmock.NewRows(
			[]string{"id", "user_email", "query", "results", "created_at"},
		).AddRow("list-1", "jane@acme.com", "dentists", []byte(`[{"id":"r1","name":"Acme","address":"1 Main St"}]`), now))

	l, err := s.GetList(context.Background(), "list-1")
	require.NoError(t, err)
	assert.Equal(t, "dentists", l.Query)
	require.Len(t, l.Results, 1)
	assert.Equal(t, "Acme", l.Results[0].Name)
	assert.Equal(t, 1, l.ItemCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_DeleteList_NotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("DELETE FROM saved_lists").
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := s.DeleteList(context.Background(), "missing")
	assert.True(t, eris.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}
