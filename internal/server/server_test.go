package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/clientscout/internal/leads"
	"github.com/sells-group/clientscout/internal/store"
)

const testTable = `| Name | Phone | Email | Address | Website | Rating | Link |
|---|---|---|---|---|---|---|
| Acme Plumbing | (512) 555-0101 | info@acme.com | 100 Main St, Austin, TX | https://acme.com | 4.8 | https://maps.google.com/?cid=1 |
| Hill Country Pipes | (512) 555-0102 | N/A | 200 Oak Ave, Austin, TX | N/A | 4.5 | https://maps.google.com/?cid=2 |
`

const moreTable = `| Name | Phone | Email | Address | Website | Rating | Link |
|---|---|---|---|---|---|---|
| Acme Plumbing | (512) 555-0101 | info@acme.com | 100 Main St, Austin, TX | https://acme.com | 4.8 | https://maps.google.com/?cid=1 |
| Barton Drains | (512) 555-0103 | help@barton.com | 300 Elm Dr, Austin, TX | https://barton.com | 4.2 | https://maps.google.com/?cid=3 |
`

// scriptedSession returns canned replies in order.
type scriptedSession struct {
	replies []string
	calls   int
}

func (s *scriptedSession) Send(_ context.Context, _ string) (string, error) {
	if s.calls >= len(s.replies) {
		return "", fmt.Errorf("no scripted reply for call %d", s.calls)
	}
	reply := s.replies[s.calls]
	s.calls++
	return reply, nil
}

func newTestServer(t *testing.T, replies ...string) (*Server, store.Store) {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { st.Close() })

	srv := New(Config{
		Store: st,
		NewSession: func(context.Context) (leads.Session, error) {
			return &scriptedSession{replies: replies}, nil
		},
		WebhookSecret: "whsec_test",
	})
	return srv, st
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv.Router(), http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestServer_RegisterAndMe(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Router()

	rec := doJSON(t, h, http.MethodPost, "/api/register", map[string]string{
		"name":  "Jordan",
		"email": "jordan@example.com",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var u store.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	assert.Equal(t, store.TierFree, u.Tier)

	rec = doJSON(t, h, http.MethodGet, "/api/me", nil, map[string]string{"X-User-Email": "jordan@example.com"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/me", nil, map[string]string{"X-User-Email": "nobody@example.com"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_MeRequiresEmail(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv.Router(), http.MethodGet, "/api/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_RegisterRejectsMissingEmail(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv.Router(), http.MethodPost, "/api/register", map[string]string{"name": "X"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Search(t *testing.T) {
	srv, _ := newTestServer(t, testTable)
	rec := doJSON(t, srv.Router(), http.MethodPost, "/api/search", map[string]string{"query": "plumbers in Austin"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp searchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.SearchID)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "Acme Plumbing", resp.Results[0].Name)
}

func TestServer_SearchRejectsEmptyQuery(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv.Router(), http.MethodPost, "/api/search", map[string]string{}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_SearchMoreMergesResults(t *testing.T) {
	srv, _ := newTestServer(t, testTable, moreTable)
	h := srv.Router()

	rec := doJSON(t, h, http.MethodPost, "/api/search", map[string]string{"query": "plumbers in Austin"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var first searchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))

	rec = doJSON(t, h, http.MethodPost, "/api/search/"+first.SearchID+"/more", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var second searchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	require.Len(t, second.Results, 3)
	assert.Equal(t, "Acme Plumbing", second.Results[0].Name)
	assert.Equal(t, "Barton Drains", second.Results[2].Name)
}

func TestServer_SearchMoreUnknownID(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv.Router(), http.MethodPost, "/api/search/does-not-exist/more", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_SearchFreeTierGated(t *testing.T) {
	srv, st := newTestServer(t, testTable, testTable)
	h := srv.Router()

	// Registration records the guest search as already spent, so a FREE
	// user arrives at the server with their one search used up.
	u, err := st.UpsertUser(context.Background(), store.User{Email: "free@example.com", Name: "Free"})
	require.NoError(t, err)
	require.Equal(t, 1, u.SearchCount)

	body := map[string]string{"query": "plumbers in Austin"}

	rec := doJSON(t, h, http.MethodPost, "/api/search", body, map[string]string{"X-User-Email": "free@example.com"})
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)

	// Anonymous searches are not gated server-side.
	rec = doJSON(t, h, http.MethodPost, "/api/search", body, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_SearchPaidTierUnlimited(t *testing.T) {
	srv, st := newTestServer(t, testTable, testTable, testTable)
	h := srv.Router()

	_, err := st.UpsertUser(context.Background(), store.User{Email: "paid@example.com", Name: "Paid"})
	require.NoError(t, err)
	require.NoError(t, st.UpgradeTier(context.Background(), "paid@example.com", store.TierPaid))

	headers := map[string]string{"X-User-Email": "paid@example.com"}
	body := map[string]string{"query": "plumbers in Austin"}

	for i := 0; i < 3; i++ {
		rec := doJSON(t, h, http.MethodPost, "/api/search", body, headers)
		require.Equal(t, http.StatusOK, rec.Code, "search %d", i)
	}
}

func TestServer_ListsCRUDAndExport(t *testing.T) {
	srv, st := newTestServer(t)
	h := srv.Router()

	_, err := st.UpsertUser(context.Background(), store.User{Email: "saver@example.com", Name: "Saver"})
	require.NoError(t, err)

	headers := map[string]string{"X-User-Email": "saver@example.com"}
	results := leads.ResultSet{
		{ID: "r1", Name: `Joe's "Best" Grill`, Phone: "(512) 555-0104", Address: "400 Pine St, Austin, TX"},
	}

	rec := doJSON(t, h, http.MethodPost, "/api/lists", map[string]any{
		"query":   "grills in Austin",
		"results": results,
	}, headers)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created store.SavedList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, 1, created.ItemCount)

	rec = doJSON(t, h, http.MethodGet, "/api/lists", nil, headers)
	require.Equal(t, http.StatusOK, rec.Code)
	var lists []store.SavedList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lists))
	require.Len(t, lists, 1)

	rec = doJSON(t, h, http.MethodGet, "/api/lists/"+created.ID+"/export", nil, headers)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "leads.csv")
	assert.True(t, strings.HasPrefix(rec.Body.String(), `"Name","Phone"`))
	assert.Contains(t, rec.Body.String(), `"Joe's ""Best"" Grill"`)

	rec = doJSON(t, h, http.MethodDelete, "/api/lists/"+created.ID, nil, headers)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, "/api/lists/"+created.ID, nil, headers)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_ListsRequireEmail(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Router()

	rec := doJSON(t, h, http.MethodGet, "/api/lists", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/lists", map[string]any{"query": "q"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
