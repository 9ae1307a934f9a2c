package sessionapi

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asad/localsession/internal/kv"
	"github.com/asad/localsession/internal/logging"
	"github.com/asad/localsession/internal/session"
)

// setupTestService mounts a session API over a fresh in-memory store.
func setupTestService(t *testing.T, store kv.Store) (chi.Router, *session.LocalSession) {
	t.Helper()

	s, err := session.New(store)
	require.NoError(t, err)

	router := chi.NewRouter()
	NewService(s, logging.Nop()).RegisterRoutes(router)
	return router, s
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestService_GetFreshEntryIsNull(t *testing.T) {
	router, _ := setupTestService(t, kv.NewMemoryStore())

	w := do(router, http.MethodGet, "/authorization-code", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"entry":"authorization-code","key":"gh_code","value":null}`, w.Body.String())
}

func TestService_SetGetClear(t *testing.T) {
	store := kv.NewMemoryStore()
	router, s := setupTestService(t, store)

	w := do(router, http.MethodPut, "/authorization-code", `{"value":"abc123"}`)
	require.Equal(t, http.StatusNoContent, w.Code)
	require.NotNil(t, s.AuthorizationCode())
	assert.Equal(t, "abc123", *s.AuthorizationCode())

	w = do(router, http.MethodGet, "/authorization-code", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"entry":"authorization-code","key":"gh_code","value":"abc123"}`, w.Body.String())

	w = do(router, http.MethodDelete, "/authorization-code", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Nil(t, s.AuthorizationCode())
	_, ok, err := store.Get(session.AuthorizationCodeKey)
	require.NoError(t, err)
	assert.False(t, ok)

	// The session id was never touched.
	assert.Nil(t, s.SessionID())
	_, ok, err = store.Get(session.SessionIDKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestService_PutNullStoresNull(t *testing.T) {
	store := kv.NewMemoryStore()
	router, _ := setupTestService(t, store)

	w := do(router, http.MethodPut, "/session-id", `{"value":null}`)
	require.Equal(t, http.StatusNoContent, w.Code)

	raw, ok, err := store.Get(session.SessionIDKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "null", raw)
}

func TestService_List(t *testing.T) {
	router, s := setupTestService(t, kv.NewMemoryStore())
	id := "sess-1"
	require.NoError(t, s.SetSessionID(&id))

	w := do(router, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)

	var result ListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.Len(t, result.Entries, 2)
	assert.Equal(t, session.EntryAuthorizationCode, result.Entries[0].Entry)
	assert.Nil(t, result.Entries[0].Value)
	assert.Equal(t, session.EntrySessionID, result.Entries[1].Entry)
	require.NotNil(t, result.Entries[1].Value)
	assert.Equal(t, "sess-1", *result.Entries[1].Value)
}

func TestService_NewSessionID(t *testing.T) {
	router, s := setupTestService(t, kv.NewMemoryStore())

	w := do(router, http.MethodPost, "/session-id/new", "")
	require.Equal(t, http.StatusCreated, w.Code)

	var result EntryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.NotNil(t, result.Value)
	_, err := uuid.Parse(*result.Value)
	assert.NoError(t, err)
	require.NotNil(t, s.SessionID())
	assert.Equal(t, *result.Value, *s.SessionID())
}

func TestService_UnknownEntry(t *testing.T) {
	router, _ := setupTestService(t, kv.NewMemoryStore())

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		w := do(router, method, "/refresh-token", "")
		assert.Equal(t, http.StatusNotFound, w.Code, method)
		assert.Contains(t, w.Body.String(), "EntryNotFound")
	}
}

func TestService_MalformedBody(t *testing.T) {
	router, s := setupTestService(t, kv.NewMemoryStore())

	w := do(router, http.MethodPut, "/session-id", `{"value":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, s.SessionID())
}

// writeFailingStore reads normally and fails every write.
type writeFailingStore struct {
	kv.Store
}

var errDenied = errors.New("access denied")

func (writeFailingStore) Set(string, string) error { return errDenied }
func (writeFailingStore) Remove(string) error      { return errDenied }

func TestService_StorageFailure(t *testing.T) {
	router, _ := setupTestService(t, writeFailingStore{Store: kv.NewMemoryStore()})

	w := do(router, http.MethodPut, "/session-id", `{"value":"x"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "StorageError")

	w = do(router, http.MethodDelete, "/session-id", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = do(router, http.MethodPost, "/session-id/new", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestService_OversizedBody(t *testing.T) {
	store := kv.NewMemoryStore()
	router, s := setupTestService(t, store)

	body := `{"value":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	w := do(router, http.MethodPut, "/authorization-code", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "RequestTooLarge")
	assert.Nil(t, s.AuthorizationCode())
	assert.Equal(t, 0, store.Len())
}
