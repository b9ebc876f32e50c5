package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edutrack/edutrack/api/internal/models"
)

func (e *testEnv) userMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /users/{id}", e.authMW.RequireAuth(http.HandlerFunc(e.users.Get)))
	mux.Handle("PATCH /users/{id}", e.authMW.RequireAuth(http.HandlerFunc(e.users.Update)))
	mux.Handle("DELETE /users/{id}", e.authMW.RequireAuth(http.HandlerFunc(e.users.Delete)))
	return mux
}

func withCookies(req *http.Request, cookies []*http.Cookie) *http.Request {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func TestUserHandler_Get(t *testing.T) {
	env := setup(t, nil)
	user, cookies := env.register(t, "ada@example.com")
	mux := env.userMux()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, withCookies(httptest.NewRequest(http.MethodGet, "/users/"+user.ID, nil), cookies))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		User models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, user.ID, body.User.ID)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, withCookies(httptest.NewRequest(http.MethodGet, "/users/0195a1b2-0000-7000-8000-000000000000", nil), cookies))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", decodeDetail(t, rec))
}

func TestUserHandler_RequiresAuth(t *testing.T) {
	env := setup(t, nil)
	user, _ := env.register(t, "ada@example.com")

	rec := httptest.NewRecorder()
	env.userMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/"+user.ID, nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUserHandler_Update(t *testing.T) {
	env := setup(t, nil)
	user, cookies := env.register(t, "ada@example.com")
	env.register(t, "grace@example.com")
	mux := env.userMux()

	req := jsonRequest(t, http.MethodPatch, "/users/"+user.ID, map[string]string{"first_name": "Augusta"})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, withCookies(req, cookies))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		User models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Augusta", body.User.FirstName)
	assert.Equal(t, "Lovelace", body.User.LastName)

	req = jsonRequest(t, http.MethodPatch, "/users/"+user.ID, map[string]string{"email": "grace@example.com"})
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, withCookies(req, cookies))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestUserHandler_Delete(t *testing.T) {
	env := setup(t, nil)
	user, cookies := env.register(t, "ada@example.com")
	mux := env.userMux()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, withCookies(httptest.NewRequest(http.MethodDelete, "/users/"+user.ID, nil), cookies))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// The deleted user's token no longer authenticates.
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, withCookies(httptest.NewRequest(http.MethodGet, "/users/"+user.ID, nil), cookies))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "User not found", decodeDetail(t, rec))
}
