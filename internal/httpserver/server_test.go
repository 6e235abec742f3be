package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/goatherd/internal/history"
	"github.com/robalobadob/goatherd/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	db, err := history.Open(filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, history.Migrate(db, "../../sql"))
	return New(store.NewMemoryStore(), db)
}

func postJSON(t *testing.T, srv *Server, path string, body any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
}

func TestSolveEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := postJSON(t, srv, "/puzzle/solve", solveReq{
		Secret: "123", Digits: 10, Length: 3, Threads: 2, InitialGuess: 12,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res solveRes
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.NotEmpty(t, res.ID)
	require.NotEmpty(t, res.Rounds)
	assert.Equal(t, len(res.Rounds), res.Guesses)

	last := res.Rounds[len(res.Rounds)-1]
	assert.Equal(t, 3, last.Goats, "final round must win")
	assert.Equal(t, 0, last.Chickens)
	assert.Equal(t, "123", last.Guess)

	t.Run("transcript is retrievable by id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/puzzle/"+res.ID, nil)
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var again solveRes
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &again))
		assert.Equal(t, res.ID, again.ID)
		assert.Equal(t, res.Rounds, again.Rounds)
	})

	t.Run("run appears on the leaderboard", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/puzzle/leaderboard?digits=10&length=3", nil)
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var rows []map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
		require.Len(t, rows, 1)
		assert.Equal(t, "123", rows[0]["secret"])
	})
}

func TestSolveValidation(t *testing.T) {
	srv := newTestServer(t)

	t.Run("rejects oversized code spaces", func(t *testing.T) {
		rec := postJSON(t, srv, "/puzzle/solve", solveReq{Secret: "1", Digits: 10, Length: 10, Threads: 2, InitialGuess: 1}, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects malformed secrets", func(t *testing.T) {
		rec := postJSON(t, srv, "/puzzle/solve", solveReq{Secret: "not-a-code", Digits: 10, Length: 3, Threads: 2, InitialGuess: 1}, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects excessive thread counts", func(t *testing.T) {
		rec := postJSON(t, srv, "/puzzle/solve", solveReq{Secret: "12", Digits: 10, Length: 2, Threads: 1000, InitialGuess: 1}, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown session id is a 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/puzzle/nope", nil)
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestAuthFlow(t *testing.T) {
	srv := newTestServer(t)

	rec := postJSON(t, srv, "/auth/signup", signupReq{Username: "farmer_max", Password: "hunter2hunter2"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	t.Run("me returns the signed-up user", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		for _, c := range cookies {
			req.AddCookie(c)
		}
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var me authUser
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
		assert.Equal(t, "farmer_max", me.Username)
	})

	t.Run("me without a token is unauthorized", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		rec := postJSON(t, srv, "/auth/signup", signupReq{Username: "farmer_max", Password: "hunter2hunter2"}, nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		rec := postJSON(t, srv, "/auth/login", loginReq{Username: "farmer_max", Password: "wrongwrongwrong"}, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("login succeeds and solves are attributed", func(t *testing.T) {
		rec := postJSON(t, srv, "/auth/login", loginReq{Username: "farmer_max", Password: "hunter2hunter2"}, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		cookies := rec.Result().Cookies()

		rec = postJSON(t, srv, "/puzzle/solve", solveReq{Secret: "55", Digits: 6, Length: 2, Threads: 2, InitialGuess: 1}, cookies)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		req := httptest.NewRequest(http.MethodGet, "/runs/mine", nil)
		for _, c := range cookies {
			req.AddCookie(c)
		}
		recRuns := httptest.NewRecorder()
		srv.Router().ServeHTTP(recRuns, req)
		require.Equal(t, http.StatusOK, recRuns.Code)

		var runs []map[string]any
		require.NoError(t, json.Unmarshal(recRuns.Body.Bytes(), &runs))
		require.Len(t, runs, 1)
		assert.Equal(t, float64(6), runs[0]["digits"])
	})
}
