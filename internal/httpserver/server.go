// internal/httpserver/server.go
//
// HTTP server wiring for service mode.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health".
//   - Puzzle endpoints (optional auth): POST /puzzle/solve, GET /puzzle/{id},
//     GET /puzzle/leaderboard.
//   - Auth + profile endpoints (require auth): /auth/*, /stats/me, /runs/mine.
//   - Database persistence for solve runs and user stats.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Optional auth decorates requests with user context when a valid token
//     is present; anonymous callers can still solve.
//   - Solving is synchronous and the search is quadratic in the pool size,
//     so requests are rejected when the code space exceeds maxSpaceSize.

package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/goatherd/internal/code"
	"github.com/robalobadob/goatherd/internal/history"
	"github.com/robalobadob/goatherd/internal/solver"
	"github.com/robalobadob/goatherd/internal/store"
)

const (
	// Largest digits^length accepted over HTTP.
	maxSpaceSize = 1_000_000
	// Upper bound on requested worker counts.
	maxThreads = 64
)

// Server bundles router, in-memory session store, run history, and DB handle.
type Server struct {
	r     *chi.Mux
	store store.Store
	db    *sql.DB
	runs  *history.Store
}

// New constructs a Server, installs middleware, and registers routes.
func New(st store.Store, db *sql.DB) *Server {
	s := &Server{r: chi.NewRouter(), store: st, db: db, runs: history.NewStore(db)}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(60 * time.Second)) // bound handler time; solves are synchronous
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(corsFromEnv)                     // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"goatherd","endpoints":["/health","POST /puzzle/solve","GET /puzzle/{id}","GET /puzzle/leaderboard","/auth/*"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	// Puzzle endpoints — OPTIONAL AUTH (anonymous callers get their own history)
	s.r.With(s.withOptionalAuth()).Post("/puzzle/solve", s.handleSolve)
	s.r.Get("/puzzle/leaderboard", s.handleLeaderboard)
	s.r.Get("/puzzle/{id}", s.handleGetPuzzle)

	// Auth + profile/stats (require auth)
	s.mountAuthRoutes()

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFromEnv enables credentialed CORS for a single origin.
// Uses CLIENT_ORIGIN env var; defaults to http://localhost:5173.
func corsFromEnv(next http.Handler) http.Handler {
	origin := os.Getenv("CLIENT_ORIGIN")
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------ PUZZLE -------------------------------------

// solveReq is the payload for POST /puzzle/solve. Zero-valued dimensions
// fall back to the classic puzzle: base 10, length 5, 5 workers, first
// guess 112.
type solveReq struct {
	Secret       string `json:"secret"`       // required; integer in base `digits`
	Digits       int    `json:"digits"`       // base, default 10
	Length       int    `json:"length"`       // positions, default 5
	Threads      int    `json:"threads"`      // workers, default 5
	InitialGuess int    `json:"initialGuess"` // base-10 integer, default 112
}

// roundRes is one transcript row: the guess as displayed, its offer, and
// the candidates remaining after pruning (0 on the winning round).
type roundRes struct {
	Guess     string `json:"guess"`
	Goats     int    `json:"goats"`
	Chickens  int    `json:"chickens"`
	Remaining int    `json:"remaining"`
}

type solveRes struct {
	ID        string     `json:"id"`
	Digits    int        `json:"digits"`
	Length    int        `json:"length"`
	Threads   int        `json:"threads"`
	Guesses   int        `json:"guesses"`
	ElapsedMs int        `json:"elapsedMs"`
	Rounds    []roundRes `json:"rounds"`
}

// handleSolve runs the solver against a caller-supplied secret, stores the
// session in memory, and persists a history row (user or anonymous).
func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req solveReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	if req.Digits == 0 {
		req.Digits = 10
	}
	if req.Length == 0 {
		req.Length = 5
	}
	if req.Threads == 0 {
		req.Threads = 5
	}
	if req.InitialGuess == 0 {
		req.InitialGuess = 112
	}

	space, err := code.New(req.Digits, req.Length)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	}
	if space.Size() > maxSpaceSize {
		http.Error(w, `{"error":"code space too large for the service"}`, http.StatusBadRequest)
		return
	}
	if req.Threads < 1 || req.Threads > maxThreads {
		http.Error(w, `{"error":"threads must be between 1 and 64"}`, http.StatusBadRequest)
		return
	}
	secret, err := space.Parse(req.Secret)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	}

	slv, err := solver.New(space, req.Threads)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	}

	start := time.Now()
	rounds, err := slv.Solve(secret, space.FromInt(req.InitialGuess))
	if err != nil {
		log.Error().Err(err).Msg("solve failed")
		http.Error(w, `{"error":"solve_failed"}`, http.StatusInternalServerError)
		return
	}
	elapsed := int(time.Since(start).Milliseconds())

	sess := &store.Session{
		ID:        genID(),
		Digits:    req.Digits,
		Length:    req.Length,
		Threads:   req.Threads,
		Rounds:    rounds,
		ElapsedMs: elapsed,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Save(r.Context(), sess); err != nil {
		log.Error().Err(err).Msg("save session")
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}

	// Persist history (best effort, non-fatal if it fails)
	run := history.Run{
		ID:        sess.ID,
		Digits:    req.Digits,
		Length:    req.Length,
		Threads:   req.Threads,
		Secret:    space.Format(secret),
		Guesses:   len(rounds),
		ElapsedMs: elapsed,
	}
	me, _ := r.Context().Value(ctxUserKey{}).(*authUser)
	if me != nil {
		run.UserID = me.ID
	} else {
		run.AnonymousID = s.ensureAnonID(w, r)
	}
	if err := s.runs.InsertRun(r.Context(), run); err != nil {
		log.Warn().Err(err).Str("runId", run.ID).Msg("insert run row")
	}
	if me != nil {
		if err := s.bumpStats(me.ID, len(rounds)); err != nil {
			log.Warn().Err(err).Str("user", me.ID).Msg("bump stats")
		}
	}

	writeSession(w, space, sess)
}

// handleGetPuzzle returns a stored session transcript by ID.
func (s *Server) handleGetPuzzle(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error":"store_error"}`, http.StatusInternalServerError)
		return
	}
	space, err := code.New(sess.Digits, sess.Length)
	if err != nil {
		http.Error(w, `{"error":"corrupt_session"}`, http.StatusInternalServerError)
		return
	}
	writeSession(w, space, sess)
}

// writeSession renders a session transcript as JSON.
func writeSession(w http.ResponseWriter, space code.Space, sess *store.Session) {
	res := solveRes{
		ID:        sess.ID,
		Digits:    sess.Digits,
		Length:    sess.Length,
		Threads:   sess.Threads,
		Guesses:   len(sess.Rounds),
		ElapsedMs: sess.ElapsedMs,
		Rounds:    make([]roundRes, 0, len(sess.Rounds)),
	}
	for _, rd := range sess.Rounds {
		res.Rounds = append(res.Rounds, roundRes{
			Guess:     space.Format(rd.Guess),
			Goats:     rd.Offer.Goats,
			Chickens:  rd.Offer.Chickens,
			Remaining: rd.Remaining,
		})
	}
	_ = json.NewEncoder(w).Encode(res)
}

// handleLeaderboard lists the best runs for one puzzle shape.
// Query params: digits (default 10), length (default 5), limit (default 20).
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	digits := queryInt(r, "digits", 10)
	length := queryInt(r, "length", 5)
	limit := queryInt(r, "limit", 20)

	rows, err := s.runs.Leaderboard(r.Context(), digits, length, limit)
	if err != nil {
		log.Error().Err(err).Msg("leaderboard query")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}

	type lbRow struct {
		RunID     string `json:"runId"`
		UserID    string `json:"userId,omitempty"`
		Secret    string `json:"secret"`
		Guesses   int    `json:"guesses"`
		ElapsedMs int    `json:"elapsedMs"`
	}
	out := make([]lbRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, lbRow{
			RunID:     row.RunID,
			UserID:    row.UserID,
			Secret:    row.Secret,
			Guesses:   row.Guesses,
			ElapsedMs: row.ElapsedMs,
		})
	}
	_ = json.NewEncoder(w).Encode(out)
}

// queryInt reads an integer query parameter with a default.
func queryInt(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// ------------------------------- small util --------------------------------

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
