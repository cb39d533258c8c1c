package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/clientscout/internal/leads"
	"github.com/sells-group/clientscout/internal/store"
)

// SessionFactory opens a fresh backend session configured with the
// extraction contract. Each server-side search gets its own session.
type SessionFactory func(ctx context.Context) (leads.Session, error)

// Config holds server wiring.
type Config struct {
	Store          store.Store
	NewSession     SessionFactory
	WebhookSecret  string
	AllowedOrigins []string
}

// Server is the HTTP API: accounts, tier gating, server-side search
// sessions, saved lists, and the checkout webhook.
type Server struct {
	store         store.Store
	newSession    SessionFactory
	webhookSecret string
	origins       []string

	mu       sync.Mutex
	searches map[string]*liveSearch
}

// liveSearch pairs a backend session with its accumulated results. The
// searcher itself rejects overlapping sends.
type liveSearch struct {
	searcher *leads.Searcher
	results  leads.ResultSet
}

// New creates a Server.
func New(cfg Config) *Server {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return &Server{
		store:         cfg.Store,
		newSession:    cfg.NewSession,
		webhookSecret: cfg.WebhookSecret,
		origins:       origins,
		searches:      make(map[string]*liveSearch),
	}
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-User-Email"},
	}))

	r.Get("/health", s.handleHealth)
	r.Post("/webhook", s.handleWebhook)

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Get("/me", s.handleMe)
		r.Post("/track-search", s.handleTrackSearch)
		r.Post("/search", s.handleSearch)
		r.Post("/search/{id}/more", s.handleSearchMore)
		r.Get("/lists", s.handleListLists)
		r.Post("/lists", s.handleCreateList)
		r.Delete("/lists/{id}", s.handleDeleteList)
		r.Get("/lists/{id}/export", s.handleExportList)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		CompanyName string `json:"companyName"`
		Email       string `json:"email"`
		Phone       string `json:"phone"`
		Website     string `json:"website"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	u, err := s.store.UpsertUser(r.Context(), store.User{
		Name:        req.Name,
		CompanyName: req.CompanyName,
		Email:       req.Email,
		Phone:       req.Phone,
		Website:     req.Website,
	})
	if err != nil {
		zap.L().Error("register failed", zap.String("email", req.Email), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	email := r.Header.Get("X-User-Email")
	if email == "" {
		writeError(w, http.StatusUnauthorized, "no email provided")
		return
	}

	u, err := s.store.GetUser(r.Context(), email)
	if eris.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleTrackSearch(w http.ResponseWriter, r *http.Request) {
	email := r.Header.Get("X-User-Email")
	if email == "" {
		writeError(w, http.StatusUnauthorized, "no email provided")
		return
	}

	u, err := s.store.IncrementSearchCount(r.Context(), email)
	if eris.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// searchResponse is the payload for both search endpoints.
type searchResponse struct {
	SearchID string          `json:"searchId"`
	Results  leads.ResultSet `json:"results"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	email := r.Header.Get("X-User-Email")
	if email != "" {
		u, err := s.store.GetUser(r.Context(), email)
		if err != nil && !eris.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusInternalServerError, "database error")
			return
		}
		if u != nil && u.Tier == store.TierFree && u.SearchCount >= 1 {
			writeError(w, http.StatusPaymentRequired, "free tier search limit reached")
			return
		}
	}

	sess, err := s.newSession(r.Context())
	if err != nil {
		zap.L().Error("open session failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	searcher := leads.NewSearcher(sess)
	results, err := searcher.RunInitialSearch(r.Context(), req.Query)
	if err != nil {
		zap.L().Error("search failed", zap.String("query", req.Query), zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	if email != "" {
		if _, err := s.store.IncrementSearchCount(r.Context(), email); err != nil && !eris.Is(err, store.ErrNotFound) {
			zap.L().Warn("track search failed", zap.String("email", email), zap.Error(err))
		}
	}

	id := uuid.New().String()
	s.mu.Lock()
	s.searches[id] = &liveSearch{searcher: searcher, results: results}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, searchResponse{SearchID: id, Results: results})
}

func (s *Server) handleSearchMore(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	ls, ok := s.searches[id]
	var existing leads.ResultSet
	if ok {
		existing = ls.results
	}
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "unknown search")
		return
	}

	merged, err := ls.searcher.RunMoreSearch(r.Context(), existing)
	if eris.Is(err, leads.ErrSearchInFlight) {
		writeError(w, http.StatusConflict, "a call for this search is already in flight")
		return
	}
	if err != nil {
		zap.L().Error("more search failed", zap.String("search_id", id), zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	s.mu.Lock()
	ls.results = merged
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, searchResponse{SearchID: id, Results: merged})
}

func (s *Server) handleListLists(w http.ResponseWriter, r *http.Request) {
	email := r.Header.Get("X-User-Email")
	if email == "" {
		writeError(w, http.StatusUnauthorized, "no email provided")
		return
	}

	lists, err := s.store.ListLists(r.Context(), email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if lists == nil {
		lists = []store.SavedList{}
	}
	writeJSON(w, http.StatusOK, lists)
}

func (s *Server) handleCreateList(w http.ResponseWriter, r *http.Request) {
	email := r.Header.Get("X-User-Email")
	if email == "" {
		writeError(w, http.StatusUnauthorized, "no email provided")
		return
	}

	var req struct {
		Query   string          `json:"query"`
		Results leads.ResultSet `json:"results"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := s.store.CreateList(r.Context(), store.SavedList{
		UserEmail: email,
		Query:     req.Query,
		Results:   req.Results,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteList(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := s.store.DeleteList(r.Context(), id)
	if eris.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "list not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExportList(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	list, err := s.store.GetList(r.Context(), id)
	if eris.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "list not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="leads.csv"`)
	if err := leads.WriteCSV(w, list.Results); err != nil {
		zap.L().Error("export list failed", zap.String("list_id", id), zap.Error(err))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
