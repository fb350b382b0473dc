// Package api exposes catalog lookups over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/angelospk/gamecrawl/pkg/core/catalog"
	coreerrors "github.com/angelospk/gamecrawl/pkg/core/errors"
	"github.com/angelospk/gamecrawl/pkg/lookup"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

// allFields selects every field in the cooldown clear endpoint.
const allFields = "all"

// Server routes requests to one resolver per field. Only one lookup runs at a
// time across all fields; a request arriving during a lookup gets 409.
type Server struct {
	store     catalog.Store
	resolvers map[catalog.Field]*lookup.Resolver
	logger    *log.Logger
	lookupMu  sync.Mutex
	router    chi.Router
}

// New creates a Server over store. Each resolver serves the field of its site.
func New(store catalog.Store, resolvers []*lookup.Resolver, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New()
	}
	s := &Server{
		store:     store,
		resolvers: make(map[catalog.Field]*lookup.Resolver, len(resolvers)),
		logger:    logger,
	}
	for _, r := range resolvers {
		s.resolvers[r.Site().Field] = r
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/entries", s.handleEntries)
	r.Post("/resolve/{field}/{id}", s.handleResolve)
	r.Post("/batch/{field}", s.handleBatch)
	r.Post("/cooldowns/{field}/clear", s.handleClearCooldowns)
	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"duration": time.Since(start).Round(time.Millisecond).String(),
			"request":  middleware.GetReqID(r.Context()),
		}).Debug("Request served")
	})
}

// ResultView is the JSON form of a lookup.Result.
type ResultView struct {
	EntryID    string   `json:"entryId"`
	Name       string   `json:"name"`
	Status     string   `json:"status"`
	Value      *float64 `json:"value,omitempty"`
	Year       int      `json:"year,omitempty"`
	Rule       string   `json:"rule,omitempty"`
	Reason     string   `json:"reason,omitempty"`
	Skipped    bool     `json:"skipped,omitempty"`
	Query      string   `json:"query,omitempty"`
	Candidate  string   `json:"candidate,omitempty"`
	Similarity float64  `json:"similarity,omitempty"`
	Attempts   int      `json:"attempts"`
	Updated    bool     `json:"updated"`
	Error      string   `json:"error,omitempty"`
}

// NewResultView converts res.
func NewResultView(res lookup.Result) ResultView {
	v := ResultView{
		EntryID:    res.EntryID,
		Name:       res.Name,
		Status:     res.Outcome.Status.String(),
		Year:       res.Outcome.Year,
		Rule:       res.Outcome.Rule,
		Reason:     res.Outcome.Reason,
		Skipped:    res.Skipped,
		Query:      res.Query,
		Candidate:  res.Candidate,
		Similarity: res.Similarity,
		Attempts:   res.Retry.Attempts,
		Updated:    res.Updated,
	}
	if res.Found() {
		value := res.Outcome.Value
		v.Value = &value
	}
	if res.Err != nil {
		v.Error = res.Err.Error()
	}
	return v
}

// BatchView is the JSON form of a lookup.BatchReport.
type BatchView struct {
	RunID     string       `json:"runId"`
	Field     string       `json:"field"`
	DryRun    bool         `json:"dryRun"`
	Processed int          `json:"processed"`
	Updated   int          `json:"updated"`
	Failed    int          `json:"failed"`
	Skipped   int          `json:"skipped"`
	Results   []ResultView `json:"results"`
	Started   time.Time    `json:"started"`
	Finished  time.Time    `json:"finished"`
}

// NewBatchView converts report.
func NewBatchView(report lookup.BatchReport) BatchView {
	v := BatchView{
		RunID:     report.RunID,
		Field:     string(report.Field),
		DryRun:    report.DryRun,
		Processed: report.Processed,
		Updated:   report.Updated,
		Failed:    report.Failed,
		Skipped:   report.Skipped,
		Results:   make([]ResultView, 0, len(report.Results)),
		Started:   report.Started,
		Finished:  report.Finished,
	}
	for _, res := range report.Results {
		v.Results = append(v.Results, NewResultView(res))
	}
	return v
}

func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.GetAll(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	resolver, err := s.resolver(chi.URLParam(r, "field"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	dryRun, err := boolParam(r, "dryRun")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !s.lookupMu.TryLock() {
		s.writeError(w, coreerrors.ErrLookupBusy)
		return
	}
	defer s.lookupMu.Unlock()

	res, err := resolver.ResolveID(r.Context(), chi.URLParam(r, "id"), dryRun)
	if err != nil && res.Err == nil {
		s.writeError(w, err)
		return
	}
	status := http.StatusOK
	if err != nil {
		// The lookup ran but its outcome could not be stored.
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, NewResultView(res))
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	resolver, err := s.resolver(chi.URLParam(r, "field"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	dryRun, err := boolParam(r, "dryRun")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil {
			http.Error(w, fmt.Sprintf("invalid limit %q", raw), http.StatusBadRequest)
			return
		}
	}
	if !s.lookupMu.TryLock() {
		s.writeError(w, coreerrors.ErrLookupBusy)
		return
	}
	defer s.lookupMu.Unlock()

	report, err := resolver.Run(r.Context(), limit, dryRun)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		s.writeError(w, err)
		return
	}
	if err != nil {
		s.logger.WithField("run", report.RunID).Warnf("Batch stopped early: %v", err)
	}
	writeJSON(w, http.StatusOK, NewBatchView(report))
}

func (s *Server) handleClearCooldowns(w http.ResponseWriter, r *http.Request) {
	var fields []catalog.Field
	if raw := chi.URLParam(r, "field"); raw != allFields {
		field, err := catalog.ParseField(raw)
		if err != nil {
			s.writeError(w, err)
			return
		}
		fields = append(fields, field)
	}
	n, err := catalog.ClearCooldowns(r.Context(), s.store, fields...)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"cleared": n})
}

func (s *Server) resolver(raw string) (*lookup.Resolver, error) {
	field, err := catalog.ParseField(raw)
	if err != nil {
		return nil, err
	}
	r, ok := s.resolvers[field]
	if !ok {
		return nil, fmt.Errorf("%w for field %s", coreerrors.ErrUnknownSite, field)
	}
	return r, nil
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, coreerrors.ErrUnknownField):
		status = http.StatusBadRequest
	case errors.Is(err, coreerrors.ErrEntryNotFound), errors.Is(err, coreerrors.ErrUnknownSite):
		status = http.StatusNotFound
	case errors.Is(err, coreerrors.ErrLookupBusy):
		status = http.StatusConflict
	case errors.Is(err, coreerrors.ErrNoSession):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		s.logger.Errorf("Request failed: %v", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func boolParam(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q", name, raw)
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
