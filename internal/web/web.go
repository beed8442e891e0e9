package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"weekplan/internal/config"
	"weekplan/internal/ics"
	appLog "weekplan/internal/log"
	"weekplan/internal/model"
	"weekplan/internal/planner"
	"weekplan/internal/reminder"
	"weekplan/internal/store"
)

// maxBody bounds JSON and ICS request bodies.
const maxBody = 4 << 20

// Server exposes the planner to the presentation layer as a JSON API.
type Server struct {
	planner   *planner.Planner
	outbox    *reminder.Outbox
	listen    string
	basicAuth *config.BasicAuthConfig
	mux       *http.ServeMux
}

// Options configures a Server.
type Options struct {
	Listen    string
	BasicAuth *config.BasicAuthConfig
	// Outbox, if set, backs the notification endpoints.
	Outbox *reminder.Outbox
}

// NewServer constructs a new Server.
func NewServer(p *planner.Planner, opts Options) *Server {
	s := &Server{
		planner:   p,
		outbox:    opts.Outbox,
		listen:    opts.Listen,
		basicAuth: opts.BasicAuth,
		mux:       http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		appLog.Info("shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) basicAuthEnabled() bool {
	return s.basicAuth != nil && s.basicAuth.Username != "" && s.basicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.basicAuth.Username
	password := s.basicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="weekplan", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /api/week", s.handleWeek)
	s.mux.HandleFunc("GET /api/month", s.handleMonth)
	s.mux.HandleFunc("POST /api/month", s.handleShiftMonth)
	s.mux.HandleFunc("POST /api/today", s.handleToday)
	s.mux.HandleFunc("POST /api/select", s.handleSelect)

	s.mux.HandleFunc("GET /api/tasks", s.handleListTasks)
	s.mux.HandleFunc("GET /api/tasks/new", s.handleNewTask)
	s.mux.HandleFunc("POST /api/tasks", s.handleCreateTask)
	s.mux.HandleFunc("PUT /api/tasks/{id}", s.handleUpdateTask)
	s.mux.HandleFunc("DELETE /api/tasks/{id}", s.handleDeleteTask)
	s.mux.HandleFunc("POST /api/tasks/{id}/toggle", s.handleToggleTask)
	s.mux.HandleFunc("GET /api/tasks/{id}/layout", s.handleTaskLayout)

	s.mux.HandleFunc("GET /api/notifications", s.handleNotifications)
	s.mux.HandleFunc("POST /api/notifications/permission", s.handlePermission)

	s.mux.HandleFunc("GET /calendar.ics", s.handleExportICS)
	s.mux.HandleFunc("POST /api/import", s.handleImportICS)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// GET /api/week?filter=all|completed|pending
func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	view, err := s.planner.Week(r.Context(), store.ParseFilter(r.URL.Query().Get("filter")))
	if err != nil {
		s.internalError(w, "build week view", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleMonth(w http.ResponseWriter, _ *http.Request) {
	s.writeMonth(w)
}

func (s *Server) writeMonth(w http.ResponseWriter) {
	view, err := s.planner.Month()
	if err != nil {
		s.internalError(w, "build month view", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type shiftRequest struct {
	Delta int `json:"delta"`
}

// POST /api/month {"delta": -1}
func (s *Server) handleShiftMonth(w http.ResponseWriter, r *http.Request) {
	var req shiftRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.planner.ShiftDisplayedMonth(req.Delta)
	s.writeMonth(w)
}

func (s *Server) handleToday(w http.ResponseWriter, r *http.Request) {
	if err := s.planner.GoToToday(r.Context()); err != nil {
		s.internalError(w, "go to today", err)
		return
	}
	s.writeWeek(w, r)
}

type selectRequest struct {
	Date string `json:"date"`
}

// POST /api/select {"date": "2026-01-28"}
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.planner.SelectDate(r.Context(), req.Date); err != nil {
		var perr *time.ParseError
		if errors.As(err, &perr) || req.Date == "" {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		s.internalError(w, "select date", err)
		return
	}
	s.writeWeek(w, r)
}

func (s *Server) writeWeek(w http.ResponseWriter, r *http.Request) {
	view, err := s.planner.Week(r.Context(), store.FilterAll)
	if err != nil {
		s.internalError(w, "build week view", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// GET /api/tasks?date=YYYY-MM-DD&filter=...
func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tasks, err := s.planner.ListTasksForDate(r.Context(), q.Get("date"), store.ParseFilter(q.Get("filter")))
	if err != nil {
		s.internalError(w, "list tasks", err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// GET /api/tasks/new?date=YYYY-MM-DD returns the prefilled form values.
func (s *Server) handleNewTask(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.planner.NewTaskDefaults(r.URL.Query().Get("date")))
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var d store.Draft
	if !decodeJSON(w, r, &d) {
		return
	}
	task, _, err := s.planner.UpsertTask(r.Context(), "", d)
	if err != nil {
		s.writeTaskError(w, "create task", err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var d store.Draft
	if !decodeJSON(w, r, &d) {
		return
	}
	task, found, err := s.planner.UpsertTask(r.Context(), model.TaskID(r.PathValue("id")), d)
	if err != nil {
		s.writeTaskError(w, "update task", err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	removed, err := s.planner.DeleteTask(r.Context(), model.TaskID(r.PathValue("id")))
	if err != nil {
		s.internalError(w, "delete task", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"removed": removed})
}

func (s *Server) handleToggleTask(w http.ResponseWriter, r *http.Request) {
	completed, found, err := s.planner.ToggleCompleted(r.Context(), model.TaskID(r.PathValue("id")))
	if err != nil {
		s.internalError(w, "toggle task", err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"completed": completed})
}

func (s *Server) handleTaskLayout(w http.ResponseWriter, r *http.Request) {
	task, found, err := s.planner.Store().Get(r.Context(), model.TaskID(r.PathValue("id")))
	if err != nil {
		s.internalError(w, "get task", err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, s.planner.ComputeLayout(task))
}

type notificationsResponse struct {
	Granted       bool                 `json:"granted"`
	Notifications []model.Notification `json:"notifications"`
}

// GET /api/notifications drains the outbox.
func (s *Server) handleNotifications(w http.ResponseWriter, _ *http.Request) {
	if s.outbox == nil {
		writeJSON(w, http.StatusOK, notificationsResponse{Notifications: []model.Notification{}})
		return
	}
	writeJSON(w, http.StatusOK, notificationsResponse{
		Granted:       s.outbox.Granted(),
		Notifications: s.outbox.Drain(),
	})
}

type permissionRequest struct {
	Granted bool `json:"granted"`
}

// POST /api/notifications/permission {"granted": true}
func (s *Server) handlePermission(w http.ResponseWriter, r *http.Request) {
	if s.outbox == nil {
		writeError(w, http.StatusNotFound, "notifications are not enabled")
		return
	}
	var req permissionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.outbox.SetGranted(req.Granted)
	appLog.Info("notification permission updated", "granted", req.Granted)
	writeJSON(w, http.StatusOK, map[string]bool{"granted": req.Granted})
}

func (s *Server) handleExportICS(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.planner.Store().List(r.Context())
	if err != nil {
		s.internalError(w, "list tasks", err)
		return
	}
	c := s.planner.Cursor()
	body := ics.Export(tasks, c.Location(), c.Now())
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="weekplan.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, body)
}

// POST /api/import with a text/calendar body.
func (s *Server) handleImportICS(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	tasks, err := ics.Import(body, s.planner.Cursor().Location())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ICS: "+err.Error())
		return
	}
	n, err := s.planner.ImportTasks(r.Context(), tasks)
	if err != nil {
		s.internalError(w, "import tasks", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": n})
}

func (s *Server) writeTaskError(w http.ResponseWriter, op string, err error) {
	if store.IsValidation(err) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.internalError(w, op, err)
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	appLog.Error("api: "+op+" failed", err)
	writeError(w, http.StatusInternalServerError, op+" failed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
