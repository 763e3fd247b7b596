package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"nightwatch/internal/api"
	"nightwatch/internal/config"
	"nightwatch/internal/logging"
	"nightwatch/internal/shifts"
	"nightwatch/internal/store"
	"nightwatch/internal/systemwatch"
)

type apiServer struct {
	bind    string
	logger  *slog.Logger
	service *shifts.Service

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, service *shifts.Service, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:    strings.TrimSpace(cfg.Server.Bind),
		logger:  logger,
		service: service,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", srv.wrap(srv.handleHealth))
	mux.HandleFunc("/api/shift/current", srv.wrap(srv.handleCurrentShift))
	mux.HandleFunc("/api/shift/start", srv.wrap(srv.handleStartShift))
	mux.HandleFunc("/api/shift/end", srv.wrap(srv.handleEndShift))
	mux.HandleFunc("/api/shift/", srv.wrap(srv.handleShiftItem))
	mux.HandleFunc("/api/tasks/current", srv.wrap(srv.handleCurrentTasks))
	mux.HandleFunc("/api/tasks", srv.wrap(srv.handleCreateTask))
	mux.HandleFunc("/api/tasks/", srv.wrap(srv.handleTaskItem))
	mux.HandleFunc("/api/system", srv.wrap(srv.handleSystem))

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.bind
}

// wrap tags each request with an id and logs its outcome.
func (s *apiServer) wrap(fn func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)
		s.log().Debug("request",
			logging.String(logging.FieldRequestID, requestID),
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
		)
		fn(w, r)
	}
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *apiServer) handleCurrentShift(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	shift, err := s.service.GetActiveShift(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if shift == nil {
		// No active shift serializes as a bare null, not an empty object.
		s.writeJSON(w, http.StatusOK, (*api.Shift)(nil))
		return
	}
	payload := api.FromShift(*shift)
	s.writeJSON(w, http.StatusOK, &payload)
}

func (s *apiServer) handleStartShift(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	result, err := s.service.StartShift(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.StartShiftResponse{
		Shift:            api.FromShift(result.Shift),
		CarriedTaskCount: result.Carried,
		AlreadyActive:    result.AlreadyActive,
	})
}

func (s *apiServer) handleEndShift(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	shift, err := s.service.EndShift(r.Context())
	if errors.Is(err, shifts.ErrNoActiveShift) {
		s.writeError(w, http.StatusConflict, "no active shift")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromShift(*shift))
}

// handleShiftItem routes /api/shift/{id}/notes.
func (s *apiServer) handleShiftItem(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/shift/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[1] != "notes" {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid shift id")
		return
	}
	if r.Method != http.MethodPut {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req api.ShiftNotesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Notes) > shifts.MaxNotesLength {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("notes exceed %d characters", shifts.MaxNotesLength))
		return
	}
	shift, err := s.service.SetShiftNotes(r.Context(), id, req.Notes)
	if errors.Is(err, shifts.ErrShiftNotFound) {
		s.writeError(w, http.StatusNotFound, "shift not found")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromShift(*shift))
}

func (s *apiServer) handleCurrentTasks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	tasks, err := s.service.ListTasksForActiveShift(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromTasks(tasks))
}

func (s *apiServer) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req api.TaskCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	trimmed := strings.TrimSpace(req.Title)
	if trimmed == "" {
		s.writeError(w, http.StatusBadRequest, "task title is required")
		return
	}
	if len(trimmed) > shifts.MaxTitleLength {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("task title exceeds %d characters", shifts.MaxTitleLength))
		return
	}
	task, err := s.service.AddTask(r.Context(), trimmed)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, api.FromTask(*task))
}

// handleTaskItem routes /api/tasks/{id}/complete, /api/tasks/{id}/reopen, and
// DELETE /api/tasks/{id}.
func (s *apiServer) handleTaskItem(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/tasks/")
	parts := strings.Split(rest, "/")
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodDelete:
		deleted, err := s.service.DeleteTask(r.Context(), id)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if !deleted {
			s.writeError(w, http.StatusNotFound, "task not found")
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	case len(parts) == 2 && parts[1] == "complete":
		s.setTaskCompletion(w, r, id, s.service.CompleteTask)
	case len(parts) == 2 && parts[1] == "reopen":
		s.setTaskCompletion(w, r, id, s.service.ReopenTask)
	default:
		s.writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *apiServer) setTaskCompletion(w http.ResponseWriter, r *http.Request, id int64, op func(context.Context, int64) (*store.Task, error)) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	task, err := op(r.Context(), id)
	if errors.Is(err, shifts.ErrTaskNotFound) {
		s.writeError(w, http.StatusNotFound, "task not found")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromTask(*task))
}

func (s *apiServer) handleSystem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromSnapshot(systemwatch.Read(r.Context())))
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil || status == http.StatusNoContent {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String(logging.FieldComponent, "api-server"))
	}
	return logging.NewNop()
}
