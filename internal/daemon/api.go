package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/gorilla/mux"

	"callsheet/internal/config"
	"callsheet/internal/logging"
	"callsheet/internal/status"
)

const defaultRunsLimit = 20

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil
	}

	srv := &apiServer{bind: bind, logger: logger, daemon: d}

	router := mux.NewRouter()
	router.HandleFunc("/health", srv.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/status", srv.handleStatus).Methods(http.MethodGet)
	router.HandleFunc("/runs", srv.handleRuns).Methods(http.MethodGet)

	srv.server = &http.Server{
		Handler:           router,
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
			s.logger.Error("api server error", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
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

type healthPayload struct {
	Status    string          `json:"status"`
	Running   bool            `json:"running"`
	Providers map[string]bool `json:"providers"`
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	probeCtx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	set := s.daemon.set
	payload := healthPayload{
		Status:  "ok",
		Running: s.daemon.Running(),
		Providers: map[string]bool{
			set.Speech.Name(): set.Speech.Available(probeCtx),
			set.Image.Name():  set.Image.Available(probeCtx),
			set.Music.Name():  set.Music.Available(probeCtx),
			set.SFX.Name():    set.SFX.Available(probeCtx),
			set.Video.Name():  set.Video.Available(probeCtx),
		},
	}
	s.writeJSON(w, http.StatusOK, payload)
}

// handleStatus serves the latest status snapshot, or an IDLE document when
// no run has ever been recorded.
func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	snapshot, err := status.Read(s.daemon.cfg.Paths.StatusPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.writeJSON(w, http.StatusOK, status.Status{
				State:      status.StateIdle,
				ExportJobs: []status.JobStatus{},
				Errors:     []string{},
			})
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, snapshot)
}

func (s *apiServer) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", raw))
			return
		}
		limit = parsed
	}

	if s.daemon.ledger == nil {
		s.writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	rows, err := s.daemon.ledger.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, rows)
}

func (s *apiServer) writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("api response write failed", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, code int, message string) {
	s.writeJSON(w, code, map[string]string{"error": message})
}
