package simstream

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/unhype/unhype/internal/domain/model"
	"github.com/unhype/unhype/pkg/logger"
)

// Server serves the simulated /api/process endpoint.
type Server struct {
	gen       *Generator
	lineDelay time.Duration // pause between streamed lines
	splitMid  bool          // flush lines in two halves to split frames mid-JSON

	log logger.Logger
}

// SrvOption applies a configuration option to the Server.
type SrvOption func(*Server)

// WithGenerator sets the script generator.
func WithGenerator(gen *Generator) SrvOption {
	return func(s *Server) {
		if gen != nil {
			s.gen = gen
		}
	}
}

// WithLineDelay sets the pause between streamed lines, mimicking upstream
// pipeline latency.
func WithLineDelay(d time.Duration) SrvOption {
	return func(s *Server) {
		if d >= 0 {
			s.lineDelay = d
		}
	}
}

// WithMidLineFlush makes the server flush each line in two halves, forcing
// the client to reassemble frames split mid-JSON.
func WithMidLineFlush() SrvOption {
	return func(s *Server) {
		s.splitMid = true
	}
}

// NewServer creates a simulator server with configuration options.
func NewServer(opts ...SrvOption) *Server {
	s := &Server{
		gen: NewGenerator(),
		log: logger.Get().Named("simstream"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP handler exposing POST /api/process.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/process", s.handleProcess)
	return mux
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed form body")
		return
	}
	action := r.FormValue("action")
	text := r.FormValue("text")
	if strings.TrimSpace(text) == "" {
		writeDetail(w, http.StatusBadRequest, "text must not be empty")
		return
	}

	runID := uuid.NewString()
	ctx := r.Context()
	s.log.Info(ctx, "processing request",
		logger.String("run_id", runID),
		logger.String("action", action),
		logger.Int("text_len", len(text)),
	)

	switch action {
	case string(model.ActionClean):
		cleanText := s.gen.CleanText(text)
		writeJSON(w, http.StatusOK, model.Result{
			CleanText: cleanText,
			Changes: []model.Change{
				{Description: "Normalized whitespace and blank lines"},
			},
		})
	case string(model.ActionRewrite):
		s.streamRewrite(w, r, text)
	default:
		writeDetail(w, http.StatusBadRequest, "invalid action")
	}
}

func (s *Server) streamRewrite(w http.ResponseWriter, r *http.Request, text string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeDetail(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)

	ctx := r.Context()
	for _, line := range s.gen.Script(text) {
		select {
		case <-ctx.Done():
			return
		default:
		}

		framed := line + "\n"
		if s.splitMid && len(framed) > 2 {
			half := len(framed) / 2
			if _, err := w.Write([]byte(framed[:half])); err != nil {
				return
			}
			flusher.Flush()
			if _, err := w.Write([]byte(framed[half:])); err != nil {
				return
			}
		} else {
			if _, err := w.Write([]byte(framed)); err != nil {
				return
			}
		}
		flusher.Flush()

		if s.lineDelay > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.lineDelay):
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
