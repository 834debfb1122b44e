package api

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dicebox/dicebox-go/internal/config"
	"github.com/dicebox/dicebox-go/internal/phys"
	"github.com/dicebox/dicebox-go/internal/render"
	"github.com/dicebox/dicebox-go/internal/scan"
	"github.com/dicebox/dicebox-go/internal/sim"
	"github.com/dicebox/dicebox-go/internal/store"
)

// Server handles HTTP requests
type Server struct {
	cfg          *config.Config
	db           store.DB
	scanner      *scan.Scanner
	renderer     *render.Renderer
	errorHandler *ErrorHandler
	logger       *log.Logger
	startTime    time.Time

	physCfg phys.Config
	scenCfg sim.ScenarioConfig
	resCfg  sim.ResolverConfig
}

// NewServer creates a new API server
func NewServer(cfg *config.Config, db store.DB, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(os.Stdout, "[api] ", log.LstdFlags)
	}

	physCfg := phys.DefaultConfig()
	scenCfg := sim.DefaultScenarioConfig()
	resCfg := sim.DefaultResolverConfig()
	resCfg.Deadline = cfg.ResolveDeadline
	resCfg.MaxRetries = cfg.MaxRetries
	resCfg.DetectionWindow = cfg.DetectionWindow

	renderer := render.New(render.Config{
		Size:        cfg.FrameSize,
		Supersample: cfg.Supersample,
		Margin:      8,
		ArenaHalfX:  physCfg.ArenaHalfX,
		ArenaHalfZ:  physCfg.ArenaHalfZ,
	})

	return &Server{
		cfg:          cfg,
		db:           db,
		scanner:      scan.NewScanner(physCfg, scenCfg, resCfg, logger),
		renderer:     renderer,
		errorHandler: NewErrorHandler(logger),
		logger:       logger,
		startTime:    time.Now(),
		physCfg:      physCfg,
		scenCfg:      scenCfg,
		resCfg:       resCfg,
	}
}

// Routes sets up the HTTP routes with proper middleware
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.errorHandler.RecoveryHandler)
	r.Use(middleware.Timeout(s.cfg.RequestTimeout))

	r.Get("/health", s.handleHealthCheck)
	r.Get("/health/ready", s.handleReadiness)
	r.Get("/health/live", s.handleLiveness)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/roll", s.handleRoll)
		r.Get("/rolls", s.handleListRolls)
		r.Get("/rolls/{id}", s.handleGetRoll)
		r.Get("/rolls/{id}/frames", s.handleRollFrames)
		r.Post("/scan", s.handleScan)
		r.Get("/version", s.handleVersion)
	})

	return r
}

// writeJSON writes a JSON response with proper headers
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Engine-Version", EngineVersion)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// writeError writes a structured error response
func (s *Server) writeError(w http.ResponseWriter, status int, errType, message string, context map[string]interface{}) {
	errorResponse := EngineError{
		Type:    errType,
		Message: message,
		Context: context,
	}
	s.writeJSON(w, status, errorResponse)
}
