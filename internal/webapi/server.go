package webapi

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/zzmio78/wrdrv/internal/scan"
)

// Status describes the running scan session.
type Status struct {
	Interface string    `json:"interface"`
	Loops     int       `json:"loops_completed"`
	APCount   int       `json:"ap_count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Server exposes a read-only view of a running scan session over HTTP. The
// scan loop publishes snapshots at loop boundaries; handlers only ever read
// the latest copy, so the session itself stays single-threaded.
type Server struct {
	logger *logrus.Logger
	iface  string

	mu      sync.RWMutex
	ranked  []scan.RankedAP
	status  Status
	httpSrv *http.Server
}

// NewServer creates a status API for a scan session on the given interface
func NewServer(iface string, logger *logrus.Logger) *Server {
	return &Server{
		logger: logger,
		iface:  iface,
		status: Status{Interface: iface},
	}
}

// Publish stores the latest ranked snapshot. Implements scan.Publisher.
func (s *Server) Publish(loop int, ranked []scan.RankedAP) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ranked = ranked
	s.status = Status{
		Interface: s.iface,
		Loops:     loop,
		APCount:   len(ranked),
		UpdatedAt: time.Now(),
	}
}

// Start serves the API in a background goroutine until Stop is called.
func (s *Server) Start(addr string) {
	s.httpSrv = &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		s.logger.Infof("Status API listening on %s", addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Errorf("Status API failed: %v", err)
		}
	}()
}

// Stop shuts the API down.
func (s *Server) Stop() {
	if s.httpSrv != nil {
		_ = s.httpSrv.Close()
	}
}

// Router builds the HTTP handler; exposed for tests.
func (s *Server) Router() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/api/results", s.resultsHandler).Methods("GET")
	router.HandleFunc("/api/status", s.statusHandler).Methods("GET")
	router.HandleFunc("/healthz", s.healthHandler).Methods("GET")
	return router
}

func (s *Server) resultsHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	ranked := s.ranked
	s.mu.RUnlock()

	if ranked == nil {
		ranked = []scan.RankedAP{}
	}
	s.writeJSON(w, ranked)
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	status := s.status
	s.mu.RUnlock()

	s.writeJSON(w, status)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Errorf("Failed to encode response: %v", err)
	}
}
