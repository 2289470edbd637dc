// Package api exposes the daemon's HTTP surface: interaction event ingest,
// score and wellness snapshots, and lifecycle controls.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cogwatch/cogwatch/internal/cognitive"
	"github.com/cogwatch/cogwatch/internal/signal"
	"github.com/cogwatch/cogwatch/internal/wellness"
)

var (
	eventsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cogwatch_events_ingested_total",
		Help: "Total number of interaction events ingested",
	}, []string{"kind"})

	interventionsFired = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cogwatch_interventions_fired_total",
		Help: "Total number of wellness interventions fired",
	}, []string{"category"})

	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cogwatch_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "endpoint", "status"})

	overallScore = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cogwatch_overall_score",
		Help: "Latest overall cognitive score",
	})

	engagementGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cogwatch_session_engagement",
		Help: "Engagement score of the live platform session",
	})
)

const recentInterventionsMax = 20

// Server wires the engines to HTTP.
type Server struct {
	router    *mux.Router
	cognitive *cognitive.Engine
	wellness  *wellness.Engine

	// visibility fans window focus transitions out to the sync layer.
	visibility func(visible bool)

	mu     sync.Mutex
	recent []wellness.Intervention

	unsubScores        func()
	unsubInterventions func()
}

func NewServer(cog *cognitive.Engine, well *wellness.Engine, visibility func(bool)) *Server {
	s := &Server{
		router:     mux.NewRouter(),
		cognitive:  cog,
		wellness:   well,
		visibility: visibility,
	}
	s.setupRoutes()

	s.unsubScores = cog.Subscribe(func(snap cognitive.Snapshot) {
		overallScore.Set(float64(snap.Cognitive.Overall.Value))
	})
	s.unsubInterventions = well.SubscribeToInterventions(func(iv wellness.Intervention) {
		interventionsFired.WithLabelValues(iv.Category).Inc()
		s.mu.Lock()
		s.recent = append(s.recent, iv)
		if len(s.recent) > recentInterventionsMax {
			s.recent = s.recent[len(s.recent)-recentInterventionsMax:]
		}
		s.mu.Unlock()
	})

	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.healthHandler).Methods("GET")
	s.router.HandleFunc("/events", s.eventsHandler).Methods("POST")
	s.router.HandleFunc("/snapshot", s.snapshotHandler).Methods("GET")
	s.router.HandleFunc("/wellness", s.wellnessHandler).Methods("GET")
	s.router.HandleFunc("/interventions", s.interventionsHandler).Methods("GET")
	s.router.HandleFunc("/status", s.statusHandler).Methods("GET")
	s.router.HandleFunc("/pause", s.pauseHandler).Methods("POST")
	s.router.HandleFunc("/resume", s.resumeHandler).Methods("POST")
	s.router.HandleFunc("/break", s.breakHandler).Methods("POST")
	s.router.HandleFunc("/settings", s.settingsHandler).Methods("POST")
	s.router.Handle("/metrics", promhttp.Handler())
}

// Handler returns the routed handler, mostly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Close drops the engine subscriptions.
func (s *Server) Close() {
	if s.unsubScores != nil {
		s.unsubScores()
	}
	if s.unsubInterventions != nil {
		s.unsubInterventions()
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) eventsHandler(w http.ResponseWriter, r *http.Request) {
	var events []signal.Event
	if err := json.NewDecoder(r.Body).Decode(&events); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, "400").Inc()
		return
	}

	for _, ev := range events {
		s.dispatch(ev)
		eventsIngested.WithLabelValues(string(ev.Kind)).Inc()
	}

	writeJSON(w, r, http.StatusAccepted, map[string]interface{}{
		"status":   "accepted",
		"accepted": len(events),
	})
}

// dispatch routes one raw event to every consumer interested in its kind.
func (s *Server) dispatch(ev signal.Event) {
	t := ev.Time
	if t.IsZero() {
		t = time.Now()
	}

	switch ev.Kind {
	case signal.KindKey:
		s.cognitive.RecordKeystroke(t)
	case signal.KindPointerMove:
		s.cognitive.RecordPointerMove(ev.X, ev.Y, t)
	case signal.KindClick:
		s.cognitive.RecordClick(t)
		s.wellness.RecordClick(t)
	case signal.KindScroll:
		s.wellness.RecordScroll(ev.Offset, t)
	case signal.KindVisibility:
		s.cognitive.SetVisible(ev.Visible, t)
		if !ev.Visible {
			s.wellness.HandleBlur(t)
		}
		if s.visibility != nil {
			s.visibility(ev.Visible)
		}
	case signal.KindNavigation:
		s.cognitive.RecordTabSwitch(t)
		s.wellness.HandleNavigation(ev.URL, t)
	default:
		log.Printf("api: dropping event of unknown kind %q", ev.Kind)
	}
}

func (s *Server) snapshotHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.cognitive.GetData())
}

func (s *Server) wellnessHandler(w http.ResponseWriter, r *http.Request) {
	snap := s.wellness.GetData()
	if snap.Session != nil {
		engagementGauge.Set(float64(snap.Session.EngagementScore))
	}
	writeJSON(w, r, http.StatusOK, snap)
}

func (s *Server) interventionsHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]wellness.Intervention, len(s.recent))
	copy(out, s.recent)
	s.mu.Unlock()
	writeJSON(w, r, http.StatusOK, out)
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"monitoring":  s.cognitive.IsActive(),
		"wellness":    s.wellness.IsActive(),
		"dataSources": s.cognitive.DataSourceStatus(),
		"escalation":  s.wellness.EscalationLevel(),
	})
}

func (s *Server) pauseHandler(w http.ResponseWriter, r *http.Request) {
	s.cognitive.PauseMonitoring()
	s.wellness.PauseMonitoring()
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "paused"})
}

func (s *Server) resumeHandler(w http.ResponseWriter, r *http.Request) {
	s.cognitive.ResumeMonitoring()
	s.wellness.ResumeMonitoring()
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "monitoring"})
}

func (s *Server) breakHandler(w http.ResponseWriter, r *http.Request) {
	s.wellness.RecordMindfulBreak()
	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"status":     "break recorded",
		"escalation": s.wellness.EscalationLevel(),
	})
}

func (s *Server) settingsHandler(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, "400").Inc()
		return
	}

	s.wellness.UpdateSettings(req.patch())
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "updated"})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
	httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, fmt.Sprint(status)).Inc()
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		log.Printf("API listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errs <- err
		}
		close(errs)
	}()

	select {
	case <-ctx.Done():
	case err := <-errs:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.SetKeepAlivesEnabled(false)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Println("API server stopped")
	return nil
}
