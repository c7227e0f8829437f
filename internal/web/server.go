package web

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"gsbot/internal/config"
	"gsbot/internal/pets"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// BotState reports whether the gateway session is live.
type BotState interface {
	Connected() bool
}

type Options struct {
	Config   config.Config
	Pets     *pets.Store
	Notifier Notifier
	Bot      BotState
	Logger   *zap.Logger
	System   func() SystemInfo
}

type Server struct {
	cfg      config.Config
	pets     *pets.Store
	notifier Notifier
	bot      BotState
	logger   *zap.Logger
	system   func() SystemInfo
	start    time.Time
	now      func() time.Time
	pending  sync.WaitGroup
}

func New(opts Options) *Server {
	system := opts.System
	if system == nil {
		system = CollectSystem
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:      opts.Config,
		pets:     opts.Pets,
		notifier: opts.Notifier,
		bot:      opts.Bot,
		logger:   logger,
		system:   system,
		start:    time.Now().UTC(),
		now:      time.Now,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Use(MaxBodySize(64 * 1024))
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(Logger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", s.health)
	r.Get("/uptime", s.uptime)
	r.Get("/status", s.status)
	r.Get("/ping", s.ping)
	r.Post("/calculate", s.calculate)
	r.Post("/calculate-values", s.calculateValues)
	r.Get("/pet-list", s.petList)

	r.Route("/admin/pets", func(r chi.Router) {
		r.Get("/", s.listPets)
		r.Post("/", s.createPet)
		r.Put("/{key}", s.updatePet)
		r.Delete("/{key}", s.deletePet)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	return r
}

// Wait blocks until queued notifications have been delivered.
func (s *Server) Wait() {
	s.pending.Wait()
}

func (s *Server) notify(event PetEvent) {
	if s.notifier == nil {
		return
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.notifier.NotifyPet(ctx, event); err != nil {
			s.logger.Warn("pet notification failed", zap.String("pet", event.Name), zap.String("action", event.Action), zap.Error(err))
		}
	}()
}

func (s *Server) uptimeSeconds() float64 {
	return s.now().Sub(s.start).Seconds()
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func decode(r *http.Request, into any) error {
	return json.NewDecoder(r.Body).Decode(into)
}
