package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/botlink-core/internal/infrastructure/config"
	"github.com/nerrad567/botlink-core/internal/infrastructure/logging"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight
// requests to complete during shutdown.
const gracefulShutdownTimeout = 5 * time.Second

// maxBodySize caps inbound event bodies. Push events are small; anything
// above this is garbage or abuse.
const maxBodySize = 64 * 1024

// event is the envelope push notifications arrive in. The context block
// carries the actual field values plus the deviceMac discriminator.
type event struct {
	EventType    string         `json:"eventType"`
	EventVersion string         `json:"eventVersion"`
	Context      map[string]any `json:"context"`
}

// Server is the HTTP ingress for push events.
//
// It accepts POSTs on a single configured path, resolves the target
// accessory through the registry, and hands the event's context block to
// that accessory. The server never writes back device state; it is
// receive-only.
type Server struct {
	cfg      config.WebhookConfig
	logger   *logging.Logger
	registry *Registry
	server   *http.Server
}

// New creates a webhook ingress server. Not listening until Start.
func New(cfg config.WebhookConfig, registry *Registry, logger *logging.Logger) (*Server, error) {
	if registry == nil {
		return nil, fmt.Errorf("webhook: registry is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("webhook: logger is required")
	}

	return &Server{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
	}, nil
}

// Start launches the HTTP listener in a background goroutine.
func (s *Server) Start(ctx context.Context) error {
	router := chi.NewRouter()
	router.Use(s.recoveryMiddleware)
	router.Post(s.cfg.Path, s.handleEvent)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       s.cfg.GetReadTimeout(),
		ReadHeaderTimeout: s.cfg.GetReadTimeout(),
		WriteTimeout:      s.cfg.GetWriteTimeout(),
	}

	go func() {
		s.logger.Info("webhook ingress listening", "address", s.server.Addr, "path", s.cfg.Path)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("webhook ingress error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the listener.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("webhook ingress shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("webhook: shutdown: %w", err)
	}
	return nil
}

// handleEvent processes one push notification.
//
// Malformed envelopes get a 400. Events for unknown devices get a 200 so
// the sender does not retry-storm an address we simply do not bridge.
// Handler rejections (malformed field values) also get a 200: the event is
// consumed, just not applied.
func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	var ev event
	body := http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(body).Decode(&ev); err != nil {
		s.logger.Warn("webhook body rejected", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "malformed body"})
		return
	}

	mac, _ := ev.Context["deviceMac"].(string)
	if mac == "" {
		s.logger.Warn("webhook event missing deviceMac", "event_type", ev.EventType)
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "missing deviceMac"})
		return
	}

	handler, err := s.registry.Lookup(mac)
	if err != nil {
		if errors.Is(err, ErrNotRegistered) {
			s.logger.Debug("webhook event for unbridged device", "device_mac", mac)
			writeJSON(w, http.StatusOK, map[string]any{"message": "ignored"})
			return
		}
		s.logger.Warn("webhook event rejected", "device_mac", mac, "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "bad device address"})
		return
	}

	if err := handler.ApplyWebhookEvent(ev.Context); err != nil {
		s.logger.Warn("webhook event not applied", "device_mac", mac, "error", err)
		writeJSON(w, http.StatusOK, map[string]any{"message": "dropped"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"message": "applied"})
}

// recoveryMiddleware converts handler panics into 500 responses so one bad
// payload cannot take the listener down.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("webhook handler panic", "panic", rec, "path", r.URL.Path)
				writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "internal error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // response write failures are the client's problem
	json.NewEncoder(w).Encode(body)
}
