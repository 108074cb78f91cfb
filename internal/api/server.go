package api

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"mirrorshot/internal/flight"
)

// Server is the HTTP API server with WebSocket support. It combines the
// HTTP router with the WebSocket hub for real-time aim updates.
type Server struct {
	engine      EngineInterface
	flight      FlightInterface
	router      *chi.Mux
	wsHub       *WebSocketHub
	rateLimiter *IPRateLimiter
}

// NewServer creates a new API server with default production configuration.
//
// IMPORTANT: Background workers do NOT start until Start() is called.
// This enables testing by allowing the server to be constructed without
// starting goroutines or opening network listeners.
//
// For testing HTTP endpoints without WebSocket support, use NewRouter() directly.
func NewServer(engine EngineInterface, fl FlightInterface, preview PreviewRenderer, rateLimitCfg RateLimitConfig, corsOrigins []string) *Server {
	s := &Server{
		engine: engine,
		flight: fl,
		wsHub:  NewWebSocketHub(corsOrigins),
	}

	s.rateLimiter = NewIPRateLimiter(rateLimitCfg)

	s.router = NewRouter(RouterConfig{
		Engine:      engine,
		Flight:      fl,
		Preview:     preview,
		RateLimiter: s.rateLimiter,
		CORSOrigins: corsOrigins,
	})

	// WebSocket routes need the hub instance, so they can't be part of
	// the generic NewRouter factory.
	s.router.Get("/ws", s.handleWS)

	return s
}

// Hub exposes the WebSocket hub so the flight layer can push impact
// events.
func (s *Server) Hub() *WebSocketHub {
	return s.wsHub
}

// Start begins the HTTP server AND starts background workers.
// This is the ONLY method that starts goroutines or opens network listeners.
//
// Call this method only once. To stop the server, signal the process.
func (s *Server) Start(addr string) error {
	go s.wsHub.Run()
	s.wsHub.StartBroadcastLoop(s.engine, s.flight)

	log.Printf("🌐 API server starting on %s", addr)
	log.Printf("🎯 Preview: http://localhost%s/api/preview.png", addr)

	return http.ListenAndServe(addr, s.router)
}

// Router returns the HTTP handler for use with httptest.
// Use this in integration tests instead of calling Start().
func (s *Server) Router() http.Handler {
	return s.router
}

// Stop performs graceful shutdown of background workers.
func (s *Server) Stop() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	s.wsHub.HandleWebSocket(w, r)
}

// BroadcastImpact publishes an arrow impact to connected clients.
func (s *Server) BroadcastImpact(ev flight.ImpactEvent) {
	s.wsHub.Broadcast("arrow:impact", ev)
}
