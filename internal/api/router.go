package api

import (
	"io"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"mirrorshot/internal/flight"
	"mirrorshot/internal/geom"
	"mirrorshot/internal/trajectory"
)

// EngineInterface defines the trajectory engine methods used by the API.
// This interface enables mocking for tests without a full engine.
// Keep this minimal - only include methods the API layer actually calls.
type EngineInterface interface {
	SetPlayer(geom.Vec2)
	SetTarget(geom.Vec2)
	SetPlan([]trajectory.Surface)
	Player() geom.Vec2
	Target() geom.Vec2
	Plan() []trajectory.Surface
	Surfaces() []trajectory.Surface
	FullTrajectory() trajectory.FullTrajectoryResult
	Waypoints() []geom.Vec2
	IsCursorReachable() bool
	BypassReport() []trajectory.BypassEntry
	CacheStats() (size, hits, misses int)
}

// FlightInterface defines the flight loop methods used by the API.
type FlightInterface interface {
	Fire(waypoints []geom.Vec2, terminal trajectory.Surface) (*flight.Arrow, error)
	Snapshot() []flight.ArrowSnapshot
	Live() int
}

// PreviewRenderer renders the aim preview PNG. Satisfied by
// render.Preview; kept as an interface so router tests can skip the
// image dependency.
type PreviewRenderer interface {
	RenderPNG(w io.Writer, player, cursor geom.Vec2, surfaces []trajectory.Surface, res trajectory.FullTrajectoryResult) error
}

// RouterConfig contains all dependencies needed to construct the HTTP
// router. This struct is designed for dependency injection and
// testability.
//
// Example usage in tests:
//
//	cfg := api.RouterConfig{
//	    Engine: eng,
//	    Flight: fl,
//	    RateLimitConfig: &api.RateLimitConfig{
//	        RequestsPerSecond: 1000, // High limit for tests
//	        Burst:             1000,
//	    },
//	}
//	router := api.NewRouter(cfg)
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// Engine is the trajectory engine (required).
	Engine EngineInterface

	// Flight is the arrow flight loop (required).
	Flight FlightInterface

	// Preview renders /api/preview.png; the route is omitted when nil.
	Preview PreviewRenderer

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one will be created using RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is optional configuration for the rate limiter.
	// Only used if RateLimiter is nil. If both are nil, uses DefaultRateLimitConfig.
	RateLimitConfig *RateLimitConfig

	// CORSOrigins is an optional list of allowed CORS origins.
	// If nil, uses localhost-only defaults.
	CORSOrigins []string

	// DisableLogging disables the request logger middleware (useful for benchmarks).
	DisableLogging bool
}

type routerHandlers struct {
	engine  EngineInterface
	flight  FlightInterface
	preview PreviewRenderer
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// IMPORTANT: This function is PURE - it has no side effects beyond the
// rate limiter's own cleanup goroutine:
//   - No network listeners are opened
//   - No background workers are launched
//
// This makes it safe to use in tests with httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	// Rate limiting (BEFORE CORS to reject early and save CPU)
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = []string{
			"http://localhost:*",
			"http://127.0.0.1:*",
		}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	h := &routerHandlers{
		engine:  cfg.Engine,
		flight:  cfg.Flight,
		preview: cfg.Preview,
	}

	r.Route("/api", func(r chi.Router) {
		// Aim state
		r.Get("/state", h.handleGetState)
		r.Post("/aim", h.handleAim)
		r.Post("/plan", h.handlePlan)

		// Derived results
		r.Get("/trajectory", h.handleGetTrajectory)
		r.Get("/waypoints", h.handleGetWaypoints)
		r.Get("/surfaces", h.handleGetSurfaces)

		// Flight
		r.Post("/fire", h.handleFire)
		r.Get("/arrows", h.handleGetArrows)

		if h.preview != nil {
			r.Get("/preview.png", h.handlePreview)
		}
	})

	return r
}
