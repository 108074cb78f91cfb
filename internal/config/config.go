// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for all engine and server settings.
//
// IMPORTANT: When changing values, only modify this file.
// All other parts of the codebase should reference these values.
package config

import (
	"os"
	"strconv"
)

// =============================================================================
// TRAJECTORY ENGINE CONFIGURATION
// =============================================================================

// EngineConfig holds the trajectory engine tuning.
// These values are shared between the preview engine and the flight loop.
type EngineConfig struct {
	MaxReflections       int     // Hard cap on bounces per trace
	PlayerHeight         float64 // World units; the range limit scales off this
	ExhaustionMultiplier float64 // Range limit = PlayerHeight * multiplier
	MaxTraceDistance     float64 // Free-flight length past the last interaction
}

// DefaultEngine returns the default engine configuration.
func DefaultEngine() EngineConfig {
	return EngineConfig{
		MaxReflections:       8,
		PlayerHeight:         50,
		ExhaustionMultiplier: 100, // generous; levels tighten it per-arena
		MaxTraceDistance:     400,
	}
}

// ExhaustionDistance is the total flight range limit in world units.
func (c EngineConfig) ExhaustionDistance() float64 {
	return c.PlayerHeight * c.ExhaustionMultiplier
}

// EngineFromEnv returns engine configuration with environment variable
// overrides. Environment variables take precedence over defaults.
func EngineFromEnv() EngineConfig {
	cfg := DefaultEngine()

	if n := getEnvInt("ENGINE_MAX_REFLECTIONS", 0); n > 0 {
		cfg.MaxReflections = n
	}
	if h := getEnvFloat("ENGINE_PLAYER_HEIGHT", 0); h > 0 {
		cfg.PlayerHeight = h
	}
	if m := getEnvFloat("ENGINE_EXHAUSTION_MULTIPLIER", 0); m > 0 {
		cfg.ExhaustionMultiplier = m
	}
	if d := getEnvFloat("ENGINE_MAX_TRACE_DISTANCE", 0); d > 0 {
		cfg.MaxTraceDistance = d
	}

	return cfg
}

// =============================================================================
// FLIGHT CONFIGURATION
// =============================================================================

// FlightConfig holds the arrow flight loop settings.
type FlightConfig struct {
	Speed    float64 // World units per second along the waypoint path
	TickRate int     // Flight updates per second
	MaxLive  int     // Hard cap on simultaneously flying arrows
}

// DefaultFlight returns the default flight configuration.
func DefaultFlight() FlightConfig {
	return FlightConfig{
		Speed:    600,
		TickRate: 60,
		MaxLive:  32,
	}
}

// FlightFromEnv returns flight configuration with environment variable overrides.
func FlightFromEnv() FlightConfig {
	cfg := DefaultFlight()

	if s := getEnvFloat("FLIGHT_SPEED", 0); s > 0 {
		cfg.Speed = s
	}
	if tr := getEnvInt("FLIGHT_TICK_RATE", 0); tr > 0 {
		cfg.TickRate = tr
	}
	if ml := getEnvInt("FLIGHT_MAX_LIVE", 0); ml > 0 {
		cfg.MaxLive = ml
	}

	return cfg
}

// =============================================================================
// PREVIEW RENDER CONFIGURATION
// =============================================================================

// PreviewConfig holds the PNG preview renderer settings.
type PreviewConfig struct {
	Width  int // Canvas width in pixels
	Height int // Canvas height in pixels
}

// DefaultPreview returns the default preview configuration.
func DefaultPreview() PreviewConfig {
	return PreviewConfig{
		Width:  800,
		Height: 600,
	}
}

// PreviewFromEnv returns preview configuration with environment variable overrides.
func PreviewFromEnv() PreviewConfig {
	cfg := DefaultPreview()

	if w := getEnvInt("PREVIEW_WIDTH", 0); w > 0 {
		cfg.Width = w
	}
	if h := getEnvInt("PREVIEW_HEIGHT", 0); h > 0 {
		cfg.Height = h
	}

	return cfg
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port      int
	RateLimit float64 // Aim updates per second per client
	RateBurst int     // Burst allowance on top of RateLimit
	LevelPath string  // Optional level file; empty means the built-in arena
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:      3000,
		RateLimit: 60,
		RateBurst: 30,
	}
}

// ServerFromEnv returns server configuration with environment variable overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if rl := getEnvFloat("RATE_LIMIT", 0); rl > 0 {
		cfg.RateLimit = rl
	}
	if rb := getEnvInt("RATE_BURST", 0); rb > 0 {
		cfg.RateBurst = rb
	}
	if lp := os.Getenv("LEVEL_PATH"); lp != "" {
		cfg.LevelPath = lp
	}

	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Engine  EngineConfig
	Flight  FlightConfig
	Preview PreviewConfig
	Server  ServerConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Engine:  EngineFromEnv(),
		Flight:  FlightFromEnv(),
		Preview: PreviewFromEnv(),
		Server:  ServerFromEnv(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
