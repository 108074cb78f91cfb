package main

import (
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"mirrorshot/internal/api"
	"mirrorshot/internal/config"
	"mirrorshot/internal/flight"
	"mirrorshot/internal/level"
	"mirrorshot/internal/render"
	"mirrorshot/internal/trajectory"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file from parent directory
	if err := godotenv.Load("../.env"); err != nil {
		// Try current directory as fallback
		if err := godotenv.Load(".env"); err != nil {
			log.Println("💡 No .env file found, using environment variables only")
		}
	} else {
		log.Println("✅ Loaded environment from ../.env")
	}

	log.Println("🎯 ================================")
	log.Println("🎯  MIRRORSHOT - TRAJECTORY ENGINE")
	log.Println("🎯 ================================")

	// Load centralized configuration (SSOT - Single Source of Truth)
	appConfig := config.Load()
	engineCfg := appConfig.Engine
	flightCfg := appConfig.Flight
	serverCfg := appConfig.Server

	log.Printf("🎯 Engine: %d max reflections, range %.0f, free flight %.0f",
		engineCfg.MaxReflections, engineCfg.ExhaustionDistance(), engineCfg.MaxTraceDistance)

	// Load the arena
	lvl := level.Demo()
	if serverCfg.LevelPath != "" {
		loaded, err := level.Load(serverCfg.LevelPath)
		if err != nil {
			log.Fatalf("❌ Level load failed: %v", err)
		}
		lvl = loaded
	}
	surfaces, err := lvl.Build()
	if err != nil {
		log.Fatalf("❌ Level build failed: %v", err)
	}
	log.Printf("🗺️ Level %q: %d surfaces, %gx%g", lvl.Name, len(surfaces), lvl.Width, lvl.Height)

	// Trajectory engine
	engine := trajectory.NewEngine(trajectory.Config{
		MaxReflections:     engineCfg.MaxReflections,
		ExhaustionDistance: engineCfg.ExhaustionDistance(),
		MaxTraceDistance:   engineCfg.MaxTraceDistance,
	})
	engine.SetSurfaces(surfaces)
	engine.SetPlayer(lvl.Player)
	engine.SetTarget(lvl.Cursor)

	// Flight loop
	flightMgr := flight.NewManager(flightCfg.Speed, flightCfg.TickRate, flightCfg.MaxLive)

	// Debug server (pprof + metrics), localhost only
	if os.Getenv("DISABLE_DEBUG_SERVER") != "true" {
		if err := api.StartDebugServer(api.DefaultObservabilityConfig()); err != nil {
			log.Printf("⚠️ Debug server disabled: %v", err)
		}
	}

	// Preview renderer
	preview := render.NewPreview(appConfig.Preview.Width, appConfig.Preview.Height)

	// API server
	server := api.NewServer(engine, flightMgr, preview, api.RateLimitConfig{
		RequestsPerSecond: serverCfg.RateLimit,
		Burst:             serverCfg.RateBurst,
		CleanupInterval:   api.DefaultRateLimitConfig.CleanupInterval,
	}, nil)

	// Impacts go straight out to connected clients.
	flightMgr.OnImpact = func(ev flight.ImpactEvent) {
		server.BroadcastImpact(ev)
	}

	flightMgr.Start()
	log.Println("✅ Flight loop started")

	go func() {
		addr := ":" + strconv.Itoa(serverCfg.Port)
		if err := server.Start(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Server ready! Press Ctrl+C to stop.")
	<-quit

	log.Println("🛑 Shutting down...")
	flightMgr.Stop()
	server.Stop()
	log.Println("👋 Goodbye!")
}
