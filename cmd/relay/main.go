package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ai-realtime-relay/internal/bootstrap"
	"ai-realtime-relay/internal/config"
	"ai-realtime-relay/internal/server"
	"ai-realtime-relay/internal/tracer"

	"github.com/fatih/color"
)

func main() {
	// 0. Initialize Tracer (disabled unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] Invalid configuration: %v", err)
	}

	// 2. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(cfg)

	// 3. Start Background Services
	go func() {
		log.Println("Background: Starting Audit Service...")
		if err := container.AuditService.Consume(context.Background()); err != nil {
			log.Printf("Background Audit Error: %v", err)
		}
	}()

	// 4. Initialize Server
	srv := server.New(cfg, container)

	color.Cyan("🚀 Realtime relay ready")
	color.Yellow("   ws  ws://localhost:%s/", cfg.App.Port)
	color.Yellow("   api http://localhost:%s/api", cfg.App.Port)

	// 5. Run Server, shut down on SIGINT/SIGTERM
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Println("Shutting down...")
		container.RelayManager.CloseAll()
		_ = srv.Shutdown()
		_ = container.Logger.Sync()
	}()

	if err := srv.Run(); err != nil {
		log.Fatalf("[FATAL] Server stopped: %v", err)
	}
}
