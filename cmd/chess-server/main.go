// Package main runs the chess server: the HTTP control plane, the
// websocket message plane, and the backing store.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chess/cmd/chess-server/cli"
	"chess/internal/server/http"
	"chess/internal/server/service"
	"chess/internal/server/storage"
	"chess/internal/server/ws"
)

const gracefulShutdownTimeout = time.Second * 5

func main() {
	// Check for CLI database commands
	if len(os.Args) > 1 && os.Args[1] == "db" {
		if err := cli.Run(os.Args[2:]); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		os.Exit(0)
	}

	var (
		apiHost     = flag.String("api-host", "localhost", "API server host")
		apiPort     = flag.Int("api-port", 8080, "API server port")
		dev         = flag.Bool("dev", false, "Development mode (relaxed rate limits, WAL journal)")
		storagePath = flag.String("storage-path", "", "Path to SQLite database file (in-memory store if empty)")
	)
	flag.Parse()

	var store storage.Store
	if *storagePath != "" {
		log.Printf("Initializing persistent storage at: %s", *storagePath)
		sqlite, err := storage.NewSQLite(*storagePath, *dev)
		if err != nil {
			log.Fatalf("Failed to initialize storage: %v", err)
		}
		if err := sqlite.InitDB(); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}
		store = sqlite
	} else {
		log.Printf("Persistent storage disabled, using in-memory store (use -storage-path to enable)")
		store = storage.NewMemory()
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("Warning: failed to close storage cleanly: %v", err)
		}
	}()

	svc := service.New(store)
	coord := ws.NewCoordinator(store)
	app := http.NewFiberApp(svc, ws.Handler(coord), *dev)

	apiAddr := fmt.Sprintf("%s:%d", *apiHost, *apiPort)

	go func() {
		log.Printf("Chess Server starting...")
		log.Printf("Listening on: http://%s", apiAddr)
		log.Printf("WebSocket: ws://%s/ws", apiAddr)
		log.Printf("Health: http://%s/health", apiAddr)
		if *dev {
			log.Printf("Running in DEV MODE")
		}

		if err := app.Listen(apiAddr); err != nil {
			log.Printf("Server listen error: %v", err)
		}
	}()

	// Wait for an interrupt signal to gracefully shut down
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
