package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/example/hangout-hub/modules/auth"
	"github.com/example/hangout-hub/modules/broadcast"
	"github.com/example/hangout-hub/modules/hangout"
	"github.com/example/hangout-hub/modules/wsserver"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== Hangout Hub ===")

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}

	// Create modules
	hangoutModule := hangout.NewModule()
	broadcastModule := broadcast.NewModule()
	authModule := auth.NewModule(hangoutModule.Store())
	wsModule := wsserver.NewModule(
		":"+port,
		authModule.Service(),
		hangoutModule.Service(),
		broadcastModule.Hub(),
	)

	// Register modules with the framework.
	// Order: independent modules first, then modules with dependencies
	// - hangout: snapshot store + domain service (event emitter)
	// - broadcast: live-connection hub (event consumer)
	// - auth: credential resolution over the shared store
	// - ws-server: Fiber HTTP/WebSocket transport, depends on all three
	app.Register(hangoutModule)
	app.Register(broadcastModule)
	app.Register(authModule)
	app.Register(wsModule)

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(port)

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo(port string) {
	dataFile := os.Getenv("HANGOUT_DATA_FILE")
	if dataFile == "" {
		dataFile = "hangouts.json"
	}

	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("Snapshot file: %s", dataFile)
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%s):", port)
	log.Println("  GET    /health              - Health check")
	log.Println("  POST   /register            - Create an account")
	log.Println("  POST   /token               - Login, returns a bearer token")
	log.Println("  GET    /hangouts            - Hangout feed")
	log.Println("  POST   /hangouts            - Create a hangout")
	log.Println("  POST   /hangouts/:id/join   - Join a hangout")
	log.Println("  POST   /hangouts/:id/like   - Toggle a like")
	log.Println("  DELETE /hangouts/:id        - Delete a hangout (host/admin)")
	log.Println("  POST   /dms                 - Send a direct message")
	log.Println("  GET    /dms/:peer           - Conversation with a peer")
	log.Println("  PATCH  /profile             - Update avatar/bio")
	log.Println("")
	log.Printf("WebSocket Endpoints (ws://localhost:%s):", port)
	log.Println("  /ws/hangouts/:id?token=<jwt> - Room chat session")
	log.Println("  /ws/inbox?token=<jwt>        - Personal channel (DMs, feed signals)")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
