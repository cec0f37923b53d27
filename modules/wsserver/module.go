package wsserver

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-monolith/mono"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/example/hangout-hub/modules/auth"
	"github.com/example/hangout-hub/modules/broadcast"
	"github.com/example/hangout-hub/modules/hangout"
)

// Module implements the HTTP/WebSocket transport using Fiber framework.
type Module struct {
	app      *fiber.App
	handlers *Handlers
	addr     string
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a new transport module over the given services.
func NewModule(addr string, authService *auth.Service, hangoutService *hangout.Service, hub *broadcast.Hub) *Module {
	return &Module{
		addr:     addr,
		handlers: NewHandlers(authService, hangoutService, hub),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "ws-server"
}

// Start builds the Fiber app and starts listening.
func (m *Module) Start(_ context.Context) error {
	m.app = m.buildApp()

	// Start server in goroutine with startup error detection
	errCh := make(chan error, 1)
	go func() {
		if err := m.app.Listen(m.addr); err != nil {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
		// Server started successfully
	}

	m.handlers.logger.Info("server started", "addr", m.addr)
	return nil
}

// Stop gracefully shuts down the server.
func (m *Module) Stop(ctx context.Context) error {
	if m.app != nil {
		if err := m.app.ShutdownWithContext(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}
	m.handlers.logger.Info("server stopped")
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"addr": m.addr,
		},
	}
}

// buildApp constructs the Fiber app with middleware and routes. Split
// from Start so handler tests can exercise routes without a listener.
func (m *Module) buildApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Hangout Hub",
		DisableStartupMessage: true,
		ErrorHandler:          m.errorHandler,
		BodyLimit:             8 * 1024 * 1024, // image payloads are base64 inline
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} ${method} ${path} ${latency}\n",
	}))

	allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:8000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Content-Type,Authorization",
	}))

	m.registerRoutes(app)
	return app
}

// registerRoutes sets up all HTTP and WebSocket routes.
func (m *Module) registerRoutes(app *fiber.App) {
	app.Get("/health", m.handlers.HealthCheck)

	app.Post("/register", m.handlers.Register)
	app.Post("/token", m.handlers.Token)

	app.Get("/hangouts", m.handlers.Feed)
	app.Post("/hangouts", m.handlers.RequireAuth, m.handlers.CreateHangout)
	app.Post("/hangouts/:id/join", m.handlers.RequireAuth, m.handlers.JoinHangout)
	app.Post("/hangouts/:id/like", m.handlers.RequireAuth, m.handlers.ToggleLike)
	app.Delete("/hangouts/:id", m.handlers.RequireAuth, m.handlers.DeleteHangout)

	app.Post("/dms", m.handlers.RequireAuth, m.handlers.SendDirectMessage)
	app.Get("/dms/:peer", m.handlers.RequireAuth, m.handlers.Conversation)
	app.Patch("/profile", m.handlers.RequireAuth, m.handlers.UpdateProfile)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/hangouts/:id", websocket.New(m.handlers.RoomSession))
	app.Get("/ws/inbox", websocket.New(m.handlers.InboxSession))
}

// errorHandler handles errors globally.
func (m *Module) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	m.handlers.logger.Error("HTTP error", "code", code, "message", message, "error", err)

	return c.Status(code).JSON(fiber.Map{
		"error": message,
	})
}
