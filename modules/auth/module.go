package auth

import (
	"context"
	"log"

	"github.com/example/hangout-hub/modules/hangout"
	"github.com/go-monolith/mono"
)

// Module provides the session authenticator over the snapshot store.
type Module struct {
	service *Service
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates the auth module over the shared snapshot store.
func NewModule(store *hangout.SnapshotStore) *Module {
	return &Module{
		service: NewService(store, NewPasswordHasher(), NewJWTManager(DefaultJWTConfig())),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "auth"
}

// Start initializes the module.
func (m *Module) Start(_ context.Context) error {
	log.Println("[auth] Module started")
	return nil
}

// Stop shuts down the module.
func (m *Module) Stop(_ context.Context) error {
	log.Println("[auth] Module stopped")
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
	}
}

// Service returns the auth service.
func (m *Module) Service() *Service {
	return m.service
}
