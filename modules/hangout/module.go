package hangout

import (
	"context"
	"log"
	"os"

	"github.com/example/hangout-hub/events"
	"github.com/go-monolith/mono"
)

// Module owns the snapshot store and the hangout service.
type Module struct {
	store   *SnapshotStore
	service *Service
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates the hangout module. The backing file path comes from
// HANGOUT_DATA_FILE, defaulting to a local file.
func NewModule() *Module {
	path := os.Getenv("HANGOUT_DATA_FILE")
	if path == "" {
		path = "hangouts.json"
	}
	store := NewSnapshotStore(path)
	return &Module{
		store:   store,
		service: NewService(store),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "hangout"
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.service.SetEventBus(bus)
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.HangoutCreatedV1.ToBase(),
		events.MemberJoinedV1.ToBase(),
		events.HangoutDeletedV1.ToBase(),
	}
}

// Start warms the snapshot once so a degraded medium is visible at boot
// rather than on the first request.
func (m *Module) Start(_ context.Context) error {
	users, hangouts := m.store.Counts()
	log.Printf("[hangout] Module started (file: %s, users: %d, hangouts: %d)", m.store.Path(), users, hangouts)
	return nil
}

// Stop shuts down the module. Every derived operation saves eagerly, so
// there is nothing left to flush.
func (m *Module) Stop(_ context.Context) error {
	log.Println("[hangout] Module stopped")
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	users, hangouts := m.store.Counts()
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"users":    users,
			"hangouts": hangouts,
		},
	}
}

// Store returns the snapshot store for modules that need direct access.
func (m *Module) Store() *SnapshotStore {
	return m.store
}

// Service returns the hangout service.
func (m *Module) Service() *Service {
	return m.service
}
