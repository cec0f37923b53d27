package broadcast

import (
	"context"
	"fmt"
	"log"

	"github.com/example/hangout-hub/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// Module wraps the hub and consumes hangout domain events so live
// connections track the persisted state.
type Module struct {
	hub *Hub
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventConsumerModule   = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates the broadcast module.
func NewModule() *Module {
	return &Module{
		hub: NewHub(),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "broadcast"
}

// Start initializes the module.
func (m *Module) Start(_ context.Context) error {
	log.Println("[broadcast] Module started")
	return nil
}

// Stop closes every live connection.
func (m *Module) Stop(_ context.Context) error {
	count := m.hub.ClientCount()
	m.hub.CloseAll()
	log.Printf("[broadcast] Module stopped - %d clients were connected", count)
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connected_clients": m.hub.ClientCount(),
		},
	}
}

// RegisterEventConsumers registers event handlers.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.HangoutCreatedV1, m.handleHangoutCreated, m,
	); err != nil {
		return fmt.Errorf("failed to register HangoutCreated consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.MemberJoinedV1, m.handleMemberJoined, m,
	); err != nil {
		return fmt.Errorf("failed to register MemberJoined consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.HangoutDeletedV1, m.handleHangoutDeleted, m,
	); err != nil {
		return fmt.Errorf("failed to register HangoutDeleted consumer: %w", err)
	}

	log.Println("[broadcast] Registered event consumers: HangoutCreated, MemberJoined, HangoutDeleted")
	return nil
}

// Event handlers. Feed signals go to every personal channel so clients
// refresh their hangout list without polling.

func (m *Module) handleHangoutCreated(_ context.Context, event events.HangoutCreatedEvent, _ *mono.Msg) error {
	log.Printf("[broadcast] Hangout %d created by %s, signalling feed refresh", event.HangoutID, event.Host)
	m.hub.BroadcastUsers(NewFeedEvent())
	return nil
}

func (m *Module) handleMemberJoined(_ context.Context, event events.MemberJoinedEvent, _ *mono.Msg) error {
	log.Printf("[broadcast] %s joined hangout %d, signalling feed refresh", event.Username, event.HangoutID)
	m.hub.BroadcastUsers(NewFeedEvent())
	return nil
}

func (m *Module) handleHangoutDeleted(_ context.Context, event events.HangoutDeletedEvent, _ *mono.Msg) error {
	log.Printf("[broadcast] Hangout %d deleted by %s, closing its room", event.HangoutID, event.DeletedBy)
	m.hub.CloseRoom(event.HangoutID)
	m.hub.BroadcastUsers(NewFeedEvent())
	return nil
}

// Hub returns the hub for the transport module to use.
func (m *Module) Hub() *Hub {
	return m.hub
}
