package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// HangoutCreatedEvent is emitted when a user creates a hangout.
type HangoutCreatedEvent struct {
	HangoutID int       `json:"hangout_id"`
	Title     string    `json:"title"`
	Host      string    `json:"host"`
	Timestamp time.Time `json:"timestamp"`
}

// MemberJoinedEvent is emitted when a user joins a hangout.
type MemberJoinedEvent struct {
	HangoutID int       `json:"hangout_id"`
	Username  string    `json:"username"`
	Timestamp time.Time `json:"timestamp"`
}

// HangoutDeletedEvent is emitted when the host or an admin deletes a
// hangout. The broadcast module closes the room's live connections in
// response.
type HangoutDeletedEvent struct {
	HangoutID int       `json:"hangout_id"`
	DeletedBy string    `json:"deleted_by"`
	Timestamp time.Time `json:"timestamp"`
}

// Event definitions for the hangout domain.
var (
	HangoutCreatedV1 = helper.EventDefinition[HangoutCreatedEvent](
		"hangout",
		"HangoutCreated",
		"v1",
	)

	MemberJoinedV1 = helper.EventDefinition[MemberJoinedEvent](
		"hangout",
		"MemberJoined",
		"v1",
	)

	HangoutDeletedV1 = helper.EventDefinition[HangoutDeletedEvent](
		"hangout",
		"HangoutDeleted",
		"v1",
	)
)
