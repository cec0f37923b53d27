package hangout

import (
	"errors"
	"log/slog"
	"time"
	"unicode/utf8"

	domain "github.com/example/hangout-hub/domain/hangout"
	"github.com/example/hangout-hub/events"
	"github.com/go-monolith/mono"
)

// Validation constants
const (
	MaxTitleLength    = 100
	MaxLocationLength = 200
	MaxMessageLength  = 5000
)

// Validation errors
var (
	ErrTitleEmpty      = errors.New("title cannot be empty")
	ErrTitleTooLong    = errors.New("title exceeds maximum length")
	ErrLocationTooLong = errors.New("location exceeds maximum length")
	ErrInvalidCapacity = errors.New("capacity must be at least 1")
	ErrMessageEmpty    = errors.New("message text cannot be empty")
	ErrMessageTooLong  = errors.New("message exceeds maximum length")
	ErrMessageInvalid  = errors.New("message contains invalid characters")
)

// Service validates hangout operations, drives them through the snapshot
// store, and publishes domain events for the broadcast module.
type Service struct {
	store  *SnapshotStore
	bus    mono.EventBus
	logger *slog.Logger
}

// NewService creates a service over the given store. The event bus is
// injected later by the framework; publishing is skipped until then.
func NewService(store *SnapshotStore) *Service {
	return &Service{
		store:  store,
		logger: slog.Default(),
	}
}

// SetEventBus wires the bus used for HangoutCreated, MemberJoined, and
// HangoutDeleted events.
func (s *Service) SetEventBus(bus mono.EventBus) {
	s.bus = bus
}

// ValidateMessage checks a chat or direct message body.
func ValidateMessage(text string) error {
	if text == "" {
		return ErrMessageEmpty
	}
	if len(text) > MaxMessageLength {
		return ErrMessageTooLong
	}
	if !utf8.ValidString(text) {
		return ErrMessageInvalid
	}
	return nil
}

// Create persists a new hangout with host as its first attendee and
// announces it.
func (s *Service) Create(host domain.User, title, location, eventTime string, capacity int, image string) (domain.Hangout, error) {
	if title == "" {
		return domain.Hangout{}, ErrTitleEmpty
	}
	if len(title) > MaxTitleLength {
		return domain.Hangout{}, ErrTitleTooLong
	}
	if len(location) > MaxLocationLength {
		return domain.Hangout{}, ErrLocationTooLong
	}
	if capacity < 1 {
		return domain.Hangout{}, ErrInvalidCapacity
	}

	created, err := s.store.CreateHangout(domain.Hangout{
		Title:     title,
		Location:  location,
		EventTime: eventTime,
		Capacity:  capacity,
		Image:     image,
	}, domain.Attendee{Username: host.Username, Avatar: host.Avatar})
	if err != nil {
		return domain.Hangout{}, err
	}

	s.publishCreated(created)
	s.logger.Info("hangout created", "id", created.ID, "host", host.Username)
	return created, nil
}

// Join adds user to the hangout's attendee list, enforcing the capacity
// limit, and announces the membership change.
func (s *Service) Join(id int, user domain.User) error {
	err := s.store.JoinHangout(id, domain.Attendee{Username: user.Username, Avatar: user.Avatar})
	if err != nil {
		return err
	}

	s.publishJoined(id, user.Username)
	return nil
}

// ToggleLike flips user's membership in the hangout's like set and
// reports the resulting state.
func (s *Service) ToggleLike(id int, username string) (bool, error) {
	return s.store.ToggleLike(id, username)
}

// Delete removes the hangout (host or admin only) and announces the
// deletion so live room connections get closed.
func (s *Service) Delete(id int, requester string) error {
	if err := s.store.DeleteHangout(id, requester); err != nil {
		return err
	}

	s.publishDeleted(id, requester)
	s.logger.Info("hangout deleted", "id", id, "by", requester)
	return nil
}

// PostMessage appends one chat message to the hangout's persisted stream.
// Broadcast is the caller's responsibility and must happen after this
// returns, so history and the live stream never disagree on order.
func (s *Service) PostMessage(id int, msg domain.ChatMessage) error {
	if err := ValidateMessage(msg.Text); err != nil {
		return err
	}
	return s.store.AppendMessage(id, msg)
}

// SendDirect persists one private message. The receiver must exist; there
// is no offline queue, so delivery to live devices is the caller's job
// after this returns.
func (s *Service) SendDirect(sender, receiver, text string) (domain.DirectMessage, error) {
	if err := ValidateMessage(text); err != nil {
		return domain.DirectMessage{}, err
	}
	if _, err := s.store.FindUser(receiver); err != nil {
		return domain.DirectMessage{}, err
	}

	dm := domain.DirectMessage{
		Sender:    sender,
		Receiver:  receiver,
		Text:      text,
		Timestamp: time.Now().UTC(),
	}
	if err := s.store.AppendDirectMessage(dm); err != nil {
		return domain.DirectMessage{}, err
	}
	return dm, nil
}

// Get returns one hangout by id.
func (s *Service) Get(id int) (domain.Hangout, error) {
	return s.store.GetHangout(id)
}

// Feed returns every hangout with attendees and messages inline.
func (s *Service) Feed() []domain.Hangout {
	return s.store.Feed()
}

// Conversation returns the direct-message history between two users.
func (s *Service) Conversation(a, b string) []domain.DirectMessage {
	return s.store.Conversation(a, b)
}

// UpdateProfile changes a user's avatar and bio.
func (s *Service) UpdateProfile(username, avatar, bio string) error {
	return s.store.UpdateProfile(username, avatar, bio)
}

func (s *Service) publishCreated(h domain.Hangout) {
	if s.bus == nil {
		return
	}
	ev := events.HangoutCreatedEvent{
		HangoutID: h.ID,
		Title:     h.Title,
		Host:      h.HostUsername,
		Timestamp: time.Now().UTC(),
	}
	if err := events.HangoutCreatedV1.Publish(s.bus, ev, nil); err != nil {
		s.logger.Warn("failed to publish HangoutCreated event", "error", err)
	}
}

func (s *Service) publishJoined(id int, username string) {
	if s.bus == nil {
		return
	}
	ev := events.MemberJoinedEvent{
		HangoutID: id,
		Username:  username,
		Timestamp: time.Now().UTC(),
	}
	if err := events.MemberJoinedV1.Publish(s.bus, ev, nil); err != nil {
		s.logger.Warn("failed to publish MemberJoined event", "error", err)
	}
}

func (s *Service) publishDeleted(id int, requester string) {
	if s.bus == nil {
		return
	}
	ev := events.HangoutDeletedEvent{
		HangoutID: id,
		DeletedBy: requester,
		Timestamp: time.Now().UTC(),
	}
	if err := events.HangoutDeletedV1.Publish(s.bus, ev, nil); err != nil {
		s.logger.Warn("failed to publish HangoutDeleted event", "error", err)
	}
}
