package hangout

import (
	"errors"
	"log/slog"
	"sync"

	domain "github.com/example/hangout-hub/domain/hangout"
)

var (
	// ErrHangoutNotFound is returned when the referenced hangout id is
	// absent. The HTTP layer maps it to a silent no-op; tests can still
	// tell it apart from success.
	ErrHangoutNotFound = errors.New("hangout not found")
	// ErrHangoutFull is returned when a join would exceed capacity.
	ErrHangoutFull = errors.New("hangout is at capacity")
	// ErrUserNotFound is returned when the referenced username is absent.
	ErrUserNotFound = errors.New("user not found")
	// ErrUsernameTaken is returned when registering an existing username.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrNotHost is returned when a delete comes from someone who is
	// neither the host nor an admin.
	ErrNotHost = errors.New("only the host or an admin can delete a hangout")
)

// SnapshotStore owns the shared flat file. Every derived operation is one
// load, one in-memory transform, one save. A single mutex serializes the
// whole cycle, so concurrent callers cannot lose each other's updates and
// the capacity invariant holds under concurrency, not just sequentially.
type SnapshotStore struct {
	mu   sync.Mutex
	path string
}

// NewSnapshotStore creates a store backed by the file at path. The file
// does not need to exist yet.
func NewSnapshotStore(path string) *SnapshotStore {
	return &SnapshotStore{path: path}
}

// Path returns the backing file path.
func (s *SnapshotStore) Path() string {
	return s.path
}

// mutate runs fn inside one load→mutate→save cycle. If fn returns an
// error the save is skipped and nothing is written.
func (s *SnapshotStore) mutate(fn func(*domain.Snapshot) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := loadSnapshot(s.path)
	if err != nil {
		// Degraded medium: continue from the empty default state.
		slog.Warn("snapshot unreadable, starting from empty state", "path", s.path, "error", err)
	}
	if err := fn(snap); err != nil {
		return err
	}
	return saveSnapshot(s.path, snap)
}

// view runs fn against a freshly loaded snapshot without writing.
func (s *SnapshotStore) view(fn func(*domain.Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := loadSnapshot(s.path)
	if err != nil {
		slog.Warn("snapshot unreadable, serving empty state", "path", s.path, "error", err)
	}
	fn(snap)
}

func findUser(snap *domain.Snapshot, username string) (int, bool) {
	for i := range snap.Users {
		if snap.Users[i].Username == username {
			return i, true
		}
	}
	return -1, false
}

func findHangout(snap *domain.Snapshot, id int) (int, bool) {
	for i := range snap.Hangouts {
		if snap.Hangouts[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

// RegisterUser appends a new user. Usernames are unique and case
// sensitive.
func (s *SnapshotStore) RegisterUser(user domain.User) error {
	return s.mutate(func(snap *domain.Snapshot) error {
		if _, ok := findUser(snap, user.Username); ok {
			return ErrUsernameTaken
		}
		snap.Users = append(snap.Users, user)
		return nil
	})
}

// FindUser resolves a username to its stored record.
func (s *SnapshotStore) FindUser(username string) (domain.User, error) {
	var (
		user domain.User
		err  = ErrUserNotFound
	)
	s.view(func(snap *domain.Snapshot) {
		if i, ok := findUser(snap, username); ok {
			user = snap.Users[i]
			err = nil
		}
	})
	return user, err
}

// UpdateProfile changes the only mutable identity fields.
func (s *SnapshotStore) UpdateProfile(username, avatar, bio string) error {
	return s.mutate(func(snap *domain.Snapshot) error {
		i, ok := findUser(snap, username)
		if !ok {
			return ErrUserNotFound
		}
		snap.Users[i].Avatar = avatar
		snap.Users[i].Bio = bio
		return nil
	})
}

// CreateHangout assigns the next monotonic id and adds the host as the
// first attendee. The passed hangout's ID, Attendees, and Messages fields
// are ignored.
func (s *SnapshotStore) CreateHangout(h domain.Hangout, host domain.Attendee) (domain.Hangout, error) {
	var created domain.Hangout
	err := s.mutate(func(snap *domain.Snapshot) error {
		h.ID = snap.NextHangoutID
		snap.NextHangoutID++
		h.HostUsername = host.Username
		h.Attendees = []domain.Attendee{host}
		h.Messages = []domain.ChatMessage{}
		snap.Hangouts = append(snap.Hangouts, h)
		created = h
		return nil
	})
	return created, err
}

// JoinHangout appends the attendee unless the hangout is at capacity.
// Re-joining an existing attendee is a no-op.
func (s *SnapshotStore) JoinHangout(id int, attendee domain.Attendee) error {
	return s.mutate(func(snap *domain.Snapshot) error {
		i, ok := findHangout(snap, id)
		if !ok {
			return ErrHangoutNotFound
		}
		h := &snap.Hangouts[i]
		if h.HasAttendee(attendee.Username) {
			return nil
		}
		if len(h.Attendees) >= h.Capacity {
			return ErrHangoutFull
		}
		h.Attendees = append(h.Attendees, attendee)
		return nil
	})
}

// ToggleLike adds username to the hangout's like set, or removes it when
// already present. It reports the resulting state.
func (s *SnapshotStore) ToggleLike(id int, username string) (bool, error) {
	var liked bool
	err := s.mutate(func(snap *domain.Snapshot) error {
		i, ok := findHangout(snap, id)
		if !ok {
			return ErrHangoutNotFound
		}
		h := &snap.Hangouts[i]
		for j, name := range h.Likes {
			if name == username {
				h.Likes = append(h.Likes[:j], h.Likes[j+1:]...)
				liked = false
				return nil
			}
		}
		h.Likes = append(h.Likes, username)
		liked = true
		return nil
	})
	return liked, err
}

// DeleteHangout removes the hangout and, with it, its embedded messages
// and likes. Only the host or an admin may delete.
func (s *SnapshotStore) DeleteHangout(id int, requester string) error {
	return s.mutate(func(snap *domain.Snapshot) error {
		i, ok := findHangout(snap, id)
		if !ok {
			return ErrHangoutNotFound
		}
		if snap.Hangouts[i].HostUsername != requester {
			j, ok := findUser(snap, requester)
			if !ok || !snap.Users[j].IsAdmin {
				return ErrNotHost
			}
		}
		snap.Hangouts = append(snap.Hangouts[:i], snap.Hangouts[i+1:]...)
		return nil
	})
}

// AppendMessage adds one chat message to the hangout's stream in arrival
// order.
func (s *SnapshotStore) AppendMessage(id int, msg domain.ChatMessage) error {
	return s.mutate(func(snap *domain.Snapshot) error {
		i, ok := findHangout(snap, id)
		if !ok {
			return ErrHangoutNotFound
		}
		snap.Hangouts[i].Messages = append(snap.Hangouts[i].Messages, msg)
		return nil
	})
}

// AppendDirectMessage adds one private message to the global sequence.
func (s *SnapshotStore) AppendDirectMessage(dm domain.DirectMessage) error {
	return s.mutate(func(snap *domain.Snapshot) error {
		snap.DirectMessages = append(snap.DirectMessages, dm)
		return nil
	})
}

// GetHangout returns a copy of one hangout.
func (s *SnapshotStore) GetHangout(id int) (domain.Hangout, error) {
	var (
		out domain.Hangout
		err = ErrHangoutNotFound
	)
	s.view(func(snap *domain.Snapshot) {
		if i, ok := findHangout(snap, id); ok {
			out = snap.Hangouts[i]
			err = nil
		}
	})
	return out, err
}

// Feed returns all hangouts with attendees and messages inline.
func (s *SnapshotStore) Feed() []domain.Hangout {
	var out []domain.Hangout
	s.view(func(snap *domain.Snapshot) {
		out = make([]domain.Hangout, len(snap.Hangouts))
		copy(out, snap.Hangouts)
	})
	return out
}

// Conversation returns every direct message exchanged between two users,
// oldest first.
func (s *SnapshotStore) Conversation(a, b string) []domain.DirectMessage {
	var out []domain.DirectMessage
	s.view(func(snap *domain.Snapshot) {
		for _, dm := range snap.DirectMessages {
			if (dm.Sender == a && dm.Receiver == b) || (dm.Sender == b && dm.Receiver == a) {
				out = append(out, dm)
			}
		}
	})
	return out
}

// Counts reports the number of users and hangouts currently persisted.
func (s *SnapshotStore) Counts() (users, hangouts int) {
	s.view(func(snap *domain.Snapshot) {
		users = len(snap.Users)
		hangouts = len(snap.Hangouts)
	})
	return users, hangouts
}
