package hangout

import "time"

// User is a registered identity. Everything except Avatar and Bio is
// immutable after registration; users are never deleted.
type User struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash,omitempty"`
	IsAdmin      bool   `json:"is_admin"`
	Avatar       string `json:"avatar,omitempty"`
	Bio          string `json:"bio,omitempty"`
}

// Attendee is one member of a hangout's attendee list.
type Attendee struct {
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

// ChatMessage is one entry in a hangout's chat stream. Automated replies
// carry the reserved author "bot".
type ChatMessage struct {
	Author  string `json:"author"`
	Avatar  string `json:"avatar,omitempty"`
	Text    string `json:"text"`
	IsAdmin bool   `json:"is_admin"`
}

// Hangout is an event with a capacity-bounded attendee list and an
// attached chat stream. Attendees, messages, and likes live inline;
// deleting a hangout deletes them with it.
type Hangout struct {
	ID           int           `json:"id"`
	Title        string        `json:"title"`
	Location     string        `json:"location"`
	EventTime    string        `json:"event_time,omitempty"`
	Capacity     int           `json:"capacity"`
	HostUsername string        `json:"host"`
	Image        string        `json:"image_data,omitempty"`
	Attendees    []Attendee    `json:"attendees"`
	Messages     []ChatMessage `json:"messages"`
	Likes        []string      `json:"likes,omitempty"`
}

// HasAttendee reports whether username is already on the attendee list.
func (h *Hangout) HasAttendee(username string) bool {
	for _, a := range h.Attendees {
		if a.Username == username {
			return true
		}
	}
	return false
}

// DirectMessage is one private message between two users. Both sender and
// receiver may read it.
type DirectMessage struct {
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Snapshot is the entire persisted state, read and written as one unit.
type Snapshot struct {
	NextHangoutID  int             `json:"next_id"`
	Users          []User          `json:"users"`
	Hangouts       []Hangout       `json:"hangouts"`
	DirectMessages []DirectMessage `json:"dms"`
}
