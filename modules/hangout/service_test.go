package hangout

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	domain "github.com/example/hangout-hub/domain/hangout"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(NewSnapshotStore(filepath.Join(t.TempDir(), "hangouts.json")))
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(t)
	host := domain.User{Username: "alice"}

	tests := []struct {
		name     string
		title    string
		location string
		capacity int
		wantErr  error
	}{
		{"empty title", "", "Park", 5, ErrTitleEmpty},
		{"title too long", strings.Repeat("x", MaxTitleLength+1), "Park", 5, ErrTitleTooLong},
		{"location too long", "Picnic", strings.Repeat("x", MaxLocationLength+1), 5, ErrLocationTooLong},
		{"zero capacity", "Picnic", "Park", 0, ErrInvalidCapacity},
		{"negative capacity", "Picnic", "Park", -1, ErrInvalidCapacity},
		{"valid", "Picnic", "Park", 1, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(host, tt.title, tt.location, "", tt.capacity, "")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Create error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateMessage(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr error
	}{
		{"empty", "", ErrMessageEmpty},
		{"too long", strings.Repeat("a", MaxMessageLength+1), ErrMessageTooLong},
		{"invalid utf8", string([]byte{0xff, 0xfe}), ErrMessageInvalid},
		{"valid", "hello there", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateMessage(tt.text); !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateMessage(%q) = %v, want %v", tt.text, err, tt.wantErr)
			}
		})
	}
}

func TestPostMessageAppearsInFeed(t *testing.T) {
	svc := newTestService(t)
	host := domain.User{Username: "alice", IsAdmin: true}

	created, err := svc.Create(host, "Picnic", "Park", "", 3, "")
	if err != nil {
		t.Fatal(err)
	}

	msg := domain.ChatMessage{Author: "alice", Text: "bring snacks", IsAdmin: true}
	if err := svc.PostMessage(created.ID, msg); err != nil {
		t.Fatalf("PostMessage failed: %v", err)
	}

	feed := svc.Feed()
	if len(feed) != 1 {
		t.Fatalf("feed = %d hangouts, want 1", len(feed))
	}
	if len(feed[0].Messages) != 1 || feed[0].Messages[0].Text != "bring snacks" {
		t.Errorf("feed messages = %+v, want the posted message", feed[0].Messages)
	}
	if !feed[0].Messages[0].IsAdmin {
		t.Error("admin flag must survive persistence")
	}
}

func TestSendDirectRequiresReceiver(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.SendDirect("alice", "ghost", "hi"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("SendDirect error = %v, want ErrUserNotFound", err)
	}

	if err := svc.store.RegisterUser(domain.User{Username: "bob"}); err != nil {
		t.Fatal(err)
	}
	dm, err := svc.SendDirect("alice", "bob", "hi")
	if err != nil {
		t.Fatalf("SendDirect failed: %v", err)
	}
	if dm.Timestamp.IsZero() {
		t.Error("SendDirect must stamp the message")
	}

	conv := svc.Conversation("alice", "bob")
	if len(conv) != 1 {
		t.Errorf("conversation = %d messages, want 1", len(conv))
	}
}

func TestServiceWithoutBusDoesNotPanic(t *testing.T) {
	svc := newTestService(t)
	host := domain.User{Username: "alice"}

	created, err := svc.Create(host, "Picnic", "Park", "", 2, "")
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Join(created.ID, domain.User{Username: "bob"}); err != nil {
		t.Fatal(err)
	}
	if err := svc.Delete(created.ID, "alice"); err != nil {
		t.Fatal(err)
	}
}
