package responder

import (
	"testing"
)

func TestReplyTriggersOnMention(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantReply bool
	}{
		{"plain mention", "@squadbot what now", true},
		{"uppercase mention", "hey @SquadBot!", true},
		{"mention mid sentence", "ask @SQUADBOT about it", true},
		{"no mention", "just chatting", false},
		{"partial handle", "@squad is here", false},
		{"empty message", "", false},
	}

	r := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply, ok := r.Reply(tt.text)
			if ok != tt.wantReply {
				t.Fatalf("Reply(%q) ok = %v, want %v", tt.text, ok, tt.wantReply)
			}
			if ok && reply == "" {
				t.Errorf("Reply(%q) returned empty reply", tt.text)
			}
			if !ok && reply != "" {
				t.Errorf("Reply(%q) = %q, want empty", tt.text, reply)
			}
		})
	}
}

func TestReplyComesFromFixedSet(t *testing.T) {
	known := make(map[string]bool, len(replies))
	for _, reply := range replies {
		known[reply] = true
	}

	r := New()
	for i := 0; i < 50; i++ {
		reply, ok := r.Reply("@squadbot ping")
		if !ok {
			t.Fatal("expected a reply for a mention")
		}
		if !known[reply] {
			t.Fatalf("unexpected reply %q", reply)
		}
	}
}

func TestReplyUsesPicker(t *testing.T) {
	r := &Responder{pick: func(int) int { return 2 }}
	reply, ok := r.Reply("yo @squadbot")
	if !ok {
		t.Fatal("expected a reply")
	}
	if reply != replies[2] {
		t.Errorf("reply = %q, want %q", reply, replies[2])
	}
}
