// Package responder generates the automated squadbot replies posted
// into hangout rooms when a chat message mentions the bot.
package responder

import (
	"math/rand"
	"strings"
)

// BotAuthor is the author name attached to automated replies.
const BotAuthor = "bot"

// trigger is matched case-insensitively anywhere in the message text.
const trigger = "@squadbot"

var replies = []string{
	"Truth or Dare?",
	"Snacks?",
	"Selfie time!",
	"ETA?",
	"Music?",
}

// Responder produces bot replies for messages that mention the bot.
type Responder struct {
	pick func(n int) int
}

// New creates a responder with a random reply picker.
func New() *Responder {
	return &Responder{pick: rand.Intn}
}

// Reply returns a bot reply and true when text mentions the bot,
// otherwise an empty string and false.
func (r *Responder) Reply(text string) (string, bool) {
	if !strings.Contains(strings.ToLower(text), trigger) {
		return "", false
	}
	return replies[r.pick(len(replies))], true
}
