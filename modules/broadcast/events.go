package broadcast

import domain "github.com/example/hangout-hub/domain/hangout"

// Wire events pushed to websocket clients. Field names follow the client
// contract, not the snapshot document.

// MessageEvent carries one chat message to a room's connections.
type MessageEvent struct {
	Type    string `json:"type"`
	Author  string `json:"author"`
	Avatar  string `json:"avatar,omitempty"`
	Text    string `json:"text"`
	IsAdmin bool   `json:"isAdmin"`
}

// NewMessageEvent builds the wire form of a persisted chat message.
func NewMessageEvent(msg domain.ChatMessage) MessageEvent {
	return MessageEvent{
		Type:    "msg",
		Author:  msg.Author,
		Avatar:  msg.Avatar,
		Text:    msg.Text,
		IsAdmin: msg.IsAdmin,
	}
}

// StatusEvent carries a room's current online-user set.
type StatusEvent struct {
	Type        string   `json:"type"`
	OnlineUsers []string `json:"onlineUsers"`
}

// DirectMessageEvent carries one private message to a user's devices.
type DirectMessageEvent struct {
	Type   string `json:"type"`
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// NewDirectMessageEvent builds the wire form of a persisted direct
// message.
func NewDirectMessageEvent(dm domain.DirectMessage) DirectMessageEvent {
	return DirectMessageEvent{
		Type:   "dm",
		Sender: dm.Sender,
		Text:   dm.Text,
	}
}

// FeedEvent tells personal-channel clients to refresh the hangout feed.
type FeedEvent struct {
	Type string `json:"type"`
}

// NewFeedEvent builds a feed-refresh signal.
func NewFeedEvent() FeedEvent {
	return FeedEvent{Type: "feed"}
}
