package wsserver

import (
	"strconv"
	"strings"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	domain "github.com/example/hangout-hub/domain/hangout"
	"github.com/example/hangout-hub/modules/broadcast"
	"github.com/example/hangout-hub/modules/responder"
)

// frameReader is the inbound half of a session transport.
// *websocket.Conn satisfies it; tests drive sessions with scripted
// readers.
type frameReader interface {
	ReadMessage() (messageType int, data []byte, err error)
}

// closeWith sends a close frame and closes the socket. Best effort; the
// peer may already be gone.
func closeWith(c *websocket.Conn, code int, reason string) {
	_ = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
	_ = c.Close()
}

// RoomSession handles one chat connection to a hangout room
// (GET /ws/hangouts/:id?token=). The token is validated before the
// session becomes active; a bad credential closes the socket with a
// policy-violation frame.
func (h *Handlers) RoomSession(c *websocket.Conn) {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		closeWith(c, websocket.CloseUnsupportedData, "invalid hangout id")
		return
	}

	user, err := h.auth.Authenticate(c.Query("token"))
	if err != nil {
		closeWith(c, websocket.ClosePolicyViolation, "authentication failed")
		return
	}

	if _, err := h.hangouts.Get(id); err != nil {
		closeWith(c, websocket.CloseNormalClosure, "hangout not found")
		return
	}

	client := broadcast.NewClient(uuid.New().String(), user.Username, c)
	h.logger.Info("room session opened", "username", user.Username, "hangoutID", id)
	h.runRoom(client, c, id, user)
	h.logger.Info("room session closed", "username", user.Username, "hangoutID", id)
}

// runRoom registers the client with the hub, relays inbound text frames
// until the transport fails, and deregisters on the way out.
func (h *Handlers) runRoom(client *broadcast.Client, r frameReader, id int, user domain.User) {
	h.hub.JoinRoom(client, id)
	defer h.hub.LeaveRoom(client, id)

	for {
		messageType, data, err := r.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("room session read error", "username", user.Username, "error", err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		text := strings.TrimSpace(string(data))
		if text == "" {
			continue
		}
		h.relayMessage(id, user, text)
	}
}

// relayMessage persists one chat message, fans it out to the room, and
// appends the automated reply when the text triggers one. A message that
// fails to persist is never broadcast, so history and the live stream
// cannot disagree.
func (h *Handlers) relayMessage(id int, user domain.User, text string) {
	msg := domain.ChatMessage{
		Author:  user.Username,
		Avatar:  user.Avatar,
		Text:    text,
		IsAdmin: user.IsAdmin,
	}
	if err := h.hangouts.PostMessage(id, msg); err != nil {
		h.logger.Warn("dropping message", "username", user.Username, "hangoutID", id, "error", err)
		return
	}
	h.hub.BroadcastRoom(id, broadcast.NewMessageEvent(msg))

	reply, ok := h.responder.Reply(text)
	if !ok {
		return
	}
	botMsg := domain.ChatMessage{
		Author: responder.BotAuthor,
		Text:   reply,
	}
	if err := h.hangouts.PostMessage(id, botMsg); err != nil {
		h.logger.Warn("dropping bot reply", "hangoutID", id, "error", err)
		return
	}
	h.hub.BroadcastRoom(id, broadcast.NewMessageEvent(botMsg))
}

// InboxSession handles one personal connection (GET /ws/inbox?token=).
// The channel is outbound only: direct messages and feed-refresh
// signals. Inbound frames are discarded.
func (h *Handlers) InboxSession(c *websocket.Conn) {
	user, err := h.auth.Authenticate(c.Query("token"))
	if err != nil {
		closeWith(c, websocket.ClosePolicyViolation, "authentication failed")
		return
	}

	client := broadcast.NewClient(uuid.New().String(), user.Username, c)
	h.logger.Info("inbox session opened", "username", user.Username)
	h.runInbox(client, c)
	h.logger.Info("inbox session closed", "username", user.Username)
}

// runInbox holds the personal channel open as a push-only target,
// discarding inbound frames until the transport fails, then deregisters.
func (h *Handlers) runInbox(client *broadcast.Client, r frameReader) {
	h.hub.JoinUser(client)
	defer h.hub.LeaveUser(client)

	for {
		if _, _, err := r.ReadMessage(); err != nil {
			return
		}
	}
}
