package wsserver

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	domain "github.com/example/hangout-hub/domain/hangout"
	"github.com/example/hangout-hub/modules/auth"
	"github.com/example/hangout-hub/modules/broadcast"
	"github.com/example/hangout-hub/modules/hangout"
	"github.com/example/hangout-hub/modules/responder"
)

// Handlers contains the HTTP and WebSocket handlers.
type Handlers struct {
	auth      *auth.Service
	hangouts  *hangout.Service
	hub       *broadcast.Hub
	responder *responder.Responder
	logger    *slog.Logger
}

// NewHandlers creates a new handlers instance.
func NewHandlers(authService *auth.Service, hangoutService *hangout.Service, hub *broadcast.Hub) *Handlers {
	return &Handlers{
		auth:      authService,
		hangouts:  hangoutService,
		hub:       hub,
		responder: responder.New(),
		logger:    slog.Default(),
	}
}

// RequireAuth resolves the bearer token and stores the user in locals.
func (h *Handlers) RequireAuth(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Missing bearer token",
		})
	}

	user, err := h.auth.Authenticate(token)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid or expired token",
		})
	}

	c.Locals("user", user)
	return c.Next()
}

func currentUser(c *fiber.Ctx) domain.User {
	user, _ := c.Locals("user").(domain.User)
	return user
}

// credentialsRequest is the body for register and login.
type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register handles account creation (POST /register).
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	user, err := h.auth.Register(c.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, hangout.ErrUsernameTaken):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": err.Error(),
			})
		case errors.Is(err, auth.ErrUsernameEmpty),
			errors.Is(err, auth.ErrWeakPassword),
			errors.Is(err, auth.ErrPasswordTooLong):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		default:
			return fiber.ErrInternalServerError
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"username": user.Username,
	})
}

// Token handles login (POST /token).
func (h *Handlers) Token(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	token, err := h.auth.Login(c.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return fiber.ErrInternalServerError
	}

	return c.JSON(fiber.Map{
		"access_token": token,
		"token_type":   "bearer",
	})
}

// Feed handles the hangout listing (GET /hangouts).
func (h *Handlers) Feed(c *fiber.Ctx) error {
	feed := h.hangouts.Feed()
	return c.JSON(fiber.Map{
		"feed":  feed,
		"total": len(feed),
	})
}

// createHangoutRequest is the body for hangout creation.
type createHangoutRequest struct {
	Title     string `json:"title"`
	Location  string `json:"location"`
	EventTime string `json:"event_time"`
	Capacity  int    `json:"capacity"`
	Image     string `json:"image_data"`
}

// CreateHangout handles hangout creation (POST /hangouts).
func (h *Handlers) CreateHangout(c *fiber.Ctx) error {
	var req createHangoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	created, err := h.hangouts.Create(currentUser(c), req.Title, req.Location, req.EventTime, req.Capacity, req.Image)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

// JoinHangout handles join requests (POST /hangouts/:id/join). A full
// hangout is a conflict; a missing one is a silent no-op.
func (h *Handlers) JoinHangout(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid hangout id",
		})
	}

	if err := h.hangouts.Join(id, currentUser(c)); err != nil {
		switch {
		case errors.Is(err, hangout.ErrHangoutFull):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "hangout is full",
			})
		case errors.Is(err, hangout.ErrHangoutNotFound):
			return c.JSON(fiber.Map{"status": "ok"})
		default:
			return fiber.ErrInternalServerError
		}
	}

	return c.JSON(fiber.Map{"status": "ok"})
}

// ToggleLike handles like toggling (POST /hangouts/:id/like).
func (h *Handlers) ToggleLike(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid hangout id",
		})
	}

	liked, err := h.hangouts.ToggleLike(id, currentUser(c).Username)
	if err != nil {
		if errors.Is(err, hangout.ErrHangoutNotFound) {
			return c.JSON(fiber.Map{"liked": false})
		}
		return fiber.ErrInternalServerError
	}

	return c.JSON(fiber.Map{"liked": liked})
}

// DeleteHangout handles deletion (DELETE /hangouts/:id). Requests the
// requester may not fulfil are silent no-ops.
func (h *Handlers) DeleteHangout(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid hangout id",
		})
	}

	if err := h.hangouts.Delete(id, currentUser(c).Username); err != nil {
		if errors.Is(err, hangout.ErrHangoutNotFound) || errors.Is(err, hangout.ErrNotHost) {
			return c.JSON(fiber.Map{"status": "ok"})
		}
		return fiber.ErrInternalServerError
	}

	return c.JSON(fiber.Map{"status": "ok"})
}

// directMessageRequest is the body for sending a DM.
type directMessageRequest struct {
	Receiver string `json:"receiver"`
	Text     string `json:"text"`
}

// SendDirectMessage handles private messages (POST /dms). The message is
// persisted first, then pushed to every live device of both parties.
func (h *Handlers) SendDirectMessage(c *fiber.Ctx) error {
	var req directMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	sender := currentUser(c)
	dm, err := h.hangouts.SendDirect(sender.Username, req.Receiver, req.Text)
	if err != nil {
		if errors.Is(err, hangout.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "receiver not found",
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	event := broadcast.NewDirectMessageEvent(dm)
	h.hub.UnicastUser(dm.Receiver, event)
	if dm.Sender != dm.Receiver {
		h.hub.UnicastUser(dm.Sender, event)
	}

	return c.Status(fiber.StatusCreated).JSON(dm)
}

// Conversation handles DM history with one peer (GET /dms/:peer).
func (h *Handlers) Conversation(c *fiber.Ctx) error {
	peer := c.Params("peer")
	messages := h.hangouts.Conversation(currentUser(c).Username, peer)
	return c.JSON(fiber.Map{
		"messages": messages,
		"total":    len(messages),
	})
}

// profileRequest is the body for profile updates.
type profileRequest struct {
	Avatar string `json:"avatar"`
	Bio    string `json:"bio"`
}

// UpdateProfile handles avatar/bio changes (PATCH /profile).
func (h *Handlers) UpdateProfile(c *fiber.Ctx) error {
	var req profileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	user := currentUser(c)
	if err := h.hangouts.UpdateProfile(user.Username, req.Avatar, req.Bio); err != nil {
		return fiber.ErrInternalServerError
	}

	return c.JSON(fiber.Map{"status": "ok"})
}

// HealthCheck handles health check requests (GET /health).
func (h *Handlers) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"service": "hangout-hub",
	})
}
