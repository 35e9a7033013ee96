package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tourly/tourly-api/internal/model"
	"github.com/tourly/tourly-api/internal/repository"
	"github.com/tourly/tourly-api/internal/service"
)

// NotificationHandler serves a user's notification feed.
type NotificationHandler struct {
	Users         *repository.UserRepo
	Notifications *service.NotificationService
}

func NewNotificationHandler(users *repository.UserRepo, n *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{Users: users, Notifications: n}
}

type notificationPart struct {
	ID        uint64    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	RelatedID uint64    `json:"related_id"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

func toNotificationParts(ns []model.Notification) []notificationPart {
	out := make([]notificationPart, 0, len(ns))
	for _, n := range ns {
		out = append(out, notificationPart{
			ID: n.ID, Title: n.Title, Message: n.Message, Type: n.Type,
			RelatedID: n.RelatedID, IsRead: n.IsRead, CreatedAt: n.CreatedAt,
		})
	}
	return out
}

func (h *NotificationHandler) caller(c echo.Context) (model.User, error) {
	ctx, cancel := reqCtx(c)
	defer cancel()
	return h.Users.GetByEmail(ctx, callerEmail(c))
}

// List returns the caller's notifications, newest first.
func (h *NotificationHandler) List(c echo.Context) error {
	u, err := h.caller(c)
	if err != nil {
		return fail(c, err)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	ns, err := h.Notifications.List(ctx, u.ID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toNotificationParts(ns))
}

// UnreadCount returns how many notifications are unread.
func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	u, err := h.caller(c)
	if err != nil {
		return fail(c, err)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	n, err := h.Notifications.UnreadCount(ctx, u.ID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"unread": n})
}

// MarkRead flags one notification as read.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid notification id"})
	}
	u, err := h.caller(c)
	if err != nil {
		return fail(c, err)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Notifications.MarkRead(ctx, id, u.ID); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "marked read"})
}

// MarkAllRead flags every unread notification as read.
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	u, err := h.caller(c)
	if err != nil {
		return fail(c, err)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Notifications.MarkAllRead(ctx, u.ID); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "all marked read"})
}
