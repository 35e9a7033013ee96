package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tourly/tourly-api/internal/service"
)

// UserHandler serves profiles and the follow graph.
type UserHandler struct {
	Users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler { return &UserHandler{Users: users} }

type profilePart struct {
	userPart
	Followers int `json:"followers"`
	Following int `json:"following"`
}

func toProfilePart(p service.Profile) profilePart {
	return profilePart{userPart: toUserPart(p.User), Followers: p.Followers, Following: p.Following}
}

// Me returns the caller's own profile.
func (h *UserHandler) Me(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.Users.GetProfile(ctx, callerEmail(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toProfilePart(p))
}

// Get returns any user's public profile.
func (h *UserHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.Users.GetProfileByID(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toProfilePart(p))
}

// Follow makes the caller follow another user.
func (h *UserHandler) Follow(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.Follow(ctx, callerEmail(c), id); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "following"})
}

// Unfollow removes a follow relationship.
func (h *UserHandler) Unfollow(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.Unfollow(ctx, callerEmail(c), id); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "unfollowed"})
}
