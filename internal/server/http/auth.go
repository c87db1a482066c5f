package http

import (
	"fmt"

	"chess/internal/server/core"

	"github.com/gofiber/fiber/v2"
)

// localUsername is the fiber Locals key set by AuthRequired.
const localUsername = "username"

type registerRequest struct {
	Username string `json:"username" validate:"required,min=1,max=40"`
	Password string `json:"password" validate:"required,min=1,max=128"`
	Email    string `json:"email" validate:"required,max=255"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthRequired resolves the authorization header to a username before the
// handler runs. The header carries the bare token.
func (h *Handler) AuthRequired(c *fiber.Ctx) error {
	token := c.Get("authorization")
	username, ok := h.svc.Verify(token)
	if !ok {
		return fmt.Errorf("invalid auth token: %w", core.ErrUnauthorized)
	}
	c.Locals(localUsername, username)
	c.Locals(localToken, token)
	return c.Next()
}

const localToken = "authToken"

func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.svc.Register(req.Username, req.Password, req.Email)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.svc.Login(req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

func (h *Handler) Logout(c *fiber.Ctx) error {
	token := c.Locals(localToken).(string)
	if err := h.svc.Logout(token); err != nil {
		return err
	}
	return c.JSON(fiber.Map{})
}
