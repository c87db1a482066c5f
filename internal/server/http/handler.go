// Package http is the control plane: a Fiber app exposing the identity and
// game endpoints, with the websocket upgrade mounted alongside.
package http

import (
	"errors"
	"fmt"
	"time"

	"chess/internal/server/core"
	"chess/internal/server/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

const rateLimitRate = 20 // req/sec

// Handler routes HTTP requests to the service layer.
type Handler struct {
	svc *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// NewFiberApp builds the control-plane app. wsHandler, when non-nil, is
// mounted at GET /ws (the live-game message plane).
func NewFiberApp(svc *service.Service, wsHandler fiber.Handler, devMode bool) *fiber.App {
	h := NewHandler(svc)

	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	})

	// Global middleware (order matters)
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Health check and websocket upgrade bypass the rate limiter.
	app.Get("/health", h.Health)
	if wsHandler != nil {
		app.Get("/ws", wsHandler)
	}

	maxReq := rateLimitRate
	if devMode {
		maxReq = rateLimitRate * 10
	}
	app.Use(limiter.New(limiter.Config{
		Max:        maxReq,
		Expiration: 1 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).
				JSON(core.NewErrorResponse(fmt.Sprintf("rate limit exceeded (%d req/s)", maxReq)))
		},
	}))

	app.Delete("/db", h.Clear)
	app.Post("/user", h.Register)
	app.Post("/session", h.Login)
	app.Delete("/session", h.AuthRequired, h.Logout)
	app.Get("/game", h.AuthRequired, h.ListGames)
	app.Post("/game", h.AuthRequired, h.CreateGame)
	app.Put("/game", h.AuthRequired, h.JoinGame)

	return app
}

// errorHandler maps the internal error taxonomy to status codes and the
// {"message":"Error: <phrase>"} body.
func errorHandler(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, core.ErrBadRequest):
		return c.Status(fiber.StatusBadRequest).JSON(core.NewErrorResponse("bad request"))
	case errors.Is(err, core.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(core.NewErrorResponse("unauthorized"))
	case errors.Is(err, core.ErrEntryExists), errors.Is(err, core.ErrAlreadyTaken):
		return c.Status(fiber.StatusForbidden).JSON(core.NewErrorResponse("already taken"))
	}

	if e, ok := err.(*fiber.Error); ok {
		return c.Status(e.Code).JSON(core.NewErrorResponse(e.Message))
	}
	return c.Status(fiber.StatusInternalServerError).JSON(core.NewErrorResponse(err.Error()))
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// Clear wipes every store partition. Test harness endpoint.
func (h *Handler) Clear(c *fiber.Ctx) error {
	if err := h.svc.ClearAll(); err != nil {
		return err
	}
	return c.JSON(fiber.Map{})
}

type createGameRequest struct {
	GameName string `json:"gameName" validate:"required,min=1,max=80"`
}

type createGameResponse struct {
	GameID int `json:"gameID"`
}

func (h *Handler) CreateGame(c *fiber.Ctx) error {
	var req createGameRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}

	id, err := h.svc.CreateGame(req.GameName)
	if err != nil {
		return err
	}
	return c.JSON(createGameResponse{GameID: id})
}

type listGamesResponse struct {
	Games []service.GameSummary `json:"games"`
}

func (h *Handler) ListGames(c *fiber.Ctx) error {
	games, err := h.svc.ListGames()
	if err != nil {
		return err
	}
	return c.JSON(listGamesResponse{Games: games})
}

type joinGameRequest struct {
	PlayerColor string `json:"playerColor" validate:"required,oneof=WHITE BLACK"`
	GameID      int    `json:"gameID" validate:"required,min=1"`
}

func (h *Handler) JoinGame(c *fiber.Ctx) error {
	var req joinGameRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}

	color, err := chessColor(req.PlayerColor)
	if err != nil {
		return err
	}

	username := c.Locals(localUsername).(string)
	if err := h.svc.JoinGame(username, color, req.GameID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{})
}
