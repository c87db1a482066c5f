package http

import (
	"fmt"

	"chess/internal/chess"
	"chess/internal/server/core"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// parseAndValidate decodes the JSON body into req and checks its validate
// tags. Any failure is a bad request.
func parseAndValidate(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return fmt.Errorf("malformed request body: %w", core.ErrBadRequest)
	}
	if err := validate.Struct(req); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			e := errs[0]
			return fmt.Errorf("field %s failed %s validation: %w", e.Field(), e.Tag(), core.ErrBadRequest)
		}
		return fmt.Errorf("invalid request body: %w", core.ErrBadRequest)
	}
	return nil
}

func chessColor(s string) (chess.Color, error) {
	color, err := chess.ParseColor(s)
	if err != nil {
		return color, fmt.Errorf("unknown color %q: %w", s, core.ErrBadRequest)
	}
	return color, nil
}
