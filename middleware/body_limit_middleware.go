package middleware

import (
	"fmt"
	"strings"

	apimodels "admission-backend/models/api"

	"github.com/gofiber/fiber/v2"
)

// WithBodyLimit ограничение размера тела запроса, кроме путей с префиксами skip
func WithBodyLimit(limit int64, skip ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		for _, prefix := range skip {
			if strings.HasPrefix(c.Path(), prefix) {
				return c.Next()
			}
		}
		if size := int64(c.Request().Header.ContentLength()); size > limit {
			return c.Status(fiber.StatusRequestEntityTooLarge).
				JSON(apimodels.NewErrorWithCode("validation_error", fmt.Sprintf("размер запроса превышает %d байт", limit)))
		}
		return c.Next()
	}
}
