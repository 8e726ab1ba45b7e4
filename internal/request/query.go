package request

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// BoundedInt reads an integer query parameter that must lie in 1..max. An absent parameter
// yields def; any other value that is not an integer in range is a 400.
func BoundedInt(c *fiber.Ctx, key string, def, max int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > max {
		return 0, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("%s must be between 1 and %d", key, max))
	}
	return n, nil
}
