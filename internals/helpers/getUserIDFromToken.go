package helper

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Ambil user_id dari c.Locals("user_id")
// Return 401 kalau belum login, 400 kalau formatnya tidak valid.
func GetUserIDFromToken(c *fiber.Ctx) (uuid.UUID, error) {
	v := c.Locals("user_id")
	if v == nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "User belum login")
	}

	switch t := v.(type) {
	case uuid.UUID:
		if t == uuid.Nil {
			return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "User belum login")
		}
		return t, nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "User belum login")
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "User ID pada token tidak valid")
		}
		return id, nil
	default:
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "User ID pada token tidak valid")
	}
}

// Ambil user_name dari c.Locals("user_name") (diisi oleh auth middleware).
func GetUserNameFromToken(c *fiber.Ctx) (string, error) {
	v := c.Locals("user_name")
	if v == nil {
		return "", fiber.NewError(fiber.StatusUnauthorized, "User belum login")
	}
	name, ok := v.(string)
	if !ok || strings.TrimSpace(name) == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, "User name pada token tidak valid")
	}
	return strings.TrimSpace(name), nil
}
