package helper

import (
	"strings"

	"absensiku_backend/internals/helpers/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Key locals yang diisi middleware AuthJWT.
const (
	LocUserID = "user_id"
	LocRole   = "userRole"
)

// Ambil user_id dari c.Locals("user_id").
// Unauthorized kalau belum login atau formatnya tidak valid.
func GetUserIDFromToken(c *fiber.Ctx) (uuid.UUID, error) {
	v := c.Locals(LocUserID)
	if v == nil {
		return uuid.Nil, apperror.Unauthorized("User belum login")
	}

	switch t := v.(type) {
	case uuid.UUID:
		if t == uuid.Nil {
			return uuid.Nil, apperror.Unauthorized("User belum login")
		}
		return t, nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return uuid.Nil, apperror.Unauthorized("User belum login")
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return uuid.Nil, apperror.Unauthorized("User ID pada token tidak valid")
		}
		return id, nil
	default:
		return uuid.Nil, apperror.Unauthorized("User ID pada token tidak valid")
	}
}

// GetRoleFromToken: role dari klaim JWT, "" kalau tidak ada.
func GetRoleFromToken(c *fiber.Ctx) string {
	if s, ok := c.Locals(LocRole).(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}
