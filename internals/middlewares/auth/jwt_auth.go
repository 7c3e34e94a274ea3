// file: internals/middlewares/auth/jwt_auth.go
package auth

import (
	"context"
	"strings"

	"absensiku_backend/internals/constants"
	helper "absensiku_backend/internals/helpers"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

type AuthJWTOpts struct {
	Secret              string
	AllowCookieFallback bool // pakai cookie access_token jika tidak ada Bearer
	// UserActive (opsional): tolak token milik user yang dinonaktifkan
	UserActive func(ctx context.Context, userID uuid.UUID) (bool, error)
}

// AuthJWT memverifikasi token HMAC lalu mengisi locals user_id & userRole.
// Verifikasi kredensial (login) di luar service ini.
func AuthJWT(o AuthJWTOpts) fiber.Handler {
	secret := strings.TrimSpace(o.Secret)
	if secret == "" {
		panic("AuthJWT: Secret wajib diisi")
	}

	return func(c *fiber.Ctx) error {
		// 1) Ambil token: Authorization: Bearer xxx (atau cookie jika diizinkan)
		raw, err := extractBearerToken(c, o.AllowCookieFallback)
		if err != nil {
			return helper.JsonError(c, fiber.StatusUnauthorized, err.Error())
		}

		// 2) Parse + verifikasi algoritma (exp/nbf divalidasi jwt)
		tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !tok.Valid {
			return helper.JsonError(c, fiber.StatusUnauthorized, "Invalid token")
		}
		claims, ok := tok.Claims.(jwt.MapClaims)
		if !ok {
			return helper.JsonError(c, fiber.StatusUnauthorized, "Invalid token claims")
		}

		// 3) user_id: id/sub/user_id dalam urutan preferensi
		userID, err := extractUserID(claims)
		if err != nil {
			return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized - Invalid or missing user ID")
		}

		// 4) user aktif (opsional)
		if o.UserActive != nil {
			active, err := o.UserActive(c.UserContext(), userID)
			if err != nil {
				return helper.JsonError(c, fiber.StatusInternalServerError, "Internal Server Error")
			}
			if !active {
				return helper.JsonError(c, fiber.StatusForbidden, "Akun Anda telah dinonaktifkan")
			}
		}

		c.Locals(helper.LocUserID, userID.String())
		c.Locals(helper.LocRole, extractRole(claims))
		c.Locals("jwt_claims", claims)
		return c.Next()
	}
}

// extractRole: klaim "role", fallback elemen pertama "roles_global".
func extractRole(claims jwt.MapClaims) string {
	if r := strClaim(claims, "role"); r != "" {
		return constants.NormalizeRole(r)
	}
	if list := readStringSlice(claims["roles_global"]); len(list) > 0 {
		return constants.NormalizeRole(list[0])
	}
	return ""
}
