package middlewares

import (
	"errors"

	"skillmart/cmd/server/ctxkeys"
	"skillmart/cmd/server/handlers/httperr"
	"skillmart/internal/config"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/v2/bson"
)

var (
	errMissingID    = errors.New("Invalid token: missing id")
	errMissingEmail = errors.New("Invalid token: missing email")
)

// JWT returns a configured Fiber middleware that:
//
//   - validates the Bearer token signature using cfg.JWTSecret (HS256 only)
//   - makes sure the token carries a hex "id" and an "email" claim
//   - stores those values in ctx.Locals(ctxkeys.UserIDKey / UserEmailKey)
//
// On any problem it bubbles up a 401 via the global httperr handler.
func JWT(cfg config.Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: []byte(cfg.JWTSecret)},
		SuccessHandler: func(c *fiber.Ctx) error {
			token := c.Locals("user").(*jwt.Token)
			claims, _ := token.Claims.(jwt.MapClaims)

			userID, ok := claims["id"].(string)
			if !ok || userID == "" {
				return httperr.Unauthorized(errMissingID)
			}
			if _, err := bson.ObjectIDFromHex(userID); err != nil {
				return httperr.Unauthorized(errMissingID)
			}

			userEmail, ok := claims["email"].(string)
			if !ok || userEmail == "" {
				return httperr.Unauthorized(errMissingEmail)
			}

			c.Locals(ctxkeys.UserIDKey, userID)
			c.Locals(ctxkeys.UserEmailKey, userEmail)
			return c.Next()
		},

		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return httperr.Fail(httperr.ErrUnauthorized)
		},
	})
}
