package middleware

import (
	"fmt"
	"os"
	"strings"

	"museum-ticketing/constants"
	"museum-ticketing/types"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// RequirePermissions creates a middleware that admits callers holding
// any of the given permissions (or the "all" super permission).
func RequirePermissions(permissions ...string) fiber.Handler {
	return IsAuthenticated(permissions)
}

// RequireAnyPermission admits any authenticated caller in addition to
// the listed permissions.
func RequireAnyPermission(permissions ...string) fiber.Handler {
	allPerms := append(permissions, constants.PermAny)
	return IsAuthenticated(allPerms)
}

// RequireAuthentication only requires a valid token, no specific
// permission.
func RequireAuthentication() fiber.Handler {
	return IsAuthenticated([]string{constants.PermAny})
}

// ActorFromCtx returns the authenticated actor placed by
// IsAuthenticated. The zero Actor means the route skipped
// authentication, which is a wiring bug.
func ActorFromCtx(c *fiber.Ctx) types.Actor {
	actor, ok := c.Locals("actor").(types.Actor)
	if !ok {
		return types.Actor{}
	}
	return actor
}

func verifyToken(tokenString string) (jwt.MapClaims, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not configured")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWT: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid JWT token")
	}
	return claims, nil
}

func actorFromClaims(claims jwt.MapClaims) types.Actor {
	actor := types.Actor{
		Permissions: make(map[string]bool),
	}

	if sub, ok := claims["user_id"].(float64); ok {
		actor.UserID = uint(sub)
	}
	if username, ok := claims["username"].(string); ok {
		actor.Username = username
	}
	if perms, ok := claims["permissions"].([]interface{}); ok {
		for _, p := range perms {
			if perm, ok := p.(string); ok {
				actor.Permissions[perm] = true
			}
		}
	}

	return actor
}

func hasPermission(actor types.Actor, requiredPermissions []string) bool {
	for _, required := range requiredPermissions {
		if required == constants.PermAny {
			return true
		}
		if actor.Can(required) {
			return true
		}
	}
	return false
}

// IsAuthenticated checks for a valid bearer token, builds the actor
// from its claims and enforces the required permissions.
func IsAuthenticated(requiredPermissions []string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		var token string

		if authHeader != "" {
			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
				return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
					Message: "Invalid authorization header format",
					Status:  fiber.StatusUnauthorized,
				})
			}
			token = tokenParts[1]
		} else {
			// Cookie fallback for the browser frontend.
			token = c.Cookies("access")
			if token == "" {
				return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
					Message: "Authorization token missing",
					Status:  fiber.StatusUnauthorized,
				})
			}
		}

		claims, err := verifyToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
				Message: "Session expired. Login again.",
				Status:  fiber.StatusUnauthorized,
			})
		}

		actor := actorFromClaims(claims)
		if actor.UserID == 0 {
			return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
				Message: "Session expired. Login again.",
				Status:  fiber.StatusUnauthorized,
			})
		}

		if !hasPermission(actor, requiredPermissions) {
			return c.Status(fiber.StatusForbidden).JSON(types.ApiResponse{
				Message: "Insufficient permissions",
				Status:  fiber.StatusForbidden,
			})
		}

		c.Locals("actor", actor)
		return c.Next()
	}
}
