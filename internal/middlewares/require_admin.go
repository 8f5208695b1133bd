package middlewares

import (
	"github.com/gofiber/fiber/v2"
	"github.com/vhoang/folio/internal/auth"
	"github.com/vhoang/folio/internal/sessions"
)

const sessionContextKey = "adminSession"

// RequireAdmin guards protected routes. It validates the session cookie
// through the gateway, stores the session in Locals and rejects the request
// otherwise.
func RequireAdmin(authService *auth.Service, cookie sessions.CookieConfig, clientInfo ClientInfoFunc) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		sessionID := sessions.IDFromRequest(ctx, cookie)
		sess, err := authService.RequireSession(ctx.Context(), sessionID, clientInfo(ctx))
		if err != nil {
			return err
		}
		ctx.Locals(sessionContextKey, sess)
		return ctx.Next()
	}
}

// SessionFromCtx returns the session stored by RequireAdmin, or nil on
// unguarded routes.
func SessionFromCtx(ctx *fiber.Ctx) *sessions.Session {
	sess, _ := ctx.Locals(sessionContextKey).(*sessions.Session)
	return sess
}
