package sessions

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

type CookieConfig struct {
	Name     string
	Secure   bool
	HttpOnly bool
}

// SetCookie writes the session cookie; its max age matches the session's
// remaining lifetime.
func SetCookie(ctx *fiber.Ctx, config CookieConfig, sess *Session) {
	remaining := sess.Remaining(time.Now())
	fcookie := fasthttp.AcquireCookie()
	fcookie.SetKey(config.Name)
	fcookie.SetValue(sess.ID())
	fcookie.SetPath("/")
	fcookie.SetSecure(config.Secure)
	fcookie.SetHTTPOnly(config.HttpOnly)
	fcookie.SetSameSite(fasthttp.CookieSameSiteLaxMode)
	fcookie.SetMaxAge(int(remaining.Seconds()))
	fcookie.SetExpire(time.Now().Add(remaining))
	ctx.Response().Header.SetCookie(fcookie)
	fasthttp.ReleaseCookie(fcookie)
}

func ClearCookie(ctx *fiber.Ctx, config CookieConfig) {
	ctx.ClearCookie(config.Name)
}

// IDFromRequest extracts the session identifier, if any, from the request.
func IDFromRequest(ctx *fiber.Ctx, config CookieConfig) string {
	return ctx.Cookies(config.Name)
}
