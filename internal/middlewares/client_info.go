package middlewares

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/vhoang/folio/internal/auth"
)

// ClientInfoFunc derives the requester's identity for rate limiting and
// auditing. Injected so deployments behind a proxy can trust a forwarding
// header instead of the connection address.
type ClientInfoFunc func(ctx *fiber.Ctx) auth.ClientInfo

// ClientInfoExtractor returns the default extractor. With trustHeader set,
// the first address in that header wins; otherwise the connection address is
// used directly.
func ClientInfoExtractor(trustHeader string) ClientInfoFunc {
	return func(ctx *fiber.Ctx) auth.ClientInfo {
		ip := ctx.IP()
		if trustHeader != "" {
			if forwarded := ctx.Get(trustHeader); forwarded != "" {
				ip = strings.TrimSpace(strings.Split(forwarded, ",")[0])
			}
		}
		return auth.ClientInfo{
			Identity:  ip,
			IP:        ip,
			UserAgent: ctx.Get(fiber.HeaderUserAgent),
		}
	}
}
