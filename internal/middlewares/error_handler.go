package middlewares

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/vhoang/folio/internal/auth"
	"github.com/vhoang/folio/internal/contact"
	"github.com/vhoang/folio/internal/credentials"
	"github.com/vhoang/folio/internal/portfolio"
)

type errorResponse struct {
	Error errorInfo `json:"error"`
	Data  any       `json:"data,omitempty"`
}

type errorInfo struct {
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Reasons []string `json:"reasons,omitempty"`
}

// ErrorHandler maps the gateway's error taxonomy to HTTP statuses. Login
// failures stay generic on purpose: the response never reveals which factor
// was wrong.
func ErrorHandler(ctx *fiber.Ctx, err error) error {
	var (
		rateLimited *auth.RateLimitedError
		policyErr   *credentials.PolicyViolationError
		fiberErr    *fiber.Error
	)
	switch {
	case errors.As(err, &rateLimited):
		ctx.Set(fiber.HeaderRetryAfter, strconv.Itoa(rateLimited.WaitSeconds()))
		return ctx.Status(fiber.StatusTooManyRequests).JSON(errorResponse{
			Error: errorInfo{Code: fiber.StatusTooManyRequests, Message: "Too many attempts, please wait"},
			Data:  fiber.Map{"waitTime": rateLimited.WaitSeconds()},
		})
	case errors.Is(err, auth.ErrInvalidCredentials):
		return sendError(ctx, fiber.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, auth.ErrSecondFactorRequired):
		return ctx.Status(fiber.StatusBadRequest).JSON(errorResponse{
			Error: errorInfo{Code: fiber.StatusBadRequest, Message: "Verification code required"},
			Data:  fiber.Map{"totpRequired": true},
		})
	case errors.Is(err, auth.ErrSessionExpired):
		return sendError(ctx, fiber.StatusUnauthorized, "Session expired")
	case errors.Is(err, auth.ErrUnauthorized):
		return sendError(ctx, fiber.StatusUnauthorized, "Unauthorized")
	case errors.As(err, &policyErr):
		return ctx.Status(fiber.StatusBadRequest).JSON(errorResponse{
			Error: errorInfo{
				Code:    fiber.StatusBadRequest,
				Message: "New code rejected by strength policy",
				Reasons: policyErr.Reasons,
			},
		})
	case errors.Is(err, contact.ErrRateLimited):
		return sendError(ctx, fiber.StatusTooManyRequests, "Too many messages, please wait")
	case errors.Is(err, contact.ErrInvalidMessage):
		return sendError(ctx, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, portfolio.ErrInvalidContent):
		return sendError(ctx, fiber.StatusBadRequest, err.Error())
	case errors.As(err, &fiberErr):
		return sendError(ctx, fiberErr.Code, fiberErr.Message)
	default:
		slog.Error("Unhandled error", "path", ctx.Path(), "error", err)
		return sendError(ctx, fiber.StatusInternalServerError, "Internal server error")
	}
}

func sendError(ctx *fiber.Ctx, code int, message string) error {
	return ctx.Status(code).JSON(errorResponse{
		Error: errorInfo{Code: code, Message: message},
	})
}
