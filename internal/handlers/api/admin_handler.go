package api

import (
	"encoding/json"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/vhoang/folio/internal/audit"
	"github.com/vhoang/folio/internal/auth"
	"github.com/vhoang/folio/internal/credentials"
	"github.com/vhoang/folio/internal/middlewares"
	"github.com/vhoang/folio/internal/sessions"
)

// AdminHandler serves the authentication and settings endpoints.
type AdminHandler struct {
	authService *auth.Service
	creds       *credentials.Store
	auditLog    *audit.Log
	cookie      sessions.CookieConfig
	clientInfo  middlewares.ClientInfoFunc
	siteName    string
	environment string
}

func NewAdminHandler(
	authService *auth.Service,
	creds *credentials.Store,
	auditLog *audit.Log,
	cookie sessions.CookieConfig,
	clientInfo middlewares.ClientInfoFunc,
	siteName string,
	environment string,
) *AdminHandler {
	return &AdminHandler{
		authService: authService,
		creds:       creds,
		auditLog:    auditLog,
		cookie:      cookie,
		clientInfo:  clientInfo,
		siteName:    siteName,
		environment: environment,
	}
}

type loginRequest struct {
	Code     string `json:"code"`
	TOTPCode string `json:"totpCode"`
}

type sessionInfoResponse struct {
	LoginTime int64 `json:"loginTime"` // unix millis
	MaxAge    int   `json:"maxAge"`    // seconds
}

func (h *AdminHandler) PostLogin(ctx *fiber.Ctx) error {
	var req loginRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Code == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Missing admin code")
	}

	sess, err := h.authService.Login(ctx.Context(), h.clientInfo(ctx), req.Code, req.TOTPCode)
	if err != nil {
		return err
	}

	sessions.SetCookie(ctx, h.cookie, sess)
	return ctx.JSON(NewDataResponse(fiber.Map{
		"success": true,
		"sessionInfo": sessionInfoResponse{
			LoginTime: sess.LoginTime,
			MaxAge:    int(sess.MaxAge().Seconds()),
		},
	}))
}

// PostLogout is idempotent: it succeeds whether or not a session exists.
func (h *AdminHandler) PostLogout(ctx *fiber.Ctx) error {
	sessionID := sessions.IDFromRequest(ctx, h.cookie)
	if err := h.authService.Logout(ctx.Context(), sessionID, h.clientInfo(ctx)); err != nil {
		return err
	}
	sessions.ClearCookie(ctx, h.cookie)
	return ctx.JSON(NewDataResponse(fiber.Map{"success": true}))
}

func (h *AdminHandler) GetSession(ctx *fiber.Ctx) error {
	sessionID := sessions.IDFromRequest(ctx, h.cookie)
	status, err := h.authService.SessionStatus(ctx.Context(), sessionID)
	if err != nil {
		return err
	}
	if !status.Authenticated {
		return ctx.JSON(NewDataResponse(fiber.Map{"authenticated": false}))
	}
	return ctx.JSON(NewDataResponse(fiber.Map{
		"authenticated": true,
		"loginTime":     status.LoginTime.UnixMilli(),
		"lastActivity":  status.LastActivity.UnixMilli(),
		"remainingTime": int(status.Remaining.Seconds()),
	}))
}

type rotateCodeRequest struct {
	CurrentCode string `json:"currentCode"`
	NewCode     string `json:"newCode"`
}

func (h *AdminHandler) PostRotateCode(ctx *fiber.Ctx) error {
	var req rotateCodeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.CurrentCode == "" || req.NewCode == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Missing current or new code")
	}

	sessionID := sessions.IDFromRequest(ctx, h.cookie)
	if err := h.authService.RotateCode(ctx.Context(), sessionID, h.clientInfo(ctx), req.CurrentCode, req.NewCode); err != nil {
		return err
	}
	return ctx.JSON(NewDataResponse(fiber.Map{"success": true}))
}

func (h *AdminHandler) GetSettings(ctx *fiber.Ctx) error {
	info := h.creds.Info()
	sess := middlewares.SessionFromCtx(ctx)
	return ctx.JSON(NewDataResponse(fiber.Map{
		"siteName":      h.siteName,
		"environment":   h.environment,
		"totpEnabled":   info.TOTPEnabled,
		"codeCreatedAt": info.CreatedAt.UnixMilli(),
		"codeUpdatedAt": info.UpdatedAt.UnixMilli(),
		"sessionMaxAge": int(sess.MaxAge().Seconds()),
	}))
}

func (h *AdminHandler) PostTOTPEnroll(ctx *fiber.Ctx) error {
	key, err := h.creds.GenerateTOTPKey(auth.SubjectAdmin)
	if err != nil {
		return err
	}
	return ctx.JSON(NewDataResponse(fiber.Map{
		"secret": key.Secret(),
		"url":    key.URL(),
	}))
}

type totpVerifyRequest struct {
	Secret string `json:"secret"`
	Code   string `json:"code"`
}

func (h *AdminHandler) PostTOTPVerify(ctx *fiber.Ctx) error {
	var req totpVerifyRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Secret == "" || req.Code == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Missing secret or code")
	}
	if err := h.creds.EnrollTOTP(ctx.Context(), req.Secret, req.Code); err != nil {
		if err == credentials.ErrTOTPVerifyFailed {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid verification code")
		}
		return err
	}

	client := h.clientInfo(ctx)
	h.auditLog.Record(ctx.Context(), audit.Entry{
		Action:    audit.ActionTOTPEnrolled,
		Resource:  audit.ResourceAdminSettings,
		Actor:     auth.SubjectAdmin,
		IP:        client.IP,
		UserAgent: client.UserAgent,
	})
	return ctx.JSON(NewDataResponse(fiber.Map{"success": true}))
}

func (h *AdminHandler) DeleteTOTP(ctx *fiber.Ctx) error {
	if err := h.creds.DisableTOTP(ctx.Context()); err != nil {
		if err == credentials.ErrTOTPNotEnrolled {
			return fiber.NewError(fiber.StatusBadRequest, "TOTP is not enrolled")
		}
		return err
	}

	client := h.clientInfo(ctx)
	h.auditLog.Record(ctx.Context(), audit.Entry{
		Action:    audit.ActionTOTPDisabled,
		Resource:  audit.ResourceAdminSettings,
		Actor:     auth.SubjectAdmin,
		IP:        client.IP,
		UserAgent: client.UserAgent,
	})
	return ctx.JSON(NewDataResponse(fiber.Map{"success": true}))
}

type auditEntryResponse struct {
	ID         string         `json:"id"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	ResourceID string         `json:"resourceId,omitempty"`
	Actor      string         `json:"actor"`
	IP         string         `json:"ip"`
	UserAgent  string         `json:"userAgent,omitempty"`
	Changes    map[string]any `json:"changes,omitempty"`
	CreatedAt  int64          `json:"createdAt"` // unix millis
}

func (h *AdminHandler) GetAudit(ctx *fiber.Ctx) error {
	limit := ctx.QueryInt("limit")
	entries, err := h.auditLog.Query(ctx.Context(), limit)
	if err != nil {
		return err
	}

	resp := make([]auditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		item := auditEntryResponse{
			ID:         strconv.FormatUint(entry.ID, 10),
			Action:     entry.Action,
			Resource:   entry.Resource,
			ResourceID: entry.ResourceID,
			Actor:      entry.Actor,
			IP:         entry.IP,
			UserAgent:  entry.UserAgent,
			CreatedAt:  entry.CreatedAt.UnixMilli(),
		}
		if len(entry.Changes) > 0 {
			var changes map[string]any
			if err := json.Unmarshal(entry.Changes, &changes); err == nil {
				item.Changes = changes
			}
		}
		resp = append(resp, item)
	}
	return ctx.JSON(NewDataResponse(fiber.Map{"entries": resp}))
}
