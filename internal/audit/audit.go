package audit

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/vhoang/folio/internal/common"
	"github.com/vhoang/folio/model"
	"github.com/vhoang/folio/params"
	"gorm.io/datatypes"
)

const (
	ActionAuthSuccess         = "auth_success"
	ActionAuthFailed          = "auth_failed"
	ActionLogout              = "logout"
	ActionSessionExpired      = "session_expired"
	ActionCodeRotationSuccess = "code_rotation_success"
	ActionCodeRotationFailed  = "code_rotation_failed"
	ActionTOTPEnrolled        = "totp_enrolled"
	ActionTOTPDisabled        = "totp_disabled"
	ActionPortfolioUpdated    = "portfolio_updated"
	ActionContactReceived     = "contact_received"
)

const (
	ResourceAdminSession  = "admin_session"
	ResourceAdminSettings = "admin_settings"
	ResourcePortfolio     = "portfolio"
	ResourceContact       = "contact"
)

type Entry struct {
	Action     string
	Resource   string
	ResourceID string
	Actor      string // masked before storage
	IP         string
	UserAgent  string
	Changes    map[string]any
}

// Log appends security-relevant events. Appends are best effort: a repository
// failure is reported to the operational log and never to the caller, so
// audit trouble cannot block a security decision.
type Log struct {
	repo Repository
}

func NewLog(repo Repository) *Log {
	return &Log{
		repo: repo,
	}
}

func (l *Log) Record(ctx context.Context, e Entry) {
	var changes datatypes.JSON
	if e.Changes != nil {
		data, err := json.Marshal(e.Changes)
		if err != nil {
			slog.Error("Could not encode audit changes", "action", e.Action, "error", err)
		} else {
			changes = datatypes.JSON(data)
		}
	}
	entry := &model.AuditEntry{
		ID:         model.GenerateID(),
		Action:     e.Action,
		Resource:   e.Resource,
		ResourceID: e.ResourceID,
		Actor:      common.MaskIdentifier(e.Actor),
		IP:         e.IP,
		UserAgent:  e.UserAgent,
		Changes:    changes,
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		slog.Error("Could not write audit entry", "action", e.Action, "resource", e.Resource, "error", err)
	}
}

// Query returns entries most recent first, clamped to the configured maximum.
func (l *Log) Query(ctx context.Context, limit int) ([]*model.AuditEntry, error) {
	if limit <= 0 {
		limit = params.AuditDefaultQueryLimit
	}
	if limit > params.AuditMaxQueryLimit {
		limit = params.AuditMaxQueryLimit
	}
	return l.repo.Find(ctx, limit)
}
