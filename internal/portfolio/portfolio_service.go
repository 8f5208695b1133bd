package portfolio

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/vhoang/folio/internal/audit"
	"github.com/vhoang/folio/model"
	"gorm.io/datatypes"
)

var ErrInvalidContent = errors.New("portfolio content must be a JSON object")

// Service owns the single portfolio content record. The payload is opaque;
// the backend only guards who may replace it and audits that they did.
type Service struct {
	repo     Repository
	auditLog *audit.Log
}

func NewService(repo Repository, auditLog *audit.Log) *Service {
	return &Service{
		repo:     repo,
		auditLog: auditLog,
	}
}

// Bootstrap ensures the record exists so public reads never 404.
func (s *Service) Bootstrap(ctx context.Context) error {
	_, err := s.repo.Get(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	return s.repo.Save(ctx, &model.Portfolio{Content: datatypes.JSON([]byte("{}"))})
}

func (s *Service) Get(ctx context.Context) (*model.Portfolio, error) {
	return s.repo.Get(ctx)
}

type UpdateInfo struct {
	IP        string
	UserAgent string
}

func (s *Service) Update(ctx context.Context, content json.RawMessage, info UpdateInfo) (*model.Portfolio, error) {
	var probe map[string]any
	if err := json.Unmarshal(content, &probe); err != nil {
		return nil, ErrInvalidContent
	}

	record := &model.Portfolio{Content: datatypes.JSON(content)}
	if err := s.repo.Save(ctx, record); err != nil {
		return nil, err
	}
	s.auditLog.Record(ctx, audit.Entry{
		Action:    audit.ActionPortfolioUpdated,
		Resource:  audit.ResourcePortfolio,
		Actor:     "admin",
		IP:        info.IP,
		UserAgent: info.UserAgent,
		Changes:   map[string]any{"bytes": len(content)},
	})
	return record, nil
}
