package portfolio

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/vhoang/folio/internal/audit"
	"github.com/vhoang/folio/model"
)

type fakeRepository struct {
	record *model.Portfolio
}

func (r *fakeRepository) Get(ctx context.Context) (*model.Portfolio, error) {
	if r.record == nil {
		return nil, ErrNotFound
	}
	return r.record, nil
}

func (r *fakeRepository) Save(ctx context.Context, record *model.Portfolio) error {
	r.record = record
	return nil
}

type fakeAuditRepo struct {
	entries []*model.AuditEntry
}

func (r *fakeAuditRepo) Create(ctx context.Context, entry *model.AuditEntry) error {
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeAuditRepo) Find(ctx context.Context, limit int) ([]*model.AuditEntry, error) {
	return r.entries, nil
}

func TestBootstrapSeedsEmptyObject(t *testing.T) {
	repo := &fakeRepository{}
	service := NewService(repo, audit.NewLog(&fakeAuditRepo{}))
	ctx := context.Background()

	if err := service.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}
	record, err := service.Get(ctx)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(record.Content) != "{}" {
		t.Fatalf("expected an empty object, got %s", record.Content)
	}

	// a second bootstrap must not overwrite existing content
	repo.record.Content = []byte(`{"title":"kept"}`)
	if err := service.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}
	record, _ = service.Get(ctx)
	if string(record.Content) != `{"title":"kept"}` {
		t.Fatal("Bootstrap clobbered existing content")
	}
}

func TestUpdate(t *testing.T) {
	repo := &fakeRepository{}
	auditRepo := &fakeAuditRepo{}
	service := NewService(repo, audit.NewLog(auditRepo))
	ctx := context.Background()

	content := json.RawMessage(`{"title":"My Portfolio","sections":[]}`)
	record, err := service.Update(ctx, content, UpdateInfo{IP: "1.2.3.4"})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if string(record.Content) != string(content) {
		t.Fatalf("content mismatch: %s", record.Content)
	}
	if len(auditRepo.entries) != 1 || auditRepo.entries[0].Action != audit.ActionPortfolioUpdated {
		t.Fatal("expected the update to be audited")
	}
}

func TestUpdateRejectsNonObject(t *testing.T) {
	service := NewService(&fakeRepository{}, audit.NewLog(&fakeAuditRepo{}))
	ctx := context.Background()

	for _, content := range []string{`[1,2,3]`, `"text"`, `42`, `not json`} {
		_, err := service.Update(ctx, json.RawMessage(content), UpdateInfo{})
		if !errors.Is(err, ErrInvalidContent) {
			t.Fatalf("expected ErrInvalidContent for %s, got %v", content, err)
		}
	}
}
