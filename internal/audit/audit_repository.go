package audit

import (
	"context"

	"github.com/vhoang/folio/model"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, entry *model.AuditEntry) error
	Find(ctx context.Context, limit int) ([]*model.AuditEntry, error)
}

type repository struct {
	db *gorm.DB
}

func (r *repository) Create(ctx context.Context, entry *model.AuditEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) Find(ctx context.Context, limit int) ([]*model.AuditEntry, error) {
	var entries []*model.AuditEntry
	err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{
		db: db,
	}
}
