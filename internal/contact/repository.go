package contact

import (
	"context"

	"github.com/vhoang/folio/model"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, msg *model.ContactMessage) error
}

type repository struct {
	db *gorm.DB
}

func (r *repository) Create(ctx context.Context, msg *model.ContactMessage) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{
		db: db,
	}
}
