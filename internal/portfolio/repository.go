package portfolio

import (
	"context"
	"errors"

	"github.com/vhoang/folio/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotFound = errors.New("portfolio record not found")

// recordID pins the single portfolio row.
const recordID = 1

type Repository interface {
	Get(ctx context.Context) (*model.Portfolio, error)
	Save(ctx context.Context, record *model.Portfolio) error
}

type repository struct {
	db *gorm.DB
}

func (r *repository) Get(ctx context.Context) (*model.Portfolio, error) {
	var record model.Portfolio
	err := r.db.WithContext(ctx).First(&record, recordID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) Save(ctx context.Context, record *model.Portfolio) error {
	record.ID = recordID
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(record).Error
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{
		db: db,
	}
}
