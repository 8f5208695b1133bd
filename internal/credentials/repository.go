package credentials

import (
	"context"
	"errors"
	"time"

	"github.com/vhoang/folio/model"
	"gorm.io/gorm"
)

// credentialID pins the single credential row.
const credentialID = 1

type Repository interface {
	Load(ctx context.Context) (*model.AdminCredential, error)
	Create(ctx context.Context, cred *model.AdminCredential) error
	// Replace swaps the stored hashes in a single statement.
	Replace(ctx context.Context, secretHash string, totpSecret string) error
}

type repository struct {
	db *gorm.DB
}

func (r *repository) Load(ctx context.Context) (*model.AdminCredential, error) {
	var cred model.AdminCredential
	err := r.db.WithContext(ctx).First(&cred, credentialID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCredentialNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cred, nil
}

func (r *repository) Create(ctx context.Context, cred *model.AdminCredential) error {
	cred.ID = credentialID
	return r.db.WithContext(ctx).Create(cred).Error
}

func (r *repository) Replace(ctx context.Context, secretHash string, totpSecret string) error {
	res := r.db.WithContext(ctx).Model(&model.AdminCredential{}).
		Where("id = ?", credentialID).
		Updates(map[string]any{
			"secret_hash": secretHash,
			"totp_secret": totpSecret,
			"updated_at":  time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCredentialNotFound
	}
	return nil
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{
		db: db,
	}
}
