package repository

import (
	"context"

	"wellbeing_dashboard/internal/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type ExportRepository struct {
	DB *gorm.DB
}

func NewExportRepository(db *gorm.DB) *ExportRepository {
	return &ExportRepository{DB: db}
}

func (r *ExportRepository) Create(ctx context.Context, record *model.ExportRecord) error {
	return errors.Wrap(r.DB.WithContext(ctx).Create(record).Error, "create export record")
}

func (r *ExportRepository) ListBySession(ctx context.Context, sessionID, userID string) ([]model.ExportRecord, error) {
	var records []model.ExportRecord
	err := r.DB.WithContext(ctx).
		Where("session_id = ? AND user_id = ?", sessionID, userID).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, errors.Wrapf(err, "list exports of session %s", sessionID)
	}
	return records, nil
}
