package repository

import (
	"context"
	"time"

	"wellbeing_dashboard/internal/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type DashboardSessionRepository struct {
	DB *gorm.DB
}

func NewDashboardSessionRepository(db *gorm.DB) *DashboardSessionRepository {
	return &DashboardSessionRepository{DB: db}
}

func (r *DashboardSessionRepository) Create(ctx context.Context, session *model.DashboardSession) error {
	return errors.Wrap(r.DB.WithContext(ctx).Create(session).Error, "create dashboard session")
}

// SaveState writes the navigation snapshot without touching ownership columns.
func (r *DashboardSessionRepository) SaveState(ctx context.Context, id string, state model.NavigationState, pendingDeepLink string) error {
	snapshot := model.DashboardSession{}
	snapshot.Apply(state)
	err := r.DB.WithContext(ctx).Model(&model.DashboardSession{}).
		Where("id = ?", id).
		Select("scope", "school_id", "class_name", "student_id", "filters", "pending_deep_link", "last_active_at").
		Updates(&model.DashboardSession{
			Scope:           snapshot.Scope,
			SchoolID:        snapshot.SchoolID,
			ClassName:       snapshot.ClassName,
			StudentID:       snapshot.StudentID,
			Filters:         snapshot.Filters,
			PendingDeepLink: pendingDeepLink,
			LastActiveAt:    time.Now(),
		}).Error
	return errors.Wrapf(err, "save dashboard session %s", id)
}

func (r *DashboardSessionRepository) Touch(ctx context.Context, id string) error {
	err := r.DB.WithContext(ctx).Model(&model.DashboardSession{}).
		Where("id = ?", id).
		Update("last_active_at", time.Now()).Error
	return errors.Wrapf(err, "touch dashboard session %s", id)
}

// FindByIDAndUserID returns gorm.ErrRecordNotFound (wrapped) for sessions
// owned by someone else.
func (r *DashboardSessionRepository) FindByIDAndUserID(ctx context.Context, id, userID string) (*model.DashboardSession, error) {
	var session model.DashboardSession
	err := r.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&session).Error
	if err != nil {
		return nil, errors.Wrapf(err, "find dashboard session %s", id)
	}
	return &session, nil
}

func (r *DashboardSessionRepository) Delete(ctx context.Context, id, userID string) error {
	res := r.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&model.DashboardSession{})
	if res.Error != nil {
		return errors.Wrapf(res.Error, "delete dashboard session %s", id)
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(gorm.ErrRecordNotFound, "delete dashboard session %s", id)
	}
	return nil
}

// PurgeInactive removes sessions idle since before cutoff.
func (r *DashboardSessionRepository) PurgeInactive(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).Where("last_active_at < ?", cutoff).Delete(&model.DashboardSession{})
	return res.RowsAffected, errors.Wrap(res.Error, "purge inactive dashboard sessions")
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
