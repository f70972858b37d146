package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/123sania456789/MindTrackAI/internal/model"
)

type MoodRepository struct {
	db *gorm.DB
}

func NewMoodRepository(db *gorm.DB) *MoodRepository {
	return &MoodRepository{db: db}
}

func (r *MoodRepository) Create(ctx context.Context, mood *model.MoodEntry) error {
	return r.db.WithContext(ctx).Create(mood).Error
}

func (r *MoodRepository) ListByUser(ctx context.Context, userID int64, page, pageSize int) ([]*model.MoodEntry, int64, error) {
	var moods []*model.MoodEntry
	var total int64

	query := r.db.WithContext(ctx).Model(&model.MoodEntry{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := query.Order("created_at DESC, id DESC").Offset(offset).Limit(pageSize).Find(&moods).Error; err != nil {
		return nil, 0, err
	}
	return moods, total, nil
}

// AverageScore returns the mean mood score in [from, to) and how many
// check-ins it covers. Zero bounds are open.
func (r *MoodRepository) AverageScore(ctx context.Context, userID int64, from, to time.Time) (float64, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.MoodEntry{}).Where("user_id = ?", userID)
	if !from.IsZero() {
		query = query.Where("created_at >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("created_at < ?", to)
	}

	var row struct {
		Avg   *float64
		Count int64
	}
	if err := query.Select("AVG(mood_score) AS avg, COUNT(*) AS count").Scan(&row).Error; err != nil {
		return 0, 0, err
	}
	if row.Avg == nil {
		return 0, row.Count, nil
	}
	return *row.Avg, row.Count, nil
}
