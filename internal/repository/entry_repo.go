package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/123sania456789/MindTrackAI/internal/model"
)

type EntryRepository struct {
	db *gorm.DB
}

func NewEntryRepository(db *gorm.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

func (r *EntryRepository) Create(ctx context.Context, entry *model.JournalEntry) error {
	if entry.Version == 0 {
		entry.Version = 1
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

// GetByID returns an entry unless it was deleted.
func (r *EntryRepository) GetByID(ctx context.Context, id int64) (*model.JournalEntry, error) {
	var entry model.JournalEntry
	err := r.db.WithContext(ctx).Where("id = ? AND deleted = ?", id, false).First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListByUser pages through the current version of each entry, newest first.
func (r *EntryRepository) ListByUser(ctx context.Context, userID int64, page, pageSize int) ([]*model.JournalEntry, int64, error) {
	var entries []*model.JournalEntry
	var total int64

	query := r.db.WithContext(ctx).Model(&model.JournalEntry{}).
		Where("user_id = ? AND superseded = ? AND deleted = ?", userID, false, false)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := query.Order("created_at DESC, id DESC").Offset(offset).Limit(pageSize).Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

// CountByUser counts current, undeleted entries created in [from, to).
// Zero bounds are open.
func (r *EntryRepository) CountByUser(ctx context.Context, userID int64, from, to time.Time) (int64, error) {
	query := r.db.WithContext(ctx).Model(&model.JournalEntry{}).
		Where("user_id = ? AND superseded = ? AND deleted = ?", userID, false, false)
	if !from.IsZero() {
		query = query.Where("created_at >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("created_at < ?", to)
	}

	var n int64
	err := query.Count(&n).Error
	return n, err
}

// CreateVersion stores next as the successor of prev. The previous row is
// only flagged superseded; its content never changes. ErrEntrySuperseded is
// returned if prev already has a successor.
func (r *EntryRepository) CreateVersion(ctx context.Context, prev, next *model.JournalEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.JournalEntry{}).
			Where("id = ? AND superseded = ? AND deleted = ?", prev.ID, false, false).
			Update("superseded", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrEntrySuperseded
		}

		parentID := prev.ID
		next.ID = 0
		next.UserID = prev.UserID
		next.ParentID = &parentID
		next.Version = prev.Version + 1
		return tx.Create(next).Error
	})
}

// Versions returns the chain ending at id, oldest first.
func (r *EntryRepository) Versions(ctx context.Context, id int64) ([]*model.JournalEntry, error) {
	var chain []*model.JournalEntry
	next := &id
	for next != nil {
		var entry model.JournalEntry
		if err := r.db.WithContext(ctx).Where("id = ?", *next).First(&entry).Error; err != nil {
			return nil, err
		}
		chain = append([]*model.JournalEntry{&entry}, chain...)
		next = entry.ParentID
	}
	return chain, nil
}

func (r *EntryRepository) MarkDeleted(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Model(&model.JournalEntry{}).
		Where("id = ?", id).
		Update("deleted", true).Error
}
