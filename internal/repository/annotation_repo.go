package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/123sania456789/MindTrackAI/internal/model"
)

const defaultHistoryPageSize = 100

// AnnotationRepository is the insight store. The pipeline is its only
// writer; rows are never updated.
type AnnotationRepository struct {
	db *gorm.DB
}

func NewAnnotationRepository(db *gorm.DB) *AnnotationRepository {
	return &AnnotationRepository{db: db}
}

func (r *AnnotationRepository) Save(ctx context.Context, ann *model.Annotation) error {
	return r.db.WithContext(ctx).Create(ann).Error
}

// Latest returns the newest annotation of an entry or ErrNotFound.
func (r *AnnotationRepository) Latest(ctx context.Context, entryID int64) (*model.Annotation, error) {
	var ann model.Annotation
	err := r.db.WithContext(ctx).
		Where("entry_id = ?", entryID).
		Order("created_at DESC, id DESC").
		First(&ann).Error
	if err != nil {
		return nil, err
	}
	return &ann, nil
}

func (r *AnnotationRepository) GetByJobID(ctx context.Context, jobID int64) (*model.Annotation, error) {
	var ann model.Annotation
	err := r.db.WithContext(ctx).Where("job_id = ?", jobID).First(&ann).Error
	if err != nil {
		return nil, err
	}
	return &ann, nil
}

func (r *AnnotationRepository) CountByEntry(ctx context.Context, entryID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Annotation{}).Where("entry_id = ?", entryID).Count(&n).Error
	return n, err
}

// History returns a lazy cursor over a user's annotations created in
// [from, to), oldest first. A zero from or to leaves that side open.
func (r *AnnotationRepository) History(userID int64, from, to time.Time) *AnnotationIterator {
	return &AnnotationIterator{
		db:       r.db,
		userID:   userID,
		from:     from,
		to:       to,
		pageSize: defaultHistoryPageSize,
	}
}

// AnnotationIterator pages through annotations by (created_at, id). It
// holds no locks and no transaction between pages.
//
//	it := repo.History(userID, from, to)
//	for it.Next(ctx) {
//		use(it.Annotation())
//	}
//	if err := it.Err(); err != nil { ... }
type AnnotationIterator struct {
	db       *gorm.DB
	userID   int64
	from, to time.Time
	pageSize int

	page     []*model.Annotation
	pos      int
	cur      *model.Annotation
	afterAt  time.Time
	afterID  int64
	started  bool
	finished bool
	err      error
}

// WithPageSize sets how many rows each query fetches.
func (it *AnnotationIterator) WithPageSize(n int) *AnnotationIterator {
	if n > 0 {
		it.pageSize = n
	}
	return it
}

func (it *AnnotationIterator) Next(ctx context.Context) bool {
	if it.err != nil {
		return false
	}
	if it.pos >= len(it.page) {
		if it.finished {
			it.cur = nil
			return false
		}
		if err := it.fetch(ctx); err != nil {
			it.err = err
			return false
		}
		if len(it.page) == 0 {
			it.cur = nil
			return false
		}
	}
	it.cur = it.page[it.pos]
	it.pos++
	it.afterAt, it.afterID = it.cur.CreatedAt, it.cur.ID
	return true
}

func (it *AnnotationIterator) fetch(ctx context.Context) error {
	q := it.db.WithContext(ctx).Where("user_id = ?", it.userID)
	if !it.from.IsZero() {
		q = q.Where("created_at >= ?", it.from)
	}
	if !it.to.IsZero() {
		q = q.Where("created_at < ?", it.to)
	}
	if it.started {
		q = q.Where("(created_at > ? OR (created_at = ? AND id > ?))", it.afterAt, it.afterAt, it.afterID)
	}

	var page []*model.Annotation
	if err := q.Order("created_at ASC, id ASC").Limit(it.pageSize).Find(&page).Error; err != nil {
		return err
	}
	it.started = true
	it.page, it.pos = page, 0
	if len(page) < it.pageSize {
		it.finished = true
	}
	return nil
}

func (it *AnnotationIterator) Annotation() *model.Annotation {
	return it.cur
}

func (it *AnnotationIterator) Err() error {
	return it.err
}

// Reset rewinds the cursor to the beginning of the range.
func (it *AnnotationIterator) Reset() {
	it.page, it.pos, it.cur = nil, 0, nil
	it.afterAt, it.afterID = time.Time{}, 0
	it.started, it.finished = false, false
	it.err = nil
}

// Collect drains the iterator into a slice.
func (it *AnnotationIterator) Collect(ctx context.Context) ([]*model.Annotation, error) {
	var out []*model.Annotation
	for it.Next(ctx) {
		out = append(out, it.Annotation())
	}
	return out, it.Err()
}
