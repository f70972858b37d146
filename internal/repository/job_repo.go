package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/123sania456789/MindTrackAI/internal/model"
)

// JobRepository stores analysis jobs. Every state transition is a
// compare-and-swap on the status column, so concurrent workers, the
// recovery sweep and cancellation never overwrite each other.
type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts a queued job. It returns ErrActiveJobExists when the entry
// already has a non-terminal job.
func (r *JobRepository) Create(ctx context.Context, job *model.AnalysisJob) error {
	entryID := job.EntryID
	job.ActiveEntryID = &entryID
	job.Status = model.JobStatusQueued

	err := r.db.WithContext(ctx).Create(job).Error
	if isDuplicateKey(err) {
		return ErrActiveJobExists
	}
	return err
}

func (r *JobRepository) GetByID(ctx context.Context, id int64) (*model.AnalysisJob, error) {
	var job model.AnalysisJob
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// GetActiveByEntry returns the queued or running job of an entry.
func (r *JobRepository) GetActiveByEntry(ctx context.Context, entryID int64) (*model.AnalysisJob, error) {
	var job model.AnalysisJob
	err := r.db.WithContext(ctx).Where("active_entry_id = ?", entryID).First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *JobRepository) GetLatestByEntry(ctx context.Context, entryID int64) (*model.AnalysisJob, error) {
	var job model.AnalysisJob
	err := r.db.WithContext(ctx).Where("entry_id = ?", entryID).Order("id DESC").First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// Claim moves a queued job to running and returns the new claim token.
// ok is false when another worker got there first or the job is no longer
// queued.
func (r *JobRepository) Claim(ctx context.Context, id int64) (token string, ok bool, err error) {
	token = uuid.NewString()
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&model.AnalysisJob{}).
		Where("id = ? AND status = ?", id, model.JobStatusQueued).
		Updates(map[string]interface{}{
			"status":      model.JobStatusRunning,
			"claim_token": token,
			"attempts":    gorm.Expr("attempts + ?", 1),
			"started_at":  now,
		})
	if res.Error != nil {
		return "", false, res.Error
	}
	if res.RowsAffected == 0 {
		return "", false, nil
	}
	return token, true, nil
}

// CompleteSucceeded marks the job succeeded and stores its annotation in
// one transaction. It returns ErrClaimLost, writing nothing, when the job is
// no longer running under token.
func (r *JobRepository) CompleteSucceeded(ctx context.Context, id int64, token string, report model.AdapterReport, elapsed time.Duration, ann *model.Annotation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.AnalysisJob{}).
			Where("id = ? AND status = ? AND claim_token = ?", id, model.JobStatusRunning, token).
			Updates(map[string]interface{}{
				"status":          model.JobStatusSucceeded,
				"active_entry_id": nil,
				"adapter_report":  report,
				"error_message":   "",
				"completed_at":    time.Now(),
				"elapsed_seconds": elapsed.Seconds(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrClaimLost
		}

		ann.JobID = id
		return NewAnnotationRepository(tx).Save(ctx, ann)
	})
}

// MarkFailed moves a running job under token to failed.
func (r *JobRepository) MarkFailed(ctx context.Context, id int64, token string, report model.AdapterReport, elapsed time.Duration, errMsg string) error {
	res := r.db.WithContext(ctx).Model(&model.AnalysisJob{}).
		Where("id = ? AND status = ? AND claim_token = ?", id, model.JobStatusRunning, token).
		Updates(map[string]interface{}{
			"status":          model.JobStatusFailed,
			"active_entry_id": nil,
			"adapter_report":  report,
			"error_message":   errMsg,
			"completed_at":    time.Now(),
			"elapsed_seconds": elapsed.Seconds(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrClaimLost
	}
	return nil
}

// FailQueued fails a job that never reached a worker, e.g. when pushing it
// onto the queue failed.
func (r *JobRepository) FailQueued(ctx context.Context, id int64, errMsg string) error {
	return r.db.WithContext(ctx).Model(&model.AnalysisJob{}).
		Where("id = ? AND status = ?", id, model.JobStatusQueued).
		Updates(map[string]interface{}{
			"status":          model.JobStatusFailed,
			"active_entry_id": nil,
			"error_message":   errMsg,
			"completed_at":    time.Now(),
		}).Error
}

// Cancel moves a queued or running job to cancelled. ok is false when the
// job had already finished.
func (r *JobRepository) Cancel(ctx context.Context, id int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.AnalysisJob{}).
		Where("id = ? AND status IN ?", id, []string{model.JobStatusQueued, model.JobStatusRunning}).
		Updates(cancelFields())
	return res.RowsAffected > 0, res.Error
}

// CancelByEntry cancels the active job of an entry, if any.
func (r *JobRepository) CancelByEntry(ctx context.Context, entryID int64) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.AnalysisJob{}).
		Where("active_entry_id = ?", entryID).
		Updates(cancelFields())
	return res.RowsAffected, res.Error
}

func cancelFields() map[string]interface{} {
	return map[string]interface{}{
		"status":          model.JobStatusCancelled,
		"active_entry_id": nil,
		"claim_token":     "",
		"completed_at":    time.Now(),
	}
}

// ListStale returns running jobs claimed before cutoff, oldest first.
func (r *JobRepository) ListStale(ctx context.Context, cutoff time.Time, limit int) ([]*model.AnalysisJob, error) {
	var jobs []*model.AnalysisJob
	err := r.db.WithContext(ctx).
		Where("status = ? AND started_at < ?", model.JobStatusRunning, cutoff).
		Order("started_at ASC").
		Limit(limit).
		Find(&jobs).Error
	return jobs, err
}

// RequeueStale moves a stale running job back to queued. Only one caller
// can win for a given claim, and only the winner should push the job.
func (r *JobRepository) RequeueStale(ctx context.Context, id int64, cutoff time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.AnalysisJob{}).
		Where("id = ? AND status = ? AND started_at < ?", id, model.JobStatusRunning, cutoff).
		Updates(map[string]interface{}{
			"status":       model.JobStatusQueued,
			"claim_token":  "",
			"started_at":   nil,
			"queued_at":    time.Now(),
			"redeliveries": gorm.Expr("redeliveries + ?", 1),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// queuedSince is when a queued job last went onto the queue.
const queuedSince = "COALESCE(queued_at, created_at)"

// ListStaleQueued returns jobs queued since before cutoff, oldest first.
func (r *JobRepository) ListStaleQueued(ctx context.Context, cutoff time.Time, limit int) ([]*model.AnalysisJob, error) {
	var jobs []*model.AnalysisJob
	err := r.db.WithContext(ctx).
		Where("status = ? AND "+queuedSince+" < ?", model.JobStatusQueued, cutoff).
		Order(queuedSince + " ASC").
		Limit(limit).
		Find(&jobs).Error
	return jobs, err
}

// RequeueQueued restarts the queue wait of a stale queued job. Like
// RequeueStale only one caller wins and only the winner should push.
func (r *JobRepository) RequeueQueued(ctx context.Context, id int64, cutoff time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.AnalysisJob{}).
		Where("id = ? AND status = ? AND "+queuedSince+" < ?", id, model.JobStatusQueued, cutoff).
		Updates(map[string]interface{}{
			"queued_at":    time.Now(),
			"redeliveries": gorm.Expr("redeliveries + ?", 1),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// PurgeTerminal deletes finished jobs completed before cutoff. Annotations
// are kept.
func (r *JobRepository) PurgeTerminal(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("status IN ? AND completed_at < ?",
			[]string{model.JobStatusSucceeded, model.JobStatusFailed, model.JobStatusCancelled}, cutoff).
		Delete(&model.AnalysisJob{})
	return res.RowsAffected, res.Error
}

// CountByStatus returns the number of jobs per status.
func (r *JobRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&model.AnalysisJob{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
