package service

import (
	"errors"
	"fmt"

	"github.com/123sania456789/MindTrackAI/internal/nlp"
)

var (
	// ErrInvalidInput is returned for text with nothing to analyze. It is
	// the pipeline's sentinel so errors.Is works across layers.
	ErrInvalidInput = nlp.ErrInvalidInput

	ErrEntryNotFound   = errors.New("journal entry not found")
	ErrEntryPermission = errors.New("no permission for this journal entry")
	ErrEntryEdited     = errors.New("journal entry was edited concurrently")
	ErrJobNotFound     = errors.New("analysis job not found")
	ErrJobPermission   = errors.New("no permission for this analysis job")
	ErrJobFinished     = errors.New("analysis job already finished")
	ErrInvalidRange    = errors.New("invalid time range")

	// ErrAnalysisUnavailable means no adapter produced a usable result.
	ErrAnalysisUnavailable = errors.New("analysis unavailable")

	ErrTaskNotFound   = errors.New("task not found")
	ErrTaskPermission = errors.New("no permission for this task")
	ErrTaskCompleted  = errors.New("task already completed")
	ErrGoalNotFound   = errors.New("goal not found")
	ErrGoalPermission = errors.New("no permission for this goal")
	ErrGoalAbandoned  = errors.New("goal was abandoned")
)

// DuplicateActiveJobError means the entry already has a queued or running
// job. Callers may treat it as success and follow JobID.
type DuplicateActiveJobError struct {
	EntryID int64
	JobID   int64
}

func (e *DuplicateActiveJobError) Error() string {
	return fmt.Sprintf("entry %d already has active analysis job %d", e.EntryID, e.JobID)
}
