package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrNotFound aliases gorm's sentinel so callers need not import gorm.
	ErrNotFound = gorm.ErrRecordNotFound

	// ErrActiveJobExists means the entry already has a queued or running job.
	ErrActiveJobExists = errors.New("entry already has an active analysis job")

	// ErrClaimLost means the job left the state the caller claimed it in,
	// because it was cancelled or requeued in the meantime.
	ErrClaimLost = errors.New("job claim lost")

	ErrEntrySuperseded = errors.New("journal entry already has a newer version")
)

func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	// sqlite and mysql wording when error translation is off
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "Duplicate entry")
}
