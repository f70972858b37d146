package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"github.com/123sania456789/MindTrackAI/internal/model"
	"github.com/123sania456789/MindTrackAI/internal/model/dto"
	"github.com/123sania456789/MindTrackAI/internal/repository"
	"github.com/123sania456789/MindTrackAI/internal/testutil"
)

func setupJournalService(t *testing.T) (*JournalService, *gorm.DB, *fakeQueue) {
	t.Helper()

	analysis, db, q, _ := setupAnalysisService(t)
	svc := NewJournalService(
		repository.NewEntryRepository(db),
		repository.NewUserRepository(db),
		analysis,
		zaptest.NewLogger(t),
	)
	return svc, db, q
}

func strPtr(s string) *string { return &s }

func TestJournalService_Create(t *testing.T) {
	svc, db, q := setupJournalService(t)
	ctx := context.Background()

	resp, err := svc.Create(ctx, 77, &dto.CreateEntryRequest{
		Title:   "Tuesday",
		Content: "Had a tense meeting at work but dinner with friends helped.",
		Tags:    []string{"work"},
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Entry)
	assert.Equal(t, 1, resp.Entry.Version)
	assert.NotZero(t, resp.JobID)

	msgs := q.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, resp.Entry.ID, msgs[0].EntryID)
	assert.Equal(t, int64(77), msgs[0].UserID)

	// first write creates the owner row
	var user model.User
	require.NoError(t, db.First(&user, 77).Error)
}

func TestJournalService_Create_BlankContent(t *testing.T) {
	svc, db, q := setupJournalService(t)

	for _, content := range []string{"   ", "<p></p>", "<br/>", "!!! ???"} {
		_, err := svc.Create(context.Background(), 1, &dto.CreateEntryRequest{Content: content})
		assert.ErrorIs(t, err, ErrInvalidInput, "content %q", content)
	}
	assert.Empty(t, q.messages())

	var entries, jobs int64
	require.NoError(t, db.Model(&model.JournalEntry{}).Count(&entries).Error)
	require.NoError(t, db.Model(&model.AnalysisJob{}).Count(&jobs).Error)
	assert.Zero(t, entries)
	assert.Zero(t, jobs)
}

func TestJournalService_Create_QueueDown(t *testing.T) {
	svc, _, q := setupJournalService(t)
	q.fail = true

	resp, err := svc.Create(context.Background(), 1, &dto.CreateEntryRequest{Content: "still saved"})
	require.NoError(t, err)
	assert.NotZero(t, resp.Entry.ID)
	assert.Zero(t, resp.JobID)
}

func TestJournalService_Get(t *testing.T) {
	svc, db, _ := setupJournalService(t)
	ctx := context.Background()
	user := testutil.TestUser(t, db)
	other := testutil.TestUser(t, db)
	entry := testutil.TestEntry(t, db, user.ID)

	detail, err := svc.Get(ctx, user.ID, entry.ID)
	require.NoError(t, err)
	assert.Nil(t, detail.Analysis)
	assert.Empty(t, detail.JobStatus)

	job := testutil.TestJob(t, db, entry, model.JobStatusSucceeded)
	testutil.TestAnnotation(t, db, job)

	detail, err = svc.Get(ctx, user.ID, entry.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.Analysis)
	assert.Equal(t, job.ID, detail.Analysis.JobID)
	assert.Equal(t, model.JobStatusSucceeded, detail.JobStatus)

	_, err = svc.Get(ctx, other.ID, entry.ID)
	assert.ErrorIs(t, err, ErrEntryPermission)

	_, err = svc.Get(ctx, user.ID, 9999)
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestJournalService_Update(t *testing.T) {
	svc, db, q := setupJournalService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, 5, &dto.CreateEntryRequest{Title: "Draft", Content: "first thoughts"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, 5, created.Entry.ID, &dto.UpdateEntryRequest{Content: strPtr("second thoughts")})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Entry.Version)
	assert.Equal(t, "Draft", updated.Entry.Title)
	assert.Equal(t, "second thoughts", updated.Entry.Content)
	require.NotNil(t, updated.Entry.ParentID)
	assert.Equal(t, created.Entry.ID, *updated.Entry.ParentID)
	assert.NotEqual(t, created.JobID, updated.JobID)

	var oldJob model.AnalysisJob
	require.NoError(t, db.First(&oldJob, created.JobID).Error)
	assert.Equal(t, model.JobStatusCancelled, oldJob.Status)

	assert.Len(t, q.messages(), 2)

	_, err = svc.Update(ctx, 5, created.Entry.ID, &dto.UpdateEntryRequest{Title: strPtr("late")})
	assert.ErrorIs(t, err, ErrEntryEdited)

	_, err = svc.Update(ctx, 5, updated.Entry.ID, &dto.UpdateEntryRequest{Content: strPtr(" ")})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Update(ctx, 5, updated.Entry.ID, &dto.UpdateEntryRequest{Content: strPtr("<p></p>")})
	assert.ErrorIs(t, err, ErrInvalidInput)

	versions, err := svc.Versions(ctx, 5, updated.Entry.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 1, versions[0].Version)
	assert.Equal(t, 2, versions[1].Version)
}

func TestJournalService_Delete(t *testing.T) {
	svc, db, _ := setupJournalService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, 9, &dto.CreateEntryRequest{Content: "delete me"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, 10, created.Entry.ID), ErrEntryPermission)
	require.NoError(t, svc.Delete(ctx, 9, created.Entry.ID))

	var job model.AnalysisJob
	require.NoError(t, db.First(&job, created.JobID).Error)
	assert.Equal(t, model.JobStatusCancelled, job.Status)

	_, err = svc.Get(ctx, 9, created.Entry.ID)
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestJournalService_List(t *testing.T) {
	svc, db, _ := setupJournalService(t)
	ctx := context.Background()
	user := testutil.TestUser(t, db)

	for i := 0; i < 3; i++ {
		testutil.TestEntry(t, db, user.ID)
		time.Sleep(time.Millisecond)
	}

	items, total, err := svc.List(ctx, user.ID, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, items, 2)
}
