package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/123sania456789/MindTrackAI/internal/model"
	"github.com/123sania456789/MindTrackAI/internal/testutil"
)

func TestEntryRepository_CreateAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewEntryRepository(db)
	ctx := context.Background()
	user := testutil.TestUser(t, db)

	entry := &model.JournalEntry{
		UserID:  user.ID,
		Title:   "Monday",
		Content: "Long walk by the river, felt calm.",
		Tags:    model.StringArray{"walk", "outdoors"},
	}
	require.NoError(t, repo.Create(ctx, entry))
	assert.Equal(t, 1, entry.Version)

	found, err := repo.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.Content, found.Content)
	assert.Equal(t, model.StringArray{"walk", "outdoors"}, found.Tags)

	require.NoError(t, repo.MarkDeleted(ctx, entry.ID))
	_, err = repo.GetByID(ctx, entry.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEntryRepository_CreateVersion(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewEntryRepository(db)
	ctx := context.Background()
	user := testutil.TestUser(t, db)
	original := testutil.TestEntry(t, db, user.ID)

	next := &model.JournalEntry{Title: original.Title, Content: "Actually it was a rough day."}
	require.NoError(t, repo.CreateVersion(ctx, original, next))
	assert.NotEqual(t, original.ID, next.ID)
	assert.Equal(t, 2, next.Version)
	require.NotNil(t, next.ParentID)
	assert.Equal(t, original.ID, *next.ParentID)
	assert.Equal(t, user.ID, next.UserID)

	// the old row keeps its text
	old, err := repo.GetByID(ctx, original.ID)
	require.NoError(t, err)
	assert.True(t, old.Superseded)
	assert.Equal(t, "I feel great and hopeful today", old.Content)

	again := &model.JournalEntry{Content: "conflicting edit"}
	assert.ErrorIs(t, repo.CreateVersion(ctx, original, again), ErrEntrySuperseded)

	chain, err := repo.Versions(ctx, next.ID)
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, original.ID, chain[0].ID)
	assert.Equal(t, next.ID, chain[1].ID)
}

func TestEntryRepository_ListByUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewEntryRepository(db)
	ctx := context.Background()
	user := testutil.TestUser(t, db)
	other := testutil.TestUser(t, db)

	first := testutil.TestEntry(t, db, user.ID)
	testutil.TestEntry(t, db, user.ID)
	deleted := testutil.TestEntry(t, db, user.ID)
	testutil.TestEntry(t, db, other.ID)

	require.NoError(t, repo.CreateVersion(ctx, first, &model.JournalEntry{Content: "edited"}))
	require.NoError(t, repo.MarkDeleted(ctx, deleted.ID))

	entries, total, err := repo.ListByUser(ctx, user.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.False(t, e.Superseded)
		assert.NotEqual(t, deleted.ID, e.ID)
	}

	entries, total, err = repo.ListByUser(ctx, user.ID, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, entries, 1)
}
