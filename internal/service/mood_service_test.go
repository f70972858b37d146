package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/123sania456789/MindTrackAI/internal/model/dto"
	"github.com/123sania456789/MindTrackAI/internal/repository"
	"github.com/123sania456789/MindTrackAI/internal/testutil"
)

func TestMoodService(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	svc := NewMoodService(repository.NewMoodRepository(db), repository.NewUserRepository(db))
	ctx := context.Background()

	sleep := 6.5
	item, err := svc.Create(ctx, 3, &dto.CreateMoodRequest{
		MoodScore:  7,
		MoodLabel:  "content",
		Activities: []string{"yoga"},
		SleepHours: &sleep,
	})
	require.NoError(t, err)
	assert.NotZero(t, item.ID)
	assert.Equal(t, []string{"yoga"}, item.Activities)

	_, err = svc.Create(ctx, 3, &dto.CreateMoodRequest{MoodScore: 4})
	require.NoError(t, err)

	items, total, err := svc.List(ctx, 3, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, items, 2)

	items, total, err = svc.List(ctx, 4, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)
}
