package service

import (
	"context"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/roster-booking-api/internal/dto"
	"github.com/noah-isme/roster-booking-api/internal/models"
	appErrors "github.com/noah-isme/roster-booking-api/pkg/errors"
)

type activityWriterStub struct {
	created []models.Activity
	exists  map[int64]bool
}

func (s *activityWriterStub) Create(ctx context.Context, activity *models.Activity) error {
	activity.ID = int64(len(s.created) + 1)
	s.created = append(s.created, *activity)
	return nil
}

func (s *activityWriterStub) Delete(ctx context.Context, id int64) (bool, error) {
	if s.exists[id] {
		delete(s.exists, id)
		return true, nil
	}
	return false, nil
}

func TestActivityCreate(t *testing.T) {
	store := &activityWriterStub{}
	svc := NewActivityService(store, nil, nil)
	start := time.Date(2026, 4, 10, 17, 0, 0, 0, time.UTC)

	activity, err := svc.Create(context.Background(), dto.CreateActivityRequest{
		Name: "Recital", StartAt: start, EndAt: start.Add(2 * time.Hour), Capacity: 10, EligibleLevelIDs: []int64{2, 3, 2},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), activity.ID)
	assert.Equal(t, pq.Int64Array{2, 3}, activity.EligibleLevelIDs)

	_, err = svc.Create(context.Background(), dto.CreateActivityRequest{Name: "Backwards", StartAt: start, EndAt: start.Add(-time.Hour)})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestActivityDelete(t *testing.T) {
	svc := NewActivityService(&activityWriterStub{exists: map[int64]bool{4: true}}, nil, nil)

	removed, err := svc.Delete(context.Background(), 4)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = svc.Delete(context.Background(), 4)
	require.NoError(t, err)
	assert.False(t, removed)
}
