package scheduler

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cchai186/commodity-price-tracker/internal/logging"
	"github.com/cchai186/commodity-price-tracker/internal/models"
	"github.com/cchai186/commodity-price-tracker/internal/pipeline"
)

type fakeDispatcher struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeDispatcher) Dispatch(trigger, requestedBy string) (*models.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, trigger)
	if f.err != nil {
		return nil, f.err
	}
	return &models.Run{ID: "run-1", Trigger: trigger, RequestedBy: requestedBy}, nil
}

func (f *fakeDispatcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestNewRejectsInvalidExpression(t *testing.T) {
	_, err := New("not a cron spec", &fakeDispatcher{}, logging.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cron expression")
}

func TestNextHonorsWeeklySpec(t *testing.T) {
	// Mondays at 06:00.
	s, err := New("0 6 * * 1", &fakeDispatcher{}, logging.NewNop())
	require.NoError(t, err)

	next := s.Next()
	assert.Equal(t, time.Monday, next.Weekday())
	assert.Equal(t, 6, next.Hour())
	assert.Equal(t, 0, next.Minute())
	assert.True(t, next.After(time.Now()))
}

func TestFireDispatchesScheduledTrigger(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	s, err := New("* * * * *", dispatcher, logging.NewNop())
	require.NoError(t, err)

	s.fire()

	require.Equal(t, 1, dispatcher.callCount())
	assert.Equal(t, models.TriggerScheduled, dispatcher.calls[0])
}

func TestFireSkipsWhenRunInProgress(t *testing.T) {
	dispatcher := &fakeDispatcher{err: pipeline.ErrRunInProgress}
	s, err := New("* * * * *", dispatcher, logging.NewNop())
	require.NoError(t, err)

	// Must not panic or retry; the tick is simply dropped.
	s.fire()
	s.fire()

	assert.Equal(t, 2, dispatcher.callCount())
}
