package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"hostel-backend/internal/config"
	"hostel-backend/internal/services"
)

type MockJobs struct {
	mock.Mock
}

func (m *MockJobs) result(args mock.Arguments) (*services.JobResult, error) {
	res, _ := args.Get(0).(*services.JobResult)
	return res, args.Error(1)
}

func (m *MockJobs) RefreshOverdueStatuses(ctx context.Context) (*services.JobResult, error) {
	return m.result(m.Called(ctx))
}

func (m *MockJobs) GenerateDueRecords(ctx context.Context) (*services.JobResult, error) {
	return m.result(m.Called(ctx))
}

func (m *MockJobs) BackfillMissingRecords(ctx context.Context) (*services.JobResult, error) {
	return m.result(m.Called(ctx))
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Scheduler.Timezone = "Asia/Kolkata"
	cfg.Scheduler.RefreshSpec = "0 0 * * *"
	cfg.Scheduler.GenerateSpec = "5 0 * * *"
	cfg.Scheduler.BackfillSpec = "10 0 * * *"
	return cfg
}

func TestNewRegistersThreeEntries(t *testing.T) {
	s, err := New(testConfig(), &MockJobs{}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 3, s.Entries())
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Scheduler.GenerateSpec = "every day"
	_, err := New(cfg, &MockJobs{}, zap.NewNop())
	assert.Error(t, err)

	cfg = testConfig()
	cfg.Scheduler.Timezone = "Mars/Olympus"
	_, err = New(cfg, &MockJobs{}, zap.NewNop())
	assert.Error(t, err)
}

func TestRunNowRunsEveryJob(t *testing.T) {
	jobs := &MockJobs{}
	boom := errors.New("db down")
	jobs.On("RefreshOverdueStatuses", mock.Anything).Return(&services.JobResult{Job: services.JobRefreshOverdue}, nil).Once()
	jobs.On("GenerateDueRecords", mock.Anything).Return(&services.JobResult{Job: services.JobGenerateDue}, boom).Once()
	jobs.On("BackfillMissingRecords", mock.Anything).Return(&services.JobResult{Job: services.JobBackfill, Created: 2}, nil).Once()

	s, err := New(testConfig(), jobs, zap.NewNop())
	require.NoError(t, err)

	results, err := s.RunNow(context.Background())
	assert.ErrorIs(t, err, boom)
	require.Len(t, results, 3)
	assert.Equal(t, services.JobBackfill, results[2].Job)
	assert.Equal(t, 2, results[2].Created)
	jobs.AssertExpectations(t)
}

func TestScheduledRunSurvivesFailure(t *testing.T) {
	jobs := &MockJobs{}
	jobs.On("RefreshOverdueStatuses", mock.Anything).Return(nil, errors.New("timeout")).Once()

	s, err := New(testConfig(), jobs, zap.NewNop())
	require.NoError(t, err)
	assert.NotPanics(t, func() { s.run(services.JobRefreshOverdue, jobs.RefreshOverdueStatuses) })
	jobs.AssertExpectations(t)
}

func TestStartStop(t *testing.T) {
	s, err := New(testConfig(), &MockJobs{}, zap.NewNop())
	require.NoError(t, err)

	s.Start()
	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	require.NoError(t, s.Stop(ctx))
}
