package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"disburse/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRunner struct {
	mock.Mock
	calls atomic.Int32
}

func (m *MockRunner) Run(ctx context.Context) (*models.RunReport, error) {
	m.calls.Add(1)
	args := m.Called(ctx)
	report, _ := args.Get(0).(*models.RunReport)
	return report, args.Error(1)
}

type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) AcquireRunLock(ctx context.Context, ttl time.Duration) (string, bool, error) {
	args := m.Called(ctx, ttl)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockLocker) ReleaseRunLock(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

type MockReportStore struct {
	mock.Mock
}

func (m *MockReportStore) SaveRunReport(ctx context.Context, report *models.RunReport) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func TestScheduler_RunOnce(t *testing.T) {
	report := &models.RunReport{ID: "run-1"}

	tests := []struct {
		name      string
		setupMock func(*MockRunner, *MockLocker, *MockReportStore)
		wantErr   error
		errMsg    string
	}{
		{
			name: "runs under lock and stores report",
			setupMock: func(r *MockRunner, l *MockLocker, s *MockReportStore) {
				l.On("AcquireRunLock", mock.Anything, time.Hour).Return("tok", true, nil)
				r.On("Run", mock.Anything).Return(report, nil)
				s.On("SaveRunReport", mock.Anything, report).Return(nil)
				l.On("ReleaseRunLock", mock.Anything, "tok").Return(nil)
			},
		},
		{
			name: "lock held elsewhere",
			setupMock: func(r *MockRunner, l *MockLocker, s *MockReportStore) {
				l.On("AcquireRunLock", mock.Anything, time.Hour).Return("", false, nil)
			},
			wantErr: ErrRunInProgress,
		},
		{
			name: "lock backend down",
			setupMock: func(r *MockRunner, l *MockLocker, s *MockReportStore) {
				l.On("AcquireRunLock", mock.Anything, time.Hour).Return("", false, errors.New("redis down"))
			},
			errMsg: "redis down",
		},
		{
			name: "run error still stores partial report and releases lock",
			setupMock: func(r *MockRunner, l *MockLocker, s *MockReportStore) {
				l.On("AcquireRunLock", mock.Anything, time.Hour).Return("tok", true, nil)
				r.On("Run", mock.Anything).Return(report, errors.New("listing failed"))
				s.On("SaveRunReport", mock.Anything, report).Return(errors.New("cache full"))
				l.On("ReleaseRunLock", mock.Anything, "tok").Return(nil)
			},
			errMsg: "listing failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner, locker, store := new(MockRunner), new(MockLocker), new(MockReportStore)
			tt.setupMock(runner, locker, store)
			s := New(runner, locker, store, time.Minute, time.Hour, zerolog.Nop())

			got, err := s.RunOnce(context.Background())

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				runner.AssertNotCalled(t, "Run", mock.Anything)
			case tt.errMsg != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			default:
				require.NoError(t, err)
				assert.Equal(t, report, got)
			}
			runner.AssertExpectations(t)
			locker.AssertExpectations(t)
			store.AssertExpectations(t)
		})
	}
}

func TestScheduler_StartRunsImmediatelyAndStops(t *testing.T) {
	runner, locker, store := new(MockRunner), new(MockLocker), new(MockReportStore)
	locker.On("AcquireRunLock", mock.Anything, time.Hour).Return("tok", true, nil)
	locker.On("ReleaseRunLock", mock.Anything, "tok").Return(nil)
	runner.On("Run", mock.Anything).Return(&models.RunReport{ID: "r"}, nil)
	store.On("SaveRunReport", mock.Anything, mock.Anything).Return(nil)

	s := New(runner, locker, store, 10*time.Millisecond, time.Hour, zerolog.Nop())
	s.Start(context.Background())
	s.Start(context.Background())

	assert.Eventually(t, func() bool { return runner.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)

	s.Stop()
	stopped := runner.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, runner.calls.Load())

	s.Stop()
}

func TestNew_PanicsWithoutDependencies(t *testing.T) {
	assert.Panics(t, func() { New(nil, new(MockLocker), new(MockReportStore), time.Minute, time.Hour, zerolog.Nop()) })
}
