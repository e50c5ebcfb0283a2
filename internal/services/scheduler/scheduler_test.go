package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockSweeper struct {
	mock.Mock
}

func (m *MockSweeper) SweepExpirations(ctx context.Context, now time.Time) (int, error) {
	args := m.Called(ctx, now)
	return args.Int(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestService_RunSweep(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(*MockSweeper)
	}{
		{
			name: "success - expired subscriptions found",
			setupMocks: func(s *MockSweeper) {
				s.On("SweepExpirations", mock.Anything, mock.AnythingOfType("time.Time")).
					Return(2, nil).Once()
			},
		},
		{
			name: "success - nothing to expire",
			setupMocks: func(s *MockSweeper) {
				s.On("SweepExpirations", mock.Anything, mock.AnythingOfType("time.Time")).
					Return(0, nil).Once()
			},
		},
		{
			name: "sweep error is logged, not returned",
			setupMocks: func(s *MockSweeper) {
				s.On("SweepExpirations", mock.Anything, mock.AnythingOfType("time.Time")).
					Return(0, errors.New("db error")).Once()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sweeper := new(MockSweeper)
			service := New(sweeper, newNoopLogger(), time.Minute)

			tt.setupMocks(sweeper)

			service.RunSweep(context.Background())

			sweeper.AssertExpectations(t)
		})
	}
}

func TestService_StartStop(t *testing.T) {
	sweeper := new(MockSweeper)
	// Интервал больше длительности теста: сработает только немедленный запуск
	service := New(sweeper, newNoopLogger(), time.Hour)

	sweeper.On("SweepExpirations", mock.Anything, mock.AnythingOfType("time.Time")).
		Return(0, nil).Once()

	err := service.Start(context.Background())
	assert.NoError(t, err)

	service.Stop()

	sweeper.AssertExpectations(t)
}
