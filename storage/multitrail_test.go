package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ruteri/aml-oracle-backend/audit"
)

// MockTrailBackend implements TrailBackend for testing
type MockTrailBackend struct {
	mock.Mock
	name string
}

func (m *MockTrailBackend) Append(ctx context.Context, ev audit.Event) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

func (m *MockTrailBackend) Available(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

func (m *MockTrailBackend) Name() string {
	return m.name
}

func (m *MockTrailBackend) LocationURI() string {
	return "mock:"
}

func testEvent() audit.Event {
	return audit.New(audit.KindDeposited, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC), common.HexToAddress("0x01"))
}

func TestMultiTrailBackend_Available(t *testing.T) {
	tests := []struct {
		name     string
		backends []bool
		expected bool
	}{
		{
			name:     "all backends available",
			backends: []bool{true, true, true},
			expected: true,
		},
		{
			name:     "some backends available",
			backends: []bool{false, true, false},
			expected: true,
		},
		{
			name:     "no backends available",
			backends: []bool{false, false, false},
			expected: false,
		},
		{
			name:     "no backends",
			backends: []bool{},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var backends []TrailBackend
			for i, available := range tt.backends {
				mockTrail := &MockTrailBackend{name: fmt.Sprintf("mock-A%x", i)}
				mockTrail.On("Available", mock.Anything).Return(available).Maybe()
				backends = append(backends, mockTrail)
			}

			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			multi := NewMultiTrailBackend(backends, logger)

			result := multi.Available(context.Background())
			assert.Equal(t, tt.expected, result)

			for _, backend := range backends {
				mockTrail := backend.(*MockTrailBackend)
				mockTrail.AssertExpectations(t)
			}
		})
	}
}

func TestMultiTrailBackend_Append(t *testing.T) {
	ev := testEvent()
	testErr := errors.New("test error")

	tests := []struct {
		name          string
		setupMocks    func() []TrailBackend
		expectedError bool
	}{
		{
			name: "all backends successful",
			setupMocks: func() []TrailBackend {
				mock1 := &MockTrailBackend{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(true)
				mock1.On("Append", mock.Anything, ev).Return(nil)

				mock2 := &MockTrailBackend{name: "mock-B"}
				mock2.On("Available", mock.Anything).Return(true)
				mock2.On("Append", mock.Anything, ev).Return(nil)

				return []TrailBackend{mock1, mock2}
			},
			expectedError: false,
		},
		{
			name: "some backends fail",
			setupMocks: func() []TrailBackend {
				mock1 := &MockTrailBackend{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(true)
				mock1.On("Append", mock.Anything, ev).Return(nil)

				mock2 := &MockTrailBackend{name: "mock-B"}
				mock2.On("Available", mock.Anything).Return(true)
				mock2.On("Append", mock.Anything, ev).Return(testErr)

				return []TrailBackend{mock1, mock2}
			},
			expectedError: false,
		},
		{
			name: "all backends fail",
			setupMocks: func() []TrailBackend {
				mock1 := &MockTrailBackend{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(true)
				mock1.On("Append", mock.Anything, ev).Return(testErr)

				mock2 := &MockTrailBackend{name: "mock-B"}
				mock2.On("Available", mock.Anything).Return(true)
				mock2.On("Append", mock.Anything, ev).Return(testErr)

				return []TrailBackend{mock1, mock2}
			},
			expectedError: true,
		},
		{
			name: "unavailable backends are skipped",
			setupMocks: func() []TrailBackend {
				mock1 := &MockTrailBackend{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(false)
				// Append should not be called

				mock2 := &MockTrailBackend{name: "mock-B"}
				mock2.On("Available", mock.Anything).Return(true)
				mock2.On("Append", mock.Anything, ev).Return(nil)

				return []TrailBackend{mock1, mock2}
			},
			expectedError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backends := tt.setupMocks()
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			multi := NewMultiTrailBackend(backends, logger)

			err := multi.Append(context.Background(), ev)

			if tt.expectedError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			for _, backend := range backends {
				mockTrail := backend.(*MockTrailBackend)
				mockTrail.AssertExpectations(t)
			}
		})
	}
}
