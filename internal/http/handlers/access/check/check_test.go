package check

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	accesspolicy "github.com/magabrotheeeer/premium-access/internal/access"
	"github.com/magabrotheeeer/premium-access/internal/http/middlewarectx"
	"github.com/magabrotheeeer/premium-access/internal/models"
	"github.com/magabrotheeeer/premium-access/internal/services/access"
	"github.com/magabrotheeeer/premium-access/internal/storage/repository"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Check(ctx context.Context, uid string, now time.Time) (*access.CheckResult, error) {
	args := m.Called(ctx, uid, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*access.CheckResult), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCheckHandler(t *testing.T) {
	tests := []struct {
		name            string
		uid             string
		mockSetup       func(m *ServiceMock)
		expectedStatus  int
		expectedAllowed *bool
	}{
		{
			name: "trial grants access",
			uid:  "acc-1",
			mockSetup: func(m *ServiceMock) {
				m.On("Check", mock.Anything, "acc-1", mock.Anything).
					Return(&access.CheckResult{
						Decision:     accesspolicy.DecisionTrial,
						Status:       models.StatusTrial,
						TrialMessage: "trial active until 2025-06-03T12:00:00Z",
					}, nil)
			},
			expectedStatus:  http.StatusOK,
			expectedAllowed: ptr(true),
		},
		{
			name: "expired trial locks",
			uid:  "acc-2",
			mockSetup: func(m *ServiceMock) {
				m.On("Check", mock.Anything, "acc-2", mock.Anything).
					Return(&access.CheckResult{
						Decision:     accesspolicy.DecisionLocked,
						Status:       models.StatusTrialEnded,
						TrialMessage: "trial expired",
					}, nil)
			},
			expectedStatus:  http.StatusOK,
			expectedAllowed: ptr(false),
		},
		{
			name:           "missing identity",
			uid:            "",
			mockSetup:      func(m *ServiceMock) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "unknown account",
			uid:  "acc-3",
			mockSetup: func(m *ServiceMock) {
				m.On("Check", mock.Anything, "acc-3", mock.Anything).
					Return(nil, repository.ErrAccountNotFound)
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serviceMock := new(ServiceMock)
			tt.mockSetup(serviceMock)

			handler := New(newNoopLogger(), serviceMock)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/access", nil)
			if tt.uid != "" {
				ctx := context.WithValue(req.Context(), middlewarectx.AccountUID, tt.uid)
				req = req.WithContext(ctx)
			}
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			require.Equal(t, tt.expectedStatus, rr.Code)
			if tt.expectedAllowed != nil {
				var resp struct {
					Data map[string]any `json:"data"`
				}
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
				assert.Equal(t, *tt.expectedAllowed, resp.Data["allowed"])
			}
			serviceMock.AssertExpectations(t)
		})
	}
}

func ptr(b bool) *bool { return &b }
