package decide

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/channel-gatekeeper/internal/http-server/mware"
	jwtlib "github.com/magabrotheeeer/channel-gatekeeper/internal/lib/jwt"
	"github.com/magabrotheeeer/channel-gatekeeper/internal/models"
	"github.com/magabrotheeeer/channel-gatekeeper/internal/services/lifecycle"
)

// MockService реализует интерфейс decide.PaymentDecider
type MockService struct {
	mock.Mock
}

func (m *MockService) DecidePayment(ctx context.Context, paymentID, adminID int64, approve bool) (*models.Subscription, error) {
	args := m.Called(ctx, paymentID, adminID, approve)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func TestDecideHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sub := &models.Subscription{
		ID:      1,
		UserID:  100,
		PlanID:  "month",
		StartAt: now,
		EndAt:   now.Add(30 * 24 * time.Hour),
		Status:  models.SubscriptionStatusActive,
	}

	tests := []struct {
		name           string
		paymentID      string
		body           string
		withClaims     bool
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:       "успешное одобрение",
			paymentID:  "7",
			body:       `{"approve":true}`,
			withClaims: true,
			setupMock: func(m *MockService) {
				m.On("DecidePayment", mock.Anything, int64(7), int64(1), true).Return(sub, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"subscription"`,
		},
		{
			name:       "успешное отклонение",
			paymentID:  "7",
			body:       `{"approve":false}`,
			withClaims: true,
			setupMock: func(m *MockService) {
				m.On("DecidePayment", mock.Anything, int64(7), int64(1), false).Return(nil, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"OK"}`,
		},
		{
			name:           "нет claims администратора",
			paymentID:      "7",
			body:           `{"approve":true}`,
			withClaims:     false,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"status":"Error","error":"unauthorized"}`,
		},
		{
			name:           "некорректный id платежа",
			paymentID:      "abc",
			body:           `{"approve":true}`,
			withClaims:     true,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `failed to decode payment id from url`,
		},
		{
			name:           "отсутствует поле approve",
			paymentID:      "7",
			body:           `{}`,
			withClaims:     true,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `field Approve is a required field`,
		},
		{
			name:       "платеж не найден",
			paymentID:  "404",
			body:       `{"approve":true}`,
			withClaims: true,
			setupMock: func(m *MockService) {
				m.On("DecidePayment", mock.Anything, int64(404), int64(1), true).
					Return(nil, lifecycle.ErrPaymentNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `payment not found`,
		},
		{
			name:       "решение уже принято",
			paymentID:  "7",
			body:       `{"approve":true}`,
			withClaims: true,
			setupMock: func(m *MockService) {
				m.On("DecidePayment", mock.Anything, int64(7), int64(1), true).
					Return(nil, lifecycle.ErrAlreadyDecided)
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   `payment already decided`,
		},
		{
			name:       "не администратор",
			paymentID:  "7",
			body:       `{"approve":true}`,
			withClaims: true,
			setupMock: func(m *MockService) {
				m.On("DecidePayment", mock.Anything, int64(7), int64(1), true).
					Return(nil, lifecycle.ErrNotAuthorized)
			},
			expectedStatus: http.StatusForbidden,
			expectedBody:   `not authorized`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodPost, "/payments/"+tt.paymentID+"/decision",
				strings.NewReader(tt.body))
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("paymentID", tt.paymentID)
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			if tt.withClaims {
				ctx = context.WithValue(ctx, mware.AdminKey, &jwtlib.AdminClaims{
					Username: "admin",
					AdminID:  1,
				})
			}
			req = req.WithContext(ctx)

			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())

			mockService.AssertExpectations(t)
		})
	}
}
