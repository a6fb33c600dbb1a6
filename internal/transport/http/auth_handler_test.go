package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	apierrors "chemviz/internal/errors"
	customMiddleware "chemviz/internal/middleware"
	"chemviz/internal/security"
	"chemviz/internal/shared/testutil"
)

type staticValidator map[string]string

func (v staticValidator) ValidateToken(_ context.Context, token string) (string, error) {
	user, ok := v[token]
	if !ok {
		return "", security.ErrInvalidToken
	}
	return user, nil
}

func newAuthRouter(t *testing.T, svc AuthService) http.Handler {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	errorHandler := apierrors.NewErrorHandler(logger, false)
	handler := NewAuthHandler(svc, customMiddleware.NewValidator(logger), errorHandler, logger)

	r := chi.NewRouter()
	r.Post("/login", handler.Login)
	r.With(customMiddleware.TokenAuth(staticValidator{"abc123": "analyst"}, errorHandler, logger)).
		Post("/logout", handler.Logout)
	return r
}

func TestAuthHandler_Login(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockAuthService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "valid credentials",
			body: `{"username":"analyst","password":"s3cret!"}`,
			setupMock: func(m *MockAuthService) {
				m.On("Login", mock.Anything, "analyst", "s3cret!").Return(security.Token{Key: "abc123", Username: "analyst"}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"token":"abc123"}`,
		},
		{
			name: "invalid credentials",
			body: `{"username":"analyst","password":"nope"}`,
			setupMock: func(m *MockAuthService) {
				m.On("Login", mock.Anything, "analyst", "nope").Return(security.Token{}, security.ErrInvalidCredentials)
			},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   apierrors.TypeUnauthorized,
		},
		{
			name:           "missing password",
			body:           `{"username":"analyst"}`,
			setupMock:      func(m *MockAuthService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "password is required",
		},
		{
			name:           "malformed json",
			body:           `{"username":`,
			setupMock:      func(m *MockAuthService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "INVALID_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAuthService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			newAuthRouter(t, svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				assert.JSONEq(t, tt.expectedBody, w.Body.String())
			} else {
				assert.Contains(t, w.Body.String(), tt.expectedBody)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	t.Run("revokes the caller's token", func(t *testing.T) {
		svc := new(MockAuthService)
		svc.On("Logout", mock.Anything, "abc123").Once()

		req := httptest.NewRequest(http.MethodPost, "/logout", nil)
		req.Header.Set("Authorization", "Token abc123")
		w := httptest.NewRecorder()
		newAuthRouter(t, svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("requires a token", func(t *testing.T) {
		svc := new(MockAuthService)

		w := httptest.NewRecorder()
		newAuthRouter(t, svc).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/logout", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		svc.AssertNotCalled(t, "Logout", mock.Anything, mock.Anything)
	})
}
