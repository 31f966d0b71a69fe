package router

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/kanehiroyuu/user-role-api/internal/domain/entities"
	"github.com/kanehiroyuu/user-role-api/internal/presentation/interface-adapter/handler"
	"github.com/kanehiroyuu/user-role-api/internal/usecase"
)

type panickingUsers struct{}

func (panickingUsers) CreateUser(context.Context, usecase.CreateUserInput) (*entities.User, error) {
	panic("unreachable")
}

func (panickingUsers) GetUser(context.Context, string) (*entities.User, error) {
	panic("storage exploded")
}

func (panickingUsers) UpdateUser(context.Context, usecase.UpdateUserInput) (*entities.User, error) {
	panic("unreachable")
}

func (panickingUsers) DeleteUser(context.Context, string) error {
	panic("unreachable")
}

func newTestRouter() http.Handler {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return Setup(
		handler.NewUserHandler(panickingUsers{}),
		handler.NewHealthHandler(nil),
		logger,
		Options{Service: "user-role-api-test"},
	)
}

func TestSetup_HealthRoutes(t *testing.T) {
	r := newTestRouter()

	for _, path := range []string{"/", "/health"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestSetup_UnknownRoute(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users/42", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetup_RecoversPanics(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/users?userID=6f1c2f5e-8a4b-4c3d-9e2f-1a2b3c4d5e6f", nil)
	newTestRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.NotContains(t, rec.Body.String(), "storage exploded")
}

func TestSetup_CORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/createNewUser", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()

	newTestRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
