package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanehiroyuu/user-role-api/internal/domain"
	"github.com/kanehiroyuu/user-role-api/internal/domain/entities"
	"github.com/kanehiroyuu/user-role-api/internal/presentation/interface-adapter/validation"
	"github.com/kanehiroyuu/user-role-api/internal/usecase"
)

const testUserID = "6f1c2f5e-8a4b-4c3d-9e2f-1a2b3c4d5e6f"

type fakeUserService struct {
	created *usecase.CreateUserInput
	updated *usecase.UpdateUserInput
	deleted string
	user    *entities.User
	err     error
}

func (f *fakeUserService) CreateUser(_ context.Context, in usecase.CreateUserInput) (*entities.User, error) {
	f.created = &in
	return f.user, f.err
}

func (f *fakeUserService) GetUser(_ context.Context, id string) (*entities.User, error) {
	return f.user, f.err
}

func (f *fakeUserService) UpdateUser(_ context.Context, in usecase.UpdateUserInput) (*entities.User, error) {
	f.updated = &in
	return f.user, f.err
}

func (f *fakeUserService) DeleteUser(_ context.Context, id string) error {
	f.deleted = id
	return f.err
}

func sampleUser() *entities.User {
	return &entities.User{
		ID:          testUserID,
		FullName:    "Ivan Ivanov",
		PhoneNumber: "+79990000001",
		Role:        &entities.Role{ID: "0b7f0a2e-3c4d-4e5f-8a9b-0c1d2e3f4a5b", Name: "Support"},
	}
}

func newTestServer(svc UserService) *echo.Echo {
	e := echo.New()
	e.Validator = validation.New()

	h := NewUserHandler(svc)
	e.POST("/api/createNewUser", h.CreateUser)
	e.GET("/api/users", h.GetUser)
	e.PUT("/api/userDetailsUpdate", h.UpdateUser)
	e.DELETE("/api/users", h.DeleteUser)
	return e
}

func do(t *testing.T, e *echo.Echo, method, target, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded), rec.Body.String())
	return rec, decoded
}

func TestUserHandler_CreateUser(t *testing.T) {
	svc := &fakeUserService{user: sampleUser()}
	e := newTestServer(svc)

	rec, body := do(t, e, http.MethodPost, "/api/createNewUser",
		`{"fullName":"Ivan Ivanov","phoneNumber":"+79990000001","roleName":"Support"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "User created successfully", body["message"])

	data := body["data"].(map[string]interface{})
	assert.Equal(t, testUserID, data["id"])
	assert.Equal(t, "Support", data["role"].(map[string]interface{})["name"])

	require.NotNil(t, svc.created)
	assert.Equal(t, usecase.CreateUserInput{FullName: "Ivan Ivanov", PhoneNumber: "+79990000001", RoleName: "Support"}, *svc.created)
}

func TestUserHandler_CreateUser_ValidationFailure(t *testing.T) {
	svc := &fakeUserService{}
	e := newTestServer(svc)

	rec, body := do(t, e, http.MethodPost, "/api/createNewUser",
		`{"fullName":"I","phoneNumber":"12ab","avatarURL":"nope"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, "Validation Error", body["title"])

	fields := body["errors"].(map[string]interface{})
	assert.Contains(t, fields, "fullName")
	assert.Contains(t, fields, "phoneNumber")
	assert.Contains(t, fields, "avatarURL")
	assert.Contains(t, fields, "roleName")
	assert.Nil(t, svc.created, "invalid input never reaches the manager")
}

func TestUserHandler_CreateUser_MalformedBody(t *testing.T) {
	e := newTestServer(&fakeUserService{})

	rec, body := do(t, e, http.MethodPost, "/api/createNewUser", `{"fullName":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body, "parse_error")
}

func TestUserHandler_CreateUser_DuplicatePhone(t *testing.T) {
	svc := &fakeUserService{err: domain.NewDuplicatePhoneNumber("+79990000001", nil)}
	e := newTestServer(svc)

	rec, body := do(t, e, http.MethodPost, "/api/createNewUser",
		`{"fullName":"Ivan Ivanov","phoneNumber":"+79990000001","roleName":"Support"}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, string(domain.KindDuplicatePhoneNumber), body["kind"])
	assert.Equal(t, "phoneNumber", body["field"])
	assert.Equal(t, "+79990000001", body["value"])
	assert.Equal(t, false, body["notify"])
}

func TestUserHandler_GetUser(t *testing.T) {
	e := newTestServer(&fakeUserService{user: sampleUser()})

	rec, body := do(t, e, http.MethodGet, "/api/users?userID="+testUserID, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, testUserID, body["data"].(map[string]interface{})["id"])
}

func TestUserHandler_GetUser_InvalidID(t *testing.T) {
	e := newTestServer(&fakeUserService{user: sampleUser()})

	rec, body := do(t, e, http.MethodGet, "/api/users?userID=42", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "42", body["provided_id"])
}

func TestUserHandler_GetUser_NotFound(t *testing.T) {
	e := newTestServer(&fakeUserService{err: domain.NewNotFound("user", "id", testUserID)})

	rec, body := do(t, e, http.MethodGet, "/api/users?userID="+testUserID, "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "user with id '"+testUserID+"' not found", body["detail"])
}

func TestUserHandler_UpdateUser(t *testing.T) {
	svc := &fakeUserService{user: sampleUser()}
	e := newTestServer(svc)

	rec, _ := do(t, e, http.MethodPut, "/api/userDetailsUpdate",
		`{"id":"`+testUserID+`","phoneNumber":"+79990000009"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.updated)
	assert.Equal(t, testUserID, svc.updated.ID)
	require.NotNil(t, svc.updated.PhoneNumber)
	assert.Equal(t, "+79990000009", *svc.updated.PhoneNumber)
	assert.Nil(t, svc.updated.FullName)
	assert.Nil(t, svc.updated.RoleName)
}

func TestUserHandler_UpdateUser_EmptyAvatarClears(t *testing.T) {
	svc := &fakeUserService{user: sampleUser()}
	e := newTestServer(svc)

	rec, _ := do(t, e, http.MethodPut, "/api/userDetailsUpdate",
		`{"id":"`+testUserID+`","avatarURL":""}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.updated)
	require.NotNil(t, svc.updated.AvatarURL)
	assert.Equal(t, "", *svc.updated.AvatarURL)
}

func TestUserHandler_UpdateUser_InvalidAvatar(t *testing.T) {
	svc := &fakeUserService{user: sampleUser()}
	e := newTestServer(svc)

	rec, body := do(t, e, http.MethodPut, "/api/userDetailsUpdate",
		`{"id":"`+testUserID+`","avatarURL":"not a url"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	fields := body["errors"].(map[string]interface{})
	assert.Equal(t, "must be a valid URL", fields["avatarURL"])
	assert.Nil(t, svc.updated)
}

func TestUserHandler_UpdateUser_ValidationFailure(t *testing.T) {
	svc := &fakeUserService{user: sampleUser()}
	e := newTestServer(svc)

	rec, body := do(t, e, http.MethodPut, "/api/userDetailsUpdate",
		`{"id":"not-a-uuid","fullName":" ","roleName":"x"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	fields := body["errors"].(map[string]interface{})
	assert.Contains(t, fields, "id")
	assert.Contains(t, fields, "fullName")
	assert.Contains(t, fields, "roleName")
	assert.Nil(t, svc.updated)
}

func TestUserHandler_DeleteUser(t *testing.T) {
	svc := &fakeUserService{}
	e := newTestServer(svc)

	rec, body := do(t, e, http.MethodDelete, "/api/users?userID="+testUserID, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User deleted successfully", body["message"])
	assert.NotContains(t, body, "data")
	assert.Equal(t, testUserID, svc.deleted)
}

func TestUserHandler_UnexpectedErrorIsGeneric(t *testing.T) {
	e := newTestServer(&fakeUserService{err: errors.New("dial tcp 10.0.0.5:3306: connection refused")})

	rec, body := do(t, e, http.MethodDelete, "/api/users?userID="+testUserID, "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "An unexpected error occurred", body["detail"])
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
	assert.Equal(t, true, body["notify"])
}
