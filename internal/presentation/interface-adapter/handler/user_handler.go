package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	appcontext "github.com/kanehiroyuu/user-role-api/internal/common/context"
	"github.com/kanehiroyuu/user-role-api/internal/common/logging"
	"github.com/kanehiroyuu/user-role-api/internal/domain/entities"
	"github.com/kanehiroyuu/user-role-api/internal/presentation/interface-adapter/response"
	"github.com/kanehiroyuu/user-role-api/internal/presentation/interface-adapter/validation"
	"github.com/kanehiroyuu/user-role-api/internal/usecase"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

// UserService is the user manager as seen by the request layer
type UserService interface {
	CreateUser(ctx context.Context, in usecase.CreateUserInput) (*entities.User, error)
	GetUser(ctx context.Context, id string) (*entities.User, error)
	UpdateUser(ctx context.Context, in usecase.UpdateUserInput) (*entities.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	users UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users UserService) *UserHandler {
	return &UserHandler{users: users}
}

// CreateUserRequest represents the request body for creating a user
type CreateUserRequest struct {
	FullName    string `json:"fullName" validate:"required,notblank,min=2,max=255"`
	PhoneNumber string `json:"phoneNumber" validate:"required,phone"`
	AvatarURL   string `json:"avatarURL" validate:"omitempty,url"`
	RoleName    string `json:"roleName" validate:"required,notblank,min=2,max=50"`
}

// UpdateUserRequest represents the request body for a partial user update.
// Absent fields are left unchanged.
type UpdateUserRequest struct {
	ID          string  `json:"id" validate:"required,uuid"`
	FullName    *string `json:"fullName" validate:"omitnil,notblank,min=2,max=255"`
	PhoneNumber *string `json:"phoneNumber" validate:"omitnil,phone"`
	AvatarURL   *string `json:"avatarURL" validate:"omitnil,optionalurl"`
	RoleName    *string `json:"roleName" validate:"omitnil,notblank,min=2,max=50"`
}

// CreateUser handles POST /api/createNewUser
func (h *UserHandler) CreateUser(c echo.Context) error {
	span, ctx := tracer.StartSpanFromContext(c.Request().Context(), "handler.create_user")
	defer span.Finish()

	logger := appcontext.GetLogger(ctx)
	tagRequest(span, c)

	var req CreateUserRequest
	if problem, ok := bindAndValidate(ctx, c, logger, &req); !ok {
		markError(span, problem.Detail)
		return response.RespondProblemWithTrace(c, problem)
	}

	span.SetTag("user.phone_number", req.PhoneNumber)
	span.SetTag("role.name", req.RoleName)

	user, err := h.users.CreateUser(ctx, usecase.CreateUserInput{
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
		AvatarURL:   req.AvatarURL,
		RoleName:    req.RoleName,
	})
	if err != nil {
		return respondError(ctx, c, logger, span, "Failed to create user", err)
	}

	span.SetTag("user.id", user.ID)

	logging.LogWithTrace(ctx, logger, "handler", "User created successfully", logrus.Fields{
		"user.id": user.ID,
	})
	return response.RespondSuccessWithTrace(c, http.StatusCreated, user, "User created successfully")
}

// GetUser handles GET /api/users?userID=
func (h *UserHandler) GetUser(c echo.Context) error {
	span, ctx := tracer.StartSpanFromContext(c.Request().Context(), "handler.get_user")
	defer span.Finish()

	logger := appcontext.GetLogger(ctx)
	tagRequest(span, c)

	id, problem, ok := userIDParam(c)
	if !ok {
		markError(span, problem.Detail)
		return response.RespondProblemWithTrace(c, problem)
	}

	span.SetTag("user.id", id)

	user, err := h.users.GetUser(ctx, id)
	if err != nil {
		return respondError(ctx, c, logger, span, "Failed to get user", err)
	}

	logging.LogWithTrace(ctx, logger, "handler", "User retrieved successfully", logrus.Fields{
		"user.id": user.ID,
	})
	return response.RespondSuccessWithTrace(c, http.StatusOK, user, "User found")
}

// UpdateUser handles PUT /api/userDetailsUpdate
func (h *UserHandler) UpdateUser(c echo.Context) error {
	span, ctx := tracer.StartSpanFromContext(c.Request().Context(), "handler.update_user")
	defer span.Finish()

	logger := appcontext.GetLogger(ctx)
	tagRequest(span, c)

	var req UpdateUserRequest
	if problem, ok := bindAndValidate(ctx, c, logger, &req); !ok {
		markError(span, problem.Detail)
		return response.RespondProblemWithTrace(c, problem)
	}

	span.SetTag("user.id", req.ID)

	user, err := h.users.UpdateUser(ctx, usecase.UpdateUserInput{
		ID:          req.ID,
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
		AvatarURL:   req.AvatarURL,
		RoleName:    req.RoleName,
	})
	if err != nil {
		return respondError(ctx, c, logger, span, "Failed to update user", err)
	}

	logging.LogWithTrace(ctx, logger, "handler", "User updated successfully", logrus.Fields{
		"user.id": user.ID,
	})
	return response.RespondSuccessWithTrace(c, http.StatusOK, user, "User updated successfully")
}

// DeleteUser handles DELETE /api/users?userID=
func (h *UserHandler) DeleteUser(c echo.Context) error {
	span, ctx := tracer.StartSpanFromContext(c.Request().Context(), "handler.delete_user")
	defer span.Finish()

	logger := appcontext.GetLogger(ctx)
	tagRequest(span, c)

	id, problem, ok := userIDParam(c)
	if !ok {
		markError(span, problem.Detail)
		return response.RespondProblemWithTrace(c, problem)
	}

	span.SetTag("user.id", id)

	if err := h.users.DeleteUser(ctx, id); err != nil {
		return respondError(ctx, c, logger, span, "Failed to delete user", err)
	}

	logging.LogWithTrace(ctx, logger, "handler", "User deleted successfully", logrus.Fields{
		"user.id": id,
	})
	return response.RespondSuccessWithTrace(c, http.StatusOK, nil, "User deleted successfully")
}

func bindAndValidate(ctx context.Context, c echo.Context, logger *logrus.Logger, req interface{}) (response.ProblemDetail, bool) {
	if err := c.Bind(req); err != nil {
		logging.LogErrorWithTraceNotNotify(ctx, logger, "handler", "Failed to decode request body", err, nil)
		problem := response.NewValidationErrorProblem(
			"Request body is not valid JSON or does not match expected schema",
			c.Request().URL.Path,
		)
		problem.Extra["parse_error"] = err.Error()
		return problem, false
	}

	if err := c.Validate(req); err != nil {
		logging.LogErrorWithTraceNotNotify(ctx, logger, "handler", "Request validation failed", err, nil)
		problem := response.NewValidationErrorProblem(
			"Request contains invalid fields",
			c.Request().URL.Path,
		)
		if fields := validation.FieldMessages(err); fields != nil {
			problem.Extra["errors"] = fields
		}
		return problem, false
	}

	return response.ProblemDetail{}, true
}

func userIDParam(c echo.Context) (string, response.ProblemDetail, bool) {
	raw := c.QueryParam("userID")
	id, err := uuid.Parse(raw)
	if err != nil {
		problem := response.NewValidationErrorProblem(
			"userID must be a valid UUID",
			c.Request().URL.Path,
		)
		problem.Extra["errors"] = map[string]string{"userID": "must be a valid UUID"}
		problem.Extra["provided_id"] = raw
		return "", problem, false
	}
	return id.String(), response.ProblemDetail{}, true
}

// respondError logs err at the level its kind deserves and writes the matching problem
func respondError(ctx context.Context, c echo.Context, logger *logrus.Logger, span tracer.Span, message string, err error) error {
	markError(span, err.Error())

	if response.IsExpected(err) {
		logging.LogErrorWithTraceNotNotify(ctx, logger, "handler", message, err, nil)
	} else {
		logging.LogErrorWithTrace(ctx, logger, "handler", message, err, nil)
	}

	return response.RespondProblemWithTrace(c, response.FromError(err, c.Request().URL.Path))
}

func tagRequest(span tracer.Span, c echo.Context) {
	span.SetTag("http.method", c.Request().Method)
	span.SetTag("http.url", c.Request().URL.Path)
	span.SetTag("http.user_agent", c.Request().UserAgent())
}

func markError(span tracer.Span, msg string) {
	span.SetTag("error", true)
	span.SetTag("error.msg", msg)
}
