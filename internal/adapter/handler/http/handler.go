package http

import (
	"errors"
	"strconv"
	"strings"

	customErr "github.com/Likith-Yadav/PayCoreX/internal/domain/errors"
	"github.com/Likith-Yadav/PayCoreX/internal/middleware/auth"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// RequestValidator plugs go-playground/validator into echo.
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate reports the first failing field as a VALIDATION error.
func (v *RequestValidator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		field := strings.ToLower(fe.Field())
		if fe.Param() != "" {
			return customErr.NewValidationError("%s failed %s=%s", field, fe.Tag(), fe.Param())
		}
		return customErr.NewValidationError("%s failed %s", field, fe.Tag())
	}
	return customErr.NewValidationError("%s", err.Error())
}

// bind decodes the request into req and validates it.
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return customErr.NewValidationError("malformed request body")
	}
	return c.Validate(req)
}

func paramUUID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, customErr.NewValidationError("%s must be a valid id", name)
	}
	return id, nil
}

func queryLimit(c echo.Context, fallback int) (int, error) {
	raw := c.QueryParam("limit")
	if raw == "" {
		return fallback, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > 100 {
		return 0, customErr.NewValidationError("limit must be between 1 and 100")
	}
	return limit, nil
}

func merchantID(c echo.Context) (string, error) {
	return auth.RequireMerchant(c)
}
