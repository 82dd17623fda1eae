package http

import (
	"fmt"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = validator.New()

// ReadAndValidateRequest binds the request into req, applies struct
// defaults and validates the result. On failure it writes the error
// response itself and returns false.
func ReadAndValidateRequest(c echo.Context, req interface{}) bool {
	if err := c.Bind(req); err != nil {
		_ = BadRequestResponse(c, "invalid request payload")
		return false
	}
	if err := defaults.Set(req); err != nil {
		_ = ErrorResponse(c, InternalError("failed to apply request defaults"))
		return false
	}
	if err := validate.StructCtx(c.Request().Context(), req); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			_ = BadRequestResponse(c, "invalid request")
			return false
		}
		out := make([]ValidationError, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, ValidationError{
				Field:   fe.Field(),
				Message: fmt.Sprintf("failed on %q validation", fe.Tag()),
			})
		}
		_ = ValidationErrorResponse(c, out)
		return false
	}
	return true
}
