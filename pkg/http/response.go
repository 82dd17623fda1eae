package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

func DataResponse(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, APIResponse{Status: "success", Data: data})
}

func ListResponse(c echo.Context, items interface{}, total int) error {
	return DataResponse(c, ListDataResponse{Items: items, Total: total})
}

func SuccessResponse(c echo.Context, message string) error {
	return c.JSON(http.StatusOK, APIResponse{Status: "success", Message: message})
}

func BadRequestResponse(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, APIResponse{Status: "error", Message: message})
}

func NotFoundResponse(c echo.Context, message string) error {
	return c.JSON(http.StatusNotFound, APIResponse{Status: "error", Message: message})
}

func ErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return c.JSON(appErr.Status, APIResponse{Status: "error", Message: appErr.Message})
	}
	return c.JSON(http.StatusInternalServerError, APIResponse{Status: "error", Message: "internal server error"})
}

func ValidationErrorResponse(c echo.Context, errs []ValidationError) error {
	return c.JSON(http.StatusBadRequest, APIResponse{Status: "error", Message: "validation failed", Data: errs})
}
