package response

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type PaginatedResponse struct {
	Success    bool  `json:"success"`
	Data       any   `json:"data"`
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalCount int64 `json:"totalCount"`
	TotalPages int   `json:"totalPages"`
}

func Ok(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    data,
	})
}

func OkWithMessage(c echo.Context, message string, data any) error {
	return c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Error writes an ErrorResponse with an arbitrary status code.
func Error(c echo.Context, code int, message string) error {
	return c.JSON(code, ErrorResponse{
		Success: false,
		Error:   message,
	})
}

func BadRequest(c echo.Context, err error) error {
	return Error(c, http.StatusBadRequest, err.Error())
}

func BadRequestWithMessage(c echo.Context, message string) error {
	return Error(c, http.StatusBadRequest, message)
}

func Unauthorized(c echo.Context) error {
	return Error(c, http.StatusUnauthorized, "Invalid or missing API key")
}

func NotFound(c echo.Context, message string) error {
	return Error(c, http.StatusNotFound, message)
}

func Conflict(c echo.Context, err error) error {
	return Error(c, http.StatusConflict, err.Error())
}

// TooManyRequests sets Retry-After when retryAfterSeconds is positive.
func TooManyRequests(c echo.Context, message string, retryAfterSeconds int) error {
	if retryAfterSeconds > 0 {
		c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
	}
	return Error(c, http.StatusTooManyRequests, message)
}

func InternalServerError(c echo.Context, err error) error {
	return Error(c, http.StatusInternalServerError, err.Error())
}

// BadGateway reports a failure of Telegram or the webhook endpoint.
func BadGateway(c echo.Context, err error) error {
	return Error(c, http.StatusBadGateway, err.Error())
}

func ServiceUnavailable(c echo.Context, err error) error {
	return Error(c, http.StatusServiceUnavailable, err.Error())
}

func Paginated(c echo.Context, data any, page, pageSize int, totalCount int64) error {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int(totalCount) / pageSize
		if int(totalCount)%pageSize > 0 {
			totalPages++
		}
	}

	return c.JSON(http.StatusOK, PaginatedResponse{
		Success:    true,
		Data:       data,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	})
}
