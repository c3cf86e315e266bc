package response

import (
	"net/http"

	"go-techshop/internal/errs"

	"github.com/gin-gonic/gin"
)

// Response is the envelope every endpoint returns.
type Response struct {
	StatusCode int         `json:"statusCode"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data,omitempty"`
}

// Success responds 200 with data.
func Success(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusOK, Response{
		StatusCode: http.StatusOK,
		Message:    "success",
		Data:       data,
	})
}

// Created responds 201 with data.
func Created(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusCreated, Response{
		StatusCode: http.StatusCreated,
		Message:    "success",
		Data:       data,
	})
}

// Error responds with an explicit status and message.
func Error(ctx *gin.Context, httpStatus int, msg string) {
	ctx.JSON(httpStatus, Response{
		StatusCode: httpStatus,
		Message:    msg,
	})
}

// FromError maps a service error onto the envelope. Internal causes are
// replaced with a generic message.
func FromError(ctx *gin.Context, err error) {
	kind := errs.KindOf(err)
	status := statusOf(kind)

	msg := err.Error()
	if kind == errs.Internal {
		msg = "internal server error"
	}

	ctx.JSON(status, Response{
		StatusCode: status,
		Message:    msg,
	})
}

func statusOf(kind errs.Kind) int {
	switch kind {
	case errs.NotFound:
		return http.StatusNotFound
	case errs.Conflict:
		return http.StatusConflict
	case errs.OutOfStock:
		return http.StatusConflict
	case errs.Validation:
		return http.StatusBadRequest
	case errs.Unauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
