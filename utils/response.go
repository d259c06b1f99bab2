package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSONResponse defines the uniform structure for API responses. Every
// operation resolves to exactly one of three outcomes: success, not-found, or
// error; handlers never let raw failures cross the HTTP boundary.
type JSONResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Respond writes a JSON response with the given status code.
func Respond(ctx *gin.Context, status int, code int, message string, data interface{}) {
	ctx.JSON(status, JSONResponse{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// Success returns a standard success response.
func Success(ctx *gin.Context, data interface{}) {
	Respond(ctx, http.StatusOK, 0, "success", data)
}

// NotFound returns the not-found variant: the requested entity is absent,
// which is not a system fault.
func NotFound(ctx *gin.Context, message string) {
	Respond(ctx, http.StatusNotFound, 40400, message, nil)
}

// Error returns a standard error response.
func Error(ctx *gin.Context, status int, code int, message string) {
	Respond(ctx, status, code, message, nil)
}

// ErrorWithDetails returns an error response carrying structured details,
// e.g. the field -> message map produced by form validation.
func ErrorWithDetails(ctx *gin.Context, status int, code int, message string, details interface{}) {
	Respond(ctx, status, code, message, details)
}
