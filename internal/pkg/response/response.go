package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/Tanvin-Ahmed/file-management-server/internal/pkg/errors"
)

// Response is the envelope every JSON endpoint answers with
type Response struct {
	Code    int         `json:"code"`              // business code, 0 on success
	Message string      `json:"message,omitempty"` // human readable message
	Data    interface{} `json:"data"`
}

// Success answers 200
func Success(c *gin.Context, data interface{}) {
	write(c, http.StatusOK, apperrors.Success, "", data)
}

// SuccessWithMessage answers 200 with a message
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	write(c, http.StatusOK, apperrors.Success, message, data)
}

// Created answers 201
func Created(c *gin.Context, data interface{}) {
	write(c, http.StatusCreated, apperrors.Success, "", data)
}

// BadRequest answers 400 with a free-form message
func BadRequest(c *gin.Context, message string) {
	write(c, http.StatusBadRequest, apperrors.ErrBadRequest, message, nil)
}

// Unauthorized answers 401
func Unauthorized(c *gin.Context, message string) {
	write(c, http.StatusUnauthorized, apperrors.ErrUnauthorized, message, nil)
}

// HandleError renders err using its AppError code, or 500 for anything else
func HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	code := apperrors.ExtractCode(err)
	write(c, apperrors.GetHTTPStatus(code), code, apperrors.FormatError(code, apperrors.GetDetails(err)), nil)
}

// ErrorWithCode renders a business code with optional details
func ErrorWithCode(c *gin.Context, code int, details ...string) {
	write(c, apperrors.GetHTTPStatus(code), code, apperrors.FormatError(code, details...), nil)
}

// AbortWithCode renders a business code and stops the middleware chain
func AbortWithCode(c *gin.Context, code int, details ...string) {
	ErrorWithCode(c, code, details...)
	c.Abort()
}

func write(c *gin.Context, status, code int, message string, data interface{}) {
	if data == nil {
		data = struct{}{}
	}
	c.JSON(status, Response{Code: code, Message: message, Data: data})
}
