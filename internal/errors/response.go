package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yunshang/merchant-admin-backend/internal/app/schema"
)

// ErrorResponse is the standard error envelope
type ErrorResponse struct {
	Ok      bool   `json:"ok"`
	Error   string `json:"error"`   // error code, for frontend mapping
	Message string `json:"message"` // user-facing message
}

// RespondWithError writes the standard error envelope
func RespondWithError(c *gin.Context, statusCode int, errorCode string, message string) {
	c.JSON(statusCode, ErrorResponse{
		Ok:      false,
		Error:   errorCode,
		Message: message,
	})
}

// Shortcuts for the common cases

func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "请先登录"
	}
	RespondWithError(c, http.StatusUnauthorized, AuthUnauthorized, message)
}

func Forbidden(c *gin.Context, message string) {
	if message == "" {
		message = "没有访问权限"
	}
	RespondWithError(c, http.StatusForbidden, AuthzForbidden, message)
}

func BadRequest(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusBadRequest, errorCode, message)
}

func NotFound(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusNotFound, errorCode, message)
}

func Conflict(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusConflict, errorCode, message)
}

func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "服务器错误，请稍后重试"
	}
	RespondWithError(c, http.StatusInternalServerError, InternalServerError, message)
}

// ValidationErrorResponse carries field-level failures back to the form.
// Every failed field is itemized so the UI can render all problems inline
// at once.
type ValidationErrorResponse struct {
	Ok      bool                `json:"ok"`
	Error   string              `json:"error"`
	Message string              `json:"message"`
	Fields  []schema.FieldError `json:"fields"`
}

func RespondWithValidationError(c *gin.Context, fields []schema.FieldError) {
	c.JSON(http.StatusBadRequest, ValidationErrorResponse{
		Ok:      false,
		Error:   ValidationInvalidInput,
		Message: "输入数据无效",
		Fields:  fields,
	})
}
