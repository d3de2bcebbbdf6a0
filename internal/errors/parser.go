package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo is a parsed, user-safe view of a storage error
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError converts a storage-layer error into a user-safe code and
// message. Raw driver detail is logged by the caller, never exposed:
// the root cause may be sensitive.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Code:    InternalServerError,
			Message: "服务器错误，请稍后重试",
		}
	}

	errStr := strings.ToLower(err.Error())

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Code:    ResourceNotFound,
			Message: notFoundMessage(context),
		}
	}

	// Unique constraint violation (postgres 23505, sqlite "UNIQUE constraint failed")
	if strings.Contains(errStr, "duplicate key") || strings.Contains(errStr, "unique constraint") {
		return parseDuplicateKeyError(errStr)
	}

	// Foreign key constraint violation (23503)
	if strings.Contains(errStr, "foreign key constraint") {
		return ErrorInfo{
			Code:    ResourceConflict,
			Message: "存在关联数据，操作失败",
		}
	}

	// Not null constraint violation (23502)
	if strings.Contains(errStr, "not-null constraint") || strings.Contains(errStr, "not null constraint") {
		return ErrorInfo{
			Code:    ValidationInvalidInput,
			Message: "缺少必填字段",
		}
	}

	// Connectivity
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "timeout") {
		return ErrorInfo{
			Code:    InternalDatabaseError,
			Message: "数据库连接失败，请稍后重试",
		}
	}

	return ErrorInfo{
		Code:    InternalServerError,
		Message: defaultErrorMessage(context),
	}
}

// ParseAndRespond parses err and writes the standard error envelope
func ParseAndRespond(c interface{ JSON(int, interface{}) }, statusCode int, err error, context string) {
	errorInfo := ParseError(err, context)
	c.JSON(statusCode, ErrorResponse{
		Ok:      false,
		Error:   errorInfo.Code,
		Message: errorInfo.Message,
	})
}

func parseDuplicateKeyError(errStr string) ErrorInfo {
	if strings.Contains(errStr, "phone") {
		return ErrorInfo{
			Code:    AccountPhoneExists,
			Message: "手机号已被注册",
		}
	}
	if strings.Contains(errStr, "account_id") {
		return ErrorInfo{
			Code:    ResourceAlreadyExists,
			Message: "账户资料已存在",
		}
	}
	return ErrorInfo{
		Code:    ResourceAlreadyExists,
		Message: "数据已存在",
	}
}

func notFoundMessage(context string) string {
	contextLower := strings.ToLower(context)

	if strings.Contains(contextLower, "account") {
		return "账户不存在"
	}
	if strings.Contains(contextLower, "profile") {
		return "账户资料不存在"
	}
	return "请求的数据不存在"
}

func defaultErrorMessage(context string) string {
	contextLower := strings.ToLower(context)

	if strings.Contains(contextLower, "create") {
		return "创建账户失败"
	}
	if strings.Contains(contextLower, "update") {
		return "更新账户失败"
	}
	if strings.Contains(contextLower, "delete") {
		return "删除账户失败"
	}
	if strings.Contains(contextLower, "freeze") || strings.Contains(contextLower, "activate") {
		return "账户状态更新失败"
	}
	return "服务器错误，请稍后重试"
}
