// Package errors 提供统一的错误定义
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode 错误码类型
type ErrorCode string

// 预定义错误码
const (
	// 通用错误 (1xxx)
	CodeSuccess            ErrorCode = "0"
	CodeUnknown            ErrorCode = "1000"
	CodeInvalidParam       ErrorCode = "1001"
	CodeUnauthorized       ErrorCode = "1002"
	CodeForbidden          ErrorCode = "1003"
	CodeNotFound           ErrorCode = "1004"
	CodeConflict           ErrorCode = "1005"
	CodeTooManyRequests    ErrorCode = "1006"
	CodeInternalError      ErrorCode = "1007"
	CodeServiceUnavailable ErrorCode = "1008"

	// 认证授权错误 (2xxx)
	CodeTokenExpired ErrorCode = "2001"
	CodeTokenInvalid ErrorCode = "2002"
	CodeTokenMissing ErrorCode = "2003"
	CodeEmailTaken   ErrorCode = "2005"

	// 资源错误 (3xxx)
	CodeDreamNotFound ErrorCode = "3001"
	CodeStepNotFound  ErrorCode = "3002"
	CodeUserNotFound  ErrorCode = "3003"

	// 业务错误 (4xxx)
	CodeGenerationFailed ErrorCode = "4001"
	CodeValidationFailed ErrorCode = "4002"
	CodeQuotaExceeded    ErrorCode = "4003"

	// AI 网关错误 (45xx)
	CodeLLMNotConfigured     ErrorCode = "4501"
	CodeLLMRateLimited       ErrorCode = "4502"
	CodeLLMBillingExhausted  ErrorCode = "4503"
	CodeLLMMalformedResponse ErrorCode = "4504"
	CodeLLMTransport         ErrorCode = "4505"
	CodeLLMProviderError     ErrorCode = "4506"

	// 外部服务错误 (5xxx)
	CodeDatabaseError ErrorCode = "5001"
	CodeCacheError    ErrorCode = "5002"
)

// AppError 应用错误
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Detail     string    `json:"detail,omitempty"`
	HTTPStatus int       `json:"-"`
	Err        error     `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 返回底层错误
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail 添加详细信息（返回副本，避免污染预定义错误）
func (e *AppError) WithDetail(detail string) *AppError {
	cp := *e
	cp.Detail = detail
	return &cp
}

// WithError 添加底层错误（返回副本）
func (e *AppError) WithError(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

// New 创建新的应用错误
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

// Wrap 包装错误
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Err:        err,
	}
}

// codeToHTTPStatus 错误码转 HTTP 状态码
func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case CodeSuccess:
		return http.StatusOK
	case CodeInvalidParam, CodeValidationFailed:
		return http.StatusBadRequest
	case CodeUnauthorized, CodeTokenExpired, CodeTokenInvalid, CodeTokenMissing:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound, CodeDreamNotFound, CodeStepNotFound, CodeUserNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeEmailTaken:
		return http.StatusConflict
	case CodeTooManyRequests, CodeLLMRateLimited, CodeQuotaExceeded:
		return http.StatusTooManyRequests
	case CodeLLMBillingExhausted:
		return http.StatusPaymentRequired
	case CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// 预定义错误
var (
	ErrInvalidParam       = New(CodeInvalidParam, "invalid parameter")
	ErrUnauthorized       = New(CodeUnauthorized, "unauthorized")
	ErrForbidden          = New(CodeForbidden, "forbidden")
	ErrNotFound           = New(CodeNotFound, "resource not found")
	ErrConflict           = New(CodeConflict, "resource conflict")
	ErrTooManyRequests    = New(CodeTooManyRequests, "too many requests")
	ErrInternalError      = New(CodeInternalError, "internal server error")
	ErrServiceUnavailable = New(CodeServiceUnavailable, "service unavailable")

	ErrTokenExpired = New(CodeTokenExpired, "token expired")
	ErrTokenInvalid = New(CodeTokenInvalid, "token invalid")
	ErrTokenMissing = New(CodeTokenMissing, "token missing")
	ErrEmailTaken   = New(CodeEmailTaken, "email already registered")

	ErrDreamNotFound = New(CodeDreamNotFound, "dream not found")
	ErrStepNotFound  = New(CodeStepNotFound, "step not found")
	ErrUserNotFound  = New(CodeUserNotFound, "user not found")

	ErrGenerationFailed = New(CodeGenerationFailed, "step generation failed")
	ErrValidationFailed = New(CodeValidationFailed, "validation failed")
	ErrQuotaExceeded    = New(CodeQuotaExceeded, "daily token quota exceeded")

	// AI 网关错误，Message 直接面向客户端，不包含凭证或上游原文
	ErrLLMNotConfigured     = New(CodeLLMNotConfigured, "AI service not configured")
	ErrLLMRateLimited       = New(CodeLLMRateLimited, "Rate limit exceeded. Please try again in a moment.")
	ErrLLMBillingExhausted  = New(CodeLLMBillingExhausted, "AI service credits depleted. Please add credits to continue.")
	ErrLLMMalformedResponse = New(CodeLLMMalformedResponse, "AI service returned an invalid response")
	ErrLLMTransport         = New(CodeLLMTransport, "AI service error")
)

// NewLLMProviderError 上游返回其它非 2xx 状态码
func NewLLMProviderError(status int) *AppError {
	return New(CodeLLMProviderError, fmt.Sprintf("AI service error: %d", status))
}

// IsAppError 检查错误链中是否包含 AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError 将错误转换为 AppError
func AsAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, CodeUnknown, "unknown error")
}

// HasCode 检查错误链中的 AppError 是否为指定错误码
func HasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return false
	}
	return appErr.Code == code
}
