package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
)

// ErrorCode represents a structured error code
type ErrorCode string

const (
	// Configuration errors
	ErrCodeConfigLoad    ErrorCode = "CONFIG_LOAD"
	ErrCodeConfigParse   ErrorCode = "CONFIG_PARSE"
	ErrCodeConfigInvalid ErrorCode = "CONFIG_INVALID"

	// Bootstrap server errors
	ErrCodeStaticTraversal      ErrorCode = "STATIC_TRAVERSAL"
	ErrCodeStaticNotFound       ErrorCode = "STATIC_NOT_FOUND"
	ErrCodeTemplateMissing      ErrorCode = "TEMPLATE_MISSING"
	ErrCodeGalleryNotConfigured ErrorCode = "GALLERY_NOT_CONFIGURED"
	ErrCodeGalleryForbidden     ErrorCode = "GALLERY_FORBIDDEN"
	ErrCodeGalleryUpstream      ErrorCode = "GALLERY_UPSTREAM"
	ErrCodeGalleryRateLimited   ErrorCode = "GALLERY_RATE_LIMITED"
	ErrCodeTokenInvalid         ErrorCode = "TOKEN_INVALID"

	// Idle tracking errors
	ErrCodeIdleIO ErrorCode = "IDLE_IO"

	// Extension sync errors
	ErrCodeExtSyncList    ErrorCode = "EXTSYNC_LIST"
	ErrCodeExtSyncInstall ErrorCode = "EXTSYNC_INSTALL"

	// Library management errors
	ErrCodeLibMgmtInvalid ErrorCode = "LIBMGMT_INVALID"
	ErrCodeLibMgmtIO      ErrorCode = "LIBMGMT_IO"

	// Notebook errors
	ErrCodeNotebookRegion   ErrorCode = "NOTEBOOK_REGION"
	ErrCodeNotebookDownload ErrorCode = "NOTEBOOK_DOWNLOAD"

	// Generic errors
	ErrCodeInternal     ErrorCode = "INTERNAL"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Error is a coded error carrying optional user-facing text.
type Error struct {
	Code        ErrorCode
	Message     string
	Underlying  error
	Context     map[string]any
	Stack       []Frame
	Retryable   bool
	UserMessage string
	Remediation []string
}

// Frame represents a stack frame
type Frame struct {
	Function string
	File     string
	Line     int
}

// New creates a new structured error
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
		Stack:   captureStack(2),
	}
}

// Newf is New with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	e := New(code, fmt.Sprintf(format, args...))
	e.Stack = captureStack(2)
	return e
}

// Wrap wraps err with a code. A nil err yields nil.
func Wrap(err error, code ErrorCode, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:       code,
		Message:    message,
		Underlying: err,
		Context:    make(map[string]any),
		Stack:      captureStack(2),
	}
}

// WithContext adds a key-value pair to the error
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// WithRetryable marks the error as retryable
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithUserMessage sets the text shown to end users.
func (e *Error) WithUserMessage(message string) *Error {
	e.UserMessage = message
	return e
}

// WithRemediation replaces the remediation tips.
func (e *Error) WithRemediation(tips ...string) *Error {
	if len(tips) == 0 {
		return e
	}
	e.Remediation = append([]string{}, tips...)
	return e
}

// Error implements the error interface
func (e *Error) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s", e.Code, e.Message)

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString(" {")
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s: %v", k, e.Context[k])
		}
		sb.WriteString("}")
	}

	if e.Underlying != nil {
		fmt.Fprintf(&sb, ": %v", e.Underlying)
	}
	return sb.String()
}

// Unwrap returns the underlying error for errors.Is/As
func (e *Error) Unwrap() error {
	return e.Underlying
}

// Display returns the user message when set, else the plain message.
func (e *Error) Display() string {
	if e.UserMessage != "" {
		return e.UserMessage
	}
	return e.Message
}

// StackTrace returns a formatted stack trace
func (e *Error) StackTrace() string {
	var sb strings.Builder
	sb.WriteString("Stack trace:\n")
	for i, frame := range e.Stack {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, frame.Function)
		fmt.Fprintf(&sb, "     %s:%d\n", frame.File, frame.Line)
	}
	return sb.String()
}

func captureStack(skip int) []Frame {
	const maxDepth = 32
	var pcs [maxDepth]uintptr

	n := runtime.Callers(skip+1, pcs[:])
	iter := runtime.CallersFrames(pcs[:n])
	frames := make([]Frame, 0, n)
	for {
		f, more := iter.Next()
		if f.Function != "" {
			frames = append(frames, Frame{Function: f.Function, File: f.File, Line: f.Line})
		}
		if !more {
			break
		}
	}
	return frames
}

// IsCode reports whether any error in err's chain has the given code.
func IsCode(err error, code ErrorCode) bool {
	var coded *Error
	if !stderrors.As(err, &coded) {
		return false
	}
	return coded.Code == code
}

// GetCode extracts the error code from an error chain. Plain errors map to
// ErrCodeInternal.
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var coded *Error
	if !stderrors.As(err, &coded) {
		return ErrCodeInternal
	}
	return coded.Code
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var coded *Error
	if !stderrors.As(err, &coded) {
		return false
	}
	return coded.Retryable
}

// UserMessage returns the friendliest message available for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var coded *Error
	if stderrors.As(err, &coded) {
		return coded.Display()
	}
	return err.Error()
}
