package srvcerror

import "net/http"

// Error is a coded error whose message is safe to show to the submitting
// user. Debug information stays server side.
type Error struct {
	errorCode  string
	msgToUser  string // public
	dbgInfoErr error  // private, for debugging

	httpStatus int  // optional, for HTTP responses
	retryable  bool // the same request may succeed if repeated later
}

func (e *Error) Error() string {
	return e.msgToUser
}

func (e *Error) ErrorCode() string {
	return e.errorCode
}

func (e *Error) DebugInfo() error {
	return e.dbgInfoErr
}

func (e *Error) SetDebug(err error) *Error {
	e.dbgInfoErr = err
	return e
}

// Unwrap exposes the debug error so errors.Is can see the store sentinel
// behind a user-facing error.
func (e *Error) Unwrap() error {
	return e.dbgInfoErr
}

// Is matches two service errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.errorCode == e.errorCode
}

func (e *Error) HttpStatusCode() int {
	if e.httpStatus == 0 {
		return http.StatusInternalServerError
	}
	return e.httpStatus
}

func (e *Error) SetHttpStatusCode(code int) *Error {
	e.httpStatus = code
	return e
}

func (e *Error) Retryable() bool {
	return e.retryable
}

func (e *Error) SetRetryable() *Error {
	e.retryable = true
	return e
}

func New(errorCode string, msgToUser string) *Error {
	return &Error{
		errorCode: errorCode,
		msgToUser: msgToUser,
	}
}

const ErrCodeInternalServerError = "internal_server_error"

func ErrInternalSE() *Error {
	return New(
		ErrCodeInternalServerError,
		"sunucu hatası, lütfen daha sonra tekrar deneyin",
	).SetHttpStatusCode(http.StatusInternalServerError)
}

const ErrCodeUnauthorized = "unauthorized"

func ErrUnauthorized() *Error {
	return New(
		ErrCodeUnauthorized,
		"bu işlem için yetkiniz yok",
	).SetHttpStatusCode(http.StatusUnauthorized)
}
