package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation     Kind = "validation"
	KindAuthentication Kind = "authentication"
	KindAuthorization  Kind = "authorization"
	KindNotFound       Kind = "not_found"
	KindConflict       Kind = "conflict"
	KindDependency     Kind = "dependency"
	KindInternal       Kind = "internal"
)

type Code string

const (
	CodeMissingFields       Code = "MISSING_FIELDS"
	CodeInvalidEmailFormat  Code = "INVALID_EMAIL_FORMAT"
	CodeInvalidRole         Code = "INVALID_ROLE"
	CodeInvalidRequest      Code = "INVALID_REQUEST"
	CodeInvalidCredentials  Code = "INVALID_CREDENTIALS"
	CodeUnauthenticated     Code = "UNAUTHENTICATED"
	CodePendingApproval     Code = "PENDING_APPROVAL"
	CodeApplicationRejected Code = "APPLICATION_REJECTED"
	CodeForbidden           Code = "FORBIDDEN"
	CodeDuplicateEmail      Code = "DUPLICATE_EMAIL"
	CodeNotFound            Code = "NOT_FOUND"
	CodeAccountNotFound     Code = "ACCOUNT_NOT_FOUND"
	CodeNotGymOwner         Code = "NOT_GYM_OWNER"
	CodeInvalidTransition   Code = "INVALID_TRANSITION"
	CodeProfileLocked       Code = "PROFILE_LOCKED"
	CodeUnsupportedMedia    Code = "UNSUPPORTED_MEDIA"
	CodeStoreUnavailable    Code = "STORE_UNAVAILABLE"
	CodeTimeout             Code = "TIMEOUT"
	CodeServiceUnavailable  Code = "SERVICE_UNAVAILABLE"
	CodeInternal            Code = "INTERNAL_ERROR"
)

// Error is the error type every service returns at its boundary. Err holds the
// internal cause and is never shown to clients.
type Error struct {
	Kind    Kind
	Code    Code
	Message string
	Details any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s:%s] %s (%v)", e.Kind, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Kind, e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on code so sentinel values below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func (e *Error) WithDetails(details any) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

func (e *Error) Wrap(err error) *Error {
	cp := *e
	cp.Err = err
	return &cp
}

func (e *Error) Status() int {
	return StatusOf(e.Kind)
}

func New(kind Kind, code Code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func StatusOf(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindDependency:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// From converts any error into an *Error, treating unknown errors as internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrInternal.Wrap(err)
}

func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

var (
	ErrMissingFields      = New(KindValidation, CodeMissingFields, "missing required fields")
	ErrInvalidEmailFormat = New(KindValidation, CodeInvalidEmailFormat, "email address is not valid")
	ErrInvalidRole        = New(KindValidation, CodeInvalidRole, "role is not valid")
	ErrInvalidRequest     = New(KindValidation, CodeInvalidRequest, "request is not valid")
	ErrNotGymOwner        = New(KindValidation, CodeNotGymOwner, "account is not a gym owner")
	ErrUnsupportedMedia   = New(KindValidation, CodeUnsupportedMedia, "file type is not supported")

	ErrInvalidCredentials = New(KindAuthentication, CodeInvalidCredentials, "invalid email or password")
	ErrUnauthenticated    = New(KindAuthentication, CodeUnauthenticated, "authentication required")

	ErrPendingApproval     = New(KindAuthorization, CodePendingApproval, "account is awaiting super admin approval")
	ErrApplicationRejected = New(KindAuthorization, CodeApplicationRejected, "application was rejected")
	ErrForbidden           = New(KindAuthorization, CodeForbidden, "insufficient permissions")
	ErrProfileLocked       = New(KindAuthorization, CodeProfileLocked, "profile can no longer be edited")

	ErrNotFound        = New(KindNotFound, CodeNotFound, "resource not found")
	ErrAccountNotFound = New(KindNotFound, CodeAccountNotFound, "account not found")

	ErrDuplicateEmail    = New(KindConflict, CodeDuplicateEmail, "email already registered")
	ErrInvalidTransition = New(KindConflict, CodeInvalidTransition, "account has already been reviewed")

	ErrStoreUnavailable   = New(KindDependency, CodeStoreUnavailable, "service temporarily unavailable")
	ErrTimeout            = New(KindDependency, CodeTimeout, "upstream request timed out")
	ErrServiceUnavailable = New(KindDependency, CodeServiceUnavailable, "service temporarily unavailable")

	ErrInternal = New(KindInternal, CodeInternal, "internal server error")
)
