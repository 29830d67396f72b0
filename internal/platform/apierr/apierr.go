package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind is the coarse failure class surfaced to callers.
type Kind string

const (
	KindAuthentication        Kind = "authentication"
	KindAuthorization         Kind = "authorization"
	KindNotFound              Kind = "not_found"
	KindConflict              Kind = "conflict"
	KindValidation            Kind = "validation"
	KindDependencyUnavailable Kind = "dependency_unavailable"
	KindInternal              Kind = "internal"
)

// Specific failure codes. Clients branch on these.
const (
	CodeInvalidToken      = "invalid_token"
	CodeProfileMissing    = "profile_missing"
	CodeAccountSuspended  = "account_suspended"
	CodeDeviceNotAllowed  = "device_not_allowed"
	CodeSessionNotFound   = "session_not_found"
	CodeSessionRevoked    = "session_revoked"
	CodeDeviceMismatch    = "device_mismatch"
	CodeForbidden         = "forbidden"
	CodeNotOwner          = "not_owner"
	CodeDocumentLocked    = "document_locked"
	CodeDocumentNotFound  = "document_not_found"
	CodeNotFound          = "not_found"
	CodeTokenNotFound     = "token_not_found"
	CodeSlugRequired      = "slug_required"
	CodeSlugTaken         = "slug_taken"
	CodeDocIDExists       = "doc_id_exists"
	CodeIllegalTransition = "illegal_transition"
	CodeStaleWrite        = "stale_write"
	CodeUniqueViolation   = "unique_violation"
	CodeScheduleInPast    = "schedule_in_past"
	CodeFeedbackRequired  = "feedback_required"
	CodeInvalidInput      = "invalid_input"
	CodeStoreUnavailable  = "store_unavailable"
	CodeIdentityUnavail   = "identity_unavailable"
	CodeInternal          = "internal"
)

type Error struct {
	Kind Kind
	Code string
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := ""
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = e.Code
	}
	if msg == "" {
		msg = string(e.Kind)
	}
	if op := strings.TrimSpace(e.Op); op != "" {
		return fmt.Sprintf("%s: %s", op, msg)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an error with a plain message.
func New(kind Kind, code, op, message string) *Error {
	var err error
	if strings.TrimSpace(message) != "" {
		err = errors.New(message)
	}
	return &Error{Kind: kind, Code: code, Op: op, Err: err}
}

// Wrap annotates err. A nil err stays nil.
func Wrap(kind Kind, code, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Code: code, Op: op, Err: err}
}

func as(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	if e := as(err); e != nil {
		return e.Kind
	}
	return KindInternal
}

func CodeOf(err error) string {
	if e := as(err); e != nil {
		return e.Code
	}
	if err != nil {
		return CodeInternal
	}
	return ""
}

func IsCode(err error, code string) bool {
	return err != nil && CodeOf(err) == code
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps an error to the response status.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindValidation:
		return http.StatusBadRequest
	case KindDependencyUnavailable:
		return http.StatusServiceUnavailable
	case "":
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}

// Constructors for the common kinds.

func Authentication(code, op, msg string) *Error { return New(KindAuthentication, code, op, msg) }
func Authorization(code, op, msg string) *Error  { return New(KindAuthorization, code, op, msg) }
func NotFound(code, op, msg string) *Error       { return New(KindNotFound, code, op, msg) }
func Conflict(code, op, msg string) *Error       { return New(KindConflict, code, op, msg) }
func Validation(code, op, msg string) *Error     { return New(KindValidation, code, op, msg) }

func Unavailable(code, op string, err error) error {
	return Wrap(KindDependencyUnavailable, code, op, err)
}
