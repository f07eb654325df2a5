package services

import "errors"

type ErrorCode string

const (
	ErrorInvalid      ErrorCode = "invalid"
	ErrorForbidden    ErrorCode = "forbidden"
	ErrorNotFound     ErrorCode = "not_found"
	ErrorConflict     ErrorCode = "conflict"
	ErrorUnauthorized ErrorCode = "unauthorized"

	// Domain-specific codes. These surface to callers so the admin UI
	// can render each failure class distinctly instead of a generic 500.
	ErrorConfigConflict    ErrorCode = "config_conflict"
	ErrorConfigImmutable   ErrorCode = "config_immutable"
	ErrorUnresolvedTrigger ErrorCode = "unresolved_trigger"
	ErrorCampaignClosed    ErrorCode = "campaign_closed"
	ErrorAmbiguousRow      ErrorCode = "ambiguous_row"
)

type ServiceError struct {
	Code    ErrorCode
	Message string
}

func (e *ServiceError) Error() string { return e.Message }

func NewInvalidError(msg string) error   { return &ServiceError{Code: ErrorInvalid, Message: msg} }
func NewForbiddenError(msg string) error { return &ServiceError{Code: ErrorForbidden, Message: msg} }
func NewNotFoundError(msg string) error  { return &ServiceError{Code: ErrorNotFound, Message: msg} }
func NewConflictError(msg string) error  { return &ServiceError{Code: ErrorConflict, Message: msg} }
func NewUnauthorizedError(msg string) error {
	return &ServiceError{Code: ErrorUnauthorized, Message: msg}
}

func NewConfigConflictError(msg string) error {
	return &ServiceError{Code: ErrorConfigConflict, Message: msg}
}

func NewConfigImmutableError(msg string) error {
	return &ServiceError{Code: ErrorConfigImmutable, Message: msg}
}

func NewCampaignClosedError(msg string) error {
	return &ServiceError{Code: ErrorCampaignClosed, Message: msg}
}

func NewAmbiguousRowError(msg string) error {
	return &ServiceError{Code: ErrorAmbiguousRow, Message: msg}
}

// UnresolvedTriggerError reports a trigger key whose point value could
// not be resolved from either the activity registry or the fallback
// table. It must propagate; a silent zero would corrupt a score with no
// visible signal.
type UnresolvedTriggerError struct {
	TriggerKey string
	YearCode   string
}

func (e *UnresolvedTriggerError) Error() string {
	return "no point value resolvable for trigger " + e.TriggerKey + " in year " + e.YearCode
}

// Code lets UnresolvedTriggerError participate in code-based matching.
func (e *UnresolvedTriggerError) Code() ErrorCode { return ErrorUnresolvedTrigger }

func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// CodeOf extracts the error code, if any, from err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	if se, ok := AsServiceError(err); ok {
		return se.Code, true
	}
	var ut *UnresolvedTriggerError
	if errors.As(err, &ut) {
		return ErrorUnresolvedTrigger, true
	}
	return "", false
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	got, ok := CodeOf(err)
	return ok && got == code
}
