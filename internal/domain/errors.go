package domain

import "errors"

// ErrNotFound is returned by repositories when a row does not exist.
// Services translate it into the entity-specific coded error.
var ErrNotFound = errors.New("not found")

// Kind classifies a coded error for transport mapping
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindConflict
	KindInvalid
	KindUnauthorized
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInvalid:
		return "invalid_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Error is a business rule failure carrying a stable machine-readable code.
// Codes are part of the public API and must not change.
type Error struct {
	Code    string
	Message string
	Kind    Kind
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches on code so wrapped copies with a custom message still compare equal.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithMessage returns a copy of e with a different human-readable message
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Code: e.Code, Message: msg, Kind: e.Kind}
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Code: code, Message: message, Kind: kind}
}

var (
	ErrUserNotFound       = newError(KindNotFound, "USER_NOT_FOUND", "User not found.")
	ErrEmailAlreadyUsed   = newError(KindConflict, "EMAIL_ALREADY_USED", "This email is already used.")
	ErrUserInUse          = newError(KindConflict, "USER_IN_USE", "User still teaches at least one session.")
	ErrInvalidCredentials = newError(KindUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password.")
	ErrWeakPassword       = newError(KindInvalid, "WEAK_PASSWORD", "Password must have at least 8 characters.")

	ErrFormationNotFound         = newError(KindNotFound, "FORMATION_NOT_FOUND", "Formation not found.")
	ErrFormationTitleAlreadyUsed = newError(KindConflict, "FORMATION_TITLE_ALREADY_USED", "This formation title is already used.")
	ErrFormationInUse            = newError(KindConflict, "FORMATION_IN_USE", "Formation still has sessions.")

	ErrSessionNotFound                = newError(KindNotFound, "SESSION_NOT_FOUND", "Session not found.")
	ErrTeacherNotFound                = newError(KindNotFound, "TEACHER_NOT_FOUND", "Teacher not found.")
	ErrUserNotTrainer                 = newError(KindInvalid, "USER_NOT_TRAINER", "User is not a trainer.")
	ErrSessionStartDateAfterEndDate   = newError(KindInvalid, "SESSION_START_DATE_AFTER_END_DATE", "Session start date must be before end date.")
	ErrSessionStartDateAlreadyExists  = newError(KindConflict, "SESSION_START_DATE_ALREADY_EXISTS", "A session already starts at this date.")
	ErrSessionEndDateAlreadyExists    = newError(KindConflict, "SESSION_END_DATE_ALREADY_EXISTS", "A session already ends at this date.")
	ErrSessionCapacityBelowEnrollment = newError(KindInvalid, "SESSION_CAPACITY_BELOW_ENROLLMENTS", "Session capacity cannot be lower than its current enrollment count.")
	ErrSessionDatesExcludeSignatures  = newError(KindInvalid, "SESSION_DATES_EXCLUDE_SIGNATURES", "Session dates would leave recorded signatures outside the session period.")

	ErrEnrollmentNotFound      = newError(KindNotFound, "ENROLLMENT_NOT_FOUND", "Enrollment not found.")
	ErrEnrollmentAlreadyExists = newError(KindConflict, "ENROLLMENT_ALREADY_EXISTS", "Student is already enrolled in this session.")
	ErrEnrollmentSessionFull   = newError(KindConflict, "ENROLLMENT_SESSION_FULL", "Session is full.")
	ErrEnrollmentHasSignatures = newError(KindConflict, "ENROLLMENT_HAS_SIGNATURES", "Enrollment has recorded signatures and cannot be moved.")

	ErrSignatureNotFound           = newError(KindNotFound, "SIGNATURE_NOT_FOUND", "Signature not found.")
	ErrSignatureDateOutsideSession = newError(KindInvalid, "SIGNATURE_DATE_OUTSIDE_SESSION", "Signature date is outside the session period.")
	ErrUserNotEnrolledInSession    = newError(KindInvalid, "USER_NOT_ENROLLED_IN_SESSION", "User is not enrolled in this session.")
	ErrSignatureAlreadyExists      = newError(KindConflict, "SIGNATURE_ALREADY_EXISTS_FOR_DATE", "User already signed for this session and date.")

	ErrGroupNotFound = newError(KindNotFound, "GROUP_NOT_FOUND", "Group not found.")
	ErrBriefNotFound = newError(KindNotFound, "BRIEF_NOT_FOUND", "Brief not found.")

	ErrInvalidRequest = newError(KindInvalid, "INVALID_REQUEST", "Invalid request.")
	ErrUnauthorized   = newError(KindUnauthorized, "UNAUTHORIZED", "Authentication required.")
	ErrForbidden      = newError(KindForbidden, "FORBIDDEN", "You are not allowed to perform this action.")
)

// AsError extracts a coded error from err's chain
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
