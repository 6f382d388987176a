package repository

import (
	"errors"
	"fmt"

	"github.com/aryan0dhankhar/formationhub/internal/domain"
	"github.com/lib/pq"
)

const (
	pqUniqueViolation      = "23505"
	pqForeignKeyViolation  = "23503"
	pqCheckViolation       = "23514"
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
)

// uniqueViolations maps unique constraints to the conflict they enforce
var uniqueViolations = map[string]*domain.Error{
	"users_email_lower_key":            domain.ErrEmailAlreadyUsed,
	"formations_title_lower_key":       domain.ErrFormationTitleAlreadyUsed,
	"sessions_start_date_key":          domain.ErrSessionStartDateAlreadyExists,
	"sessions_end_date_key":            domain.ErrSessionEndDateAlreadyExists,
	"enrollments_session_student_key":  domain.ErrEnrollmentAlreadyExists,
	"signatures_session_user_date_key": domain.ErrSignatureAlreadyExists,
}

// missingReferences maps foreign keys violated on insert/update to the missing parent
var missingReferences = map[string]*domain.Error{
	"sessions_formation_id_fkey":     domain.ErrFormationNotFound,
	"sessions_teacher_id_fkey":       domain.ErrTeacherNotFound,
	"enrollments_session_id_fkey":    domain.ErrSessionNotFound,
	"enrollments_student_id_fkey":    domain.ErrUserNotFound,
	"signatures_session_id_fkey":     domain.ErrSessionNotFound,
	"signatures_user_id_fkey":        domain.ErrUserNotFound,
	"signatures_enrollment_fkey":     domain.ErrUserNotEnrolledInSession,
	"groups_session_id_fkey":         domain.ErrSessionNotFound,
	"group_members_group_id_fkey":    domain.ErrGroupNotFound,
	"group_members_student_id_fkey":  domain.ErrUserNotFound,
	"briefs_session_id_fkey":         domain.ErrSessionNotFound,
	"brief_students_brief_id_fkey":   domain.ErrBriefNotFound,
	"brief_students_student_id_fkey": domain.ErrUserNotFound,
}

// restrictedReferences maps foreign keys violated when the parent row is
// deleted or its key changes
var restrictedReferences = map[string]*domain.Error{
	"sessions_formation_id_fkey": domain.ErrFormationInUse,
	"sessions_teacher_id_fkey":   domain.ErrUserInUse,
	"signatures_enrollment_fkey": domain.ErrEnrollmentHasSignatures,
}

var checkViolations = map[string]*domain.Error{
	"sessions_dates_check": domain.ErrSessionStartDateAfterEndDate,
}

// translateError turns constraint violations into coded domain errors.
// Anything else is returned unchanged.
func translateError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch pqErr.Code {
	case pqUniqueViolation:
		if e, ok := uniqueViolations[pqErr.Constraint]; ok {
			return e
		}
		return domain.ErrInvalidRequest
	case pqForeignKeyViolation:
		if e, ok := missingReferences[pqErr.Constraint]; ok {
			return e
		}
		return domain.ErrInvalidRequest
	case pqCheckViolation:
		if e, ok := checkViolations[pqErr.Constraint]; ok {
			return e
		}
		return domain.ErrInvalidRequest
	}
	return err
}

// translateDeleteError is translateError for deletes and key updates of a
// parent row, where a foreign key violation means the row is still referenced
func translateDeleteError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation {
		if e, ok := restrictedReferences[pqErr.Constraint]; ok {
			return e
		}
	}
	return translateError(err)
}

// IsRetryable reports whether err aborted a transaction that may succeed if replayed
func IsRetryable(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == pqSerializationFailure || pqErr.Code == pqDeadlockDetected
}

// wrapError translates err and, when it is not a coded error, wraps it with op
func wrapError(op string, err error) error {
	err = translateError(err)
	if _, ok := domain.AsError(err); ok {
		return err
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func wrapDeleteError(op string, err error) error {
	err = translateDeleteError(err)
	if _, ok := domain.AsError(err); ok {
		return err
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
