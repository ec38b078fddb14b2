package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// Reason codes for role transition rejections.
const (
	CodeNotFound           = "NOT_FOUND"
	CodeInvalidRole        = "INVALID_ROLE"
	CodeAdminRoleImmutable = "ADMIN_ROLE_IMMUTABLE"
	CodeAdminAlreadyExists = "ADMIN_ALREADY_EXISTS"
	CodeTechnicianBusy     = "TECHNICIAN_HAS_ACTIVE_JOBS"
	CodeRoleAssignFailed   = "ROLE_ASSIGNMENT_FAILED"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeConflict           = "CONFLICT"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeDependencyDown     = "DEPENDENCY_UNAVAILABLE"
	CodeRateLimited        = "RATE_LIMITED"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewInvalidRole(role string) error {
	return NewDomainError(CodeInvalidRole, fmt.Sprintf("unknown role %q", role),
		http.StatusBadRequest, map[string]any{"role": role})
}

func NewAdminRoleImmutable(userID string) error {
	return NewDomainError(CodeAdminRoleImmutable, "admin role cannot be changed",
		http.StatusConflict, map[string]any{"user_id": userID})
}

func NewAdminAlreadyExists(holderID string) error {
	return NewDomainError(CodeAdminAlreadyExists, "an admin account already exists",
		http.StatusConflict, map[string]any{"admin_user_id": holderID})
}

func NewTechnicianHasActiveJobs(userID string, count int) error {
	return NewDomainError(CodeTechnicianBusy,
		fmt.Sprintf("technician has %d active job(s)", count),
		http.StatusConflict, map[string]any{"user_id": userID, "active_jobs": count})
}

func NewRoleAssignmentFailed(err error) error {
	return &DomainError{
		Code:       CodeRoleAssignFailed,
		Message:    "role assignment rejected by store",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternalError,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return NewNotFound("resource", nil).(*DomainError)
	}
	return NewInternalError(err).(*DomainError)
}

// MapError normalizes any error into the domain taxonomy.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}
