package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a domain failure
type Kind string

// Error kinds surfaced to the request layer
const (
	KindNotFound             Kind = "not_found"
	KindDuplicatePhoneNumber Kind = "duplicate_phone_number"
	KindDuplicateRole        Kind = "duplicate_role"
	KindRoleInUse            Kind = "role_in_use"
	KindConstraintViolation  Kind = "constraint_violation"
	KindValidation           Kind = "validation_failure"
	KindUnexpected           Kind = "unexpected"
)

// Error is a structured domain error.
// Entity, Field and Value name the record and the offending input so that the
// request layer can build a user-facing message.
type Error struct {
	Kind    Kind   `json:"kind"`
	Entity  string `json:"entity,omitempty"`
	Field   string `json:"field,omitempty"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`

	cause error
}

// Sentinels for errors.Is. Only Kind is compared.
var (
	ErrNotFound             = &Error{Kind: KindNotFound, Message: "not found"}
	ErrDuplicatePhoneNumber = &Error{Kind: KindDuplicatePhoneNumber, Message: "phone number already exists"}
	ErrDuplicateRole        = &Error{Kind: KindDuplicateRole, Message: "role already exists"}
	ErrRoleInUse            = &Error{Kind: KindRoleInUse, Message: "role is in use"}
	ErrConstraintViolation  = &Error{Kind: KindConstraintViolation, Message: "constraint violation"}
	ErrValidation           = &Error{Kind: KindValidation, Message: "validation failure"}
	ErrUnexpected           = &Error{Kind: KindUnexpected, Message: "unexpected error"}
)

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is a domain error of the same kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewNotFound reports that no entity matches field=value
func NewNotFound(entity, field, value string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Entity:  entity,
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf("%s with %s '%s' not found", entity, field, value),
	}
}

// NewDuplicatePhoneNumber reports a phone number already owned by another user
func NewDuplicatePhoneNumber(phone string, cause error) *Error {
	return &Error{
		Kind:    KindDuplicatePhoneNumber,
		Entity:  "user",
		Field:   "phoneNumber",
		Value:   phone,
		Message: fmt.Sprintf("user with phone number '%s' already exists", phone),
		cause:   cause,
	}
}

// NewDuplicateRole reports a role name created concurrently by another caller
func NewDuplicateRole(name string, cause error) *Error {
	return &Error{
		Kind:    KindDuplicateRole,
		Entity:  "role",
		Field:   "name",
		Value:   name,
		Message: fmt.Sprintf("role with name '%s' already exists", name),
		cause:   cause,
	}
}

// NewRoleInUse reports a role that is still referenced by at least one user
func NewRoleInUse(roleID string, cause error) *Error {
	return &Error{
		Kind:    KindRoleInUse,
		Entity:  "role",
		Field:   "id",
		Value:   roleID,
		Message: fmt.Sprintf("role '%s' is referenced by one or more users", roleID),
		cause:   cause,
	}
}

// NewConstraintViolation reports a storage level uniqueness or reference conflict
func NewConstraintViolation(entity, field, value string, cause error) *Error {
	return &Error{
		Kind:    KindConstraintViolation,
		Entity:  entity,
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf("%s %s '%s' violates a storage constraint", entity, field, value),
		cause:   cause,
	}
}

// NewValidation reports malformed input for a single field
func NewValidation(field, value, message string) *Error {
	return &Error{
		Kind:    KindValidation,
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// NewUnexpected wraps any failure that has no domain meaning
func NewUnexpected(message string, cause error) *Error {
	return &Error{
		Kind:    KindUnexpected,
		Message: message,
		cause:   cause,
	}
}

// KindOf returns the kind of err. Errors without a domain kind are unexpected.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

// AsError extracts the outermost domain error from err
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Internal wraps err as unexpected unless it already carries a domain kind
func Internal(message string, err error) error {
	if _, ok := AsError(err); ok {
		return err
	}
	return NewUnexpected(message, err)
}
