package service

import (
	"errors"
	"fmt"

	"cybercafe/internal/validation"
)

var (
	// ErrDuplicateIDNumber is reported on the id_number field when another
	// student already holds the identification number
	ErrDuplicateIDNumber = errors.New("a student with this identification number already exists")
	// ErrUnknownStudent is reported on the id_number field of the payment form
	ErrUnknownStudent = errors.New("no student has this identification number")
	// ErrSessionAlreadyOpen means the student is already checked in
	ErrSessionAlreadyOpen = errors.New("student already has an open session")
)

// fieldError returns a validation.Errors on field that also matches sentinel
// with errors.Is
func fieldError(field string, sentinel error) error {
	return fmt.Errorf("%w: %w", sentinel, validation.Field(field, sentinel.Error()))
}
