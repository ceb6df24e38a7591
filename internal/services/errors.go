package services

import (
	"errors"

	"github.com/diewo77/dealflow/internal/models"
	"github.com/diewo77/dealflow/internal/validation"
)

var (
	ErrClientInUse  = errors.New("client_in_use")
	ErrAlreadyFinal = errors.New("proposal_already_final")
)

// ValidationError reports invalid caller input field by field.
// It matches models.ErrInvalidInput with errors.Is.
type ValidationError struct {
	Violations validation.Violations
}

func (e *ValidationError) Error() string {
	return "invalid input: " + e.Violations.String()
}

func (e *ValidationError) Is(target error) bool {
	return target == models.ErrInvalidInput
}
