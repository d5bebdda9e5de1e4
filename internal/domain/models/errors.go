package models

import (
	"errors"
	"fmt"
)

var (
	ErrInputFault     = errors.New("input fault")
	ErrNotFound       = errors.New("not found")
	ErrAlreadySettled = errors.New("decision already settled")
	ErrInvalidResult  = errors.New("invalid settlement result")
)

// InputFaultError describes a malformed input series.
type InputFaultError struct {
	Reason string
}

func NewInputFault(format string, a ...interface{}) *InputFaultError {
	return &InputFaultError{Reason: fmt.Sprintf(format, a...)}
}

func (e *InputFaultError) Error() string { return "input fault: " + e.Reason }

func (e *InputFaultError) Is(target error) bool { return target == ErrInputFault }
