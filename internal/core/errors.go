package core

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateClient    = errors.New("client already registered")
	ErrInvalidClient      = errors.New("invalid client")
	ErrUnknownClient      = errors.New("unknown client")
	ErrInvalidCredit      = errors.New("invalid credit")
	ErrUnknownCredit      = errors.New("unknown credit")
	ErrInvalidPayment     = errors.New("invalid payment")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicateUser      = errors.New("user already exists")
	ErrInvalidUser        = errors.New("invalid user")
	ErrInvalidConfig      = errors.New("invalid configuration")
)

// ValidationError names the field a request was rejected on
type ValidationError struct {
	Kind   error
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %s %s", e.Kind, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Kind
}

func invalid(kind error, field, reason string) error {
	return &ValidationError{Kind: kind, Field: field, Reason: reason}
}
