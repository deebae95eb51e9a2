package service

import (
	"errors"
	"fmt"
)

// Centralized service layer errors.
// Specific errors wrap one of the three kinds below so handlers can map a
// whole family onto a status code with errors.Is.

// ===== Error Kinds =====
var (
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
	ErrBadRequest = errors.New("bad request")
)

// ===== Guild Errors =====
var (
	ErrGuildExists   = fmt.Errorf("%w: guild already exists", ErrConflict)
	ErrGuildNotFound = fmt.Errorf("%w: guild", ErrNotFound)
	ErrUnknownGuild  = fmt.Errorf("%w: unknown guild", ErrBadRequest)
)

// ===== User Errors =====
var (
	ErrUserExists     = fmt.Errorf("%w: user already exists", ErrConflict)
	ErrUserNotFound   = fmt.Errorf("%w: user", ErrNotFound)
	ErrStructuralRole = fmt.Errorf("%w: role is managed through guild role slots", ErrBadRequest)
	ErrSlotHeld       = fmt.Errorf("%w: user holds a role slot in the guild", ErrConflict)
)

// ===== Partner Errors =====
var (
	ErrPartnerExists   = fmt.Errorf("%w: partner already exists", ErrConflict)
	ErrPartnerNotFound = fmt.Errorf("%w: partner", ErrNotFound)
)

// outcome is the metrics label for the result of an operation
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrBadRequest):
		return "bad_request"
	default:
		return "error"
	}
}
