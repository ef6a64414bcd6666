package errors

import "errors"

var (
	ErrInvalidProjectInput = errors.New("invalid project input")
	ErrProjectNotFound     = errors.New("project not found")
	ErrProjectStateInvalid = errors.New("project state does not permit this operation")
	ErrEscrowAlreadyLocked = errors.New("project escrow is already locked")
	ErrConflict            = errors.New("project service conflict")
)
