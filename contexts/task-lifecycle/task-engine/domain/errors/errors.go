package errors

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid task input")
	ErrTaskNotFound        = errors.New("task unit not found")
	ErrProjectNotFound     = errors.New("project not found")
	ErrSubmissionNotFound  = errors.New("submission not found")
	ErrWorkerNotFound      = errors.New("worker not found")
	ErrPreconditionFailed  = errors.New("invalid state transition attempted")
	ErrAlreadyTaken        = errors.New("task unit is already taken")
	ErrAssignmentLimit     = errors.New("concurrent assignment limit exceeded")
	ErrEvidenceMissing     = errors.New("required submission evidence is missing")
	ErrIneligible          = errors.New("validator is not eligible for this task")
	ErrDuplicateValidation = errors.New("validation verdict already recorded")
	ErrConflict            = errors.New("task engine conflict")
)
