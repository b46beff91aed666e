package response

import (
	"errors"
	"fmt"

	"agenda-service/internal/models"
)

type Response struct {
	ResponseError `json:"error,omitzero"`
}

type ResponseError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Conflicts []int  `json:"conflicts,omitempty"`
}

//Error Codes
type ErrCode string

var (
	FAILED_REQUEST  ErrCode = "REQUEST_FAILED"
	BAD_REQUEST     ErrCode = "FAILED_TO_DECODE"
	VALIDATION      ErrCode = "VALIDATION_FAILED"
	NOT_FOUND       ErrCode = "NOT_FOUND"
	LOCKED          ErrCode = "LOCKED"
	CONFLICT        ErrCode = "CONFLICT"
	DUPLICATE       ErrCode = "DUPLICATE_REQUEST"
	FORBIDDEN       ErrCode = "FORBIDDEN"
	STATE_VIOLATION ErrCode = "STATE_VIOLATION"
	INVALID_RANGE   ErrCode = "INVALID_RANGE"
)

var (
	ErrBadRequest     = errors.New("bad request")
	ErrValidation     = errors.New("validation failed")
	ErrNotFound       = errors.New("resource not found")
	ErrLocked         = errors.New("resource is locked")
	ErrConflict       = errors.New("periods are not available")
	ErrDuplicate      = errors.New("duplicate pending request")
	ErrForbidden      = errors.New("operation not permitted")
	ErrStateViolation = errors.New("booking is already decided")
	ErrInvalidRange   = errors.New("start date is after end date")
	ErrNameTaken      = errors.New("name already in use")
)

// PeriodConflictError carries the periods already occupied on the requested
// date so callers can present them. Matches ErrConflict via errors.Is.
type PeriodConflictError struct {
	Periods models.PeriodSet
}

func (e *PeriodConflictError) Error() string {
	return fmt.Sprintf("periods %v are not available", e.Periods.Ints())
}

func (e *PeriodConflictError) Unwrap() error {
	return ErrConflict
}

func Error(code, msg string) Response {
	return Response{
		ResponseError: ResponseError{
			Code:    code,
			Message: msg,
		},
	}
}

// ConflictResponse reports an availability conflict together with the
// occupied periods.
func ConflictResponse(code, msg string, conflicts models.PeriodSet) Response {
	return Response{
		ResponseError: ResponseError{
			Code:      code,
			Message:   msg,
			Conflicts: conflicts.Ints(),
		},
	}
}
