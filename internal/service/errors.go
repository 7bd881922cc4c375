package service

import "errors"

// Error classes. Every domain failure unwraps to exactly one of these, so
// callers can branch on the class with errors.Is while still surfacing the
// precise reason string to the user.
var (
	ErrValidation        = errors.New("validation error")
	ErrConflict          = errors.New("conflict error")
	ErrAuthorization     = errors.New("authorization error")
	ErrState             = errors.New("state error")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

type clearingError struct {
	class  error
	reason string
}

func (e *clearingError) Error() string { return e.reason }
func (e *clearingError) Unwrap() error { return e.class }

// Reason strings are part of the external contract and kept verbatim.
var (
	ErrEmptyOperationID = &clearingError{ErrValidation, "Operation ID must not be empty"}
	ErrNonPositiveValue = &clearingError{ErrValidation, "Value must be greater than zero"}
	ErrZeroPayee        = &clearingError{ErrValidation, "Payee address must not be zero address"}
	ErrZeroPayer        = &clearingError{ErrValidation, "Payer address must not be zero address"}
	ErrZeroAccount      = &clearingError{ErrValidation, "Account address must not be zero address"}

	ErrOperationIDUsed       = &clearingError{ErrConflict, "This operationId already exists"}
	ErrOperatorAuthorized    = &clearingError{ErrConflict, "The operator is already authorized"}
	ErrOperatorNotAuthorized = &clearingError{ErrConflict, "The operator is already not authorized"}
	ErrLoginTaken            = &clearingError{ErrConflict, "This login already exists"}

	ErrNotOperator        = &clearingError{ErrAuthorization, "Caller is not an authorized operator for the payer"}
	ErrProcessNotAgent    = &clearingError{ErrAuthorization, "Can only be processed by the agent"}
	ErrRejectNotAgent     = &clearingError{ErrAuthorization, "Can only be rejected by the agent"}
	ErrExecuteNotAgent    = &clearingError{ErrAuthorization, "Can only be executed by the agent"}
	ErrCancelNotPayer     = &clearingError{ErrAuthorization, "Can only be processed by the payer"}
	ErrNotAgent           = &clearingError{ErrAuthorization, "Can only be performed by an agent"}
	ErrInvalidCredentials = &clearingError{ErrAuthorization, "Invalid login or password"}

	ErrProcessBadStatus = &clearingError{ErrState, "A transfer can only be processed in status Ordered"}
	ErrRejectBadStatus  = &clearingError{ErrState, "A transfer can only be rejected in status Ordered or InProcess"}
	ErrCancelBadStatus  = &clearingError{ErrState, "A transfer can only be cancelled in status Ordered"}
	ErrExecuteBadStatus = &clearingError{ErrState, "A transfer can only be executed in status Ordered or InProcess"}
	ErrTransferNotFound = &clearingError{ErrState, "No transfer exists for this operationId"}

	ErrInsufficientBalance = &clearingError{ErrInsufficientFunds, "Value exceeds the spendable balance"}
)

// IsDomainError reports whether err belongs to one of the five error
// classes, i.e. was rejected before any mutation took place.
func IsDomainError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrAuthorization) ||
		errors.Is(err, ErrState) ||
		errors.Is(err, ErrInsufficientFunds)
}
