package domain

import "errors"

var (
	// ErrInvalidBank is returned when a caller-supplied question bank fails validation.
	ErrInvalidBank = errors.New("invalid question bank")
	// ErrInvalidAnswers is returned when a submission does not match the frozen question set.
	ErrInvalidAnswers = errors.New("invalid answers")
	// ErrWrongState is returned when an operation is illegal in the instance's current state.
	ErrWrongState = errors.New("operation not allowed in current state")
	// ErrCodeNotFound is returned when a share code resolves to no joinable instance.
	ErrCodeNotFound = errors.New("share code not found")
	// ErrCodeSpaceExhausted is returned when code minting keeps colliding after bounded retries.
	ErrCodeSpaceExhausted = errors.New("share code space exhausted")
	// ErrAlreadyResponded is returned when a responder submits twice against one instance.
	ErrAlreadyResponded = errors.New("responder already submitted answers")
	// ErrResultNotReady is returned when a result is requested before both sides have answered.
	ErrResultNotReady = errors.New("result not ready")
	// ErrInstanceNotFound is returned when an instance id is unknown to the store.
	ErrInstanceNotFound = errors.New("quiz instance not found")
	// ErrCodeTaken is a store-level signal that a minted code is already reserved.
	ErrCodeTaken = errors.New("share code already taken")
)
