package domain

import (
	"errors"
	"strings"
)

// Kind classifies an error so the façade can map it onto the wire.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindInvalidArgument
	KindInvalidState
	KindPermissionDenied
	KindIntegrity
)

// Code is the machine-readable name of the kind.
func (k Kind) Code() string {
	switch k {
	case KindNotFound:
		return "NOT_FOUND"
	case KindInvalidArgument:
		return "INVALID_ARGUMENT"
	case KindInvalidState:
		return "INVALID_STATE"
	case KindPermissionDenied:
		return "PERMISSION_DENIED"
	case KindIntegrity:
		return "INTEGRITY"
	default:
		return "INTERNAL"
	}
}

// Error is a sentinel error tagged with a Kind.
type Error struct {
	Kind Kind
	msg  string
}

// NewError builds a kinded sentinel.
func NewError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }

var (
	// ErrChallengeNotFound is returned when a challenge ID does not resolve.
	ErrChallengeNotFound = NewError(KindNotFound, "challenge not found")
	// ErrResponseNotFound is returned when a response ID does not resolve.
	ErrResponseNotFound = NewError(KindNotFound, "response not found")
	// ErrNoResponses is returned when an answer submission is empty.
	ErrNoResponses = NewError(KindInvalidArgument, "no responses submitted")
	// ErrInvalidQuestions is returned when submitted question IDs are not part of the response.
	ErrInvalidQuestions = NewError(KindInvalidArgument, "invalid question IDs")
	// ErrInvalidAnswer is returned when an answer does not fit its question type.
	ErrInvalidAnswer = NewError(KindInvalidArgument, "invalid answer")
	// ErrInvalidChallenge is returned when challenge attributes fail validation.
	ErrInvalidChallenge = NewError(KindInvalidArgument, "invalid challenge")
	// ErrChallengeExists is returned when creating a challenge under an ID already in use.
	ErrChallengeExists = NewError(KindInvalidState, "challenge already exists")
	// ErrResponseCompleted is returned when editing a response that is no longer in progress.
	ErrResponseCompleted = NewError(KindInvalidState, "unable to update response that has been completed")
	// ErrAlreadyFinalized is returned by a second finalize.
	ErrAlreadyFinalized = NewError(KindInvalidState, "response is already finalized")
	// ErrStatusConflict is returned by stores when a conditional write lost a race.
	ErrStatusConflict = NewError(KindInvalidState, "response status changed concurrently")
	// ErrNotOwner is returned when a user finalizes someone else's response.
	ErrNotOwner = NewError(KindPermissionDenied, "response does not belong to user")
	// ErrChallengeMissing is returned when a stored response references a deleted challenge.
	ErrChallengeMissing = NewError(KindIntegrity, "response references a missing challenge")
)

// InvalidQuestionsError lists question IDs rejected by a submission.
type InvalidQuestionsError struct {
	IDs []string
}

func (e *InvalidQuestionsError) Error() string {
	return ErrInvalidQuestions.Error() + ": " + strings.Join(e.IDs, ", ")
}

func (e *InvalidQuestionsError) Unwrap() error { return ErrInvalidQuestions }

// KindOf resolves the kind of err through any wrapping. Untyped errors are internal.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}
