package competitionservice

import (
	"errors"
	"fmt"

	"github.com/Black-And-White-Club/comp-rounds/app/modules/ruleset"
	"github.com/Black-And-White-Club/frolf-bot-shared/utils/results"
)

// Domain failures. They are returned to callers as-is and never retried.
var (
	ErrUnauthenticated = errors.New("must log in")
	ErrForbidden       = errors.New("not allowed to manage this competition")
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrTooManyRounds   = errors.New("too many rounds")
	ErrCannotRemove    = errors.New("cannot remove round: it must be the last round of its event and have no results")
	ErrNoNextRound     = errors.New("no next round")
)

// InvalidArgument refinements; each matches ErrInvalidArgument with errors.Is.
var (
	ErrInvalidCount           = fmt.Errorf("%w: competitor count", ErrInvalidArgument)
	ErrEventUnrecognized      = fmt.Errorf("%w: unrecognized event", ErrInvalidArgument)
	ErrFormatUnrecognized     = fmt.Errorf("%w: format not allowed for event", ErrInvalidArgument)
	ErrInvalidRound           = fmt.Errorf("%w: invalid round", ErrInvalidArgument)
	ErrInvalidCompetitionName = fmt.Errorf("%w: competition name must be nonempty", ErrInvalidArgument)
)

var domainErrors = []error{
	ErrUnauthenticated,
	ErrForbidden,
	ErrNotFound,
	ErrInvalidArgument,
	ErrTooManyRounds,
	ErrCannotRemove,
	ErrNoNextRound,
	ruleset.ErrInvalidPosition,
}

// IsDomainError reports whether err is a caller-visible failure rather than an
// infrastructure error.
func IsDomainError(err error) bool {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// failOr routes domain errors into a failure result and everything else into
// the infrastructure error return.
func failOr[S any](err error) (results.OperationResult[S, error], error) {
	if IsDomainError(err) {
		return results.FailureResult[S, error](err), nil
	}
	return results.OperationResult[S, error]{}, err
}
