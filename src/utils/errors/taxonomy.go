package errors

import "errors"

// Failure classes recognized by the rebalancing loop. The first three degrade
// to "no trade action this pass"; ErrStateInvariant signals a logic defect and
// is never swallowed.
var (
	// ErrBadData: asset statistics are missing or malformed for a requested ticker.
	ErrBadData = errors.New("bad asset statistics")

	// ErrSingularRisk: the covariance sub-matrix for the current watch set is
	// not invertible, so the tangency portfolio is undefined.
	ErrSingularRisk = errors.New("singular risk matrix")

	// ErrUnknownOrder: a trade references no outstanding order of this agent.
	// The trade belongs to someone else and is only a price observation.
	ErrUnknownOrder = errors.New("unknown order")

	// ErrStateInvariant: belief or ledger state violated an invariant
	// (negative balance, negative variance, duplicate terminal transition).
	ErrStateInvariant = errors.New("state invariant violated")
)

// Is reports whether any error in err's chain matches target.
// It's a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
