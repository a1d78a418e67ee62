package domain

import "errors"

var (
	// ErrUserNotFound is returned when the user has no stored state.
	ErrUserNotFound = errors.New("user not found")

	// ErrInsufficientData marks a recommendation request made before the
	// learning-phase gate. Callers treat it as a defined no-op, not a
	// failure.
	ErrInsufficientData = errors.New("not enough ratings to generate recommendations")

	// ErrProfileRebuild marks a profile recompute that fell back to the
	// previous snapshot. Recoverable.
	ErrProfileRebuild = errors.New("profile rebuild failed, previous profile retained")

	// ErrModelNotTrained is returned by the model store when no weight
	// vector has been persisted yet.
	ErrModelNotTrained = errors.New("no trained model weights available")

	// ErrInvalidRating rejects ratings outside 1-10 and the known
	// sentinels.
	ErrInvalidRating = errors.New("invalid rating value")
)
