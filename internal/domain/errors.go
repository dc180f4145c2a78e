package domain

import "errors"

// Fixed error catalog surfaced by the API. Every validation failure maps to
// exactly one of these so clients can rely on stable messages.
var (
	// ErrSegmentNotFound is returned when a segment or merged segment is not found
	ErrSegmentNotFound = errors.New("segment not found")

	// ErrUserNotFound is returned when no user exists for a wallet address
	ErrUserNotFound = errors.New("user not found")

	// ErrNotOwned is returned when the wallet does not own the segment(s) in question
	ErrNotOwned = errors.New("segment is not owned")

	// ErrNotMergeable is returned when a coordinate set does not tile a solid rectangle
	ErrNotMergeable = errors.New("segments are not mergeable")

	// ErrAlreadyMerged is returned when a segment already belongs to a merged segment
	ErrAlreadyMerged = errors.New("some segments already merged")

	// ErrAlreadyInGame is returned when a wallet joins the civilization game twice
	ErrAlreadyInGame = errors.New("user already in game")

	// ErrNotJoined is returned when a wallet has no civilization user yet
	ErrNotJoined = errors.New("user did not join the game yet")

	// ErrNotHosting is returned when a citizen claim finds nothing to claim
	ErrNotHosting = errors.New("nothing to claim")

	// ErrNotAllowed is returned when the civilization role does not match the operation
	ErrNotAllowed = errors.New("operation not allowed for this role")

	// ErrCavesLimit is returned when a segment already carries the maximum number of caves
	ErrCavesLimit = errors.New("caves limit exceeded on this segment")

	// ErrCaveAlreadyExists is returned when a cave position is already taken on a segment
	ErrCaveAlreadyExists = errors.New("cave already exists at this position")

	// ErrNotEnoughTokens is returned when the balance cannot cover the cave price
	ErrNotEnoughTokens = errors.New("not enough tokens for this action")

	// ErrBothTokensOwned is returned when a wallet holds both land and citizen tokens
	ErrBothTokensOwned = errors.New("wallet owns both token types")

	// ErrInvalidCoordinate is returned when a coordinate string cannot be parsed
	ErrInvalidCoordinate = errors.New("invalid coordinate")

	// ErrNoImageProvided is returned when an upload or image log is missing its image
	ErrNoImageProvided = errors.New("image was not provided")

	// ErrInvalidFileFormat is returned when an uploaded file is not a supported image
	ErrInvalidFileFormat = errors.New("invalid file format provided")

	// ErrResyncRunning is returned when a resync of the same kind is already in flight
	ErrResyncRunning = errors.New("resync already running")
)
