package pow

import "errors"

// Sentinel errors for the solve pipeline.
var (
	// ErrDecode marks a malformed or unsupported challenge. The same bytes
	// will always fail the same way; the caller must fetch a fresh
	// challenge instead of retrying.
	ErrDecode = errors.New("invalid challenge")

	// ErrSolveTimeout is returned when a caller-supplied deadline expires
	// before an accepting nonce is found. The challenge itself remains
	// solvable; the caller may retry with a larger budget or fetch a fresh
	// challenge.
	ErrSolveTimeout = errors.New("solve deadline exceeded")

	// ErrSessionDone is returned when a session is run again after it
	// already reached a terminal state.
	ErrSessionDone = errors.New("session already consumed")

	// ErrBadToken marks a token that cannot be decoded back into a
	// challenge and nonce.
	ErrBadToken = errors.New("invalid solution token")

	// ErrVerifyFailed is returned when a token's nonce does not satisfy
	// its challenge's predicate.
	ErrVerifyFailed = errors.New("token does not satisfy challenge")

	// ErrExpired is returned by Verify for tokens whose challenge expiry
	// has passed.
	ErrExpired = errors.New("challenge expired")
)
