package session

import "errors"

var (
	// ErrNotLoggedIn means no usable credential record exists for the session
	// or, for RandomClient, for any session at all.
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrInvalidCredentials is returned by LoginViaPassword when the upstream
	// rejects the username/password. The session's stored records have been
	// removed by the time it is returned.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrInvalidCode is returned by Challenge.Verify when the code was
	// rejected. The challenge stays open and can be retried.
	ErrInvalidCode = errors.New("invalid verification code")
	// ErrUnknownChallenge is returned when the upstream asks for a second
	// factor this package cannot satisfy.
	ErrUnknownChallenge = errors.New("unknown verification challenge")
	// ErrChallengeClosed is returned by Verify after the challenge has
	// already succeeded or failed terminally.
	ErrChallengeClosed = errors.New("verification challenge closed")
	// ErrCorruptRecord means a stored record exists but cannot be decoded.
	ErrCorruptRecord = errors.New("corrupt session record")
)
