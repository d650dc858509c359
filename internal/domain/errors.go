package domain

import "errors"

var (
	// ErrInvalidDescriptor marks a malformed connection descriptor. Not retryable.
	ErrInvalidDescriptor = errors.New("invalid connection descriptor")

	// ErrConnectionTimeout means no matching response arrived within the
	// deadline. Retryable by the caller.
	ErrConnectionTimeout = errors.New("timed out waiting for the key holder; approve the request in your key holder, then retry")

	// ErrConnectionRejected means the key holder explicitly declined.
	ErrConnectionRejected = errors.New("connection rejected by key holder")

	// ErrTransportUnavailable means every relay refused a publish. Retryable.
	ErrTransportUnavailable = errors.New("no relay accepted the message")

	// ErrNoActiveSession is returned by signer operations outside the
	// connected state.
	ErrNoActiveSession = errors.New("no active signer session")

	// ErrHandshakeInProgress rejects a second handshake while one is running.
	ErrHandshakeInProgress = errors.New("a handshake is already in progress")
)
