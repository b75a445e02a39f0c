package feed

import "errors"

var (
	// ErrUnreachableSource wraps failures of the fetch collaborator
	ErrUnreachableSource = errors.New("feed source is unreachable")
	// ErrMalformedDocument wraps XML syntax errors
	ErrMalformedDocument = errors.New("malformed feed document")
	// ErrInvalidFeedFormat means the root element of an explicitly requested dialect is absent
	ErrInvalidFeedFormat = errors.New("invalid feed format")
	// ErrInvalidFeedType means extraction was asked for a dialect outside RSS2, RSS1 and Atom
	ErrInvalidFeedType = errors.New("invalid feed type")
	// ErrNoDialect means inference found none of the known root elements
	ErrNoDialect = errors.New("could not infer feed dialect")
)
