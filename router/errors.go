package router

import (
	"github.com/pkg/errors"
)

// Error taxonomy. The orchestrator recovers from everything below
// ClassificationUnavailable locally; only configuration errors are
// fatal, and only at startup.
var (
	// ErrInvalidConfiguration marks malformed keyword/allowlist
	// configuration. Fatal at startup: the router refuses to degrade
	// silently to empty keyword sets.
	ErrInvalidConfiguration = errors.New("invalid router configuration")

	// ErrClassificationUnavailable marks a failed fallback call
	// (transport error, timeout, unparsable or out-of-enum payload).
	// Recovered locally by keeping the Layer 1 result.
	ErrClassificationUnavailable = errors.New("classification unavailable")

	// ErrUnknownEnumValue marks a value outside the closed enums.
	// At the fallback boundary it is treated as ErrClassificationUnavailable.
	ErrUnknownEnumValue = errors.New("unknown enum value")
)

func unknownEnumError(field, value string) error {
	return errors.Wrapf(ErrUnknownEnumValue, "%s %q", field, value)
}

func errInvalidResult(msg string) error {
	return errors.New("invalid classification result: " + msg)
}
