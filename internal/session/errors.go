package session

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyAddress  = errors.New("start and destination are required")
	ErrNoMatch       = errors.New("no matching location")
	ErrNoRoute       = errors.New("no route found")
	ErrRouteNotReady = errors.New("route has not been planned")
	ErrSuperseded    = errors.New("superseded by a newer request")
)

// ResolutionError reports that one or both addresses could not be resolved.
// The message is the same whichever side failed.
type ResolutionError struct {
	Start error
	End   error
}

func (e *ResolutionError) Error() string {
	return "could not find one or both locations"
}

func (e *ResolutionError) StartFailed() bool { return e.Start != nil }

func (e *ResolutionError) EndFailed() bool { return e.End != nil }

func (e *ResolutionError) Unwrap() []error {
	var errs []error
	if e.Start != nil {
		errs = append(errs, e.Start)
	}
	if e.End != nil {
		errs = append(errs, e.End)
	}
	return errs
}

// RoutingError wraps a router failure. The user may replan.
type RoutingError struct {
	Err error
}

func (e *RoutingError) Error() string {
	return fmt.Sprintf("could not calculate route: %v", e.Err)
}

func (e *RoutingError) Unwrap() error { return e.Err }

// PositionErrorCode follows the codes of the browser geolocation API
type PositionErrorCode int

const (
	PositionUnsupported PositionErrorCode = iota
	PositionPermissionDenied
	PositionUnavailable
	PositionTimeout
)

func (c PositionErrorCode) String() string {
	switch c {
	case PositionPermissionDenied:
		return "permission denied"
	case PositionUnavailable:
		return "position unavailable"
	case PositionTimeout:
		return "timeout"
	default:
		return "geolocation unsupported"
	}
}

// PositionError is a failed position read
type PositionError struct {
	Code    PositionErrorCode
	Message string
}

func (e *PositionError) Error() string {
	if e.Message == "" {
		return e.Code.String()
	}
	return e.Message
}
