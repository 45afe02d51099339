package mediator

import "errors"

// Registration defects. Dispatch-time failures are reported as shared.Error kinds instead.
var (
	ErrNilRequest       = errors.New("mediator: request cannot be nil")
	ErrNilEvent         = errors.New("mediator: event cannot be nil")
	ErrEmptyRequestType = errors.New("mediator: request type cannot be empty")
	ErrNilHandler       = errors.New("mediator: handler cannot be nil")
	ErrRegistrySealed   = errors.New("mediator: registry is sealed")
)
