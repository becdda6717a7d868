package eleva

import "errors"

var (
	// ErrNilContainer reports a mount target that does not exist.
	ErrNilContainer = errors.New("eleva: nil container")

	// ErrNotRegistered reports a component name with no definition.
	ErrNotRegistered = errors.New("eleva: component not registered")

	// ErrNoTemplate reports a component definition without a template.
	ErrNoTemplate = errors.New("eleva: component has no template")

	// ErrInvalidComponent reports a mount argument that is neither a
	// registered name nor a component definition.
	ErrInvalidComponent = errors.New("eleva: invalid component reference")

	// ErrInvalidName reports a registration under an empty name.
	ErrInvalidName = errors.New("eleva: invalid component name")
)
