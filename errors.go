package krill

import "errors"

// Errors raised by debug-build precondition checks. Checks panic with a value
// wrapping one of these sentinels so callers and tests can match with
// errors.Is on the recovered value. Release builds (-tags krillrelease)
// compile the checks out and leave all preconditions to the caller.
var (
	// ErrPoolNotRegistered reports use of a component type that was never
	// registered with Register.
	ErrPoolNotRegistered = errors.New("pool not registered")
	// ErrPoolAlreadyExists reports a duplicate Register call for a type.
	ErrPoolAlreadyExists = errors.New("pool already registered")
	// ErrInvalidEntity reports an entity id that is out of range or dead.
	ErrInvalidEntity = errors.New("invalid entity")
	// ErrAlreadyPresent reports Pool.Add on an entity that already has the
	// component.
	ErrAlreadyPresent = errors.New("component already present")
	// ErrNotPresent reports Pool.Get/Read/Transfer/Clone/Swap on an entity
	// without the component. Pool.Del of an absent component is a no-op.
	ErrNotPresent = errors.New("component not present")
	// ErrInvalidMask reports duplicate type ids or an include/exclude overlap
	// during mask construction.
	ErrInvalidMask = errors.New("invalid mask")
	// ErrLeakedEntity reports an alive entity with zero components found by
	// the post-hook check.
	ErrLeakedEntity = errors.New("leaked entity")
	// ErrUnknownGroup reports a toggle request for a group the builder never
	// created.
	ErrUnknownGroup = errors.New("unknown group")
	// ErrBuilderMisconfigured reports invalid builder input such as an empty
	// world name or a negative tick delay.
	ErrBuilderMisconfigured = errors.New("builder misconfigured")
)
