package krill

import (
	"reflect"

	"github.com/oriumgames/krill/internal/planner"
)

// Access names the component types of one world that a system touches. An
// empty Types list claims the whole world.
type Access struct {
	World string
	Types []reflect.Type
}

// AccessTo builds an access declaration over specific component types.
func AccessTo(world string, types ...reflect.Type) Access {
	return Access{World: world, Types: types}
}

// AccessAll builds a whole-world access declaration.
func AccessAll(world string) Access {
	return Access{World: world}
}

// Comp returns the reflect.Type key for a component type, for use in access
// declarations.
func Comp[T any]() reflect.Type {
	return reflect.TypeFor[T]()
}

// ReadsDeclarer is implemented by systems that read component data. The
// result must be static and side-effect free; it is consulted once, before
// the bucket plan is built.
type ReadsDeclarer interface {
	Reads() []Access
}

// WritesDeclarer is implemented by systems that write component data. Writes
// do not imply reads; declare both when both apply.
type WritesDeclarer interface {
	Writes() []Access
}

// accessOf collects a system's declarations into the planner's input form.
func accessOf(sys System) planner.SystemAccess {
	var sa planner.SystemAccess
	if rd, ok := sys.(ReadsDeclarer); ok {
		for _, a := range rd.Reads() {
			sa.Reads = append(sa.Reads, planner.Access{World: a.World, Types: a.Types})
		}
	}
	if wd, ok := sys.(WritesDeclarer); ok {
		for _, a := range wd.Writes() {
			sa.Writes = append(sa.Writes, planner.Access{World: a.World, Types: a.Types})
		}
	}
	return sa
}
