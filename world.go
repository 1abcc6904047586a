package krill

import (
	"fmt"
	"math"
	"reflect"
)

// defaultEntityCapacity is the initial entity table size when none is given.
const defaultEntityCapacity = 512

// World is an isolated collection of entities, component pools and filters.
// All mutating methods are single-threaded by contract; the scheduler's
// bucket planner is what guarantees systems never race on a world.
type World struct {
	name     string
	entities []entityData
	recycled []Entity

	pools      []poolRef
	poolByType map[reflect.Type]poolRef

	filters      []*Filter
	filtersByInc [][]*Filter
	filtersByExc [][]*Filter
	filterByHash map[int]*Filter
	maskPool     []*Mask

	alive bool

	// Debug-only state.
	leaked    []Entity
	listeners []EventListener
}

// RawPool is the type-erased view of a Pool[T]: what the world needs for
// cascade deletion, capacity growth and mask matching, and what debug paths
// get when they look a pool up by id.
type RawPool interface {
	TypeID() TypeID
	ComponentType() reflect.Type
	Has(e Entity) bool
	Del(e Entity)
	Resize(capacity int)
}

type poolRef = RawPool

// NewWorld creates an empty named world with the default entity capacity.
func NewWorld(name string) *World {
	return NewWorldWithCapacity(name, defaultEntityCapacity)
}

// NewWorldWithCapacity creates an empty named world pre-sized for the given
// number of entities. The table doubles when exhausted.
func NewWorldWithCapacity(name string, capacity int) *World {
	if capacity < 1 {
		capacity = defaultEntityCapacity
	}
	w := &World{
		name:         name,
		entities:     make([]entityData, 0, capacity),
		recycled:     make([]Entity, 0, capacity/4),
		poolByType:   make(map[reflect.Type]poolRef, 16),
		filterByHash: make(map[int]*Filter, 16),
		alive:        true,
	}
	if debugChecks {
		w.leaked = make([]Entity, 0, 256)
	}
	return w
}

// Name returns the world name given at construction.
func (w *World) Name() string {
	return w.name
}

// Alive reports whether the world has not been destroyed.
func (w *World) Alive() bool {
	return w.alive
}

// Destroy deletes every live entity and marks the world dead. Pools and
// filters stay readable for debugging but the world must not be used again.
func (w *World) Destroy() {
	for i := range w.entities {
		if w.entities[i].gen > 0 {
			w.DelEntity(Entity(i))
		}
	}
	w.alive = false
	if debugChecks {
		for _, l := range w.listeners {
			l.OnWorldDisposed(w)
		}
	}
}

// NewEntity creates a new entity and returns its id. Recycled ids are reused
// with a fresh generation. The returned entity has no components and must
// receive at least one before the current operation ends.
func (w *World) NewEntity() Entity {
	var e Entity
	if n := len(w.recycled); n > 0 {
		e = w.recycled[n-1]
		w.recycled = w.recycled[:n-1]
		ed := &w.entities[e]
		ed.gen = -ed.gen
	} else {
		if len(w.entities) == cap(w.entities) {
			w.grow(cap(w.entities) * 2)
		}
		e = Entity(len(w.entities))
		w.entities = append(w.entities, entityData{gen: 1})
	}
	if debugChecks {
		w.leaked = append(w.leaked, e)
		for _, l := range w.listeners {
			l.OnEntityCreated(w, e)
		}
	}
	return e
}

// DelEntity removes the entity and all of its components. No-op when the
// entity is already dead.
func (w *World) DelEntity(e Entity) {
	if debugChecks && (e < 0 || int(e) >= len(w.entities)) {
		panic(fmt.Errorf("%w: id %d out of range in DelEntity", ErrInvalidEntity, e))
	}
	ed := &w.entities[e]
	if ed.gen < 0 {
		return
	}
	if ed.compCount > 0 {
		// The last pool.Del drops the count to zero and cascades back here
		// through the empty branch, which performs the recycle.
		for idx := 0; ed.compCount > 0 && idx < len(w.pools); idx++ {
			if w.pools[idx].Has(e) {
				w.pools[idx].Del(e)
			}
		}
		return
	}
	gen := int(ed.gen) + 1
	if gen > math.MaxInt16 {
		gen = 1
	}
	ed.gen = int16(-gen)
	w.recycled = append(w.recycled, e)
	if debugChecks {
		for _, l := range w.listeners {
			l.OnEntityDestroyed(w, e)
		}
	}
}

// IsAlive reports whether the id names a live entity.
func (w *World) IsAlive(e Entity) bool {
	return e >= 0 && int(e) < len(w.entities) && w.entities[e].gen > 0
}

// EntityGen returns the current generation of the id, negative when dead.
// Raw accessor for debugging and serialization.
func (w *World) EntityGen(e Entity) int16 {
	return w.entities[e].gen
}

// ComponentsCount returns how many pools currently hold a component for the
// entity. Raw accessor for debugging and serialization.
func (w *World) ComponentsCount(e Entity) int {
	return int(w.entities[e].compCount)
}

// EntitiesCount returns the number of entity slots ever allocated, live or
// recycled.
func (w *World) EntitiesCount() int {
	return len(w.entities)
}

// PackEntity captures the entity id together with its generation for safe
// keeping outside the world.
func (w *World) PackEntity(e Entity) PackedEntity {
	if debugChecks {
		w.checkEntity(e, "PackEntity")
	}
	return PackedEntity{gen: w.entities[e].gen, id: e}
}

// Unpack validates a packed handle against the current table. ok is false
// when the entity died or the id was reused since packing.
func (w *World) Unpack(p PackedEntity) (Entity, bool) {
	if p.id < 0 || int(p.id) >= len(w.entities) {
		return -1, false
	}
	if w.entities[p.id].gen != p.gen {
		return -1, false
	}
	return p.id, true
}

// PackEntityGlobal captures the entity id, generation and owning world.
func (w *World) PackEntityGlobal(e Entity) PackedEntityGlobal {
	return w.PackEntity(e).Global(w)
}

// UnpackGlobal validates a global handle: the world must be alive and the
// generation must still match.
func UnpackGlobal(p PackedEntityGlobal) (*World, Entity, bool) {
	if p.world == nil || !p.world.alive {
		return nil, -1, false
	}
	e, ok := p.world.Unpack(p.Local())
	if !ok {
		return nil, -1, false
	}
	return p.world, e, true
}

// grow doubles entity storage and propagates the new capacity to every pool
// sparse array and every filter index.
func (w *World) grow(capacity int) {
	grown := make([]entityData, len(w.entities), capacity)
	copy(grown, w.entities)
	w.entities = grown
	for _, p := range w.pools {
		p.Resize(capacity)
	}
	for _, f := range w.filters {
		f.resize(capacity)
	}
	if debugChecks {
		for _, l := range w.listeners {
			l.OnWorldResized(w, capacity)
		}
	}
}

// onEntityChange maintains every filter whose mask references the changed
// type. Add-side callers notify after the pool mutation is applied; del-side
// callers notify before the slot is cleared, so compatibility checks always
// observe the component as present.
func (w *World) onEntityChange(e Entity, t TypeID, added bool) {
	incList := w.filtersByInc[t]
	excList := w.filtersByExc[t]
	if added {
		for _, f := range incList {
			if w.isMaskCompatible(f, e) {
				f.add(e)
			}
		}
		for _, f := range excList {
			if w.isMaskCompatibleWithout(f, e, t) {
				f.remove(e)
			}
		}
	} else {
		for _, f := range incList {
			if w.isMaskCompatible(f, e) {
				f.remove(e)
			}
		}
		for _, f := range excList {
			if w.isMaskCompatibleWithout(f, e, t) {
				f.add(e)
			}
		}
	}
}

// isMaskCompatible reports whether the entity currently satisfies the
// filter's mask: every included pool holds it, no excluded pool does.
func (w *World) isMaskCompatible(f *Filter, e Entity) bool {
	for _, t := range f.include {
		if !w.pools[t].Has(e) {
			return false
		}
	}
	for _, t := range f.exclude {
		if w.pools[t].Has(e) {
			return false
		}
	}
	return true
}

// isMaskCompatibleWithout is isMaskCompatible with one type id ignored, used
// while a change to that type is in flight.
func (w *World) isMaskCompatibleWithout(f *Filter, e Entity, ignored TypeID) bool {
	for _, t := range f.include {
		if t == ignored {
			continue
		}
		if !w.pools[t].Has(e) {
			return false
		}
	}
	for _, t := range f.exclude {
		if t == ignored {
			continue
		}
		if w.pools[t].Has(e) {
			return false
		}
	}
	return true
}

// raiseEntityChanged feeds the debug listener list after any component
// mutation on the entity.
func (w *World) raiseEntityChanged(e Entity, t TypeID) {
	if debugChecks {
		for _, l := range w.listeners {
			l.OnEntityChanged(w, e, t)
		}
	}
}

// checkEntity panics with ErrInvalidEntity when the id is out of range or
// dead. Debug builds only.
func (w *World) checkEntity(e Entity, op string) {
	if e < 0 || int(e) >= len(w.entities) || w.entities[e].gen <= 0 {
		panic(fmt.Errorf("%w: entity %d in %s on world %q", ErrInvalidEntity, e, op, w.name))
	}
}

// checkLeaked scans entities created since the previous check and returns the
// first one that is alive with zero components. The scan list is reset only
// when clean.
func (w *World) checkLeaked() (Entity, bool) {
	for _, e := range w.leaked {
		if w.entities[e].gen > 0 && w.entities[e].compCount == 0 {
			return e, true
		}
	}
	w.leaked = w.leaked[:0]
	return -1, false
}

// Register creates the component pool for T. It must be called once per type
// before any pool use.
func Register[T any](w *World) *Pool[T] {
	return RegisterWith[T](w, nil, nil)
}

// RegisterWith creates the component pool for T with optional lifecycle
// hooks: init runs at every Add, destroy at every Del before the slot is
// zeroed. Either hook may be nil.
func RegisterWith[T any](w *World, init, destroy func(*T)) *Pool[T] {
	typ := reflect.TypeFor[T]()
	if _, ok := w.poolByType[typ]; ok {
		if debugChecks {
			panic(fmt.Errorf("%w: %s on world %q", ErrPoolAlreadyExists, typ, w.name))
		}
		return w.poolByType[typ].(*Pool[T])
	}
	p := &Pool[T]{
		world:     w,
		typ:       typ,
		id:        TypeID(len(w.pools)),
		dense:     make([]T, 1, 128),
		sparse:    make([]int32, cap(w.entities)),
		recycled:  make([]int32, 0, 128),
		initFn:    init,
		destroyFn: destroy,
	}
	w.pools = append(w.pools, p)
	w.poolByType[typ] = p
	w.filtersByInc = append(w.filtersByInc, nil)
	w.filtersByExc = append(w.filtersByExc, nil)
	return p
}

// PoolOf returns the registered pool for T.
func PoolOf[T any](w *World) *Pool[T] {
	p, ok := w.poolByType[reflect.TypeFor[T]()]
	if !ok {
		if debugChecks {
			panic(fmt.Errorf("%w: %s on world %q", ErrPoolNotRegistered, reflect.TypeFor[T](), w.name))
		}
		return nil
	}
	return p.(*Pool[T])
}

// ID returns the dense type id assigned to T's pool, for mask construction
// and raw access by id.
func ID[T any](w *World) TypeID {
	p, ok := w.poolByType[reflect.TypeFor[T]()]
	if !ok {
		if debugChecks {
			panic(fmt.Errorf("%w: %s on world %q", ErrPoolNotRegistered, reflect.TypeFor[T](), w.name))
		}
		return -1
	}
	return p.TypeID()
}

// PoolByID returns the type-erased pool registered under the given id. Raw
// accessor for debugging paths.
func (w *World) PoolByID(t TypeID) RawPool {
	return w.pools[t]
}

// PoolsCount returns the number of registered pools.
func (w *World) PoolsCount() int {
	return len(w.pools)
}
