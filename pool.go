package krill

import (
	"fmt"
	"reflect"
)

// Pool is the sparse-set store for one component type within a world. Dense
// storage is 1-based: index 0 is reserved so that a zero sparse entry means
// "absent". All methods are single-threaded by contract.
type Pool[T any] struct {
	world    *World
	typ      reflect.Type
	id       TypeID
	dense    []T
	sparse   []int32
	recycled []int32

	initFn    func(*T)
	destroyFn func(*T)
}

// TypeID returns the dense id the pool was registered under.
func (p *Pool[T]) TypeID() TypeID {
	return p.id
}

// ComponentType returns the reflect.Type of the stored component.
func (p *Pool[T]) ComponentType() reflect.Type {
	return p.typ
}

// World returns the owning world.
func (p *Pool[T]) World() *World {
	return p.world
}

// Add attaches a new component to the entity and returns a pointer to it.
// The init hook, when registered, runs on the freshly allocated or recycled
// slot before the pointer is returned.
func (p *Pool[T]) Add(e Entity) *T {
	if debugChecks {
		p.world.checkEntity(e, "Add")
		if p.sparse[e] != 0 {
			panic(fmt.Errorf("%w: %s on entity %d", ErrAlreadyPresent, p.typ, e))
		}
	}
	idx := p.alloc()
	p.sparse[e] = idx
	if p.initFn != nil {
		p.initFn(&p.dense[idx])
	}
	p.world.entities[e].compCount++
	p.world.onEntityChange(e, p.id, true)
	p.world.raiseEntityChanged(e, p.id)
	return &p.dense[idx]
}

// Get returns a mutable pointer to the entity's component.
func (p *Pool[T]) Get(e Entity) *T {
	if debugChecks {
		p.world.checkEntity(e, "Get")
		if p.sparse[e] == 0 {
			panic(fmt.Errorf("%w: %s on entity %d", ErrNotPresent, p.typ, e))
		}
	}
	return &p.dense[p.sparse[e]]
}

// Read returns a copy of the entity's component.
func (p *Pool[T]) Read(e Entity) T {
	if debugChecks {
		p.world.checkEntity(e, "Read")
		if p.sparse[e] == 0 {
			panic(fmt.Errorf("%w: %s on entity %d", ErrNotPresent, p.typ, e))
		}
	}
	return p.dense[p.sparse[e]]
}

// GetOrAdd returns the entity's component, attaching it first when absent.
func (p *Pool[T]) GetOrAdd(e Entity) *T {
	if p.Has(e) {
		return p.Get(e)
	}
	return p.Add(e)
}

// Has reports whether the entity carries the component.
func (p *Pool[T]) Has(e Entity) bool {
	return int(e) < len(p.sparse) && p.sparse[e] != 0
}

// Del detaches the component from the entity. No-op when absent. The destroy
// hook runs before the slot is zeroed. When this was the entity's last
// component the entity itself is deleted.
func (p *Pool[T]) Del(e Entity) {
	if debugChecks && (e < 0 || int(e) >= len(p.world.entities)) {
		panic(fmt.Errorf("%w: id %d out of range in Del", ErrInvalidEntity, e))
	}
	idx := p.sparse[e]
	if idx == 0 {
		return
	}
	// Filters test compatibility against the pool state, so the removal is
	// announced while the component is still present.
	p.world.onEntityChange(e, p.id, false)
	p.recycled = append(p.recycled, idx)
	if p.destroyFn != nil {
		p.destroyFn(&p.dense[idx])
	}
	var zero T
	p.dense[idx] = zero
	p.sparse[e] = 0
	ed := &p.world.entities[e]
	ed.compCount--
	p.world.raiseEntityChanged(e, p.id)
	if ed.compCount == 0 {
		p.world.DelEntity(e)
	}
}

// Transfer reassigns the existing dense slot from src to dst without copying
// the value. dst must not carry the component, src must. When src loses its
// last component it is deleted.
func (p *Pool[T]) Transfer(src, dst Entity) {
	if debugChecks {
		p.world.checkEntity(src, "Transfer")
		p.world.checkEntity(dst, "Transfer")
		if p.sparse[src] == 0 {
			panic(fmt.Errorf("%w: %s on source entity %d", ErrNotPresent, p.typ, src))
		}
		if p.sparse[dst] != 0 {
			panic(fmt.Errorf("%w: %s on target entity %d", ErrAlreadyPresent, p.typ, dst))
		}
	}
	p.world.onEntityChange(src, p.id, false)
	idx := p.sparse[src]
	p.sparse[src] = 0
	p.sparse[dst] = idx
	srcData := &p.world.entities[src]
	srcData.compCount--
	p.world.entities[dst].compCount++
	p.world.onEntityChange(dst, p.id, true)
	p.world.raiseEntityChanged(src, p.id)
	p.world.raiseEntityChanged(dst, p.id)
	if srcData.compCount == 0 {
		p.world.DelEntity(src)
	}
}

// Clone materializes a new slot for dst holding a copy of src's component.
// Neither the init nor the destroy hook runs. Preconditions as Transfer.
func (p *Pool[T]) Clone(src, dst Entity) {
	if debugChecks {
		p.world.checkEntity(src, "Clone")
		p.world.checkEntity(dst, "Clone")
		if p.sparse[src] == 0 {
			panic(fmt.Errorf("%w: %s on source entity %d", ErrNotPresent, p.typ, src))
		}
		if p.sparse[dst] != 0 {
			panic(fmt.Errorf("%w: %s on target entity %d", ErrAlreadyPresent, p.typ, dst))
		}
	}
	srcIdx := p.sparse[src]
	idx := p.alloc()
	p.dense[idx] = p.dense[srcIdx]
	p.sparse[dst] = idx
	p.world.entities[dst].compCount++
	p.world.onEntityChange(dst, p.id, true)
	p.world.raiseEntityChanged(dst, p.id)
}

// Swap exchanges the components of two entities by swapping their sparse
// entries. Both must carry the component; filter membership is unaffected.
func (p *Pool[T]) Swap(a, b Entity) {
	if debugChecks {
		p.world.checkEntity(a, "Swap")
		p.world.checkEntity(b, "Swap")
		if p.sparse[a] == 0 {
			panic(fmt.Errorf("%w: %s on entity %d", ErrNotPresent, p.typ, a))
		}
		if p.sparse[b] == 0 {
			panic(fmt.Errorf("%w: %s on entity %d", ErrNotPresent, p.typ, b))
		}
	}
	p.sparse[a], p.sparse[b] = p.sparse[b], p.sparse[a]
	p.world.raiseEntityChanged(a, p.id)
	p.world.raiseEntityChanged(b, p.id)
}

// Resize reallocates the sparse array to the new capacity. Dense storage is
// untouched. Called by the world on entity table growth.
func (p *Pool[T]) Resize(capacity int) {
	if capacity <= len(p.sparse) {
		return
	}
	grown := make([]int32, capacity)
	copy(grown, p.sparse)
	p.sparse = grown
}

// alloc claims a dense slot, preferring recycled indices.
func (p *Pool[T]) alloc() int32 {
	if n := len(p.recycled); n > 0 {
		idx := p.recycled[n-1]
		p.recycled = p.recycled[:n-1]
		return idx
	}
	var zero T
	p.dense = append(p.dense, zero)
	return int32(len(p.dense) - 1)
}

// RawDense exposes the dense component array, index 0 reserved. Debug and
// serialization use only.
func (p *Pool[T]) RawDense() []T {
	return p.dense
}

// RawSparse exposes the entity-indexed sparse array. Debug and serialization
// use only.
func (p *Pool[T]) RawSparse() []int32 {
	return p.sparse
}

// RawRecycled exposes the recycled dense index stack. Debug and serialization
// use only.
func (p *Pool[T]) RawRecycled() []int32 {
	return p.recycled
}

// DenseCount returns the dense array length, including the reserved slot 0.
func (p *Pool[T]) DenseCount() int {
	return len(p.dense)
}
