package krill

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Dispatcher drives the planned bucket sequence across a fixed set of
// workers each frame. Worker 0 is the calling thread; the remaining
// threads-1 workers are goroutines parked on the start barrier between
// buckets. Buckets run strictly in order, systems inside a bucket are
// claimed concurrently through an atomic counter.
type Dispatcher struct {
	worlds     map[string]*World
	worldOrder []string
	injected   map[string]any
	singletons map[reflect.Type]any
	groups     map[string]*group
	log        *zap.Logger

	systems []System
	buckets [][]*tickedSystem

	threads   int
	start     *barrier
	finish    *barrier
	curBucket int
	curSystem atomic.Int64
	dt        float64
	disposed  bool
	started   bool
	wg        sync.WaitGroup

	toggles toggleQueue
}

// Init runs the PreInit hooks, then the Init hooks, both in submission
// order, and starts the worker threads afterwards. Debug builds verify that
// no user hook leaked an empty entity.
func (d *Dispatcher) Init() {
	for _, s := range d.systems {
		if ps, ok := s.(PreInitSystem); ok {
			ps.PreInit()
			d.checkLeaks(s, "PreInit")
		}
	}
	for _, s := range d.systems {
		if is, ok := s.(InitSystem); ok {
			is.Init()
			d.checkLeaks(s, "Init")
		}
	}
	for worker := 1; worker < d.threads; worker++ {
		d.wg.Add(1)
		go d.workerLoop(worker)
	}
	d.started = true
	d.log.Debug("dispatcher initialized",
		zap.Int("threads", d.threads), zap.Int("buckets", len(d.buckets)))
}

// Run dispatches one frame: pending group toggles are applied, then every
// bucket is drained in order by all workers together.
func (d *Dispatcher) Run(dt float64) {
	d.applyGroupToggles()
	d.dt = dt
	for i := range d.buckets {
		d.curBucket = i
		d.curSystem.Store(0)
		d.start.wait()
		d.runBucket(0)
		d.finish.wait()
	}
}

// Dispose runs the Destroy hooks, then the PostDestroy hooks, both in
// reverse submission order on the calling thread, then shuts the workers
// down. Safe to call once.
func (d *Dispatcher) Dispose() {
	if d.disposed {
		return
	}
	for i := len(d.systems) - 1; i >= 0; i-- {
		if ds, ok := d.systems[i].(DestroySystem); ok {
			ds.Destroy()
			d.checkLeaks(d.systems[i], "Destroy")
		}
	}
	for i := len(d.systems) - 1; i >= 0; i-- {
		if ps, ok := d.systems[i].(PostDestroySystem); ok {
			ps.PostDestroy()
			d.checkLeaks(d.systems[i], "PostDestroy")
		}
	}
	d.disposed = true
	if d.started {
		// One last release lets every parked worker observe disposed and
		// exit its loop.
		d.start.wait()
		d.wg.Wait()
	}
	d.log.Debug("dispatcher disposed")
}

// workerLoop parks on the start barrier, drains the current bucket, then
// parks on the finish barrier until the next bucket or shutdown.
func (d *Dispatcher) workerLoop(worker int) {
	defer d.wg.Done()
	for {
		d.start.wait()
		if d.disposed {
			return
		}
		d.runBucket(worker)
		d.finish.wait()
	}
}

// runBucket claims systems of the current bucket through the shared atomic
// counter until the bucket is exhausted.
func (d *Dispatcher) runBucket(worker int) {
	bucket := d.buckets[d.curBucket]
	for {
		idx := int(d.curSystem.Add(1)) - 1
		if idx >= len(bucket) {
			return
		}
		bucket[idx].dispatch(d.dt, worker)
	}
}

// World returns the world registered under name; the empty name resolves to
// the first world added to the builder.
func (d *Dispatcher) World(name string) *World {
	if name == "" && len(d.worldOrder) > 0 {
		return d.worlds[d.worldOrder[0]]
	}
	return d.worlds[name]
}

// Singleton returns the value injected by type.
func Singleton[T any](d *Dispatcher) T {
	v, ok := d.singletons[reflect.TypeFor[T]()]
	if !ok {
		if debugChecks {
			panic(fmt.Errorf("%w: no singleton of type %s", ErrBuilderMisconfigured, reflect.TypeFor[T]()))
		}
		var zero T
		return zero
	}
	return v.(T)
}

// Injected returns the value injected under the given identifier.
func Injected[T any](d *Dispatcher, name string) T {
	v, ok := d.injected[name]
	if !ok {
		if debugChecks {
			panic(fmt.Errorf("%w: nothing injected under %q", ErrBuilderMisconfigured, name))
		}
		var zero T
		return zero
	}
	return v.(T)
}

// checkLeaks panics when a user hook left an alive entity without
// components in any world. Debug builds only.
func (d *Dispatcher) checkLeaks(sys System, hook string) {
	if !debugChecks {
		return
	}
	for _, name := range d.worldOrder {
		w := d.worlds[name]
		if e, leaked := w.checkLeaked(); leaked {
			panic(fmt.Errorf("%w: entity %d on world %q after %T.%s", ErrLeakedEntity, e, name, sys, hook))
		}
	}
}
