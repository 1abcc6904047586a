package krill

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/oriumgames/krill/internal/planner"
)

// Builder assembles worlds, injected values and systems, then plans the
// bucket schedule and materializes the Dispatcher. Per-system parameters
// (tick mode, tick delay, group) are sticky: they apply to every Add until
// changed.
type Builder struct {
	worlds     map[string]*World
	worldOrder []string
	injected   map[string]any
	singletons map[reflect.Type]any
	log        *zap.Logger

	mode       TickMode
	delay      float64
	groupName  string
	groupState bool
	groups     map[string]*group
	groupOrder []string

	queue    []queuedSystem
	finished bool
}

// queuedSystem captures one Add together with the sticky parameters active
// at the time.
type queuedSystem struct {
	construct func() System
	typeName  string
	mode      TickMode
	delay     float64
	group     string
	enabled   bool
}

// SystemPtr constrains Add to pointer types implementing System, so a
// non-system type is rejected at compile time.
type SystemPtr[T any] interface {
	*T
	System
}

// NewBuilder creates a builder with Loose tick mode, zero tick delay and no
// active group.
func NewBuilder() *Builder {
	return &Builder{
		worlds:     make(map[string]*World, 4),
		injected:   make(map[string]any, 8),
		singletons: make(map[reflect.Type]any, 8),
		groups:     make(map[string]*group, 4),
		log:        zap.NewNop(),
		mode:       Loose,
		groupState: true,
	}
}

// WithLogger attaches a zap logger; Finish reports the planned bucket layout
// through it at Debug level.
func (b *Builder) WithLogger(log *zap.Logger) *Builder {
	if log != nil {
		b.log = log
	}
	return b
}

// SetTickMode sets the tick mode for subsequent Adds.
func (b *Builder) SetTickMode(mode TickMode) *Builder {
	b.mode = mode
	return b
}

// SetTickDelay sets the tick delay in seconds for subsequent Adds.
func (b *Builder) SetTickDelay(seconds float64) *Builder {
	if debugChecks && seconds < 0 {
		panic(fmt.Errorf("%w: negative tick delay %v", ErrBuilderMisconfigured, seconds))
	}
	b.delay = seconds
	return b
}

// SetGroup activates a named group for subsequent Adds, creating it with the
// given default state when absent.
func (b *Builder) SetGroup(name string, defaultState bool) *Builder {
	if debugChecks && name == "" {
		panic(fmt.Errorf("%w: empty group name", ErrBuilderMisconfigured))
	}
	if _, ok := b.groups[name]; !ok {
		b.groups[name] = &group{name: name, enabled: defaultState}
		b.groupOrder = append(b.groupOrder, name)
	}
	b.groupName = name
	b.groupState = b.groups[name].enabled
	return b
}

// ClearGroup returns to the no-group state with default enabled systems.
func (b *Builder) ClearGroup() *Builder {
	b.groupName = ""
	b.groupState = true
	return b
}

// Add enqueues a system of type T with the currently active tick mode, tick
// delay and group. The instance is zero-initialized at Finish and its Setup
// constructor is invoked with the dispatcher handle after bucket assignment.
func Add[T any, PT SystemPtr[T]](b *Builder) *Builder {
	b.queue = append(b.queue, queuedSystem{
		construct: func() System { return PT(new(T)) },
		typeName:  reflect.TypeFor[T]().String(),
		mode:      b.mode,
		delay:     b.delay,
		group:     b.groupName,
		enabled:   b.groupState,
	})
	return b
}

// AddWorld registers a world under a name for access declarations and
// lookup. The first world added is the default.
func (b *Builder) AddWorld(w *World, name string) *Builder {
	if debugChecks {
		if name == "" {
			panic(fmt.Errorf("%w: empty world name", ErrBuilderMisconfigured))
		}
		if w == nil {
			panic(fmt.Errorf("%w: nil world %q", ErrBuilderMisconfigured, name))
		}
		if _, ok := b.worlds[name]; ok {
			panic(fmt.Errorf("%w: world %q added twice", ErrBuilderMisconfigured, name))
		}
	}
	b.worlds[name] = w
	b.worldOrder = append(b.worldOrder, name)
	return b
}

// Inject stores a value under a string identifier, resolvable during Setup
// and read-only afterwards.
func (b *Builder) Inject(name string, value any) *Builder {
	b.injected[name] = value
	return b
}

// InjectSingleton stores a value under its dynamic type.
func (b *Builder) InjectSingleton(value any) *Builder {
	b.singletons[reflect.TypeOf(value)] = value
	return b
}

// Finish materializes every queued system, plans the bucket schedule from
// the declared access sets and returns the Dispatcher owning threads-1
// background workers. The builder must not be reused afterwards.
func (b *Builder) Finish(threads int) *Dispatcher {
	if debugChecks {
		if b.finished {
			panic(fmt.Errorf("%w: Finish called twice", ErrBuilderMisconfigured))
		}
		if threads < 1 {
			panic(fmt.Errorf("%w: thread count %d", ErrBuilderMisconfigured, threads))
		}
	}
	b.finished = true

	d := &Dispatcher{
		worlds:     b.worlds,
		worldOrder: b.worldOrder,
		injected:   b.injected,
		singletons: b.singletons,
		groups:     b.groups,
		log:        b.log,
		threads:    threads,
		start:      newBarrier(threads),
		finish:     newBarrier(threads),
	}

	var ticked []*tickedSystem
	var accesses []planner.SystemAccess
	for _, q := range b.queue {
		sys := q.construct()
		d.systems = append(d.systems, sys)
		rs, ok := sys.(RunSystem)
		if !ok {
			continue
		}
		t := &tickedSystem{
			sys:     rs,
			name:    q.typeName,
			mode:    q.mode,
			delay:   q.delay,
			enabled: q.enabled,
		}
		if q.group != "" {
			g := b.groups[q.group]
			g.systems = append(g.systems, t)
		}
		ticked = append(ticked, t)
		sa := accessOf(sys)
		if debugChecks {
			b.checkAccess(q.typeName, sa)
		}
		accesses = append(accesses, sa)
	}

	plan := planner.Plan(accesses)
	d.buckets = make([][]*tickedSystem, len(plan))
	for i, bucket := range plan {
		systems := make([]*tickedSystem, len(bucket.Systems))
		for j, idx := range bucket.Systems {
			systems[j] = ticked[idx]
		}
		d.buckets[i] = systems
	}

	for _, sys := range d.systems {
		sys.Setup(d)
	}

	for i, bucket := range d.buckets {
		names := make([]string, len(bucket))
		for j, t := range bucket {
			names[j] = t.name
		}
		b.log.Debug("bucket planned", zap.Int("bucket", i), zap.Strings("systems", names))
	}
	return d
}

// checkAccess validates that every declaration names a registered world.
func (b *Builder) checkAccess(typeName string, sa planner.SystemAccess) {
	verify := func(decls []planner.Access) {
		for _, a := range decls {
			if a.World == "" {
				panic(fmt.Errorf("%w: empty world name in declaration of %s", ErrBuilderMisconfigured, typeName))
			}
			if _, ok := b.worlds[a.World]; !ok {
				panic(fmt.Errorf("%w: %s declares unknown world %q", ErrBuilderMisconfigured, typeName, a.World))
			}
		}
	}
	verify(sa.Reads)
	verify(sa.Writes)
}
