package krill

// System is the base contract for everything the builder can enqueue. Setup
// is the system's one-argument constructor: the builder zero-initializes the
// instance at Finish and calls Setup with the dispatcher handle after bucket
// assignment, so pools, filters, singletons and injected values can be
// resolved there.
type System interface {
	Setup(d *Dispatcher)
}

// PreInitSystem runs before every InitSystem, in submission order.
type PreInitSystem interface {
	System
	PreInit()
}

// InitSystem runs once at Dispatcher.Init, in submission order.
type InitSystem interface {
	System
	Init()
}

// RunSystem takes part in per-frame dispatch. dt is the elapsed time handed
// out by the system's tick mode; worker identifies the executing worker,
// with 0 being the host thread.
type RunSystem interface {
	System
	Run(dt float64, worker int)
}

// DestroySystem runs at Dispatcher.Dispose, in reverse submission order.
type DestroySystem interface {
	System
	Destroy()
}

// PostDestroySystem runs after every DestroySystem, in reverse submission
// order.
type PostDestroySystem interface {
	System
	PostDestroy()
}
