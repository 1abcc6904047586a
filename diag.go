package krill

import "go.uber.org/zap"

// EventListener observes world structural changes. Listeners are invoked
// only in debug builds; release builds never touch the list.
type EventListener interface {
	OnEntityCreated(w *World, e Entity)
	OnEntityChanged(w *World, e Entity, t TypeID)
	OnEntityDestroyed(w *World, e Entity)
	OnFilterCreated(w *World, f *Filter)
	OnWorldResized(w *World, capacity int)
	OnWorldDisposed(w *World)
}

// AddEventListener appends a debug listener to the world. No-op in release
// builds.
func (w *World) AddEventListener(l EventListener) {
	if debugChecks {
		w.listeners = append(w.listeners, l)
	}
}

// NopListener is a no-op EventListener, convenient for embedding when only a
// few callbacks matter.
type NopListener struct{}

func (NopListener) OnEntityCreated(*World, Entity)         {}
func (NopListener) OnEntityChanged(*World, Entity, TypeID) {}
func (NopListener) OnEntityDestroyed(*World, Entity)       {}
func (NopListener) OnFilterCreated(*World, *Filter)        {}
func (NopListener) OnWorldResized(*World, int)             {}
func (NopListener) OnWorldDisposed(*World)                 {}

// ZapListener logs every world event at Debug level.
type ZapListener struct {
	log *zap.Logger
}

// NewZapListener creates a listener that logs to the given zap logger.
func NewZapListener(log *zap.Logger) *ZapListener {
	return &ZapListener{log: log}
}

func (z *ZapListener) OnEntityCreated(w *World, e Entity) {
	z.log.Debug("entity created", zap.String("world", w.Name()), zap.Int32("entity", e))
}

func (z *ZapListener) OnEntityChanged(w *World, e Entity, t TypeID) {
	z.log.Debug("entity changed",
		zap.String("world", w.Name()), zap.Int32("entity", e),
		zap.String("component", w.PoolByID(t).ComponentType().String()))
}

func (z *ZapListener) OnEntityDestroyed(w *World, e Entity) {
	z.log.Debug("entity destroyed", zap.String("world", w.Name()), zap.Int32("entity", e))
}

func (z *ZapListener) OnFilterCreated(w *World, f *Filter) {
	z.log.Debug("filter created",
		zap.String("world", w.Name()),
		zap.Int("includes", len(f.Include())), zap.Int("excludes", len(f.Exclude())))
}

func (z *ZapListener) OnWorldResized(w *World, capacity int) {
	z.log.Debug("world resized", zap.String("world", w.Name()), zap.Int("capacity", capacity))
}

func (z *ZapListener) OnWorldDisposed(w *World) {
	z.log.Debug("world disposed", zap.String("world", w.Name()))
}
