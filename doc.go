// Package krill is an in-process Entity-Component-System runtime built on
// sparse-set component pools and a static conflict-graph scheduler.
//
// Worlds own entities, per-type pools and incrementally maintained filters;
// the data-plane is strictly single-threaded for mutations. Run-systems
// declare the component types they read and write per world, and the builder
// partitions them into ordered buckets whose members are pairwise
// conflict-free. Each frame the Dispatcher drains the bucket sequence across
// a fixed worker set with two-phase barrier synchronization, applying
// per-system tick modes and deferred group toggles along the way.
package krill
