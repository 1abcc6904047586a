//go:build krillrelease

package krill

// debugChecks is off in release builds: preconditions are unchecked by
// contract and the world event listener list is never invoked.
const debugChecks = false
