//go:build !krillrelease

package krill

// debugChecks gates all precondition enforcement, leak tracking and the
// world event listener list. Build with -tags krillrelease to compile the
// checks out for release binaries.
const debugChecks = true
