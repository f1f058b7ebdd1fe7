//go:build !debug

package tensor

// Debug enables precondition and finiteness checks on hot paths.
// Build with -tags debug to turn them on.
const Debug = false
