//go:build debug

package tensor

// Debug enables precondition and finiteness checks on hot paths.
const Debug = true
