// Package cpu implements the CPU kernel library: reductions, elementwise
// arithmetic, dot products, matrix-vector products, softmax and RMS
// normalization over tensor views.
//
// Kernels walk their operands in fixed-width lane blocks with one independent
// accumulator per lane and finish with a scalar remainder loop. The lane width
// is picked once at startup from the host's vector extensions, so every
// kernel runs the same block layout the hardware would use for SIMD.
//
// Most kernels come in three forms:
//
//	c := cpu.Add(a, b)       // allocate and return
//	cpu.AddTo(dst, a, b)     // write into dst
//	cpu.AddInPlace(a, b)     // a += b
//
// Operand shapes are trusted on release builds; build with -tags debug to get
// ShapeError panics on mismatch.
package cpu

import xcpu "golang.org/x/sys/cpu"

// maxLanes bounds the accumulator arrays.
const maxLanes = 16

// lanes is the active block width in float32 elements.
var lanes = detectLanes()

func detectLanes() int {
	switch {
	case xcpu.X86.HasAVX512F:
		return 16
	case xcpu.X86.HasAVX2 && xcpu.X86.HasFMA:
		return 8
	case xcpu.ARM64.HasASIMD:
		return 4
	default:
		return 4
	}
}

// Lanes returns the lane width kernels use on this host.
func Lanes() int {
	return lanes
}

// setLanes overrides the lane width and returns a function restoring the old one.
func setLanes(n int) func() {
	if n < 1 || n > maxLanes {
		panic("cpu: lane width out of range")
	}
	old := lanes
	lanes = n
	return func() { lanes = old }
}
