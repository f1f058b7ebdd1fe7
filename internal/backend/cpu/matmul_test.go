package cpu

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/mambatrain/internal/tensor"
)

func TestMatVecRowEqualsDot(t *testing.T) {
	forEachLaneWidth(t, func(t *testing.T) {
		rng := rand.New(rand.NewPCG(7, 8))
		for _, dims := range [][2]int{{1, 1}, {3, 5}, {8, 8}, {17, 33}} {
			m := randMatrix(rng, dims[0], dims[1])
			v := randVector(rng, dims[1])

			out := MatVec(m, v)
			require.Equal(t, dims[0], out.Len())
			for i := 0; i < dims[0]; i++ {
				assert.Equal(t, Dot(m.Row(i), v), out.At(i), "row %d", i)
			}
		}
	})
}

func TestMatVecMatchesGonum(t *testing.T) {
	rng := rand.New(rand.NewPCG(9, 10))
	m := randMatrix(rng, 12, 20)
	v := randVector(rng, 20)

	var want mat.VecDense
	want.MulVec(mat.NewDense(12, 20, to64(m.Data())), mat.NewVecDense(20, to64(v.Data())))

	got := MatVec(m, v)
	for i := 0; i < 12; i++ {
		assert.InDelta(t, want.AtVec(i), float64(got.At(i)), 1e-4)
	}

	acc := tensor.NewVector(12)
	acc.Fill(1)
	MatVecAddTo(acc, m, v)
	for i := 0; i < 12; i++ {
		assert.InDelta(t, want.AtVec(i)+1, float64(acc.At(i)), 1e-4)
	}
}

func TestVecMatMatchesTransposedGonum(t *testing.T) {
	forEachLaneWidth(t, func(t *testing.T) {
		rng := rand.New(rand.NewPCG(11, 12))
		m := randMatrix(rng, 9, 14)
		v := randVector(rng, 9)

		var want mat.VecDense
		want.MulVec(mat.NewDense(9, 14, to64(m.Data())).T(), mat.NewVecDense(9, to64(v.Data())))

		got := VecMat(v, m)
		require.Equal(t, 14, got.Len())
		for j := 0; j < 14; j++ {
			assert.InDelta(t, want.AtVec(j), float64(got.At(j)), 1e-4)
		}

		dst := tensor.NewVector(14)
		dst.Fill(100)
		VecMatTo(dst, v, m)
		assert.Equal(t, got.Data(), dst.Data(), "VecMatTo must overwrite dst")

		VecMatAddTo(dst, v, m)
		for j := 0; j < 14; j++ {
			assert.InDelta(t, 2*want.AtVec(j), float64(dst.At(j)), 1e-4)
		}
	})
}

func TestOuter(t *testing.T) {
	a := tensor.VectorOf(1, 2)
	b := tensor.VectorOf(3, 4, 5)

	o := Outer(a, b)
	assert.Equal(t, tensor.Shape{2, 3}, o.Shape())
	assert.Equal(t, []float32{3, 4, 5, 6, 8, 10}, o.Data())

	OuterAddTo(o, a, b)
	assert.Equal(t, []float32{6, 8, 10, 12, 16, 20}, o.Data())

	OuterTo(o, a, b)
	assert.Equal(t, []float32{3, 4, 5, 6, 8, 10}, o.Data())
}

func TestMatVecOnTensorLayer(t *testing.T) {
	tt := tensor.NewTensor(2, 2, 2)
	layer := tt.Layer(1)
	layer.Set(0, 0, 1)
	layer.Set(1, 1, 2)

	out := MatVec(layer, tensor.VectorOf(3, 4))
	assert.Equal(t, []float32{3, 8}, out.Data())
}

func BenchmarkMatVec(b *testing.B) {
	rng := rand.New(rand.NewPCG(1, 1))
	m := randMatrix(rng, 256, 256)
	v := randVector(rng, 256)
	dst := tensor.NewVector(256)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		MatVecTo(dst, m, v)
	}
}

func BenchmarkVecMat(b *testing.B) {
	rng := rand.New(rand.NewPCG(1, 1))
	m := randMatrix(rng, 256, 256)
	v := randVector(rng, 256)
	dst := tensor.NewVector(256)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		VecMatTo(dst, v, m)
	}
}
