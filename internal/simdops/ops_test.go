package simdops

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOps32_SumAndScale(t *testing.T) {
	ops := Float32Ops()
	a := []float32{0.5, 1.5, 2, 4}

	assert.InDelta(t, 8.0, ops.Sum(a), 1e-6)

	dst := make([]float32, len(a))
	ops.Scale(dst, a, 0.25)
	assert.Equal(t, []float32{0.125, 0.375, 0.5, 1}, dst)
}

func TestOps64_DotAndScale(t *testing.T) {
	ops := Float64Ops()
	a := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9}
	b := []float64{9, 8, 7, 6, 5, 4, 3, 2, 1}

	assert.InDelta(t, 165.0, ops.DotProductUnsafe(a, b), 1e-12)
	assert.InDelta(t, 45.0, ops.Sum(a), 1e-12)

	dst := make([]float64, len(a))
	ops.Scale(dst, a, 0.5)
	assert.InDelta(t, 4.5, dst[8], 1e-12)
}

func TestOps32_Interleave(t *testing.T) {
	ops := Float32Ops()
	l := []float32{1, 3, 5}
	r := []float32{2, 4, 6}
	dst := make([]float32, 6)

	ops.Interleave2(dst, l, r)
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, dst)
}

// BenchmarkIndirectF64DotProduct measures a filter-length dot product through the Ops table.
func BenchmarkIndirectF64DotProduct(b *testing.B) {
	ops := Float64Ops()
	a := make([]float64, 128)
	c := make([]float64, 128)
	for i := range a {
		a[i] = float64(i) * 0.01
		c[i] = float64(i) * 0.02
	}

	b.ReportAllocs()
	for b.Loop() {
		_ = ops.DotProductUnsafe(a, c)
	}
}
