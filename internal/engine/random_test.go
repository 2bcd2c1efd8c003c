package engine

import (
	"math"
	"sync"
	"testing"
)

func TestDeterminism(t *testing.T) {
	r1 := NewRNG(42)
	r2 := NewRNG(42)
	for i := 0; i < 1000; i++ {
		if r1.Uint32() != r2.Uint32() {
			t.Fatalf("determinism broken at iteration %d", i)
		}
	}
}

func TestDifferentSeeds(t *testing.T) {
	r1 := NewRNG(42)
	r2 := NewRNG(43)
	same := 0
	for i := 0; i < 100; i++ {
		if r1.Uint32() == r2.Uint32() {
			same++
		}
	}
	if same > 5 {
		t.Fatalf("different seeds produced %d/100 identical values", same)
	}
}

func TestFloat64Bounds(t *testing.T) {
	r := NewRNG(42)
	for i := 0; i < 10000; i++ {
		v := r.Float64()
		if v < 0 || v >= 1 {
			t.Fatalf("Float64() = %f, out of [0, 1)", v)
		}
	}
}

func TestIntnBounds(t *testing.T) {
	r := NewRNG(42)
	for i := 0; i < 10000; i++ {
		v := r.Intn(10)
		if v < 0 || v >= 10 {
			t.Fatalf("Intn(10) = %d, out of [0, 10)", v)
		}
	}
}

func TestIntnZero(t *testing.T) {
	r := NewRNG(42)
	if r.Intn(0) != 0 {
		t.Fatal("Intn(0) should return 0")
	}
}

func TestIntRangeBounds(t *testing.T) {
	r := NewRNG(42)
	for i := 0; i < 10000; i++ {
		v := r.IntRange(5, 15)
		if v < 5 || v > 15 {
			t.Fatalf("IntRange(5,15) = %d, out of [5, 15]", v)
		}
	}
}

func TestIntRangeReversed(t *testing.T) {
	r := NewRNG(42)
	// When min >= max, should return min
	if v := r.IntRange(10, 5); v != 10 {
		t.Fatalf("IntRange(10,5) = %d, want 10", v)
	}
}

func TestGaussianStats(t *testing.T) {
	r := NewRNG(42)
	n := 50000
	sum := 0.0
	sumSq := 0.0
	for i := 0; i < n; i++ {
		v := r.Gaussian()
		sum += v
		sumSq += v * v
	}
	mean := sum / float64(n)
	variance := sumSq/float64(n) - mean*mean

	if math.Abs(mean) > 0.05 {
		t.Errorf("Gaussian mean = %f, expected ~0", mean)
	}
	if math.Abs(variance-1.0) > 0.1 {
		t.Errorf("Gaussian variance = %f, expected ~1", variance)
	}
}

func TestGaussianConcurrent(t *testing.T) {
	r := NewRNG(42)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 5000; i++ {
				v := r.Gaussian()
				if math.IsNaN(v) || math.IsInf(v, 0) {
					t.Errorf("Gaussian returned %f", v)
					return
				}
			}
		}()
	}
	wg.Wait()

	// The spare slot must be coherent afterwards: either empty, or holding
	// one finite value.
	if r.hasSpare && (math.IsNaN(r.spare) || math.IsInf(r.spare, 0)) {
		t.Fatalf("spare value corrupted: %f", r.spare)
	}
}

func TestWeightedPickBounds(t *testing.T) {
	r := NewRNG(42)
	weights := []float64{1, 2, 3, 4}
	for i := 0; i < 10000; i++ {
		v := r.WeightedPick(weights)
		if v < 0 || v >= len(weights) {
			t.Fatalf("WeightedPick out of range: %d", v)
		}
	}
}

func TestWeightedPickDistribution(t *testing.T) {
	r := NewRNG(42)
	weights := []float64{1, 9}
	counts := make([]int, 2)
	for i := 0; i < 10000; i++ {
		counts[r.WeightedPick(weights)]++
	}
	if counts[1] < counts[0] {
		t.Fatalf("heavier weight picked less often: %v", counts)
	}
}
