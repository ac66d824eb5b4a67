package numeric

import (
	"math"
	"testing"
)

func TestGaussianKernelNormalized(t *testing.T) {
	k := GaussianKernel(2)
	var sum float64
	for _, w := range k {
		sum += w
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("kernel sum = %v, want 1", sum)
	}
	if len(k)%2 != 1 {
		t.Errorf("kernel length %d should be odd", len(k))
	}
}

func TestConvolveZeroBoundary(t *testing.T) {
	in := make([]float64, 20)
	in[10] = 1
	out := Convolve(in, GaussianKernel(1), ZeroBoundary)
	if len(out) != len(in) {
		t.Fatalf("output length %d, want %d", len(out), len(in))
	}
	if out[10] <= 0 || out[10] >= 1 {
		t.Errorf("out[10] = %v, want in (0,1) after smoothing a unit impulse", out[10])
	}
	var sum float64
	for _, v := range out {
		sum += v
	}
	if math.Abs(sum-1) > 1e-6 {
		t.Errorf("convolution should preserve total mass away from edges, got sum=%v", sum)
	}
}

func TestMexicanHatKernelSwapsReversedSigmas(t *testing.T) {
	k1 := MexicanHatKernel(5, 1, 0.5)
	k2 := MexicanHatKernel(1, 5, 0.5)
	if len(k1) != len(k2) {
		t.Fatalf("kernel lengths differ: %d vs %d", len(k1), len(k2))
	}
	for i := range k1 {
		if math.Abs(k1[i]-k2[i]) > 1e-9 {
			t.Errorf("kernel[%d] differs after sigma swap: %v vs %v", i, k1[i], k2[i])
		}
	}
}

func TestMexicanHatKernelClampsWeight(t *testing.T) {
	k := MexicanHatKernel(1, 3, 5)
	kClamped := MexicanHatKernel(1, 3, 0.9)
	for i := range k {
		if math.Abs(k[i]-kClamped[i]) > 1e-9 {
			t.Errorf("weight not clamped: kernel[%d] = %v, want %v", i, k[i], kClamped[i])
		}
	}
}
