package numeric

import "math"

// BoundaryPolicy controls how Convolve treats samples outside [0, len(in)).
type BoundaryPolicy int

const (
	// ZeroBoundary treats out-of-range samples as 0.
	ZeroBoundary BoundaryPolicy = iota
	// ClampBoundary repeats the nearest edge sample.
	ClampBoundary
)

// Convolve returns the discrete convolution of in with kernel, centered on
// kernel's midpoint, with out-of-range samples resolved by boundary.
// len(kernel) must be odd.
func Convolve(in []float64, kernel []float64, boundary BoundaryPolicy) []float64 {
	if len(kernel) == 0 {
		return append([]float64(nil), in...)
	}
	half := len(kernel) / 2
	out := make([]float64, len(in))
	for i := range in {
		var sum float64
		for k, w := range kernel {
			j := i + k - half
			sum += w * sampleAt(in, j, boundary)
		}
		out[i] = sum
	}
	return out
}

func sampleAt(in []float64, j int, boundary BoundaryPolicy) float64 {
	if j >= 0 && j < len(in) {
		return in[j]
	}
	if boundary == ClampBoundary && len(in) > 0 {
		if j < 0 {
			return in[0]
		}
		return in[len(in)-1]
	}
	return 0
}

// GaussianKernel builds a normalized Gaussian kernel of half-width
// floor(3*sigma) samples on either side of center (so width =
// 2*floor(3*sigma)+1), sampled at unit spacing.
func GaussianKernel(sigma float64) []float64 {
	if sigma <= 0 {
		return []float64{1}
	}
	half := int(3 * sigma)
	k := make([]float64, 2*half+1)
	var sum float64
	for i := range k {
		x := float64(i - half)
		v := math.Exp(-(x * x) / (2 * sigma * sigma))
		k[i] = v
		sum += v
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// MexicanHatKernel builds a difference-of-Gaussians kernel: a narrow
// Gaussian of width sigma1 minus weight times a broad Gaussian of width
// sigma2, normalized to unit sum. If sigma1 > sigma2 the two are swapped
// (the "narrow minus broad" shape is enforced, not the caller's order).
// weight is clamped to 0.9 to keep the kernel from going net-negative.
func MexicanHatKernel(sigma1, sigma2, weight float64) []float64 {
	if sigma1 > sigma2 {
		sigma1, sigma2 = sigma2, sigma1
	}
	if weight > 0.9 {
		weight = 0.9
	}
	half := int(3*sigma2) + 1
	narrow := centeredGaussian(sigma1, half)
	broad := centeredGaussian(sigma2, half)
	k := make([]float64, 2*half+1)
	var sum float64
	for i := range k {
		k[i] = narrow[i] - weight*broad[i]
		sum += k[i]
	}
	if sum != 0 {
		for i := range k {
			k[i] /= sum
		}
	}
	return k
}

// centeredGaussian samples a (non-normalized-to-1, but sum-normalized)
// Gaussian of the given sigma across [-half, half].
func centeredGaussian(sigma float64, half int) []float64 {
	k := make([]float64, 2*half+1)
	if sigma <= 0 {
		k[half] = 1
		return k
	}
	var sum float64
	for i := range k {
		x := float64(i - half)
		v := math.Exp(-(x * x) / (2 * sigma * sigma))
		k[i] = v
		sum += v
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}
