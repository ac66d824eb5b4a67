package warp

import "math"

// warpCore finds, for each knot index in knotsA, the best-matching index
// into b under a banded dynamic program: candidate B indices are restricted
// to within skew of the diagonal projection of the A knot, and the chosen
// indices must be non-decreasing (monotonic alignment). Cost combines the
// pointwise difference in warp_element value with a penalty for segment
// lengths on B that stretch away from the corresponding segment on A.
//
// This is an original design: spec §4.M names the band width (2*GlobalSkew),
// the stretch penalty knob, and the mz-match tolerance as configuration, but
// leaves the DP's cost function unspecified. Squared-difference cost with a
// quadratic stretch term is the simplest scoring that honors both knobs.
func warpCore(a, b []float64, knotsA []int, skew int, stretchPenalty float64) []int {
	n := len(knotsA)
	if n == 0 {
		return nil
	}
	lastA := len(a) - 1
	lastB := len(b) - 1
	if lastA <= 0 || lastB < 0 {
		out := make([]int, n)
		return out
	}
	ratio := float64(lastB) / float64(lastA)

	candidates := make([][]int, n)
	for j, ai := range knotsA {
		center := int(math.Round(float64(ai) * ratio))
		lo := center - skew
		hi := center + skew
		if lo < 0 {
			lo = 0
		}
		if hi > lastB {
			hi = lastB
		}
		if j > 0 {
			// never go below the previous knot's lowest feasible choice
			if lo < candidates[j-1][0] {
				lo = candidates[j-1][0]
			}
		}
		if lo > hi {
			lo = hi
		}
		cs := make([]int, hi-lo+1)
		for k := range cs {
			cs[k] = lo + k
		}
		candidates[j] = cs
	}

	// dp[j] holds, per candidate in candidates[j], the best cumulative cost
	// ending there; back[j] holds the chosen predecessor candidate index.
	dp := make([][]float64, n)
	back := make([][]int, n)

	for j := 0; j < n; j++ {
		cs := candidates[j]
		dp[j] = make([]float64, len(cs))
		back[j] = make([]int, len(cs))

		if j == 0 {
			for k, bi := range cs {
				dp[j][k] = pointCost(a[knotsA[j]], b[bi])
				back[j][k] = -1
			}
			continue
		}

		prevCs := candidates[j-1]
		prevDp := dp[j-1]
		// running minimum of prevDp over prevCs[:m+1], since a valid
		// predecessor for candidate bi is any prevCs[m] <= bi.
		runningMin := math.Inf(1)
		runningMinIdx := -1
		m := 0
		spanA := float64(knotsA[j] - knotsA[j-1])

		for k, bi := range cs {
			for m < len(prevCs) && prevCs[m] <= bi {
				if prevDp[m] < runningMin {
					runningMin = prevDp[m]
					runningMinIdx = m
				}
				m++
			}
			best := runningMin
			bestIdx := runningMinIdx
			if bestIdx < 0 {
				// no feasible predecessor within the band; fall back to the
				// cheapest predecessor regardless of monotonicity, since the
				// band construction guarantees at least one exists for the
				// minimum candidate.
				best = math.Inf(1)
				for pm, pc := range prevDp {
					if pc < best {
						best = pc
						bestIdx = pm
					}
				}
			}
			spanB := float64(bi - prevCs[bestIdx])
			stretch := spanB - spanA
			dp[j][k] = best + pointCost(a[knotsA[j]], b[bi]) + stretchPenalty*stretch*stretch
			back[j][k] = bestIdx
		}
	}

	// backtrack from the cheapest final candidate
	lastJ := n - 1
	bestIdx, bestCost := 0, math.Inf(1)
	for k, c := range dp[lastJ] {
		if c < bestCost {
			bestCost = c
			bestIdx = k
		}
	}

	out := make([]int, n)
	idx := bestIdx
	for j := lastJ; j >= 0; j-- {
		out[j] = candidates[j][idx]
		if j > 0 {
			idx = back[j][idx]
			if idx < 0 {
				idx = 0
			}
		}
	}
	return out
}

func pointCost(x, y float64) float64 {
	d := x - y
	return d * d
}
