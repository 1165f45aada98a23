package numeric

import (
	"math"
	"math/rand"
)

// NormalRange draws from N(mu, sigma^2) and clamps the result to [lo,hi].
// This is the general-purpose Gaussian sampler; content generation and
// audience surveys build on it with problem-specific mu/sigma.
func NormalRange(rng *rand.Rand, mu, sigma, lo, hi float64) float64 {
	return Clamp(rng.NormFloat64()*sigma+mu, lo, hi)
}

// NormalP draws a non-negative sample from N(0, sigma^2), used for cost and
// other magnitude-only quantities. Negative draws are reflected, not
// clamped to zero, so the result is half-normal with no extra mass piled
// up at exactly zero.
func NormalP(rng *rand.Rand, sigma float64) float64 {
	v := rng.NormFloat64() * sigma
	if v < 0 {
		return -v
	}
	return v
}

// TightAroundTopic draws a topic-space sample tightly clustered (sigma≈0.05)
// around mu, clamped to the legal [0,1]^2 topic range. Used by Agent.Produce
// to generate a ContentBody close to the author's own interests.
func TightAroundTopic(rng *rand.Rand, mu Vec2) Vec2 {
	const sigma = 0.05
	return ClampTopic(Vec2{
		X: NormalRange(rng, mu.X, sigma, 0, 1),
		Y: NormalRange(rng, mu.Y, sigma, 0, 1),
	})
}

// TightAroundValue draws a value-space sample tightly clustered (sigma≈0.05)
// around mu, clamped to the legal [-1,1]^2 value range.
func TightAroundValue(rng *rand.Rand, mu Vec2) Vec2 {
	const sigma = 0.05
	return ClampValue(Vec2{
		X: NormalRange(rng, mu.X, sigma, -1, 1),
		Y: NormalRange(rng, mu.Y, sigma, -1, 1),
	})
}

// NormalMu draws a single scalar from N(mu, sigma^2) with no clamping.
func NormalMu(rng *rand.Rand, mu, sigma float64) float64 {
	return rng.NormFloat64()*sigma + mu
}

// BayesianPrior is the (mean, variance) pair tracked for a publisher's
// belief about its audience's values or interests.
type BayesianPrior struct {
	Mean, Var float64
}

// bayesianEps guards the variance-update denominator against a degenerate
// (zero-variance) sample.
const bayesianEps = 1e-6

// UpdateBayesian folds a sample mean/variance observation into a prior,
// returning the posterior (mean, variance). See spec §4.1.
func UpdateBayesian(prior BayesianPrior, sampleMean, sampleVar float64) BayesianPrior {
	sampleVar += bayesianEps
	denom := sampleVar + prior.Var
	return BayesianPrior{
		Mean: (sampleVar*prior.Mean + prior.Var*sampleMean) / denom,
		Var:  prior.Var * sampleVar / denom,
	}
}

// SampleMeanVar returns the mean and (population) variance of xs. Returns
// (0,0) for an empty slice so callers need not special-case it.
func SampleMeanVar(xs []float64) (mean, variance float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	mean = sum / float64(len(xs))
	for _, x := range xs {
		d := x - mean
		variance += d * d
	}
	variance /= float64(len(xs))
	return
}

// Beta samples from a Beta(alpha, beta) distribution using the standard
// gamma-ratio construction: X/(X+Y) for independent Gamma(alpha,1),
// Gamma(beta,1) draws.
func Beta(rng *rand.Rand, alpha, beta float64) float64 {
	if alpha <= 0 || beta <= 0 {
		return 0
	}
	x := gammaSample(rng, alpha)
	y := gammaSample(rng, beta)
	if x+y == 0 {
		return 0
	}
	return x / (x + y)
}

// gammaSample draws from Gamma(shape, 1) via Marsaglia-Tsang, the standard
// rejection method for shape >= 1 (boosted for shape < 1 per the usual trick).
func gammaSample(rng *rand.Rand, shape float64) float64 {
	if shape < 1 {
		u := rng.Float64()
		return gammaSample(rng, shape+1) * math.Pow(u, 1/shape)
	}
	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9*d)
	for {
		var x, v float64
		for {
			x = rng.NormFloat64()
			v = 1 + c*x
			if v > 0 {
				break
			}
		}
		v = v * v * v
		u := rng.Float64()
		if u < 1-0.0331*(x*x)*(x*x) {
			return d * v
		}
		if math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v
		}
	}
}

// Binomial draws from Binomial(n, p) via direct simulation — n is always
// small here (a friend's share-queue length), so this is cheap and exact.
func Binomial(rng *rand.Rand, n int, p float64) int {
	if n <= 0 || p <= 0 {
		return 0
	}
	if p >= 1 {
		return n
	}
	count := 0
	for i := 0; i < n; i++ {
		if rng.Float64() < p {
			count++
		}
	}
	return count
}
