package opt

// haltonPrimes are the bases of the first dimensions of the Halton sequence.
// Parameter spaces here are low-dimensional (4-10 Fourier coefficients), so a
// fixed table is ample; population init falls back to uniform random beyond it.
var haltonPrimes = []int{
	2, 3, 5, 7, 11, 13, 17, 19, 23, 29,
	31, 37, 41, 43, 47, 53, 59, 61, 67, 71,
	73, 79, 83, 89, 97,
}

// radicalInverse returns the van der Corput radical inverse of index in the
// given base, a value in [0, 1).
func radicalInverse(base, index int) float64 {
	var (
		inv  = 1.0 / float64(base)
		frac = inv
		v    float64
	)
	for index > 0 {
		v += frac * float64(index%base)
		index /= base
		frac *= inv
	}
	return v
}

// haltonPoint returns the index-th point of the dim-dimensional Halton
// sequence, each coordinate in [0, 1). index starts at 1; index 0 is the
// all-zero corner and is skipped by convention.
func haltonPoint(index, dim int) []float64 {
	p := make([]float64, dim)
	for d := 0; d < dim; d++ {
		p[d] = radicalInverse(haltonPrimes[d], index)
	}
	return p
}
