package catsat

import "time"

// randomSource is a small, fast xorshift generator. Unlike the original
// design (a single module-wide generator), each Problem owns its own
// instance, so problems solved on different goroutines never cross-talk
// (see spec.md §5).
type randomSource struct {
	state uint64
}

// newRandomSource returns a generator seeded from the wall clock.
func newRandomSource() *randomSource {
	r := &randomSource{}
	r.SetSeedFromClock()
	return r
}

// SetSeed sets the generator's state from a 32-bit seed, for
// reproducible runs.
func (r *randomSource) SetSeed(seed uint32) {
	r.state = uint64(seed)<<32 | uint64(seed) | 1
}

// SetSeedFromClock reseeds the generator from the current time.
func (r *randomSource) SetSeedFromClock() {
	r.SetSeed(uint32(time.Now().UnixNano()))
}

// next advances the generator and returns the next pseudo-random value.
func (r *randomSource) next() uint64 {
	x := r.state
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	r.state = x
	return x
}

// InRange returns a uniformly distributed pseudo-random integer in
// [0, n). It panics if n <= 0.
func (r *randomSource) InRange(n int) int {
	if n <= 0 {
		panic("catsat: InRange called with n <= 0")
	}
	return int(r.next() % uint64(n))
}

// Bool returns true with probability p.
func (r *randomSource) Bool(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	// 53 bits of mantissa is plenty of resolution for acceptance tests.
	const mantissaBits = 53
	frac := float64(r.next()>>(64-mantissaBits)) / float64(uint64(1)<<mantissaBits)
	return frac < p
}

// RandomElementInt returns a uniformly random element of a non-empty
// slice of ints.
func (r *randomSource) RandomElementInt(s []int) int {
	return s[r.InRange(len(s))]
}

// primeTable holds every prime from 2 up to 10000 (the largest is 9973), computed
// once at init time with a sieve of Eratosthenes. It backs
// RandomPrimeGreaterThan, used by the solver's greedy-flip candidate
// walk (spec.md §4.4, §9) to visit a disjunct array in a data-independent
// order: starting at a random index and advancing by a prime stride
// larger than the array length visits every slot exactly once.
var primeTable = sieve(10000)

func sieve(limit int) []int {
	composite := make([]bool, limit+1)
	var primes []int
	for n := 2; n <= limit; n++ {
		if composite[n] {
			continue
		}
		primes = append(primes, n)
		for m := n * n; m <= limit; m += n {
			composite[m] = true
		}
	}
	return primes
}

// RandomPrimeGreaterThan returns a uniformly random prime strictly
// greater than n, for use as a stride in a randomized walk over an array
// of length n. If n is at or beyond the largest entry in the prime
// table (9973), that largest prime is returned; a disjunct array
// of that size is already far outside the problem sizes this engine
// targets.
func (r *randomSource) RandomPrimeGreaterThan(n int) int {
	lo := 0
	hi := len(primeTable)
	for lo < hi {
		mid := (lo + hi) / 2
		if primeTable[mid] > n {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	if lo >= len(primeTable) {
		return primeTable[len(primeTable)-1]
	}
	candidates := primeTable[lo:]
	return r.RandomElementInt(candidates)
}

// Shuffle performs an in-place Fisher-Yates shuffle of n elements,
// exchanging elements i and j through the caller-supplied swap.
func (r *randomSource) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := r.InRange(i + 1)
		swap(i, j)
	}
}
