package hash

import "math"

// minBuckets keeps tiny stores hashable.
const minBuckets = 2

// LargestPrime returns the largest prime not exceeding n, or 2 when n < 2.
func LargestPrime(n int) int {
	for p := n; p > minBuckets; p-- {
		if isPrime(p) {
			return p
		}
	}
	return minBuckets
}

func isPrime(n int) bool {
	if n < 2 {
		return false
	}
	if n%2 == 0 {
		return n == 2
	}
	for d := 3; d*d <= n; d += 2 {
		if n%d == 0 {
			return false
		}
	}
	return true
}

// BucketCount sizes the primary bucket pool for records at the target load
// factor: the largest prime not exceeding records/loadFactor.
func BucketCount(records int, loadFactor float64) int {
	if loadFactor <= 0 {
		loadFactor = 1
	}
	return LargestPrime(int(math.Floor(float64(records) / loadFactor)))
}

// OverflowCount sizes the overflow pool as floor(ratio * buckets).
func OverflowCount(buckets int, ratio float64) int {
	if ratio <= 0 {
		return 0
	}
	return int(math.Floor(ratio * float64(buckets)))
}

// Bucket maps an integer key to its home bucket in [0, buckets).
func Bucket(key int64, buckets int) int {
	m := int64(buckets)
	return int(((key % m) + m) % m)
}
