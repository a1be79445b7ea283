// Copyright 2017, Kerby Shedden and the Muscato contributors.

// Package dedup provides a per-worker duplicate-read cache: a Bloom
// filter over read sequences already processed by this worker, so
// that PCR-duplicate reads (identical sequence content) skip seeding
// and extension entirely. The cache stores no mapping result: a
// duplicate is dropped and written to no output. Each worker owns an
// independent Cache; there is no
// cross-worker sharing, matching the partitioned, lock-free worker
// model.
package dedup

import (
	"github.com/willf/bloom"
)

// Cache is a single worker's duplicate-read filter. Membership is
// probabilistic: Seen can report a false positive (treating a novel
// read as a duplicate) at the configured false-positive rate, but
// never a false negative. Callers that cannot tolerate dropping a
// genuinely novel read should size n generously.
type Cache struct {
	filter *bloom.BloomFilter
}

// NewCache builds a cache sized for approximately n distinct reads at
// the given false-positive rate.
func NewCache(n uint, falsePositiveRate float64) *Cache {
	return &Cache{
		filter: bloom.NewWithEstimates(n, falsePositiveRate),
	}
}

// Seen reports whether seq has (probably) been observed before, and
// unconditionally records it as seen.
func (c *Cache) Seen(seq []byte) bool {
	maybe := c.filter.TestAndAdd(seq)
	return maybe
}
