// Copyright 2017, Kerby Shedden and the Muscato contributors.

// Package screen implements an optional Bloom-filter pre-screen: a
// sketch of every k-mer present in the reference collection, used to
// reject a read in O(len(read)) time when none of its k-mer windows
// could possibly seed, without touching the (much larger) posting
// lists in the index.
//
// This mirrors muscato_screen's two-stage design (cheap Bloom
// membership check before expensive verification), adapted from a
// multi-window dinucleotide sketch of reads against targets into a
// single k-mer sketch of references against reads.
package screen

import (
	"math/rand"

	"github.com/chmduquesne/rollinghash"
	"github.com/chmduquesne/rollinghash/buzhash32"
	"github.com/golang-collections/go-datastructures/bitarray"

	"github.com/kshedden/seqmatch/internal/reference"
)

// Sketch is a Bloom filter over every k-mer window of a reference
// collection. It is read-only once built and safe to share across
// worker goroutines.
type Sketch struct {
	bits    bitarray.BitArray
	tables  [][256]uint32
	k       int
	numBits uint64
}

// NewSketch builds a sketch of every k-mer (of width k) across set,
// backed by a Bloom filter with numBits bits and numHash independent
// hash functions.
func NewSketch(set *reference.Set, k int, numBits uint64, numHash int, seed int64) *Sketch {
	s := &Sketch{
		bits:    bitarray.NewBitArray(numBits),
		tables:  genTables(numHash, seed),
		k:       k,
		numBits: numBits,
	}

	hashes := s.newHashes()
	for _, seq := range set.Sequences {
		b := seq.Bases
		for i := 0; i+k <= len(b); i++ {
			s.add(hashes, b[i:i+k])
		}
	}
	return s
}

// genTables builds numHash independent byte-to-uint32 substitution
// tables, each seeding one buzhash32 rolling hash, using a
// locally-seeded PRNG so sketch construction is deterministic given
// seed (muscato_screen.go uses the global math/rand source instead;
// seeding a dedicated generator keeps repeated runs reproducible).
func genTables(numHash int, seed int64) [][256]uint32 {
	rng := rand.New(rand.NewSource(seed))
	tables := make([][256]uint32, numHash)
	for j := 0; j < numHash; j++ {
		seen := make(map[uint32]bool)
		for i := 0; i < 256; i++ {
			for {
				x := uint32(rng.Int63())
				if !seen[x] {
					tables[j][i] = x
					seen[x] = true
					break
				}
			}
		}
	}
	return tables
}

func (s *Sketch) newHashes() []rollinghash.Hash32 {
	hashes := make([]rollinghash.Hash32, len(s.tables))
	for j := range hashes {
		hashes[j] = buzhash32.NewFromUint32Array(s.tables[j])
	}
	return hashes
}

func (s *Sketch) add(hashes []rollinghash.Hash32, window []byte) {
	for _, h := range hashes {
		h.Reset()
		h.Write(window)
		s.bits.SetBit(uint64(h.Sum32()) % s.numBits)
	}
}

// MayContain reports whether window might be a k-mer present in the
// sketched reference collection. A false result is conclusive (the
// window is absent); a true result may be a false positive.
func (s *Sketch) MayContain(window []byte) bool {
	hashes := s.newHashes()
	for _, h := range hashes {
		h.Reset()
		h.Write(window)
		bit, err := s.bits.GetBit(uint64(h.Sum32()) % s.numBits)
		if err != nil || !bit {
			return false
		}
	}
	return true
}

// AnyWindow reports whether any k-mer window of read may be present
// in the sketch. Reads for which this returns false can never seed
// and are skipped before touching the index at all.
func (s *Sketch) AnyWindow(read []byte) bool {
	if len(read) < s.k {
		return false
	}
	hashes := s.newHashes()
	for i := 0; i+s.k <= len(read); i++ {
		window := read[i : i+s.k]
		hit := true
		for _, h := range hashes {
			h.Reset()
			h.Write(window)
			bit, err := s.bits.GetBit(uint64(h.Sum32()) % s.numBits)
			if err != nil || !bit {
				hit = false
				break
			}
		}
		if hit {
			return true
		}
	}
	return false
}
