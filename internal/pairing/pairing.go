// Copyright 2017, Kerby Shedden and the Muscato contributors.

// Package pairing implements the pair resolver: the nine
// library-orientation modes, the two disjoin policies, and the
// optional multi-candidate evaluation mode, expressed as a single
// parametrized routine rather than one function per combination (see
// DESIGN.md for why the corpus shape went the other way).
package pairing

import (
	"github.com/kshedden/seqmatch/internal/extend"
	"github.com/kshedden/seqmatch/internal/index"
	"github.com/kshedden/seqmatch/internal/kmer"
	"github.com/kshedden/seqmatch/internal/reference"
	"github.com/kshedden/seqmatch/internal/seed"
)

// Mode is one of the nine library-orientation models from spec §4.6.
type Mode string

const (
	ISF Mode = "ISF"
	ISR Mode = "ISR"
	IU  Mode = "IU"
	OSF Mode = "OSF"
	OSR Mode = "OSR"
	OU  Mode = "OU"
	SF  Mode = "SF"
	SR  Mode = "SR"
	U   Mode = "U"
)

// Paired reports whether mode operates on read pairs.
func (m Mode) Paired() bool {
	switch m {
	case ISF, ISR, IU, OSF, OSR, OU:
		return true
	default:
		return false
	}
}

// SingleHit is the result of resolving a single-end read.
type SingleHit struct {
	Seq        int
	Start, End int
}

// PairHit is the result of resolving a read pair.
type PairHit struct {
	Seq1         int
	Start1, End1 int
	Seq2         int
	Start2, End2 int
	Score        int // 0: same reference sequence, 1: disjoint
	Strand1      byte
	Strand2      byte
}

// Resolver ties the shared k-mer index and reference sequences to the
// configured seeding/extension/disjoin parameters. It is read-only
// once constructed and safe to share (without synchronization, per
// spec §5) across worker goroutines, provided callers don't mutate
// Refs or Table.
type Resolver struct {
	Table           *index.Table
	Refs            []reference.Sequence
	Step            int
	MismatchPercent int
	IgnoreN         bool
	NoDisjoin       bool
	Evals           int
}

type dualResult struct {
	i1, p1 int
	i2, p2 int
	score  int
}

// ResolveSingle handles the SF/SR/U single-end modes.
func (r *Resolver) ResolveSingle(mode Mode, read []byte) (SingleHit, bool) {
	switch mode {
	case SF:
		if i, p, ok := r.seedExtend(read); ok {
			return SingleHit{Seq: i, Start: p, End: p + len(read)}, true
		}
	case SR:
		rc := kmer.ReverseComplement(read)
		if i, p, ok := r.seedExtend(rc); ok {
			return SingleHit{Seq: i, Start: p, End: p + len(rc)}, true
		}
	case U:
		if i, p, ok := r.seedExtend(read); ok {
			return SingleHit{Seq: i, Start: p, End: p + len(read)}, true
		}
		rc := kmer.ReverseComplement(read)
		if i, p, ok := r.seedExtend(rc); ok {
			return SingleHit{Seq: i, Start: p, End: p + len(rc)}, true
		}
	}
	return SingleHit{}, false
}

// seedExtend runs the single-end seed/extend sweep: seed, extend at
// every posting, return the first successful hit.
func (r *Resolver) seedExtend(read []byte) (int, int, bool) {
	L := len(read)
	budget := extend.Budget(r.MismatchPercent, L)
	at := 0
	for {
		postings, found := seed.Find(r.Table, read, r.Step, &at)
		if !found {
			return 0, 0, false
		}
		for _, post := range postings {
			i := int(post.SeqIdx)
			start := int(post.Pos) - at
			if start < 0 {
				continue
			}
			ref := r.Refs[i].Bases
			if start+L > len(ref) {
				continue
			}
			if extend.Matches(ref[start:start+L], read, budget, r.IgnoreN) {
				return i, start, true
			}
		}
		at += r.Step
	}
}

// ResolvePair handles the six paired modes. r1 and r2 are the two
// mates exactly as read (not yet reverse-complemented); ResolvePair
// complements whichever mate each mode requires.
func (r *Resolver) ResolvePair(mode Mode, r1, r2 []byte) (PairHit, bool) {
	switch mode {
	case ISF:
		return r.resolveOneOrder(false, r1, r2, '+', '-', false)
	case ISR:
		return r.resolveOneOrder(false, r2, r1, '+', '-', true)
	case IU:
		if h, ok := r.resolveOneOrder(false, r1, r2, '+', '-', false); ok {
			return h, true
		}
		return r.resolveOneOrder(false, r2, r1, '+', '-', true)
	case OSF:
		return r.resolveOneOrder(true, r1, r2, '-', '+', false)
	case OSR:
		return r.resolveOneOrder(true, r2, r1, '-', '+', true)
	case OU:
		if h, ok := r.resolveOneOrder(true, r1, r2, '-', '+', false); ok {
			return h, true
		}
		return r.resolveOneOrder(true, r2, r1, '-', '+', true)
	}
	return PairHit{}, false
}

// resolveOneOrder resolves one concrete (primary, secondary) search
// for a paired mode. primary is searched as given; secondary is
// reverse-complemented before seeding, per spec §4.6 ("the other mate
// is reverse-complemented before seed search"). swapped indicates
// that primary is physically R2 and secondary is physically R1 (the
// ISR/OSR/role-swapped cases), so the result's Seq1/Seq2 fields are
// assigned back to the correct physical mate.
func (r *Resolver) resolveOneOrder(outward bool, primary, secondary []byte, strandPrimary, strandSecondary byte, swapped bool) (PairHit, bool) {
	secondaryRC := kmer.ReverseComplement(secondary)

	var cand dualResult
	var ok bool
	if r.Evals > 0 {
		cand, ok = r.resolveEvals(outward, primary, secondaryRC)
	} else {
		cand, ok = r.resolveCore(outward, primary, secondaryRC)
	}
	if !ok {
		return PairHit{}, false
	}

	hit := PairHit{
		Seq1: cand.i1, Start1: cand.p1, End1: cand.p1 + len(primary),
		Seq2: cand.i2, Start2: cand.p2, End2: cand.p2 + len(secondaryRC),
		Score:   cand.score,
		Strand1: strandPrimary,
		Strand2: strandSecondary,
	}
	if swapped {
		hit.Seq1, hit.Seq2 = hit.Seq2, hit.Seq1
		hit.Start1, hit.Start2 = hit.Start2, hit.Start1
		hit.End1, hit.End2 = hit.End2, hit.End1
		hit.Strand1, hit.Strand2 = strandSecondary, strandPrimary
	}
	return hit, true
}

// resolveCore implements the canonical same-sequence search plus, when
// NoDisjoin is false, the two ordered fallbacks from spec §4.6.
func (r *Resolver) resolveCore(outward bool, primary, secondary []byte) (dualResult, bool) {
	L1, L2 := len(primary), len(secondary)
	budget1 := extend.Budget(r.MismatchPercent, L1)
	budget2 := extend.Budget(r.MismatchPercent, L2)

	at1 := 0
	for {
		postings1, found := seed.Find(r.Table, primary, r.Step, &at1)
		if !found {
			return dualResult{}, false
		}
		for _, post1 := range postings1 {
			i1 := int(post1.SeqIdx)
			start1 := int(post1.Pos) - at1
			if start1 < 0 || start1+L1 > len(r.Refs[i1].Bases) {
				continue
			}
			if !extend.Matches(r.Refs[i1].Bases[start1:start1+L1], primary, budget1, r.IgnoreN) {
				continue
			}
			if cand, ok := r.searchSecondary(outward, i1, start1, secondary, budget2, L2); ok {
				return cand, true
			}
		}
		at1 += r.Step
	}
}

func (r *Resolver) searchSecondary(outward bool, i1, start1 int, secondary []byte, budget2, L2 int) (dualResult, bool) {
	at2 := 0
	for {
		postings2, found := seed.Find(r.Table, secondary, r.Step, &at2)
		if !found {
			return dualResult{}, false
		}

		idx := -1
		for ii, post2 := range postings2 {
			if int(post2.SeqIdx) == i1 {
				idx = ii
				break
			}
		}

		if idx >= 0 {
			for ii := idx; ii < len(postings2) && int(postings2[ii].SeqIdx) == i1; ii++ {
				post2 := postings2[ii]
				start2 := int(post2.Pos) - at2
				if start2 < 0 || start2+L2 > len(r.Refs[i1].Bases) {
					continue
				}
				if !extend.Matches(r.Refs[i1].Bases[start2:start2+L2], secondary, budget2, r.IgnoreN) {
					continue
				}
				if ordered(outward, start1, start2, L2) {
					return dualResult{i1: i1, p1: start1, i2: i1, p2: start2, score: 0}, true
				}
			}
		}

		if !r.NoDisjoin {
			if idx >= 0 {
				// fallback (a): remaining same-sequence postings,
				// accepted without the ordering constraint.
				for ii := idx; ii < len(postings2) && int(postings2[ii].SeqIdx) == i1; ii++ {
					post2 := postings2[ii]
					start2 := int(post2.Pos) - at2
					if start2 < 0 || start2+L2 > len(r.Refs[i1].Bases) {
						continue
					}
					if extend.Matches(r.Refs[i1].Bases[start2:start2+L2], secondary, budget2, r.IgnoreN) {
						return dualResult{i1: i1, p1: start1, i2: i1, p2: start2, score: 0}, true
					}
				}
			}

			// fallback (b): cross-sequence postings honoring the
			// directional inequality (inward: i2>=i1, outward: i2<=i1).
			for _, post2 := range postings2 {
				i2 := int(post2.SeqIdx)
				if crossSkip(outward, i2, i1) {
					continue
				}
				start2 := int(post2.Pos) - at2
				if start2 < 0 || start2+L2 > len(r.Refs[i2].Bases) {
					continue
				}
				if !extend.Matches(r.Refs[i2].Bases[start2:start2+L2], secondary, budget2, r.IgnoreN) {
					continue
				}
				score := 0
				if i2 != i1 {
					score = 1
				}
				return dualResult{i1: i1, p1: start1, i2: i2, p2: start2, score: score}, true
			}
		}

		at2 += r.Step
	}
}

// resolveEvals implements the evals>0 path: ordered, same-sequence
// candidates only (evals forces NoDisjoin), scored by total mismatch
// count and ranked with ties broken by discovery order.
func (r *Resolver) resolveEvals(outward bool, primary, secondary []byte) (dualResult, bool) {
	L1, L2 := len(primary), len(secondary)
	budget1 := extend.Budget(r.MismatchPercent, L1)
	budget2 := extend.Budget(r.MismatchPercent, L2)

	var best dualResult
	bestScore := -1
	found := 0

	at1 := 0
	for found < r.Evals {
		postings1, ok := seed.Find(r.Table, primary, r.Step, &at1)
		if !ok {
			break
		}
		for _, post1 := range postings1 {
			if found >= r.Evals {
				break
			}
			i1 := int(post1.SeqIdx)
			start1 := int(post1.Pos) - at1
			if start1 < 0 || start1+L1 > len(r.Refs[i1].Bases) {
				continue
			}
			c, ok := extend.Count(r.Refs[i1].Bases[start1:start1+L1], primary, budget1, r.IgnoreN)
			if !ok {
				continue
			}

			at2 := 0
			for found < r.Evals {
				postings2, ok2 := seed.Find(r.Table, secondary, r.Step, &at2)
				if !ok2 {
					break
				}
				matched := false
				for _, post2 := range postings2 {
					if int(post2.SeqIdx) != i1 {
						continue
					}
					start2 := int(post2.Pos) - at2
					if start2 < 0 || start2+L2 > len(r.Refs[i1].Bases) {
						continue
					}
					d, ok := extend.Count(r.Refs[i1].Bases[start2:start2+L2], secondary, budget2, r.IgnoreN)
					if !ok {
						continue
					}
					if !ordered(outward, start1, start2, L2) {
						continue
					}
					total := c + d
					if bestScore == -1 || total < bestScore {
						bestScore = total
						best = dualResult{i1: i1, p1: start1, i2: i1, p2: start2, score: 0}
					}
					found++
					matched = true
					break
				}
				at2 += r.Step
				if matched {
					break
				}
			}
		}
		at1 += r.Step
	}

	return best, bestScore != -1
}

func ordered(outward bool, start1, start2, L2 int) bool {
	if outward {
		return start1 >= start2+L2
	}
	return start1 <= start2+L2
}

// crossSkip reports whether a cross-sequence candidate at i2 should
// be skipped given the primary's sequence i1: inward disjoin pairs
// flow in increasing coordinate order across concatenated references
// (i2>=i1 kept), outward pairs the reverse (i2<=i1 kept).
func crossSkip(outward bool, i2, i1 int) bool {
	if outward {
		return i2 > i1
	}
	return i2 < i1
}
