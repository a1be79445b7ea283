// Copyright 2017, Kerby Shedden and the Muscato contributors.

// Package extend implements the ungapped extension step: verifying
// that a seeded reference offset matches a read within a mismatch
// budget.
package extend

// Budget returns the maximum number of mismatches allowed for a read
// of length L under mismatchPercent (0..99).
func Budget(mismatchPercent, L int) int {
	return mismatchPercent * L / 100
}

// Matches reports whether ref[0:len(read)] matches read within
// budget mismatches. If ignoreN is set, an 'N' in read contributes no
// mismatch regardless of the reference base. Exits early (false) as
// soon as the running mismatch count exceeds budget. Callers must
// ensure len(ref) >= len(read).
func Matches(ref, read []byte, budget int, ignoreN bool) bool {
	_, ok := Count(ref, read, budget, ignoreN)
	return ok
}

// Count is the numeric form of Matches, used for the evals>0 scoring
// path: it returns the mismatch count and whether it is within
// budget. The count returned when ok is false is the count at the
// point the budget was exceeded (not the full count), matching the
// early-exit contract.
func Count(ref, read []byte, budget int, ignoreN bool) (int, bool) {
	var n int
	for j := 0; j < len(read); j++ {
		if ignoreN && read[j] == 'N' {
			continue
		}
		if read[j] != ref[j] {
			n++
			if n > budget {
				return n, false
			}
		}
	}
	return n, true
}
