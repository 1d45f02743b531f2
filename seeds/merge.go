// elBLAST: a seed-and-extend local alignment tool for nucleotide sequences.
// Copyright (c) 2017-2020 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/elprep/blob/master/LICENSE.txt>.

package seeds

import (
	"sort"

	"github.com/exascience/elblast/intervals"
	"github.com/exascience/pargo/parallel"
	psort "github.com/exascience/pargo/sort"
)

// A MergedSeed is an ungapped run of exact seed occurrences on one
// diagonal. A raw occurrence is a MergedSeed whose Length is the seed
// length.
type MergedSeed struct {
	QueryStart     int32
	ReferenceStart int32
	Length         int32
}

// Diagonal returns QueryStart - ReferenceStart.
func (seed MergedSeed) Diagonal() int32 {
	return seed.QueryStart - seed.ReferenceStart
}

// QueryEnd returns the exclusive end of the seed on the query.
func (seed MergedSeed) QueryEnd() int32 {
	return seed.QueryStart + seed.Length
}

// ReferenceEnd returns the exclusive end of the seed on the reference.
func (seed MergedSeed) ReferenceEnd() int32 {
	return seed.ReferenceStart + seed.Length
}

// Expand turns every hit into its raw occurrences, one per pair of
// query and reference positions.
func Expand(hits []Hit) []MergedSeed {
	n := 0
	for _, hit := range hits {
		n += hit.Occurrences()
	}
	if n == 0 {
		return nil
	}
	result := make([]MergedSeed, 0, n)
	for _, hit := range hits {
		for _, q := range hit.Query {
			for _, r := range hit.Reference {
				result = append(result, MergedSeed{QueryStart: q, ReferenceStart: r, Length: hit.Length})
			}
		}
	}
	return result
}

func lessByQuery(a, b MergedSeed) bool {
	if a.QueryStart != b.QueryStart {
		return a.QueryStart < b.QueryStart
	}
	return a.ReferenceStart < b.ReferenceStart
}

func lessByDiagonal(a, b MergedSeed) bool {
	if da, db := a.Diagonal(), b.Diagonal(); da != db {
		return da < db
	}
	return lessByQuery(a, b)
}

type byDiagonal []MergedSeed

func (s byDiagonal) SequentialSort(i, j int) {
	slice := s[i:j]
	sort.SliceStable(slice, func(i, j int) bool {
		return lessByDiagonal(slice[i], slice[j])
	})
}

func (s byDiagonal) NewTemp() psort.StableSorter {
	return make(byDiagonal, len(s))
}

func (s byDiagonal) Len() int {
	return len(s)
}

func (s byDiagonal) Less(i, j int) bool {
	return lessByDiagonal(s[i], s[j])
}

func (s byDiagonal) Assign(source psort.StableSorter) func(i, j, len int) {
	dst, src := s, source.(byDiagonal)
	return func(i, j, len int) {
		copy(dst[i:i+len], src[j:j+len])
	}
}

// SortByQuery sorts seeds by query start, then by reference start.
func SortByQuery(seeds []MergedSeed) {
	sort.Slice(seeds, func(i, j int) bool {
		return lessByQuery(seeds[i], seeds[j])
	})
}

// Merge expands the hits and merges their occurrences; see MergeSeeds.
func Merge(hits []Hit) []MergedSeed {
	return MergeSeeds(Expand(hits))
}

// MergeSeeds collapses seed occurrences into maximal diagonals.
//
// Two seeds A and B, with B starting at or after A on the query, are
// merged when they lie on the same diagonal and B starts inside A or
// immediately after it. Merging is repeated until no two remaining
// seeds can be merged. Seeds on different diagonals never interact,
// so each diagonal is swept independently and in parallel. The result
// is sorted by query start, then reference start. The argument is
// reordered in place.
func MergeSeeds(occurrences []MergedSeed) []MergedSeed {
	if len(occurrences) == 0 {
		return nil
	}
	psort.StableSort(byDiagonal(occurrences))

	var bounds []int
	for i := range occurrences {
		if i == 0 || occurrences[i].Diagonal() != occurrences[i-1].Diagonal() {
			bounds = append(bounds, i)
		}
	}
	bounds = append(bounds, len(occurrences))

	diagonals := make([][]MergedSeed, len(bounds)-1)
	parallel.Range(0, len(diagonals), 0, func(low, high int) {
		var ivals []intervals.Interval
		for d := low; d < high; d++ {
			bucket := occurrences[bounds[d]:bounds[d+1]]
			diagonal := bucket[0].Diagonal()
			ivals = ivals[:0]
			for _, seed := range bucket {
				ivals = append(ivals, intervals.Interval{Start: seed.QueryStart, End: seed.QueryEnd()})
			}
			flat := intervals.Flatten(ivals)
			merged := make([]MergedSeed, len(flat))
			for i, ival := range flat {
				merged[i] = MergedSeed{
					QueryStart:     ival.Start,
					ReferenceStart: ival.Start - diagonal,
					Length:         ival.Len(),
				}
			}
			diagonals[d] = merged
		}
	})

	result := make([]MergedSeed, 0, len(diagonals))
	for _, merged := range diagonals {
		result = append(result, merged...)
	}
	SortByQuery(result)
	return result
}
