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

// Package intervals provides half-open [Start, End) intervals over
// sequence coordinates and sweep operations on sorted slices of them.
package intervals

import (
	"sort"

	"github.com/exascience/elblast/bed"
	"github.com/exascience/pargo/parallel"
	psort "github.com/exascience/pargo/sort"
)

// Interval is a half-open range of positions: Start is inclusive,
// End is exclusive.
type Interval struct {
	Start, End int32
}

// Len returns the number of positions covered by the interval.
func (interval Interval) Len() int32 {
	return interval.End - interval.Start
}

// SortByStart sorts a slice of Interval by Start position.
func SortByStart(intervals []Interval) {
	sort.SliceStable(intervals, func(i, j int) bool {
		return intervals[i].Start < intervals[j].Start
	})
}

type byStart []Interval

func (s byStart) SequentialSort(i, j int) {
	SortByStart(s[i:j])
}

func (s byStart) NewTemp() psort.StableSorter {
	return make(byStart, len(s))
}

func (s byStart) Len() int {
	return len(s)
}

func (s byStart) Less(i, j int) bool {
	return s[i].Start < s[j].Start
}

func (s byStart) Assign(source psort.StableSorter) func(i, j, len int) {
	dst, src := s, source.(byStart)
	return func(i, j, len int) {
		copy(dst[i:i+len], src[j:j+len])
	}
}

// ParallelSortByStart sorts a slice of Interval by Start position using
// a parallel stable sort.
func ParallelSortByStart(intervals []Interval) {
	psort.StableSort(byStart(intervals))
}

// Extend grows interval1 to cover interval2 if interval2 starts
// inside interval1 or immediately after it, and reports whether it
// did. Adjacent intervals are joined. interval2.Start >=
// interval1.Start must hold.
func (interval1 *Interval) Extend(interval2 Interval) bool {
	if interval2.Start > interval1.End {
		return false
	}
	if interval2.End > interval1.End {
		interval1.End = interval2.End
	}
	return true
}

// Flatten joins overlapping and adjacent intervals.
//
// intervals must be sorted by Start. Every interval is compared
// against the interval it may join, so a run of chained intervals
// collapses into one, and the sweep always continues with the next
// interval that did not join. The result is sorted by Start, no two
// of its intervals overlap or touch, and it shares memory with the
// intervals argument.
func Flatten(intervals []Interval) []Interval {
	if len(intervals) == 0 {
		return intervals
	}
	last := 0
	for _, next := range intervals[1:] {
		if !intervals[last].Extend(next) {
			last++
			intervals[last] = next
		}
	}
	return intervals[:last+1]
}

const parallelFlattenGrainSize = 0x1000

// ParallelFlatten is Flatten using a parallel divide-and-conquer
// algorithm.
func ParallelFlatten(intervals []Interval) []Interval {
	if len(intervals) < parallelFlattenGrainSize {
		return Flatten(intervals)
	}
	half := len(intervals) >> 1
	left, right := intervals[:half], intervals[half:]
	parallel.Do(
		func() { left = ParallelFlatten(left) },
		func() { right = ParallelFlatten(right) },
	)
	for len(right) > 0 && left[len(left)-1].Extend(right[0]) {
		right = right[1:]
	}
	return append(left, right...)
}

// Overlap determines whether [start, end) overlaps with any of the
// given intervals. intervals must be flattened.
func Overlap(intervals []Interval, start, end int32) bool {
	for left, right := 0, len(intervals)-1; left <= right; {
		mid := (left + right) / 2
		switch {
		case intervals[mid].Start >= end:
			right = mid - 1
		case intervals[mid].End <= start:
			left = mid + 1
		default:
			return true
		}
	}
	return false
}

// Intersect returns the intervals that overlap with [start, end).
// intervals must be flattened. The result shares memory with the
// intervals argument.
func Intersect(intervals []Interval, start, end int32) []Interval {
	n := len(intervals)
	low := sort.Search(n, func(i int) bool {
		return intervals[i].End > start
	})
	high := sort.Search(n, func(i int) bool {
		return intervals[i].Start >= end
	})
	if high < low {
		high = low
	}
	return intervals[low:high]
}

// FromBed returns the flattened intervals of the BED regions, per
// chromosome.
func FromBed(b *bed.Bed) map[string][]Interval {
	result := make(map[string][]Interval)
	for chrom, regions := range b.RegionMap {
		ivals := make([]Interval, 0, len(regions))
		for _, region := range regions {
			ivals = append(ivals, Interval{Start: region.Start, End: region.End})
		}
		ParallelSortByStart(ivals)
		result[*chrom] = ParallelFlatten(ivals)
	}
	return result
}

// FromBedFile parses a BED file and returns its flattened intervals.
func FromBedFile(filename string) (map[string][]Interval, error) {
	b, err := bed.ParseBed(filename)
	if err != nil {
		return nil, err
	}
	return FromBed(b), nil
}
