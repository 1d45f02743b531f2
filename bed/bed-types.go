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

package bed

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/exascience/elblast/utils"
)

// Bed is a struct for representing the contents of a BED file. See
// https://genome.ucsc.edu/FAQ/FAQformat.html#format1
type Bed struct {
	// Bed tracks defined in the file.
	Tracks []*Track
	// Maps chromosome name onto bed regions.
	RegionMap map[utils.Symbol][]*Region
	// Chromosomes in order of first appearance.
	Chroms []utils.Symbol
	// Regions that precede the first track line.
	untracked []*Region
}

// A Track groups regions under a track line.
type Track struct {
	// Track fields in order, for example name and description.
	Fields []TrackField
	// The bed regions this track groups together.
	Regions []*Region
}

// A TrackField is one key=value pair of a track line.
type TrackField struct {
	Key, Value string
}

// A Region is a BED interval. Start is 0-based inclusive, End is
// exclusive. NFields is the number of BED columns the region carries,
// between 3 and 6.
type Region struct {
	Chrom   utils.Symbol
	Start   int32
	End     int32
	Name    string
	Score   int
	Strand  utils.Symbol
	NFields int
}

// Symbols for optional strand field of a Region.
var (
	// Strand forward.
	SF = utils.Intern("+")
	// Strand reverse.
	SR = utils.Intern("-")
	// Strand unknown.
	SU = utils.Intern(".")
)

// MaxScore is the largest score a BED region may carry.
const MaxScore = 1000

// Optional region columns.
const (
	brName = iota
	brScore
	brStrand
)

// NewRegion allocates and initializes a new Region. Optional fields
// are given in order: name, score and strand. Further BED columns are
// ignored.
func NewRegion(chrom utils.Symbol, start, end int32, fields []string) (*Region, error) {
	if end < start {
		return nil, fmt.Errorf("invalid region %v:%v-%v: end before start", *chrom, start, end)
	}
	region := &Region{
		Chrom:   chrom,
		Start:   start,
		End:     end,
		NFields: 3,
	}
	for i, val := range fields {
		switch i {
		case brName:
			region.Name = val
		case brScore:
			score, err := strconv.Atoi(val)
			if err != nil {
				return nil, fmt.Errorf("invalid Score field: %w", err)
			}
			if score < 0 || score > MaxScore {
				return nil, fmt.Errorf("invalid Score field: %v out of range 0-%v", score, MaxScore)
			}
			region.Score = score
		case brStrand:
			switch val {
			case "+", "-", ".":
				region.Strand = utils.Intern(val)
			default:
				return nil, fmt.Errorf("invalid Strand field: %v", val)
			}
		default:
			return region, nil
		}
		region.NFields++
	}
	return region, nil
}

// ClampScore maps an arbitrary score into the BED score range.
func ClampScore(score int) int {
	switch {
	case score < 0:
		return 0
	case score > MaxScore:
		return MaxScore
	default:
		return score
	}
}

// NewTrack allocates and initializes a new Track.
func NewTrack(fields ...TrackField) *Track {
	return &Track{Fields: fields}
}

// NewBed allocates and initializes an empty bed.
func NewBed() *Bed {
	return &Bed{
		RegionMap: make(map[utils.Symbol][]*Region),
	}
}

// AddRegion adds a region to the bed region map.
func (bed *Bed) AddRegion(region *Region) {
	if _, ok := bed.RegionMap[region.Chrom]; !ok {
		bed.Chroms = append(bed.Chroms, region.Chrom)
	}
	bed.RegionMap[region.Chrom] = append(bed.RegionMap[region.Chrom], region)
	if n := len(bed.Tracks); n > 0 {
		track := bed.Tracks[n-1]
		track.Regions = append(track.Regions, region)
	} else {
		bed.untracked = append(bed.untracked, region)
	}
}

// AddTrack adds a track. Regions added afterwards belong to it.
func (bed *Bed) AddTrack(track *Track) {
	bed.Tracks = append(bed.Tracks, track)
}

// SortRegions sorts the regions of every chromosome by start position.
func (bed *Bed) SortRegions() {
	for _, regions := range bed.RegionMap {
		sort.SliceStable(regions, func(i, j int) bool {
			return regions[i].Start < regions[j].Start
		})
	}
}
