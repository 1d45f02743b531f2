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

package search

import (
	"strconv"

	"github.com/exascience/elblast/bed"
	"github.com/exascience/elblast/utils"
)

// ToBed converts hits into a six-column BED track: the reference
// contig, the reference span, the query name, the extension score
// clamped to the BED score range, and the query strand. Track fields
// such as name and description are given by the caller.
func ToBed(hits []Hit, fields ...bed.TrackField) (*bed.Bed, error) {
	result := bed.NewBed()
	result.AddTrack(bed.NewTrack(fields...))
	for _, hit := range hits {
		region, err := bed.NewRegion(
			utils.Intern(hit.ReferenceName),
			hit.Span.ReferenceStart,
			hit.Span.ReferenceEnd,
			[]string{
				hit.QueryName,
				strconv.Itoa(bed.ClampScore(int(hit.Span.Score))),
				hit.Strand.String(),
			},
		)
		if err != nil {
			return nil, err
		}
		result.AddRegion(region)
	}
	return result, nil
}
