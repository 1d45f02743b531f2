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
	"io"

	"github.com/VictoriaMetrics/metrics"
)

// Stats counts the work done by the pipeline stages. Counters are
// safe for concurrent use.
type Stats struct {
	set         *metrics.Set
	jobs        *metrics.Counter
	kmers       *metrics.Counter
	hits        *metrics.Counter
	occurrences *metrics.Counter
	merged      *metrics.Counter
	spans       *metrics.Counter
	reported    *metrics.Counter
}

// NewStats returns a Stats with all counters at zero.
func NewStats() *Stats {
	set := metrics.NewSet()
	return &Stats{
		set:         set,
		jobs:        set.NewCounter("elblast_alignments_total"),
		kmers:       set.NewCounter("elblast_kmers_indexed_total"),
		hits:        set.NewCounter("elblast_seed_hits_total"),
		occurrences: set.NewCounter("elblast_seed_occurrences_total"),
		merged:      set.NewCounter("elblast_merged_seeds_total"),
		spans:       set.NewCounter("elblast_aligned_spans_total"),
		reported:    set.NewCounter("elblast_reported_hits_total"),
	}
}

// Alignments returns the number of aligned (query, reference, strand)
// combinations.
func (s *Stats) Alignments() uint64 { return s.jobs.Get() }

// KmersIndexed returns the number of indexed windows.
func (s *Stats) KmersIndexed() uint64 { return s.kmers.Get() }

// SeedHits returns the number of k-mers shared by a query and a
// reference.
func (s *Stats) SeedHits() uint64 { return s.hits.Get() }

// SeedOccurrences returns the number of raw seed occurrences.
func (s *Stats) SeedOccurrences() uint64 { return s.occurrences.Get() }

// MergedSeeds returns the number of seeds after merging.
func (s *Stats) MergedSeeds() uint64 { return s.merged.Get() }

// AlignedSpans returns the number of extended spans that passed the
// score filter.
func (s *Stats) AlignedSpans() uint64 { return s.spans.Get() }

// ReportedHits returns the number of hits that passed all filters.
func (s *Stats) ReportedHits() uint64 { return s.reported.Get() }

// WritePrometheus writes the counters in Prometheus text format.
func (s *Stats) WritePrometheus(w io.Writer) {
	s.set.WritePrometheus(w)
}
