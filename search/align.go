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

/*
Package search runs the seed-and-extend pipeline: both sequences are
indexed, shared k-mers are matched, matches are merged per diagonal,
and merged seeds are extended into aligned spans.
*/
package search

import (
	"fmt"
	"sort"

	"github.com/exascience/elblast/dna"
	"github.com/exascience/elblast/extend"
	"github.com/exascience/elblast/scoring"
	"github.com/exascience/elblast/seeds"
	"github.com/exascience/pargo/parallel"
)

func lessSpan(a, b extend.AlignedSpan) bool {
	switch {
	case a.QueryStart != b.QueryStart:
		return a.QueryStart < b.QueryStart
	case a.ReferenceStart != b.ReferenceStart:
		return a.ReferenceStart < b.ReferenceStart
	case a.QueryEnd != b.QueryEnd:
		return a.QueryEnd < b.QueryEnd
	default:
		return a.Score < b.Score
	}
}

// aligner holds what the pipeline needs beyond the two sequences.
type aligner struct {
	params   Parameters
	scorer   *scoring.Scorer
	extender extend.Extender
	stats    *Stats
}

func newAligner(params Parameters, stats *Stats) *aligner {
	scorer := scoring.NewScorer(params.Scheme)
	if stats == nil {
		stats = NewStats()
	}
	return &aligner{
		params:   params,
		scorer:   scorer,
		extender: extend.NewUngapped(scorer),
		stats:    stats,
	}
}

// align runs match, merge and extend on two normalized, indexed
// sequences. The result is sorted by query start and filtered by
// MinScore and, if requested, Unique.
func (a *aligner) align(query, reference []byte, queryIndex, referenceIndex *seeds.Index) ([]extend.AlignedSpan, error) {
	a.stats.jobs.Inc()
	hits, err := seeds.Match(queryIndex, referenceIndex)
	if err != nil {
		return nil, err
	}
	a.stats.hits.Add(len(hits))
	occurrences := seeds.Expand(hits)
	a.stats.occurrences.Add(len(occurrences))
	merged := seeds.MergeSeeds(occurrences)
	a.stats.merged.Add(len(merged))
	all := extend.ExtendAll(a.extender, query, reference, merged)

	spans := all[:0]
	for _, span := range all {
		if span.Score >= a.params.MinScore {
			spans = append(spans, span)
		}
	}
	sort.Slice(spans, func(i, j int) bool {
		return lessSpan(spans[i], spans[j])
	})
	if a.params.Unique && len(spans) > 0 {
		last := 0
		for _, span := range spans[1:] {
			if span != spans[last] {
				last++
				spans[last] = span
			}
		}
		spans = spans[:last+1]
	}
	a.stats.spans.Add(len(spans))
	return spans, nil
}

func (a *aligner) checkQuery(query []byte) error {
	if limit := a.params.MaxQueryLength; limit > 0 && len(query) > limit {
		return fmt.Errorf("%w: %v bases, limit is %v", ErrQueryTooLong, len(query), limit)
	}
	return nil
}

func (a *aligner) index(seq []byte) (*seeds.Index, error) {
	index, err := seeds.NewIndex(seq, a.params.SeedLength)
	if err != nil {
		return nil, err
	}
	a.stats.kmers.Add(index.Windows())
	return index, nil
}

/*
Align finds the ungapped local alignments between query and
reference.

Both sequences are validated, so an invalid symbol fails with a
*dna.InvalidSymbolError. Lower and upper case are equivalent. The two
indexes are built concurrently. stats may be nil.
*/
func Align(query, reference []byte, params Parameters, stats *Stats) ([]extend.AlignedSpan, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	a := newAligner(params, stats)
	if err := a.checkQuery(query); err != nil {
		return nil, err
	}
	query, err := dna.Normalize(query)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	reference, err = dna.Normalize(reference)
	if err != nil {
		return nil, fmt.Errorf("reference: %w", err)
	}
	var queryIndex, referenceIndex *seeds.Index
	var queryErr, referenceErr error
	parallel.Do(
		func() { queryIndex, queryErr = a.index(query) },
		func() { referenceIndex, referenceErr = a.index(reference) },
	)
	if queryErr != nil {
		return nil, queryErr
	}
	if referenceErr != nil {
		return nil, referenceErr
	}
	return a.align(query, reference, queryIndex, referenceIndex)
}
