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
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/exascience/elblast/bed"
	"github.com/exascience/elblast/dna"
	"github.com/exascience/elblast/extend"
	"github.com/exascience/elblast/fasta"
	"github.com/exascience/elblast/scoring"
	"github.com/exascience/elblast/seeds"
	"github.com/google/go-cmp/cmp"
)

func TestAlignExactCopy(t *testing.T) {
	query := "ACGTACGTACGTTTTT"
	reference := "CCCCCCCC" + "ACGTACGTACGT" + "CCCCCCCC"
	stats := NewStats()
	spans, err := Align([]byte(query), []byte(reference), DefaultParameters(), stats)
	if err != nil {
		t.Fatal(err)
	}
	want := []extend.AlignedSpan{{QueryStart: 0, QueryEnd: 16, ReferenceStart: 8, ReferenceEnd: 24, Score: 20}}
	if diff := cmp.Diff(want, spans); diff != "" {
		t.Errorf("unexpected spans (-want +got):\n%s", diff)
	}
	if stats.SeedHits() != 2 || stats.SeedOccurrences() != 2 || stats.MergedSeeds() != 1 {
		t.Errorf("unexpected stats: %v hits, %v occurrences, %v merged seeds",
			stats.SeedHits(), stats.SeedOccurrences(), stats.MergedSeeds())
	}
	if got, want := stats.KmersIndexed(), uint64(6+18); got != want {
		t.Errorf("got %v indexed k-mers, want %v", got, want)
	}
}

func TestAlignNoMatch(t *testing.T) {
	spans, err := Align([]byte(strings.Repeat("A", 11)), []byte(strings.Repeat("C", 40)), DefaultParameters(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(spans) != 0 {
		t.Errorf("expected no spans, got %v", spans)
	}
}

func TestAlignCaseInsensitive(t *testing.T) {
	upper, err := Align([]byte("ACGTACGTACGTTTTT"), []byte("CCCCCCCCACGTACGTACGTCCCCCCCC"), DefaultParameters(), nil)
	if err != nil {
		t.Fatal(err)
	}
	lower, err := Align([]byte("acgtacgtACGTtttt"), []byte("ccccccccacgtacgtacgtcccccccc"), DefaultParameters(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(upper, lower); diff != "" {
		t.Errorf("case changes the result (-upper +lower):\n%s", diff)
	}
}

func TestAlignFilters(t *testing.T) {
	query := "GATTACAGGCATTCAGGACCTGA"
	reference := query[:11] + "A" + query[12:]
	span := extend.AlignedSpan{QueryStart: 0, QueryEnd: 23, ReferenceStart: 0, ReferenceEnd: 23, Score: 43}

	params := DefaultParameters()
	spans, err := Align([]byte(query), []byte(reference), params, nil)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]extend.AlignedSpan{span, span}, spans); diff != "" {
		t.Errorf("unexpected spans (-want +got):\n%s", diff)
	}

	params.Unique = true
	spans, err = Align([]byte(query), []byte(reference), params, nil)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]extend.AlignedSpan{span}, spans); diff != "" {
		t.Errorf("unexpected unique spans (-want +got):\n%s", diff)
	}

	params.MinScore = 44
	spans, err = Align([]byte(query), []byte(reference), params, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(spans) != 0 {
		t.Errorf("expected MinScore to drop all spans, got %v", spans)
	}
}

func TestAlignErrors(t *testing.T) {
	_, err := Align([]byte("ACGTNACGT"), []byte("ACGT"), DefaultParameters(), nil)
	var symErr *dna.InvalidSymbolError
	if !errors.As(err, &symErr) || symErr.Symbol != 'N' {
		t.Errorf("expected an InvalidSymbolError for N, got %v", err)
	}
	params := DefaultParameters()
	params.MaxQueryLength = 4
	if _, err := Align([]byte("ACGTA"), []byte("ACGT"), params, nil); !errors.Is(err, ErrQueryTooLong) {
		t.Errorf("expected ErrQueryTooLong, got %v", err)
	}
	params = DefaultParameters()
	params.SeedLength = 0
	if _, err := Align([]byte("ACGT"), []byte("ACGT"), params, nil); !errors.Is(err, seeds.ErrInvalidSeedLength) {
		t.Errorf("expected ErrInvalidSeedLength, got %v", err)
	}
	params = DefaultParameters()
	params.Scheme.HammingMatch = 0
	if _, err := Align([]byte("ACGT"), []byte("ACGT"), params, nil); !errors.Is(err, scoring.ErrInvalidScheme) {
		t.Errorf("expected ErrInvalidScheme, got %v", err)
	}
}

func TestParseParameters(t *testing.T) {
	params, err := ParseParameters([]byte("seed-length: 5\nboth-strands: true\nscoring:\n  transition: -3\n"))
	if err != nil {
		t.Fatal(err)
	}
	want := DefaultParameters()
	want.SeedLength = 5
	want.BothStrands = true
	want.Scheme.Transition = -3
	if diff := cmp.Diff(want, params); diff != "" {
		t.Errorf("unexpected parameters (-want +got):\n%s", diff)
	}
	if _, err := ParseParameters([]byte("seed-lenght: 5\n")); err == nil {
		t.Error("expected an error for an unknown key")
	}
	if _, err := ParseParameters([]byte("seed-length: -1\n")); !errors.Is(err, seeds.ErrInvalidSeedLength) {
		t.Errorf("expected ErrInvalidSeedLength, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := NewConfig("", "ref.fa").Validate(); !errors.Is(err, ErrMissingPath) {
		t.Errorf("expected ErrMissingPath, got %v", err)
	}
	if err := NewConfig("query.fa", "").Validate(); !errors.Is(err, ErrMissingPath) {
		t.Errorf("expected ErrMissingPath, got %v", err)
	}
	if err := NewConfig("query.fa", "ref.fa").Validate(); err != nil {
		t.Error(err)
	}
}

const (
	testQueries = `>q1
ACGTACGTACGTTTTT
>q2 reverse complement of a chr2 segment
CCTGAATGCCTGTAATC
`
	testReference = `>chr1
CCCCCCCCACGTACGT
ACGTCCCCCCCC
>chr2
TTTTGATTACAGGCATTCAGGTTTT
`
)

var bothStrandHits = []Hit{
	{QueryName: "q1", ReferenceName: "chr1", Strand: Reverse,
		Span:        extend.AlignedSpan{QueryStart: 0, QueryEnd: 16, ReferenceStart: 4, ReferenceEnd: 20, Score: 20},
		MatrixScore: 20},
	{QueryName: "q1", ReferenceName: "chr1", Strand: Forward,
		Span:        extend.AlignedSpan{QueryStart: 0, QueryEnd: 16, ReferenceStart: 8, ReferenceEnd: 24, Score: 20},
		MatrixScore: 28},
	{QueryName: "q2", ReferenceName: "chr2", Strand: Reverse,
		Span:        extend.AlignedSpan{QueryStart: 0, QueryEnd: 17, ReferenceStart: 4, ReferenceEnd: 21, Score: 34},
		MatrixScore: 68},
}

func writeInputs(t *testing.T) (dir string) {
	dir = t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "query.fa"), []byte(testQueries), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "ref.fa"), []byte(testReference), 0600); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestSearchBothStrands(t *testing.T) {
	dir := writeInputs(t)
	cfg := NewConfig(filepath.Join(dir, "query.fa"), filepath.Join(dir, "ref.fa"))
	cfg.Parameters.BothStrands = true

	inputs, err := Load(cfg)
	if err != nil {
		t.Fatal(err)
	}
	searcher, err := NewSearcher(cfg.Parameters)
	if err != nil {
		t.Fatal(err)
	}
	progress := 0
	searcher.Progress = func() { progress++ }
	result, err := searcher.Search(inputs.Queries, inputs.References)
	if err != nil {
		t.Fatal(err)
	}
	if err := inputs.Close(); err != nil {
		t.Error(err)
	}
	if diff := cmp.Diff(bothStrandHits, result.Hits); diff != "" {
		t.Errorf("unexpected hits (-want +got):\n%s", diff)
	}
	if want := searcher.Alignments(inputs.Queries, inputs.References); progress != want || want != 8 {
		t.Errorf("progress called %v times, expected %v", progress, want)
	}
	if result.Stats.Alignments() != 8 || result.Stats.ReportedHits() != 3 {
		t.Errorf("unexpected stats: %v alignments, %v hits", result.Stats.Alignments(), result.Stats.ReportedHits())
	}
	for _, name := range []string{"q1", "q2"} {
		if f := result.CoveredFraction(name); f != 1 {
			t.Errorf("query %v: coverage %v, expected 1", name, f)
		}
	}
	if result.CoveredFraction("unknown") != 0 {
		t.Error("unknown queries must have no coverage")
	}
}

func TestSearchForwardOnly(t *testing.T) {
	dir := writeInputs(t)
	result, err := Search(NewConfig(filepath.Join(dir, "query.fa"), filepath.Join(dir, "ref.fa")))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(bothStrandHits[1:2], result.Hits); diff != "" {
		t.Errorf("unexpected hits (-want +got):\n%s", diff)
	}
	if f := result.CoveredFraction("q2"); f != 0 {
		t.Errorf("q2 has no forward hits, got coverage %v", f)
	}
}

func TestSearchTargets(t *testing.T) {
	dir := writeInputs(t)
	targets := filepath.Join(dir, "targets.bed")
	if err := os.WriteFile(targets, []byte("chr2\t0\t10\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg := NewConfig(filepath.Join(dir, "query.fa"), filepath.Join(dir, "ref.fa"))
	cfg.TargetsPath = targets
	cfg.Parameters.BothStrands = true
	result, err := Search(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(bothStrandHits[2:], result.Hits); diff != "" {
		t.Errorf("unexpected hits (-want +got):\n%s", diff)
	}
}

func TestSearchElfasta(t *testing.T) {
	dir := writeInputs(t)
	records, err := fasta.ParseFasta(filepath.Join(dir, "ref.fa"))
	if err != nil {
		t.Fatal(err)
	}
	elfasta := filepath.Join(dir, "ref.elfasta")
	if err := fasta.ToElfasta(records, elfasta); err != nil {
		t.Fatal(err)
	}
	cfg := NewConfig(filepath.Join(dir, "query.fa"), elfasta)
	cfg.Parameters.BothStrands = true
	result, err := Search(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(bothStrandHits, result.Hits); diff != "" {
		t.Errorf("unexpected hits (-want +got):\n%s", diff)
	}
}

func TestSearchMissingFile(t *testing.T) {
	dir := writeInputs(t)
	if _, err := Search(NewConfig(filepath.Join(dir, "query.fa"), filepath.Join(dir, "missing.fa"))); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected a missing file error, got %v", err)
	}
}

func TestToBed(t *testing.T) {
	b, err := ToBed(bothStrandHits, bed.TrackField{Key: "name", Value: "elblast"})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := b.Write(&buf); err != nil {
		t.Fatal(err)
	}
	want := "track name=elblast\n" +
		"chr1\t4\t20\tq1\t20\t-\n" +
		"chr1\t8\t24\tq1\t20\t+\n" +
		"chr2\t4\t21\tq2\t34\t-\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("unexpected BED output (-want +got):\n%s", diff)
	}
}

func TestWritePrometheus(t *testing.T) {
	stats := NewStats()
	if _, err := Align([]byte("ACGTACGTACGTTTTT"), []byte("CCCCCCCCACGTACGTACGTCCCCCCCC"), DefaultParameters(), stats); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	stats.WritePrometheus(&buf)
	for _, line := range []string{"elblast_merged_seeds_total 1", "elblast_aligned_spans_total 1"} {
		if !strings.Contains(buf.String(), line) {
			t.Errorf("metrics output lacks %q:\n%s", line, buf.String())
		}
	}
}
