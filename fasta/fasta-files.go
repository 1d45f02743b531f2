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

package fasta

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/exascience/elblast/internal"
	"github.com/exascience/elblast/utils"
)

// Errors reported for malformed FASTA content.
var (
	ErrEmptyFasta    = errors.New("empty fasta file")
	ErrMissingHeader = errors.New("invalid fasta file - missing first header")
	ErrEmptyName     = errors.New("invalid fasta file - empty record name")
	ErrDuplicateName = errors.New("invalid fasta file - duplicate record name")
	ErrBadFaiFormat  = errors.New("badly formatted fai file")
)

// A Record is one named sequence of a FASTA file.
type Record struct {
	Name string
	Seq  []byte
}

// FaiReference represents an entry in an FAI file.
type FaiReference struct {
	Length    int32
	Offset    int64
	LineBases int32
	LineWidth int32
}

// ParseFai parses an FAI file.
func ParseFai(filename string) (fai map[string]FaiReference, err error) {
	f, err := internal.FileOpen(filename)
	if err != nil {
		return nil, err
	}
	defer internal.Close(f, &err)

	fai = make(map[string]FaiReference)

	scanner := bufio.NewScanner(f)

	for scanner.Scan() {
		b := bytes.Split(scanner.Bytes(), []byte("\t"))
		if len(b) != 5 {
			return nil, fmt.Errorf("%w %v - invalid number of entries", ErrBadFaiFormat, filename)
		}
		var fields [4]int64
		for i := range fields {
			if fields[i], err = strconv.ParseInt(string(b[i+1]), 10, 64); err != nil {
				return nil, fmt.Errorf("%w %v: %v", ErrBadFaiFormat, filename, err)
			}
		}
		fai[string(b[0])] = FaiReference{
			Length:    int32(fields[0]),
			Offset:    fields[1],
			LineBases: int32(fields[2]),
			LineWidth: int32(fields[3]),
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%v: %w", filename, err)
	}

	return fai, nil
}

// The record name is the first word of the header line.
func contigFromHeader(b []byte) string {
	i := 1
	for ; i < len(b); i++ {
		if c := b[i]; c >= '!' && c <= '~' {
			break
		}
	}
	if i >= len(b) {
		return ""
	}
	j := i + 1
	for ; j < len(b); j++ {
		if c := b[j]; c < '!' || c > '~' {
			break
		}
	}
	return string(b[i:j])
}

func initSeq(contig string, fai map[string]FaiReference) []byte {
	if fai != nil {
		if ref, ok := fai[contig]; ok {
			return make([]byte, 0, ref.Length)
		}
	}
	return nil
}

/*
Parse sequentially parses FASTA content, plain or gzipped.

Records are returned in the order of the input. Sequence lines are
concatenated with surrounding white space removed, and empty lines are
skipped. Symbols are not validated here: that is the task of the
indexer.

If fai is given, the sequences can be pre-allocated to reduce pressure
on the garbage collector.
*/
func Parse(reader io.Reader, fai map[string]FaiReference) ([]Record, error) {
	input, err := utils.HandleGzip(bufio.NewReader(reader))
	if err != nil {
		return nil, err
	}
	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<30)

	var b []byte
	for len(b) == 0 {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return nil, err
			}
			return nil, ErrEmptyFasta
		}
		b = bytes.TrimSpace(scanner.Bytes())
	}
	if b[0] != '>' {
		return nil, ErrMissingHeader
	}

	var records []Record
	names := make(map[string]bool)
	newRecord := func(header []byte) error {
		name := contigFromHeader(header)
		if name == "" {
			return ErrEmptyName
		}
		if names[name] {
			return fmt.Errorf("%w: %v", ErrDuplicateName, name)
		}
		names[name] = true
		records = append(records, Record{Name: name, Seq: initSeq(name, fai)})
		return nil
	}
	if err := newRecord(b); err != nil {
		return nil, err
	}

	for scanner.Scan() {
		b := bytes.TrimSpace(scanner.Bytes())
		switch {
		case len(b) == 0:
			continue
		case b[0] == '>':
			if err := newRecord(b); err != nil {
				return nil, err
			}
		default:
			last := &records[len(records)-1]
			last.Seq = append(last.Seq, b...)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// ParseFasta parses a plain or gzipped FASTA file. If a matching .fai
// file exists next to it, it is used to pre-allocate the sequences.
func ParseFasta(filename string) (records []Record, err error) {
	var fai map[string]FaiReference
	if _, serr := os.Stat(filename + ".fai"); serr == nil {
		if fai, err = ParseFai(filename + ".fai"); err != nil {
			return nil, err
		}
	}

	f, err := internal.FileOpen(filename)
	if err != nil {
		return nil, err
	}
	defer internal.Close(f, &err)

	records, err = Parse(f, fai)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", filename, err)
	}
	return records, nil
}
