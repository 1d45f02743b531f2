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

package dna

import (
	"errors"
	"testing"
)

func TestEncode(t *testing.T) {
	for i, c := range []byte("ACGT") {
		code, err := Encode(c)
		if err != nil || code != byte(i) {
			t.Errorf("Encode(%q) = %v, %v", c, code, err)
		}
		lower, err := Encode(c + 'a' - 'A')
		if err != nil || lower != code {
			t.Errorf("Encode of lower case %q failed", c)
		}
		if Decode(code) != c {
			t.Errorf("Decode(%v) failed", code)
		}
	}
	for _, c := range []byte("NnRX-* \n") {
		_, err := Encode(c)
		var symErr *InvalidSymbolError
		if !errors.As(err, &symErr) {
			t.Errorf("Encode(%q) did not fail with InvalidSymbolError", c)
			continue
		}
		if symErr.Symbol != c || symErr.Position != -1 {
			t.Errorf("unexpected error contents %+v", symErr)
		}
	}
}

func TestNormalize(t *testing.T) {
	upper := []byte("ACGTACGT")
	if result, err := Normalize(upper); err != nil || &result[0] != &upper[0] {
		t.Error("Normalize should return upper case input unchanged")
	}
	mixed := []byte("acgtACGT")
	result, err := Normalize(mixed)
	if err != nil || string(result) != "ACGTACGT" {
		t.Errorf("Normalize(%s) = %s, %v", mixed, result, err)
	}
	if string(mixed) != "acgtACGT" {
		t.Error("Normalize modified its input")
	}
	_, err = Normalize([]byte("ACGNT"))
	var symErr *InvalidSymbolError
	if !errors.As(err, &symErr) || symErr.Position != 3 || symErr.Symbol != 'N' {
		t.Errorf("Normalize did not report the invalid symbol: %v", err)
	}
	if err := Validate([]byte("acgx")); err == nil {
		t.Error("Validate accepted x")
	}
}

func TestReverseComplement(t *testing.T) {
	result, err := ReverseComplement([]byte("AACGTt"))
	if err != nil || string(result) != "AACGTT" {
		t.Errorf("ReverseComplement = %s, %v", result, err)
	}
	result, err = ReverseComplement([]byte("GATTACA"))
	if err != nil || string(result) != "TGTAATC" {
		t.Errorf("ReverseComplement = %s, %v", result, err)
	}
	if _, err := ReverseComplement([]byte("GAN")); err == nil {
		t.Error("ReverseComplement accepted N")
	}
}
