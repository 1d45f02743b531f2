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
Package dna maps nucleotide symbols onto a dense 2-bit alphabet.

The alphabet is ordered A, C, G, T. Lower case symbols are accepted
and normalized to upper case. Any other symbol, including ambiguity
codes such as N, is rejected with an InvalidSymbolError.
*/
package dna

import "fmt"

// AlphabetSize is the number of symbols in the nucleotide alphabet.
const AlphabetSize = 4

// Alphabet lists the upper case symbols in index order.
const Alphabet = "ACGT"

const invalid = 0xFF

var codeTable [256]byte

var complementTable [256]byte

func init() {
	for i := range codeTable {
		codeTable[i] = invalid
	}
	for i := 0; i < AlphabetSize; i++ {
		upper := Alphabet[i]
		codeTable[upper] = byte(i)
		codeTable[upper+'a'-'A'] = byte(i)
	}
	for i, c := range []byte("ACGTacgt") {
		complementTable[c] = "TGCATGCA"[i]
	}
}

// InvalidSymbolError reports a symbol outside {A,C,G,T,a,c,g,t}.
type InvalidSymbolError struct {
	Symbol byte
	// Position is the 0-based offset of the symbol in its sequence,
	// or -1 if the symbol was encoded on its own.
	Position int
}

func (err *InvalidSymbolError) Error() string {
	if err.Position < 0 {
		return fmt.Sprintf("invalid nucleotide symbol %q", err.Symbol)
	}
	return fmt.Sprintf("invalid nucleotide symbol %q at position %v", err.Symbol, err.Position)
}

// Encode returns the alphabet index in [0,3] of the given symbol.
func Encode(symbol byte) (byte, error) {
	if code := codeTable[symbol]; code != invalid {
		return code, nil
	}
	return 0, &InvalidSymbolError{Symbol: symbol, Position: -1}
}

// Code is Encode without the error check. The symbol must be valid.
func Code(symbol byte) byte {
	return codeTable[symbol]
}

// Decode returns the upper case symbol for an alphabet index.
func Decode(code byte) byte {
	return Alphabet[code&3]
}

// Valid reports whether symbol is in the alphabet.
func Valid(symbol byte) bool {
	return codeTable[symbol] != invalid
}

// Validate checks that every symbol of seq is in the alphabet.
func Validate(seq []byte) error {
	for i, c := range seq {
		if codeTable[c] == invalid {
			return &InvalidSymbolError{Symbol: c, Position: i}
		}
	}
	return nil
}

// Normalize validates seq and returns it in upper case.
//
// If seq is already upper case, it is returned as is. Otherwise the
// result is a fresh copy, so read-only inputs such as memory-mapped
// references are never written to.
func Normalize(seq []byte) ([]byte, error) {
	lower := false
	for i, c := range seq {
		if codeTable[c] == invalid {
			return nil, &InvalidSymbolError{Symbol: c, Position: i}
		}
		if c >= 'a' {
			lower = true
		}
	}
	if !lower {
		return seq, nil
	}
	result := make([]byte, len(seq))
	for i, c := range seq {
		result[i] = Alphabet[codeTable[c]]
	}
	return result, nil
}

// ReverseComplement returns the reverse complement of seq in a fresh
// slice. The result is upper case.
func ReverseComplement(seq []byte) ([]byte, error) {
	n := len(seq)
	result := make([]byte, n)
	for i, c := range seq {
		rc := complementTable[c]
		if rc == 0 {
			return nil, &InvalidSymbolError{Symbol: c, Position: i}
		}
		result[n-1-i] = rc
	}
	return result, nil
}
