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

package internal

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileOpen is os.Open on the absolute pathname, with the filename
// added to errors.
func FileOpen(filename string) (*os.File, error) {
	pathname, err := FullPathname(filename)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(pathname)
	if err != nil {
		return nil, fmt.Errorf("cannot open %v: %w", filename, err)
	}
	return f, nil
}

// FileCreate is os.Create on the absolute pathname, creating missing
// parent directories.
func FileCreate(filename string) (*os.File, error) {
	pathname, err := FullPathname(filename)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(pathname), 0700); err != nil {
		return nil, fmt.Errorf("cannot create directory for %v: %w", filename, err)
	}
	f, err := os.Create(pathname)
	if err != nil {
		return nil, fmt.Errorf("cannot create %v: %w", filename, err)
	}
	return f, nil
}

// Close closes c and stores its error in *err, unless *err already
// holds an earlier error. Meant to be deferred.
func Close(c io.Closer, err *error) {
	if nerr := c.Close(); *err == nil {
		*err = nerr
	}
}

// FullPathname returns the absolute version of filename.
func FullPathname(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		return filename, nil
	}
	wd, err := os.Getwd()
	return filepath.Join(wd, filename), err
}
