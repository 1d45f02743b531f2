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
	"encoding/binary"
	"fmt"
	"os"
	"sync"

	"github.com/exascience/elblast/internal"
	"golang.org/x/sys/unix"
)

type offsetTableEntry struct {
	contig string
	offset int
}

// ElfastaMagic is the magic byte sequence that every .elfasta file starts with.
var ElfastaMagic = []byte{0x31, 0xFA, 0x57, 0xA1} // 31FA57A1 => ELFASTA1

// ToElfasta stores records into an mmappable .elfasta file. Records
// keep their order.
func ToElfasta(records []Record, filename string) (err error) {
	file, err := internal.FileCreate(filename)
	if err != nil {
		return err
	}
	defer internal.Close(file, &err)
	write := func(b []byte) int {
		if err != nil {
			return 0
		}
		var n int
		n, err = file.Write(b)
		return n
	}
	offset := write(ElfastaMagic)
	var offsetTable []offsetTableEntry
	for _, record := range records {
		offset += write([]byte(record.Name))
		offset += write([]byte{'\t'})
		offsetTable = append(offsetTable, offsetTableEntry{contig: record.Name, offset: offset})
		offset += write(make([]byte, 2*binary.MaxVarintLen64))
	}
	offset += write([]byte{'\n'})
	offsetMap := make(map[string]int)
	for _, record := range records {
		offsetMap[record.Name] = offset
		offset += write(record.Seq)
	}
	if err != nil {
		return fmt.Errorf("writing %v: %w", filename, err)
	}
	data, err := unix.Mmap(int(file.Fd()), 0, offset, unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return fmt.Errorf("mapping %v: %w", filename, err)
	}
	for i, entry := range offsetTable {
		binary.PutVarint(data[entry.offset:entry.offset+binary.MaxVarintLen64], int64(offsetMap[entry.contig]))
		binary.PutVarint(data[entry.offset+binary.MaxVarintLen64:entry.offset+2*binary.MaxVarintLen64], int64(len(records[i].Seq)))
	}
	return unix.Munmap(data)
}

// MappedFasta represents the contents of an .elfasta file.
type MappedFasta struct {
	wait    sync.WaitGroup
	err     error
	records []Record
	data    []byte
	file    *os.File
}

func (fasta *MappedFasta) parse(filename string) error {
	data := fasta.data
	invalid := func(what string) error {
		return fmt.Errorf("%v is not a valid .elfasta file - %v", filename, what)
	}
	if len(data) < len(ElfastaMagic)+1 {
		return invalid("file too short")
	}
	for i, b := range ElfastaMagic {
		if data[i] != b {
			return invalid("invalid magic byte sequence")
		}
	}
	index := len(ElfastaMagic)
	for data[index] != '\n' {
		start := index
		for ; index < len(data) && data[index] != '\t'; index++ {
		}
		if index+2*binary.MaxVarintLen64 >= len(data) {
			return invalid("truncated offset table")
		}
		contig := string(data[start:index])
		index++
		offset, n := binary.Varint(data[index : index+binary.MaxVarintLen64])
		if n <= 0 {
			return invalid("bad number of bytes while parsing offset")
		}
		size, n := binary.Varint(data[index+binary.MaxVarintLen64 : index+2*binary.MaxVarintLen64])
		if n <= 0 {
			return invalid("bad number of bytes while parsing size")
		}
		if offset < 0 || size < 0 || offset+size > int64(len(data)) {
			return invalid("sequence out of range")
		}
		fasta.records = append(fasta.records, Record{Name: contig, Seq: data[int(offset):int(offset+size)]})
		index += 2 * binary.MaxVarintLen64
	}
	return nil
}

// OpenElfasta opens a .elfasta file. The file is mapped in the
// background; Records waits for it.
func OpenElfasta(filename string) (result *MappedFasta) {
	result = new(MappedFasta)
	result.wait.Add(1)
	go func() {
		defer result.wait.Done()
		file, err := internal.FileOpen(filename)
		if err != nil {
			result.err = err
			return
		}
		stat, err := file.Stat()
		if err != nil {
			_ = file.Close()
			result.err = err
			return
		}
		data, err := unix.Mmap(int(file.Fd()), 0, int(stat.Size()), unix.PROT_READ, unix.MAP_SHARED)
		if err != nil {
			_ = file.Close()
			result.err = fmt.Errorf("mapping %v: %w", filename, err)
			return
		}
		result.data = data
		result.file = file
		result.err = result.parse(filename)
	}()
	return result
}

// Records returns the sequences of the .elfasta file in file order.
// The sequences are only valid until Close is called.
func (fasta *MappedFasta) Records() ([]Record, error) {
	fasta.wait.Wait()
	return fasta.records, fasta.err
}

// Close closes the .elfasta file.
func (fasta *MappedFasta) Close() error {
	fasta.wait.Wait()
	var err error
	if fasta.data != nil {
		err = unix.Munmap(fasta.data)
		fasta.data = nil
	}
	if fasta.file != nil {
		if nerr := fasta.file.Close(); err == nil {
			err = nerr
		}
		fasta.file = nil
	}
	fasta.records = nil
	return err
}
