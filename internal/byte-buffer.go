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

import "sync"

// Buffers larger than this are not pooled.
const maxPooledBuffer = 1 << 24

var bufPool = sync.Pool{New: func() interface{} {
	buf := make([]byte, 0, 4096)
	return &buf
}}

// ReserveByteBuffer returns an empty byte buffer from a pool, possibly
// with spare capacity left over from an earlier export.
func ReserveByteBuffer() *[]byte {
	buf := bufPool.Get().(*[]byte)
	*buf = (*buf)[:0]
	return buf
}

// ReleaseByteBuffer hands buf back to the pool once its contents have
// been written out.
func ReleaseByteBuffer(buf *[]byte) {
	if cap(*buf) > maxPooledBuffer {
		return
	}
	bufPool.Put(buf)
}
