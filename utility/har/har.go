// Copyright (c) 2019 strandlab
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package har is an api for an lz4 backed hair asset archive.
// Its purpose is resource streaming: unlike tar the archive knows
// where all the files are located before they're read, so it is
// well suited to being memory mapped. The archive itself is not
// compressed in any form, rather every file is individually
// compressed, so it could be immediately read from it's place and
// decompressed on the fly. This somewhat compromises space
// efficiency, but space efficiency is not the primary goal of this
// package. It instead focuses on getting hair styles from disk to
// a usable state as fast as possible. Separate Readers on one
// Archive can be used concurrently.
package har

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
)

// package errors
var (
	ErrFileFormat = errors.New("corrupted or not a har archive")
	ErrNotFound   = errors.New("no entry with that name in the archive")
)

// Sizes relevant to the header of file
const (
	MagicLength            = 4
	HeaderSizeNumberLength = 8
)

var magic = [MagicLength]byte{'H', 'A', 'R', '\x00'}

// IndexEntry is info for one file in the file index. Offset is
// relative to the end of the header, so building the index does
// not depend on the size of its own encoding.
type IndexEntry struct {
	Name           string
	Offset         int64
	Size           int64
	CompressedSize int64
}

// Header is the file header for har files.
type Header struct {
	Author      string
	DateCreated int64
	Version     int64
	Index       []IndexEntry
}

func int64ToBinary(num int64) []byte {
	buf := make([]byte, HeaderSizeNumberLength)
	binary.LittleEndian.PutUint64(buf, uint64(num))
	return buf
}

func binaryToint64(bts []byte) (int64, error) {
	if len(bts) < HeaderSizeNumberLength {
		return 0, ErrFileFormat
	}
	return int64(binary.LittleEndian.Uint64(bts)), nil
}

func gobEncode(data interface{}) ([]byte, error) {
	var encoded bytes.Buffer
	if err := gob.NewEncoder(&encoded).Encode(data); err != nil {
		return nil, err
	}
	return encoded.Bytes(), nil
}

func gobDecode(obj interface{}, bts []byte) error {
	return gob.NewDecoder(bytes.NewBuffer(bts)).Decode(obj)
}
