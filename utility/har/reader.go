// Copyright (c) 2019 strandlab
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package har

import (
	"bytes"
	"io"

	"github.com/pierrec/lz4"
)

// Open opens the har archive from r. It will also check
// if the file is actually a har archive, and reads the whole
// index in, so any entry can be located immediately after.
func Open(r io.ReaderAt) (*Archive, error) {
	magicBytes := make([]byte, MagicLength)
	if num, err := r.ReadAt(magicBytes, 0); err != nil {
		return nil, err
	} else if num < MagicLength || !bytes.Equal(magicBytes, magic[:]) {
		return nil, ErrFileFormat
	}

	headerSizeBytes := make([]byte, HeaderSizeNumberLength)
	if num, err := r.ReadAt(headerSizeBytes, MagicLength); err != nil {
		return nil, err
	} else if num < HeaderSizeNumberLength {
		return nil, ErrFileFormat
	}

	headerSize, err := binaryToint64(headerSizeBytes)
	if err != nil {
		return nil, ErrFileFormat
	}
	if headerSize <= 0 {
		return nil, ErrFileFormat
	}

	headerBytes := make([]byte, headerSize)
	if num, err := r.ReadAt(headerBytes, MagicLength+HeaderSizeNumberLength); err != nil {
		return nil, err
	} else if int64(num) < headerSize {
		return nil, ErrFileFormat
	}

	var header Header
	if err := gobDecode(&header, headerBytes); err != nil {
		return nil, ErrFileFormat
	}

	return &Archive{
		reader:      r,
		header:      header,
		payloadBase: MagicLength + HeaderSizeNumberLength + headerSize,
	}, nil
}

// Archive provides concurrent io for a har file, and can provide
// an io.Reader for each file separately to perform actions on.
type Archive struct {
	reader      io.ReaderAt
	header      Header
	payloadBase int64
}

// Header returns the archive header with the complete file index.
func (a *Archive) Header() Header {
	return a.header
}

func (a *Archive) find(name string) (IndexEntry, error) {
	for _, entry := range a.header.Index {
		if entry.Name == name {
			return entry, nil
		}
	}
	return IndexEntry{}, ErrNotFound
}

// ReadAll returns the entire contents of a file with a given name
func (a *Archive) ReadAll(name string) ([]byte, error) {
	r, err := a.Open(name)
	if err != nil {
		return nil, err
	}
	contents := make([]byte, r.entry.Size)
	if _, err := io.ReadFull(r, contents); err != nil {
		return nil, err
	}
	return contents, nil
}

// Open returns a Reader for a file in the Archive
func (a *Archive) Open(name string) (*Reader, error) {
	entry, err := a.find(name)
	if err != nil {
		return nil, err
	}
	section := io.NewSectionReader(a.reader, a.payloadBase+entry.Offset, entry.CompressedSize)
	return &Reader{
		entry:   entry,
		decoder: lz4.NewReader(section),
	}, nil
}

// Reader is a reader for a single file in an Archive.
// It decompresses on the fly and abstracts away the location
// that needs to be known. A Reader holds decompression state,
// open one per goroutine instead of sharing.
type Reader struct {
	entry   IndexEntry
	decoder *lz4.Reader
}

// Size returns the size of the file after decompression.
func (r *Reader) Size() int64 {
	return r.entry.Size
}

// Read reads already decompressed data
func (r *Reader) Read(p []byte) (n int, err error) {
	return r.decoder.Read(p)
}
