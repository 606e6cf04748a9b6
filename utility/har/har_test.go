package har_test

import (
	"bytes"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"golang.org/x/exp/mmap"

	"github.com/strandlab/strand/utility/har"
)

var (
	testString1 = "idunvovkjnreovmegihjbrqlkmfrjnb"
	testString2 = "idunvovkjnreovmsdvwrvnervnreegihjbrqlkmfrjnb"
)

func buildArchive(t *testing.T) []byte {
	builder, err := har.NewBuilder(har.Header{
		Author:      "strandlab",
		DateCreated: time.Now().Unix(),
		Version:     1,
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := builder.Add("styles/short.hair", strings.NewReader(testString1)); err != nil {
		t.Fatal(err)
	}
	if err := builder.Add("styles/long.hair", strings.NewReader(testString2)); err != nil {
		t.Fatal(err)
	}

	buf := bytes.NewBuffer([]byte{})
	if _, err := builder.WriteTo(buf); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestCreateAndRead(t *testing.T) {
	c := qt.New(t)

	ar, err := har.Open(bytes.NewReader(buildArchive(t)))
	c.Assert(err, qt.IsNil)

	f, err := ar.Open("styles/short.hair")
	c.Assert(err, qt.IsNil)
	c.Assert(f.Size(), qt.Equals, int64(len(testString1)))

	result := make([]byte, len(testString1))
	_, err = io.ReadFull(f, result)
	c.Assert(err, qt.IsNil)
	c.Assert(string(result), qt.Equals, testString1)
}

func TestCreateAndReadAll(t *testing.T) {
	c := qt.New(t)

	ar, err := har.Open(bytes.NewReader(buildArchive(t)))
	c.Assert(err, qt.IsNil)

	contents, err := ar.ReadAll("styles/long.hair")
	c.Assert(err, qt.IsNil)
	c.Assert(string(contents), qt.Equals, testString2)

	_, err = ar.ReadAll("styles/missing.hair")
	c.Assert(err, qt.Equals, har.ErrNotFound)
}

func TestOpenRejectsGarbage(t *testing.T) {
	c := qt.New(t)

	_, err := har.Open(bytes.NewReader([]byte("KAR\x00aaaaaaaaaaaaaaaaaaaaaaaaaaaa")))
	c.Assert(err, qt.Equals, har.ErrFileFormat)
}

func TestOpenmmap(t *testing.T) {
	c := qt.New(t)

	dir, err := ioutil.TempDir("", "har")
	c.Assert(err, qt.IsNil)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "test.har")
	c.Assert(ioutil.WriteFile(path, buildArchive(t), 0644), qt.IsNil)

	r, err := mmap.Open(path)
	c.Assert(err, qt.IsNil)
	defer r.Close()

	ar, err := har.Open(r)
	c.Assert(err, qt.IsNil)

	contents, err := ar.ReadAll("styles/short.hair")
	c.Assert(err, qt.IsNil)
	c.Assert(string(contents), qt.Equals, testString1)
}
