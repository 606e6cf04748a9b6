package hair

import (
	"bytes"
	"encoding/binary"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
	glm "github.com/go-gl/mathgl/mgl32"
)

// buildHairFile assembles a HAIR format blob out of a header and the
// arrays that follow it.
func buildHairFile(c *qt.C, header fileHeader, arrays ...interface{}) []byte {
	buf := new(bytes.Buffer)
	c.Assert(binary.Write(buf, binary.LittleEndian, header), qt.IsNil)
	for _, array := range arrays {
		c.Assert(binary.Write(buf, binary.LittleEndian, array), qt.IsNil)
	}
	return buf.Bytes()
}

func testHeader(strands, points, fields uint32) fileHeader {
	return fileHeader{
		Signature:   hairSignature,
		StrandCount: strands,
		PointCount:  points,
		Fields:      fields,
	}
}

func TestLoad(t *testing.T) {
	c := qt.New(t)

	blob := buildHairFile(c, testHeader(2, 5, hasSegments|hasPoints|hasThickness),
		[]uint16{2, 1},
		[]float32{
			0, 0, 0, 0, 0, 1, 0, 0, 2,
			1, 0, 0, 1, 0, 1,
		},
		[]float32{0.1, 0.1, 0.1, 0.1, 0.1},
	)

	style, err := Load(bytes.NewReader(blob))
	c.Assert(err, qt.IsNil)
	c.Assert(style.StrandCount(), qt.Equals, 2)
	c.Assert(style.SegmentCount(), qt.Equals, 3)
	c.Assert(style.Indices, qt.DeepEquals, []uint32{0, 1, 1, 2, 3, 4})
	c.Assert(len(style.Vertices), qt.Equals, 5)
	c.Assert(style.Vertices[2], qt.Equals, glm.Vec3{0, 0, 2})
	c.Assert(style.Thickness[3], qt.Equals, float32(0.1))

	// Both strands run along z, so every tangent does too. The gap
	// between strands must not leak into the tangents.
	for i, tangent := range style.Tangents {
		c.Assert(tangent.ApproxEqualThreshold(glm.Vec3{0, 0, 1}, 1e-6), qt.Equals, true,
			qt.Commentf("tangent %d is %v", i, tangent))
	}
}

func TestLoadDefaults(t *testing.T) {
	c := qt.New(t)

	header := testHeader(2, 4, hasPoints)
	header.DefaultSegments = 1
	header.DefaultThickness = 0.05
	header.DefaultColor = [3]float32{0.5, 0.25, 0.125}
	blob := buildHairFile(c, header,
		[]float32{
			0, 0, 0, 0, 1, 0,
			2, 0, 0, 2, 1, 0,
		},
	)

	style, err := Load(bytes.NewReader(blob))
	c.Assert(err, qt.IsNil)
	c.Assert(style.Indices, qt.DeepEquals, []uint32{0, 1, 2, 3})
	c.Assert(style.Thickness, qt.DeepEquals, []float32{0.05, 0.05, 0.05, 0.05})
	c.Assert(style.DefaultColor, qt.Equals, glm.Vec3{0.5, 0.25, 0.125})
	c.Assert(style.Transparency, qt.IsNil)
	c.Assert(style.Colors, qt.IsNil)
}

func TestLoadOptionalChannels(t *testing.T) {
	c := qt.New(t)

	blob := buildHairFile(c, testHeader(1, 2, hasSegments|hasPoints|hasThickness|hasTransparency|hasColors),
		[]uint16{1},
		[]float32{0, 0, 0, 0, 0, 1},
		[]float32{0.1, 0.2},
		[]float32{0.5, 0.25},
		[]float32{1, 0, 0, 0, 1, 0},
	)

	style, err := Load(bytes.NewReader(blob))
	c.Assert(err, qt.IsNil)
	c.Assert(style.Transparency, qt.DeepEquals, []float32{0.5, 0.25})
	c.Assert(style.Colors, qt.DeepEquals, []glm.Vec3{{1, 0, 0}, {0, 1, 0}})
}

func TestLoadRejectsBadFiles(t *testing.T) {
	c := qt.New(t)

	badSignature := testHeader(1, 2, hasPoints)
	badSignature.Signature = [4]byte{'N', 'O', 'P', 'E'}

	noPoints := testHeader(1, 2, hasSegments)

	cases := []struct {
		name   string
		blob   []byte
		reason string
	}{
		{
			name:   "BadSignature",
			blob:   buildHairFile(c, badSignature, []float32{0, 0, 0, 0, 0, 1}),
			reason: "bad signature",
		},
		{
			name:   "NoPointData",
			blob:   buildHairFile(c, noPoints, []uint16{1}),
			reason: "no point data",
		},
		{
			name:   "TruncatedPoints",
			blob:   buildHairFile(c, testHeader(1, 5, hasPoints), []float32{0, 0}),
			reason: "point array truncated",
		},
		{
			name: "MismatchedCounts",
			blob: buildHairFile(c, testHeader(1, 5, hasSegments|hasPoints),
				[]uint16{2},
				[]float32{0, 0, 0, 0, 0, 1, 0, 0, 2, 0, 0, 3, 0, 0, 4},
			),
			reason: "segment counts disagree with point count",
		},
		{
			name:   "TruncatedHeader",
			blob:   []byte{'H', 'A', 'I', 'R', 1, 0},
			reason: "header truncated",
		},
	}

	for _, tc := range cases {
		c.Run(tc.name, func(c *qt.C) {
			_, err := Load(bytes.NewReader(tc.blob))
			fe, ok := err.(*FormatError)
			c.Assert(ok, qt.Equals, true, qt.Commentf("error is %v", err))
			c.Assert(fe.Reason, qt.Equals, tc.reason)
		})
	}
}

func TestLoadFile(t *testing.T) {
	c := qt.New(t)

	dir, err := ioutil.TempDir("", "strand_hair_test")
	c.Assert(err, qt.IsNil)
	defer os.RemoveAll(dir)

	blob := buildHairFile(c, testHeader(1, 2, hasSegments|hasPoints),
		[]uint16{1},
		[]float32{0, 0, 0, 0, 0, 1},
	)
	path := filepath.Join(dir, "wisp.hair")
	c.Assert(ioutil.WriteFile(path, blob, 0644), qt.IsNil)

	style, err := LoadFile(path)
	c.Assert(err, qt.IsNil)
	c.Assert(style.SegmentCount(), qt.Equals, 1)

	_, err = LoadFile(filepath.Join(dir, "missing.hair"))
	c.Assert(err, qt.Not(qt.IsNil))

	bad := filepath.Join(dir, "broken.hair")
	c.Assert(ioutil.WriteFile(bad, blob[:16], 0644), qt.IsNil)
	_, err = LoadFile(bad)
	fe, ok := err.(*FormatError)
	c.Assert(ok, qt.Equals, true)
	c.Assert(fe.Path, qt.Equals, bad)
}
