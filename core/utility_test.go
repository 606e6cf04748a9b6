package core_test

import (
	"encoding/binary"
	"image"
	"image/color"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/strandlab/strand/core"
)

func TestSliceUint32(t *testing.T) {
	c := qt.New(t)

	data := make([]byte, 8)
	binary.LittleEndian.PutUint32(data, 0x07230203)
	binary.LittleEndian.PutUint32(data[4:], 0x00010000)

	words := core.SliceUint32(data)
	c.Assert(len(words), qt.Equals, 2)
	c.Assert(words[0], qt.Equals, uint32(0x07230203))
	c.Assert(words[1], qt.Equals, uint32(0x00010000))
}

func TestSliceUint32DropsPartialWords(t *testing.T) {
	c := qt.New(t)

	words := core.SliceUint32(make([]byte, 11))
	c.Assert(len(words), qt.Equals, 2)
}

func TestGetPixels(t *testing.T) {
	c := qt.New(t)

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.SetRGBA(1, 0, color.RGBA{R: 200, A: 255})

	pix, err := core.GetPixels(img, 16)
	c.Assert(err, qt.IsNil)
	c.Assert(len(pix), qt.Equals, 64)
	c.Assert(pix[4], qt.Equals, uint8(200))
	c.Assert(pix[7], qt.Equals, uint8(255))
}

func TestGetPixelsPaddedPitch(t *testing.T) {
	c := qt.New(t)

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.SetRGBA(1, 1, color.RGBA{G: 20, A: 255})

	pix, err := core.GetPixels(img, 12)
	c.Assert(err, qt.IsNil)
	c.Assert(len(pix), qt.Equals, 24)
	c.Assert(pix[17], qt.Equals, uint8(20))
	c.Assert(pix[19], qt.Equals, uint8(255))
}

func TestGetPixelsTightensSubImage(t *testing.T) {
	c := qt.New(t)

	parent := image.NewRGBA(image.Rect(0, 0, 8, 8))
	parent.SetRGBA(4, 4, color.RGBA{B: 90, A: 255})

	sub := parent.SubImage(image.Rect(4, 4, 6, 6)).(*image.RGBA)
	c.Assert(sub.Stride, qt.Equals, 32)

	pix, err := core.GetPixels(sub, 8)
	c.Assert(err, qt.IsNil)
	c.Assert(len(pix), qt.Equals, 16)
	c.Assert(pix[2], qt.Equals, uint8(90))
	c.Assert(pix[3], qt.Equals, uint8(255))
}

func BenchmarkSliceUint32Small(b *testing.B) {
	data := make([]byte, 100)
	for idx := 0; idx < b.N; idx++ {
		core.SliceUint32(data)
	}
}

func BenchmarkSliceUint32Medium(b *testing.B) {
	data := make([]byte, 1000)
	for idx := 0; idx < b.N; idx++ {
		core.SliceUint32(data)
	}
}

func BenchmarkSliceUint32Big(b *testing.B) {
	data := make([]byte, 100000)
	for idx := 0; idx < b.N; idx++ {
		core.SliceUint32(data)
	}
}
