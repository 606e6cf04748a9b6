package core

import (
	"fmt"
	"image"
	"image/draw"
	"unsafe"
)

type sliceHeader struct {
	Data uintptr
	Len  int
	Cap  int
}

// SliceUint32 reslices bytes into a uint32, that is used
// to sumbit vulkan shaders for processing
func SliceUint32(data []byte) []uint32 {
	const m = 0x7fffffff
	return (*[m / 4]uint32)(unsafe.Pointer((*sliceHeader)(unsafe.Pointer(&data)).Data))[:len(data)/4]
}

func safeString(s string) string {
	return fmt.Sprintf("%s\x00", s)
}

func safeStrings(sgs []string) []string {
	safe := []string{}
	for _, s := range sgs {
		safe = append(safe, fmt.Sprintf("%s\x00", s))
	}
	return safe
}

// GetPixels transforms a given image into right arrangement of pixels
// by drawing the decoded image onto a controlled RGBA canvas
func GetPixels(img image.Image, rowPitch int) ([]uint8, error) {
	bounds := img.Bounds()
	newImg := image.NewRGBA(bounds)
	if rowPitch > newImg.Stride {
		// honor the device row pitch, rows get padded up
		newImg.Pix = make([]uint8, rowPitch*bounds.Dy())
		newImg.Stride = rowPitch
	}
	draw.Draw(newImg, bounds, img, bounds.Min, draw.Src)
	return newImg.Pix, nil
}
