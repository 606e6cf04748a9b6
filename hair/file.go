package hair

import (
	"encoding/binary"
	"errors"
	"io"
	"os"

	glm "github.com/go-gl/mathgl/mgl32"
	log "github.com/sirupsen/logrus"
)

// hairSignature opens every HAIR format file.
var hairSignature = [4]byte{'H', 'A', 'I', 'R'}

// Bits of the header field mask naming which arrays follow it.
const (
	hasSegments = 1 << iota
	hasPoints
	hasThickness
	hasTransparency
	hasColors
)

// fileHeader is the fixed 128 byte header of the HAIR format.
type fileHeader struct {
	Signature           [4]byte
	StrandCount         uint32
	PointCount          uint32
	Fields              uint32
	DefaultSegments     uint32
	DefaultThickness    float32
	DefaultTransparency float32
	DefaultColor        [3]float32
	Information         [88]byte
}

// FormatError reports a malformed or unsupported hair file.
type FormatError struct {
	Path   string
	Reason string
}

func (e *FormatError) Error() string {
	if e.Path == "" {
		return "hair: " + e.Reason
	}
	return "hair: " + e.Path + ": " + e.Reason
}

// LoadFile reads a HAIR format hair style from disk.
func LoadFile(path string) (*Style, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, errors.New("os.Open(): " + err.Error())
	}
	defer fp.Close()

	style, err := Load(fp)
	if err != nil {
		if fe, ok := err.(*FormatError); ok {
			fe.Path = path
		}
		return nil, err
	}

	log.WithFields(log.Fields{
		"path":    path,
		"strands": style.StrandCount(),
		"points":  len(style.Vertices),
	}).Debug("Hair style loaded")
	return style, nil
}

// Load reads a HAIR format hair style from a stream, deriving the
// segment line list and tangents the renderers need.
func Load(r io.Reader) (*Style, error) {
	var header fileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, &FormatError{Reason: "header truncated"}
	}
	if header.Signature != hairSignature {
		return nil, &FormatError{Reason: "bad signature"}
	}
	if header.Fields&hasPoints == 0 {
		return nil, &FormatError{Reason: "no point data"}
	}

	segments := make([]uint16, header.StrandCount)
	if header.Fields&hasSegments != 0 {
		if err := binary.Read(r, binary.LittleEndian, segments); err != nil {
			return nil, &FormatError{Reason: "segment array truncated"}
		}
	} else {
		for i := range segments {
			segments[i] = uint16(header.DefaultSegments)
		}
	}

	points := make([]float32, 3*header.PointCount)
	if err := binary.Read(r, binary.LittleEndian, points); err != nil {
		return nil, &FormatError{Reason: "point array truncated"}
	}

	style := &Style{
		strands:   int(header.StrandCount),
		Vertices:  make([]glm.Vec3, header.PointCount),
		Thickness: make([]float32, header.PointCount),
		DefaultColor: glm.Vec3{
			header.DefaultColor[0],
			header.DefaultColor[1],
			header.DefaultColor[2],
		},
	}
	for i := range style.Vertices {
		style.Vertices[i] = glm.Vec3{points[3*i], points[3*i+1], points[3*i+2]}
	}

	if header.Fields&hasThickness != 0 {
		if err := binary.Read(r, binary.LittleEndian, style.Thickness); err != nil {
			return nil, &FormatError{Reason: "thickness array truncated"}
		}
	} else {
		for i := range style.Thickness {
			style.Thickness[i] = header.DefaultThickness
		}
	}

	if header.Fields&hasTransparency != 0 {
		style.Transparency = make([]float32, header.PointCount)
		if err := binary.Read(r, binary.LittleEndian, style.Transparency); err != nil {
			return nil, &FormatError{Reason: "transparency array truncated"}
		}
	}

	if header.Fields&hasColors != 0 {
		colors := make([]float32, 3*header.PointCount)
		if err := binary.Read(r, binary.LittleEndian, colors); err != nil {
			return nil, &FormatError{Reason: "color array truncated"}
		}
		style.Colors = make([]glm.Vec3, header.PointCount)
		for i := range style.Colors {
			style.Colors[i] = glm.Vec3{colors[3*i], colors[3*i+1], colors[3*i+2]}
		}
	}

	total := 0
	for _, s := range segments {
		total += int(s)
	}
	style.Indices = make([]uint32, 0, 2*total)
	vertex := uint32(0)
	for _, s := range segments {
		for j := uint16(0); j < s; j++ {
			style.Indices = append(style.Indices, vertex, vertex+1)
			vertex++
		}
		vertex++
	}
	if int(vertex) != len(style.Vertices) {
		return nil, &FormatError{Reason: "segment counts disagree with point count"}
	}

	style.GenerateTangents()
	return style, nil
}
