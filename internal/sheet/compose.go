package sheet

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"passportsheet/internal/domain"
)

const (
	// Filename is the download name of a composed sheet.
	Filename = "passport-photo-sheet.png"
	// MIMEType is the format every sheet is encoded in.
	MIMEType = "image/png"
)

// Background is the fill behind the tiles (#F0F0F0).
var Background = color.NRGBA{R: 0xF0, G: 0xF0, B: 0xF0, A: 0xFF}

// Sheet is a composed, encoded photo sheet.
type Sheet struct {
	PNG      []byte
	Layout   Layout
	Filename string
}

// Compose tiles n copies of img onto a fresh canvas. Tiles are drawn at
// native resolution with source-over blending into the one canvas.
func Compose(img image.Image, n int) (*image.NRGBA, Layout, error) {
	if img == nil {
		return nil, Layout{}, fmt.Errorf("%w: no source image", domain.ErrDecode)
	}
	b := img.Bounds()
	layout, err := Plan(n, b.Dx(), b.Dy())
	if err != nil {
		return nil, Layout{}, err
	}

	canvas := imaging.New(layout.Width, layout.Height, Background)
	if canvas.Bounds().Dx() != layout.Width || canvas.Bounds().Dy() != layout.Height {
		return nil, Layout{}, fmt.Errorf("%w: allocate %dx%d canvas", domain.ErrRender, layout.Width, layout.Height)
	}
	for k := 0; k < layout.Count; k++ {
		origin := layout.TileOrigin(k)
		draw.Draw(canvas, image.Rectangle{Min: origin, Max: origin.Add(b.Size())}, img, b.Min, draw.Over)
	}
	return canvas, layout, nil
}

// Decode rasterizes JPEG, PNG or WEBP bytes.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image payload", domain.ErrDecode)
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}
	return img, nil
}

// ComposeBytes decodes data, tiles n copies and encodes the sheet as PNG.
func ComposeBytes(data []byte, n int) (*Sheet, error) {
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	canvas, layout, err := Compose(img, n)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, canvas, imaging.PNG); err != nil {
		return nil, fmt.Errorf("%w: encode png: %v", domain.ErrRender, err)
	}
	return &Sheet{PNG: buf.Bytes(), Layout: layout, Filename: Filename}, nil
}
