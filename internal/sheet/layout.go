package sheet

import (
	"fmt"
	"image"

	"passportsheet/internal/domain"
)

const (
	// Padding is the gap in pixels between tiles and around the sheet edge.
	Padding = 20
	// MaxColumns is the widest grid used for three or more copies.
	MaxColumns = 4
	// MaxCanvasPixels bounds the output surface the compositor will allocate.
	MaxCanvasPixels = 1 << 28
)

// Layout is the grid shape derived from a tile size and copy count.
type Layout struct {
	Count      int
	Columns    int
	Rows       int
	Padding    int
	TileWidth  int
	TileHeight int
	Width      int
	Height     int
}

// Grid returns the column and row count for n copies: one row of n tiles
// for n <= 2, otherwise four columns.
func Grid(n int) (cols, rows int) {
	if n <= 0 {
		return 0, 0
	}
	cols = MaxColumns
	if n <= 2 {
		cols = n
	}
	rows = (n + cols - 1) / cols
	return cols, rows
}

// Plan computes the sheet layout for n copies of a w×h tile.
func Plan(n, w, h int) (Layout, error) {
	if n < 1 {
		return Layout{}, fmt.Errorf("%w: copy count %d", domain.ErrRender, n)
	}
	if w <= 0 || h <= 0 {
		return Layout{}, fmt.Errorf("%w: empty source image %dx%d", domain.ErrDecode, w, h)
	}
	cols, rows := Grid(n)
	l := Layout{
		Count:      n,
		Columns:    cols,
		Rows:       rows,
		Padding:    Padding,
		TileWidth:  w,
		TileHeight: h,
		Width:      cols*w + (cols+1)*Padding,
		Height:     rows*h + (rows+1)*Padding,
	}
	if int64(l.Width)*int64(l.Height) > MaxCanvasPixels {
		return Layout{}, fmt.Errorf("%w: canvas %dx%d exceeds %d pixels", domain.ErrRender, l.Width, l.Height, MaxCanvasPixels)
	}
	return l, nil
}

// TileOrigin returns the top-left corner of tile k in row-major order.
func (l Layout) TileOrigin(k int) image.Point {
	col := k % l.Columns
	row := k / l.Columns
	return image.Pt(
		l.Padding+col*(l.TileWidth+l.Padding),
		l.Padding+row*(l.TileHeight+l.Padding),
	)
}

// Tiles returns the rectangles covered by every placed tile.
func (l Layout) Tiles() []image.Rectangle {
	out := make([]image.Rectangle, 0, l.Count)
	for k := 0; k < l.Count; k++ {
		origin := l.TileOrigin(k)
		out = append(out, image.Rectangle{Min: origin, Max: origin.Add(image.Pt(l.TileWidth, l.TileHeight))})
	}
	return out
}

// Bounds is the full canvas rectangle.
func (l Layout) Bounds() image.Rectangle {
	return image.Rect(0, 0, l.Width, l.Height)
}
