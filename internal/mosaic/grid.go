package mosaic

import (
	"github.com/stacklok/mosaic-wall/internal/canvas"
)

// cell spacing in canvas units
const (
	cellGapX    = 10
	cellGapY    = 8
	cellMarginX = 5
	cellMarginY = 4
)

// Panel is the area the mosaic is laid out in
type Panel struct {
	X, Y          float64
	Width, Height float64
}

// Cell is one slot of the grid
type Cell struct {
	Index  int
	Column int
	Row    int
	Bounds canvas.Rect
	Layer  canvas.Layer
}

// Grid is the columns x rows matrix of cells built for one cycle
type Grid struct {
	Columns int
	Rows    int
	Cells   []Cell
}

// NewGrid lays out an empty grid on panel. The cell at column i and row j has index j*columns+i.
func NewGrid(columns, rows int, panel Panel) *Grid {
	g := &Grid{
		Columns: columns,
		Rows:    rows,
		Cells:   make([]Cell, columns*rows),
	}

	width := panel.Width/float64(columns) - cellGapX
	height := panel.Height/float64(rows) - cellGapY
	for j := 0; j < rows; j++ {
		for i := 0; i < columns; i++ {
			index := j*columns + i
			g.Cells[index] = Cell{
				Index:  index,
				Column: i,
				Row:    j,
				Bounds: canvas.Rect{
					X:      float64(i)*(width+cellGapX) + cellMarginX + panel.X,
					Y:      float64(j)*(height+cellGapY) + cellMarginY + panel.Y,
					Width:  width,
					Height: height,
				},
			}
		}
	}
	return g
}

// Layers returns the layers placed in the grid
func (g *Grid) Layers() []canvas.Layer {
	layers := make([]canvas.Layer, 0, len(g.Cells))
	for _, c := range g.Cells {
		if c.Layer != nil {
			layers = append(layers, c.Layer)
		}
	}
	return layers
}

// HighlightBounds returns where the media of a highlighted cell is shown: scaled to fit
// percentage of the panel while keeping its aspect ratio, centred on the panel
func HighlightBounds(panel Panel, imageWidth, imageHeight, percentage float64) canvas.Rect {
	maxWidth := panel.Width * percentage
	maxHeight := panel.Height * percentage

	scale := min(maxWidth/imageWidth, maxHeight/imageHeight)
	targetWidth := imageWidth * scale
	targetHeight := imageHeight * scale

	return canvas.Rect{
		X:      panel.Width/2 - targetWidth/2 + panel.X,
		Y:      panel.Height/2 - targetHeight/2 + panel.Y,
		Width:  targetWidth,
		Height: targetHeight,
	}
}
