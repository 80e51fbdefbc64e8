package heatmap

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	cellSize   = 40
	leftMargin = 52
	topMargin  = 22
)

var dayLabels = [NumDays]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// gradient stops from low to high activity, a dark-to-warm palette.
var gradientStops = []color.NRGBA{
	{R: 0x17, G: 0x10, B: 0x3a, A: 0xff},
	{R: 0x72, G: 0x1f, B: 0x57, A: 0xff},
	{R: 0xc6, G: 0x3c, B: 0x45, A: 0xff},
	{R: 0xf5, G: 0x8a, B: 0x3c, A: 0xff},
	{R: 0xfa, G: 0xeb, B: 0xa4, A: 0xff},
}

// Render draws the table as a PNG: hour columns, day rows, each cell filled
// with its activity color and annotated with the count.
func Render(t *Table) ([]byte, error) {
	width := leftMargin + NumHours*cellSize
	height := topMargin + NumDays*cellSize
	canvas := imaging.New(width, height, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff})

	for day := 0; day < NumDays; day++ {
		for hour := 0; hour < NumHours; hour++ {
			x := leftMargin + hour*cellSize
			y := topMargin + day*cellSize
			if !t.Present[day][hour] {
				// No data: light gray cell, no annotation.
				cell := imaging.New(cellSize-2, cellSize-2, color.NRGBA{R: 0xee, G: 0xee, B: 0xee, A: 0xff})
				canvas = imaging.Paste(canvas, cell, image.Pt(x+1, y+1))
				continue
			}
			fill := cellColor(t.Counts[day][hour], t.Max)
			cell := imaging.New(cellSize-2, cellSize-2, fill)
			canvas = imaging.Paste(canvas, cell, image.Pt(x+1, y+1))
			drawCentered(canvas, fmt.Sprintf("%d", t.Counts[day][hour]),
				x+cellSize/2, y+cellSize/2, textColor(fill))
		}
	}

	black := color.NRGBA{A: 0xff}
	for day := 0; day < NumDays; day++ {
		drawCentered(canvas, dayLabels[day], leftMargin/2, topMargin+day*cellSize+cellSize/2, black)
	}
	for hour := 0; hour < NumHours; hour++ {
		drawCentered(canvas, fmt.Sprintf("%02d", hour), leftMargin+hour*cellSize+cellSize/2, topMargin/2, black)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, canvas, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode heatmap: %w", err)
	}
	return buf.Bytes(), nil
}

// cellColor interpolates the gradient for a count relative to the maximum.
func cellColor(count, max int) color.NRGBA {
	if max <= 0 {
		return gradientStops[0]
	}
	pos := float64(count) / float64(max) * float64(len(gradientStops)-1)
	idx := int(pos)
	if idx >= len(gradientStops)-1 {
		return gradientStops[len(gradientStops)-1]
	}
	frac := pos - float64(idx)
	a, b := gradientStops[idx], gradientStops[idx+1]
	return color.NRGBA{
		R: lerp(a.R, b.R, frac),
		G: lerp(a.G, b.G, frac),
		B: lerp(a.B, b.B, frac),
		A: 0xff,
	}
}

func lerp(a, b uint8, frac float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*frac)
}

// textColor picks black or white annotation text depending on cell luminance.
func textColor(bg color.NRGBA) color.NRGBA {
	luminance := 0.299*float64(bg.R) + 0.587*float64(bg.G) + 0.114*float64(bg.B)
	if luminance > 140 {
		return color.NRGBA{A: 0xff}
	}
	return color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
}

// drawCentered renders small annotation text centered on (cx, cy).
func drawCentered(dst *image.NRGBA, text string, cx, cy int, c color.NRGBA) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(cx-width/2, cy+face.Metrics().Ascent.Ceil()/2-1),
	}
	d.DrawString(text)
}
