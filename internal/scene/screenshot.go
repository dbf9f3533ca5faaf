package scene

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/playtest-dev/tictactoe-automation/internal/game"
)

const (
	cellSize   = 96
	gridLine   = 4
	markInset  = 20
	strokeSize = 8
)

var (
	colorBackground = color.RGBA{R: 0x20, G: 0x20, B: 0x28, A: 0xff}
	colorGrid       = color.RGBA{R: 0x60, G: 0x60, B: 0x70, A: 0xff}
	colorX          = color.RGBA{R: 0x4f, G: 0xc3, B: 0xf7, A: 0xff}
	colorO          = color.RGBA{R: 0xff, G: 0xb7, B: 0x4d, A: 0xff}
)

// Screenshot renders the current board as a PNG, giving remote drivers a
// visual artifact for CI logs without a real display.
func (that *GameScene) Screenshot() ([]byte, error) {
	size := cellSize*3 + gridLine*2
	img := image.NewRGBA(image.Rect(0, 0, size, size))

	fill(img, img.Bounds(), colorBackground)

	for i := 1; i < 3; i++ {
		offset := i*cellSize + (i-1)*gridLine
		fill(img, image.Rect(offset, 0, offset+gridLine, size), colorGrid)
		fill(img, image.Rect(0, offset, size, offset+gridLine), colorGrid)
	}

	for cell, mark := range that.engine.BoardState() {
		x0 := (cell % 3) * (cellSize + gridLine)
		y0 := (cell / 3) * (cellSize + gridLine)
		box := image.Rect(x0+markInset, y0+markInset, x0+cellSize-markInset, y0+cellSize-markInset)

		switch mark {
		case game.PlayerX:
			drawCross(img, box)
		case game.PlayerO:
			drawRing(img, box)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode screenshot: %w", err)
	}

	return buf.Bytes(), nil
}

func fill(img *image.RGBA, rect image.Rectangle, c color.RGBA) {
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

func drawCross(img *image.RGBA, box image.Rectangle) {
	for d := 0; d < box.Dx(); d++ {
		for w := -strokeSize / 2; w <= strokeSize/2; w++ {
			plot(img, box.Min.X+d, box.Min.Y+d+w, colorX)
			plot(img, box.Min.X+d, box.Max.Y-1-d+w, colorX)
		}
	}
}

func drawRing(img *image.RGBA, box image.Rectangle) {
	cx := float64(box.Min.X+box.Max.X) / 2
	cy := float64(box.Min.Y+box.Max.Y) / 2
	radius := float64(box.Dx()) / 2

	for y := box.Min.Y - strokeSize; y <= box.Max.Y+strokeSize; y++ {
		for x := box.Min.X - strokeSize; x <= box.Max.X+strokeSize; x++ {
			dx, dy := float64(x)-cx, float64(y)-cy
			dist := dx*dx + dy*dy
			outer := radius * radius
			inner := (radius - strokeSize) * (radius - strokeSize)
			if dist <= outer && dist >= inner {
				plot(img, x, y, colorO)
			}
		}
	}
}

func plot(img *image.RGBA, x, y int, c color.RGBA) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.SetRGBA(x, y, c)
	}
}
