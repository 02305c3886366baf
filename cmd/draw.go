package cmd

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"os"

	"golang.org/x/image/draw"

	"github.com/kozaktomas/facegate/internal/geometry"
)

// outputJSON prints v as indented JSON on stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	return nil
}

// drawHLine draws a horizontal line on the image.
func drawHLine(dst *image.RGBA, x1, x2, y int, c color.RGBA) {
	bounds := dst.Bounds()
	if y < 0 || y >= bounds.Dy() {
		return
	}
	for x := x1; x <= x2; x++ {
		if x >= 0 && x < bounds.Dx() {
			dst.Set(x, y, c)
		}
	}
}

// drawVLine draws a vertical line on the image.
func drawVLine(dst *image.RGBA, y1, y2, x int, c color.RGBA) {
	bounds := dst.Bounds()
	if x < 0 || x >= bounds.Dx() {
		return
	}
	for y := y1; y <= y2; y++ {
		if y >= 0 && y < bounds.Dy() {
			dst.Set(x, y, c)
		}
	}
}

// drawFaceBoxes draws red rectangles around the given faces.
func drawFaceBoxes(img image.Image, faces []geometry.Rect, lineWidth int) image.Image {
	bounds := img.Bounds()
	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, img, bounds.Min, draw.Src)

	red := color.RGBA{255, 0, 0, 255}
	for _, face := range faces {
		x1, y1 := face.X, face.Y
		x2, y2 := face.X+face.W, face.Y+face.H
		for w := 0; w < lineWidth; w++ {
			drawHLine(dst, x1, x2, y1+w, red)
			drawHLine(dst, x1, x2, y2-w, red)
			drawVLine(dst, y1, y2, x1+w, red)
			drawVLine(dst, y1, y2, x2-w, red)
		}
	}
	return dst
}
