package detect

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// Format describes the pixel layout of a Frame's data buffer.
type Format int

const (
	// FormatBGRA is 4 bytes per pixel in B, G, R, A order.
	FormatBGRA Format = iota
	// FormatGray is 1 byte per pixel.
	FormatGray
)

// ErrFrameSize reports a frame whose buffer does not match its declared
// dimensions and format.
var ErrFrameSize = errors.New("frame buffer does not match dimensions")

// Frame is a raw captured image handed to the detection pipeline.
type Frame struct {
	Data   []byte
	Width  int
	Height int
	Format Format
}

func (f Frame) validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrFrameSize, f.Width, f.Height)
	}
	want := f.Width * f.Height
	if f.Format == FormatBGRA {
		want *= 4
	}
	if len(f.Data) != want {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrFrameSize, len(f.Data), want)
	}
	return nil
}

// FrameFromImage converts a decoded image into a BGRA frame.
func FrameFromImage(img image.Image) Frame {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	data := make([]byte, w*h*4)
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			data[i] = byte(b >> 8)
			data[i+1] = byte(g >> 8)
			data[i+2] = byte(r >> 8)
			data[i+3] = byte(a >> 8)
			i += 4
		}
	}
	return Frame{Data: data, Width: w, Height: h, Format: FormatBGRA}
}

// gray converts the frame into a single-channel image using BT.601
// luma weights. Gray frames are wrapped without copying per pixel.
func (f Frame) gray() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, f.Width, f.Height))
	if f.Format == FormatGray {
		copy(img.Pix, f.Data)
		return img
	}
	for i, j := 0, 0; i < len(f.Data); i, j = i+4, j+1 {
		b := float64(f.Data[i])
		g := float64(f.Data[i+1])
		r := float64(f.Data[i+2])
		img.Pix[j] = byte(0.299*r + 0.587*g + 0.114*b)
	}
	return img
}

// equalize applies histogram equalization in place. Flat lighting makes
// the cascade noticeably more stable in dim frames.
func equalize(img *image.Gray) {
	var hist [256]int
	for _, p := range img.Pix {
		hist[p]++
	}

	total := len(img.Pix)
	if total == 0 {
		return
	}

	var lut [256]byte
	cdf := 0
	for i, count := range hist {
		cdf += count
		lut[i] = byte(cdf * 255 / total)
	}
	for i, p := range img.Pix {
		img.Pix[i] = lut[p]
	}
}

// resizeGray scales a grayscale image to the target dimensions using
// bilinear interpolation.
func resizeGray(img *image.Gray, width, height int) *image.Gray {
	if img.Bounds().Dx() == width && img.Bounds().Dy() == height {
		return img
	}
	dst := image.NewGray(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}
