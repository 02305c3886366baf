package detect

import (
	"image"
	"image/color"
	"testing"
)

func TestFrameFromImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{R: 255, G: 0, B: 0, A: 255})
	img.Set(1, 0, color.RGBA{R: 0, G: 0, B: 255, A: 255})

	frame := FrameFromImage(img)
	if frame.Width != 2 || frame.Height != 1 || frame.Format != FormatBGRA {
		t.Fatalf("frame = %dx%d format %v, want 2x1 BGRA", frame.Width, frame.Height, frame.Format)
	}
	// Red pixel stored as B, G, R, A.
	if frame.Data[0] != 0 || frame.Data[1] != 0 || frame.Data[2] != 255 {
		t.Errorf("red pixel bytes = %v, want [0 0 255 ...]", frame.Data[:4])
	}
	if frame.Data[4] != 255 || frame.Data[6] != 0 {
		t.Errorf("blue pixel bytes = %v, want [255 0 0 ...]", frame.Data[4:8])
	}
}

func TestFrameValidate(t *testing.T) {
	tests := []struct {
		name  string
		frame Frame
		valid bool
	}{
		{"gray exact", Frame{Data: make([]byte, 12), Width: 4, Height: 3, Format: FormatGray}, true},
		{"bgra exact", Frame{Data: make([]byte, 48), Width: 4, Height: 3, Format: FormatBGRA}, true},
		{"gray short buffer", Frame{Data: make([]byte, 11), Width: 4, Height: 3, Format: FormatGray}, false},
		{"zero width", Frame{Data: nil, Width: 0, Height: 3, Format: FormatGray}, false},
		{"negative height", Frame{Data: nil, Width: 4, Height: -1, Format: FormatGray}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.frame.validate()
			if (err == nil) != tt.valid {
				t.Errorf("validate() = %v, want valid=%v", err, tt.valid)
			}
		})
	}
}

func TestGrayConversion(t *testing.T) {
	// A pure green pixel lands at the BT.601 green weight.
	frame := Frame{
		Data:   []byte{0, 255, 0, 255}, // B, G, R, A
		Width:  1,
		Height: 1,
		Format: FormatBGRA,
	}
	img := frame.gray()
	if got := img.Pix[0]; got < 148 || got > 151 {
		t.Errorf("green luma = %d, want about 149", got)
	}
}

func TestEqualizeStretchesContrast(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	// A low-contrast ramp confined to [100, 115].
	for i := range img.Pix {
		img.Pix[i] = byte(100 + i)
	}
	equalize(img)

	lo, hi := img.Pix[0], img.Pix[0]
	for _, p := range img.Pix {
		if p < lo {
			lo = p
		}
		if p > hi {
			hi = p
		}
	}
	if int(hi)-int(lo) < 200 {
		t.Errorf("equalized range = [%d, %d], expected the ramp stretched wide", lo, hi)
	}
}

func TestResizeGray(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 100, 50))
	small := resizeGray(img, 50, 25)
	if small.Bounds().Dx() != 50 || small.Bounds().Dy() != 25 {
		t.Errorf("resized to %v, want 50x25", small.Bounds())
	}
	same := resizeGray(img, 100, 50)
	if same != img {
		t.Error("resize to identical dimensions should return the input")
	}
}
