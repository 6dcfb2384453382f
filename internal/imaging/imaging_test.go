package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestDecode(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 3))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})

	decoded, err := Decode(encodePNG(t, img))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Bounds().Dx() != 3 || decoded.Bounds().Dy() != 3 {
		t.Errorf("bounds = %v, want 3x3", decoded.Bounds())
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode([]byte("garbage")); err == nil {
		t.Fatal("decode must fail on non-image bytes")
	}
}

func TestGrayTensor(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(25 * x)})
		}
	}

	tensor := GrayTensor(img, 4)
	if len(tensor) != 16 {
		t.Fatalf("tensor length = %d, want 16", len(tensor))
	}
	for i, v := range tensor {
		if v < 0 || v > 1 {
			t.Errorf("tensor[%d] = %f, want [0,1]", i, v)
		}
	}
}

func TestRGBTensorLayout(t *testing.T) {
	// Pure red image: R channel saturated, G and B zero.
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}

	tensor := RGBTensor(img, 4)
	if len(tensor) != 3*16 {
		t.Fatalf("tensor length = %d, want 48", len(tensor))
	}
	for i := 0; i < 16; i++ {
		if tensor[i] < 0.99 {
			t.Errorf("red channel [%d] = %f, want ~1", i, tensor[i])
		}
		if tensor[16+i] > 0.01 || tensor[32+i] > 0.01 {
			t.Errorf("green/blue channels must be ~0 at %d", i)
		}
	}
}
