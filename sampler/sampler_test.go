package sampler

import (
	"image"
	"image/color"
	"testing"
)

func TestSize(t *testing.T) {
	cases := []struct {
		src        image.Point
		maxW, maxH int
		want       image.Point
	}{
		{image.Pt(100, 50), 50, 50, image.Pt(50, 25)},
		{image.Pt(50, 100), 50, 50, image.Pt(25, 50)},
		{image.Pt(10, 10), 50, 50, image.Pt(50, 50)},
		{image.Pt(1000, 1), 50, 50, image.Pt(50, 1)},
		{image.Pt(3, 8), 2, 2, image.Pt(1, 2)},
		{image.Pt(100, 100), 0, 0, image.Pt(1, 1)},
	}
	for _, c := range cases {
		if got := Size(c.src, c.maxW, c.maxH); got != c.want {
			t.Errorf("Size(%v, %d, %d): got %v, want %v", c.src, c.maxW, c.maxH, got, c.want)
		}
	}
}

func TestSample_TransparentImageIsEmpty(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 255, A: 127})
		}
	}
	if got := Sample(img, 50, 50); len(got) != 0 {
		t.Fatalf("Sample: got %d pixels, want 0", len(got))
	}
}

func TestSample_AlphaCutoffAndOrder(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{G: 255, A: 127})
	img.SetNRGBA(0, 1, color.NRGBA{B: 255, A: 128})
	img.SetNRGBA(1, 1, color.NRGBA{R: 1, G: 2, B: 3, A: 255})

	got := Sample(img, 2, 2)
	want := []struct {
		x, y  int
		color string
	}{
		{0, 0, "#ff0000"},
		{0, 1, "#0000ff"},
		{1, 1, "#010203"},
	}
	if len(got) != len(want) {
		t.Fatalf("Sample: got %d pixels (%v), want %d", len(got), got, len(want))
	}
	for i, w := range want {
		if got[i].X != w.x || got[i].Y != w.y || got[i].Color != w.color {
			t.Errorf("pixel %d: got %+v, want (%d,%d,%s)", i, got[i], w.x, w.y, w.color)
		}
	}
}

func TestSample_DownscaleNearestNeighbour(t *testing.T) {
	// 4x2 image: left half red, right half blue, scaled into 2x2 box -> 2x1.
	img := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			c := color.NRGBA{R: 255, A: 255}
			if x >= 2 {
				c = color.NRGBA{B: 255, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	got := Sample(img, 2, 2)
	if len(got) != 2 {
		t.Fatalf("Sample: got %d pixels, want 2", len(got))
	}
	if got[0].Color != "#ff0000" || got[1].Color != "#0000ff" {
		t.Fatalf("Sample: got %s %s, want #ff0000 #0000ff", got[0].Color, got[1].Color)
	}
	if got[1].X != 1 || got[1].Y != 0 {
		t.Fatalf("Sample: second pixel at (%d,%d), want (1,0)", got[1].X, got[1].Y)
	}
}

func TestSample_OffsetBounds(t *testing.T) {
	img := image.NewRGBA(image.Rect(5, 5, 7, 6))
	img.Set(5, 5, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	img.Set(6, 5, color.RGBA{R: 40, G: 50, B: 60, A: 255})
	got := Sample(img, 2, 1)
	if len(got) != 2 || got[0].X != 0 || got[1].X != 1 {
		t.Fatalf("Sample: got %+v, want pixels at x=0 and x=1", got)
	}
	if got[0].Color != "#0a141e" {
		t.Fatalf("Sample: got %s, want #0a141e", got[0].Color)
	}
}

func TestSample_EmptyImage(t *testing.T) {
	if got := Sample(image.NewNRGBA(image.Rectangle{}), 50, 50); got != nil {
		t.Fatalf("Sample(empty): got %v", got)
	}
}
