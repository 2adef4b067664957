package pixel

import (
	"errors"
	"image"
	"strings"
	"testing"
)

func TestFromGrid_TwoByTwo(t *testing.T) {
	got := FromGrid([]string{"#FF0000", "#FFFFFF", "#FFFFFF", "#FF0000"}, 2, 2)
	want := []Pixel{
		{0, 0, "#FF0000"},
		{1, 0, "#FFFFFF"},
		{0, 1, "#FFFFFF"},
		{1, 1, "#FF0000"},
	}
	if len(got) != len(want) {
		t.Fatalf("FromGrid: got %d pixels, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("pixel %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestFromGrid_RowMajorFull(t *testing.T) {
	w, h := 5, 3
	colors := make([]string, w*h+4)
	for i := range colors {
		colors[i] = "#000000"
	}
	got := FromGrid(colors, w, h)
	if len(got) != w*h {
		t.Fatalf("FromGrid: got %d pixels, want %d", len(got), w*h)
	}
	for i, p := range got {
		if p.X != i%w || p.Y != i/w {
			t.Fatalf("pixel %d at (%d, %d), want (%d, %d)", i, p.X, p.Y, i%w, i/w)
		}
	}
}

func TestFromGrid_Truncates(t *testing.T) {
	got := FromGrid([]string{"#1", "#2", "#3"}, 2, 2)
	if len(got) != 3 {
		t.Fatalf("FromGrid: got %d pixels, want 3", len(got))
	}
	if got[2] != (Pixel{0, 1, "#3"}) {
		t.Fatalf("last pixel: got %+v", got[2])
	}
}

func TestFromGrid_EmptyDimensions(t *testing.T) {
	if got := FromGrid([]string{"#000000"}, 0, 3); len(got) != 0 {
		t.Fatalf("FromGrid(w=0): got %d pixels", len(got))
	}
}

func TestAt(t *testing.T) {
	got := Pixel{X: 2, Y: 3}.At(image.Pt(10, 20))
	if got != image.Pt(12, 23) {
		t.Fatalf("At: got %v, want (12,23)", got)
	}
}

func TestValidate_Negative(t *testing.T) {
	err := Validate([]Pixel{{0, 0, "#000000"}, {-1, 0, "#000000"}})
	if !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("Validate: got %v, want ErrInvalidFormat", err)
	}
}

func TestDecodeList_Valid(t *testing.T) {
	in := `[{"x":0,"y":0,"color":"#ff0000"},{"x":3,"y":1.0,"color":"#00ff00","extra":true}]`
	got, err := DecodeList(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	want := []Pixel{{0, 0, "#ff0000"}, {3, 1, "#00ff00"}}
	if len(got) != len(want) {
		t.Fatalf("DecodeList: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("pixel %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestDecodeList_RejectsWholeList(t *testing.T) {
	bad := []string{
		`{"x":0,"y":0,"color":"#fff"}`,
		`[{"x":0,"y":0,"color":"#fff"}, {"x":1.5,"y":0,"color":"#fff"}]`,
		`[{"x":"1","y":0,"color":"#fff"}]`,
		`[{"x":1,"color":"#fff"}]`,
		`[{"x":1,"y":2,"color":7}]`,
		`[{"x":1,"y":2,"color":"#fff"}, null]`,
		`[{"x":-1,"y":2,"color":"#fff"}]`,
		`not json`,
	}
	for _, in := range bad {
		got, err := DecodeListBytes([]byte(in))
		if !errors.Is(err, ErrInvalidFormat) {
			t.Errorf("DecodeList(%s): got err %v, want ErrInvalidFormat", in, err)
		}
		if got != nil {
			t.Errorf("DecodeList(%s): partial result %v", in, got)
		}
	}
}

func TestQueue_CopySemantics(t *testing.T) {
	src := []Pixel{{1, 2, "#aaaaaa"}, {3, 4, "#bbbbbb"}}
	var q Queue
	q.Replace(src)

	src[0].Color = "#mutated"
	snap := q.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("Snapshot: got %d, want 2", len(snap))
	}
	if snap[0].Color != "#aaaaaa" {
		t.Fatalf("queue aliased caller slice: got %q", snap[0].Color)
	}

	snap[1].X = 99
	if again := q.Snapshot(); again[1].X != 3 {
		t.Fatalf("snapshot aliased queue: got %d", again[1].X)
	}
	if &snap[0] == &src[0] {
		t.Fatal("snapshot shares backing array with input")
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]Pixel{{0, 0, "#a"}, {6, 2, "#b"}, {3, 6, "#a"}})
	want := Summary{Count: 3, Width: 7, Height: 7, UniqueColors: 2}
	if s != want {
		t.Fatalf("Summarize: got %+v, want %+v", s, want)
	}
	if empty := Summarize(nil); empty != (Summary{}) {
		t.Fatalf("Summarize(nil): got %+v", empty)
	}
}
