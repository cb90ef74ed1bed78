package render

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/hoshinonyaruko/snake-in-browser/structs"
)

func testSnapshot() structs.Snapshot {
	return structs.Snapshot{
		Phase:    structs.PhasePlaying,
		Score:    2,
		Tick:     7,
		Snake:    []structs.Position{{Top: 60, Left: 60}, {Top: 60, Left: 90}, {Top: 60, Left: 120}},
		Food:     []structs.Position{{Top: 150, Left: 300}},
		Width:    600,
		Height:   300,
		CellSize: 30,
	}
}

func rgb(t *testing.T, snap structs.Snapshot, x, y int) (r, g, b uint32) {
	t.Helper()
	r, g, b, _ = Frame(snap).At(x, y).RGBA()
	return r >> 8, g >> 8, b >> 8
}

func TestFrameColors(t *testing.T) {
	snap := testSnapshot()
	img := Frame(snap)
	if b := img.Bounds(); b.Dx() != 600 || b.Dy() != 300 {
		t.Fatalf("unexpected bounds %v", b)
	}

	if r, g, _ := rgb(t, snap, 75, 75); g <= r {
		t.Errorf("head cell should be green, got r=%d g=%d", r, g)
	}
	if r, g, _ := rgb(t, snap, 105, 75); g <= r {
		t.Errorf("tail cell should be green, got r=%d g=%d", r, g)
	}
	if r, g, _ := rgb(t, snap, 315, 165); r <= g {
		t.Errorf("food cell should be red, got r=%d g=%d", r, g)
	}
	if r, g, b := rgb(t, snap, 465, 255); r != 255 || g != 255 || b != 255 {
		t.Errorf("empty cell should be white, got %d,%d,%d", r, g, b)
	}
}

func TestFrameDegenerateSnapshot(t *testing.T) {
	img := Frame(structs.Snapshot{})
	if img.Bounds().Dx() != 1 {
		t.Errorf("expected a 1x1 placeholder, got %v", img.Bounds())
	}
}

func TestScaleAndThumbnail(t *testing.T) {
	img := Frame(testSnapshot())
	if b := Scale(img, 2).Bounds(); b.Dx() != 1200 || b.Dy() != 600 {
		t.Errorf("scale 2 gave %v", b)
	}
	if Scale(img, 1) != img {
		t.Error("scale 1 should return the original image")
	}
	if b := Thumbnail(img, 300).Bounds(); b.Dx() != 300 || b.Dy() != 150 {
		t.Errorf("thumbnail gave %v", b)
	}
}

func TestEncodePNG(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodePNG(&buf, Frame(testSnapshot())); err != nil {
		t.Fatal(err)
	}
	decoded, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	if decoded.Bounds().Dx() != 600 {
		t.Errorf("decoded width %d", decoded.Bounds().Dx())
	}
}

func TestVersion(t *testing.T) {
	a := testSnapshot()
	b := testSnapshot()
	if Version(a, 1) != Version(b, 1) {
		t.Fatal("identical snapshots must share a version")
	}
	if Version(a, 1) == Version(a, 2) {
		t.Error("scale must change the version")
	}
	b.Food = append(b.Food, structs.Position{Top: 0, Left: 0})
	if Version(a, 1) == Version(b, 1) {
		t.Error("a frenzy spawn between ticks must change the version")
	}
}
