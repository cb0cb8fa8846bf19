package console

import (
	"testing"
	"unsafe"
)

func newTestEga(t *testing.T) (*Ega, []uint16) {
	t.Helper()
	fb := make([]uint16, 80*25)
	var cons Ega
	cons.Init(80, 25, uintptr(unsafe.Pointer(&fb[0])))
	return &cons, fb
}

func TestEgaInit(t *testing.T) {
	cons, _ := newTestEga(t)

	if w, h := cons.Dimensions(); w != 80 || h != 25 {
		t.Fatalf("expected console dimensions after Init() to be (80, 25); got (%d, %d)", w, h)
	}
}

func TestEgaClear(t *testing.T) {
	specs := []struct {
		x, y, w, h             uint16
		expX, expY, expW, expH uint16
	}{
		{0, 0, 500, 500, 0, 0, 80, 25},
		{10, 10, 11, 50, 10, 10, 11, 15},
		{70, 20, 20, 20, 70, 20, 10, 5},
	}

	cons, fb := newTestEga(t)

	testPat := uint16(0xDEAD)
	clearPat := (uint16(clearColor) << 8) | uint16(clearChar)

	for specIndex, spec := range specs {
		for i := range fb {
			fb[i] = testPat
		}

		cons.Clear(spec.x, spec.y, spec.w, spec.h)

		for y := uint16(0); y < cons.height; y++ {
			for x := uint16(0); x < cons.width; x++ {
				got := fb[(y*cons.width)+x]
				inRect := x >= spec.expX && y >= spec.expY && x < spec.expX+spec.expW && y < spec.expY+spec.expH
				if inRect && got != clearPat {
					t.Errorf("[spec %d] expected char at (%d, %d) to be cleared", specIndex, x, y)
				}
				if !inRect && got != testPat {
					t.Errorf("[spec %d] expected char at (%d, %d) not to be cleared", specIndex, x, y)
				}
			}
		}
	}
}

func TestEgaWrite(t *testing.T) {
	cons, fb := newTestEga(t)

	cons.Write('A', White, 5, 3)

	got := fb[(3*cons.width)+5]
	if ch := byte(got & 0xFF); ch != 'A' {
		t.Fatalf("expected char 'A' at (5, 3); got %c", ch)
	}
	if attr := Attr(got >> 8); attr != White {
		t.Fatalf("expected attr White at (5, 3); got %d", attr)
	}

	// Out-of-bounds writes must be silently dropped.
	cons.Write('B', White, 200, 200)
}

func TestEgaScrollUp(t *testing.T) {
	cons, fb := newTestEga(t)

	for x := uint16(0); x < cons.width; x++ {
		fb[(1*cons.width)+x] = uint16('X')
	}

	cons.Scroll(Up, 1)

	for x := uint16(0); x < cons.width; x++ {
		if ch := byte(fb[x] & 0xFF); ch != 'X' {
			t.Fatalf("expected row 0 to contain the old row 1 contents after scroll; got %c at x=%d", ch, x)
		}
	}
}
