package id

import "testing"

func TestBitmapSetClearGet(t *testing.T) {
	b := NewBitmap(128)
	if b.Get(42) {
		t.Fatal("expected bit 42 to start clear")
	}
	b.Set(42)
	if !b.Get(42) {
		t.Fatal("expected bit 42 to be set")
	}
	b.Clear(42)
	if b.Get(42) {
		t.Fatal("expected bit 42 to be cleared again")
	}
}

func TestBitmapFirstZeroSkipsSetBits(t *testing.T) {
	b := NewBitmap(8)
	b.Set(0)
	b.Set(1)

	got, ok := b.FirstZero()
	if !ok || got != 2 {
		t.Fatalf("expected first zero bit to be 2, got %d ok=%v", got, ok)
	}
	if !b.Get(2) {
		t.Fatal("expected FirstZero to mark the returned bit as set")
	}
}

func TestBitmapFirstZeroExhausted(t *testing.T) {
	b := NewBitmap(4)
	for i := uint32(0); i < 4; i++ {
		b.Set(i)
	}
	if _, ok := b.FirstZero(); ok {
		t.Fatal("expected FirstZero to fail once every bit is set")
	}
}

func TestGeneratorGenerateAndRelease(t *testing.T) {
	g := NewGenerator(2)

	a, ok := g.Generate()
	if !ok || a != 0 {
		t.Fatalf("expected first id to be 0, got %d ok=%v", a, ok)
	}
	b, ok := g.Generate()
	if !ok || b != 1 {
		t.Fatalf("expected second id to be 1, got %d ok=%v", b, ok)
	}
	if _, ok := g.Generate(); ok {
		t.Fatal("expected generator to be exhausted after limit ids")
	}

	g.Release(a)
	c, ok := g.Generate()
	if !ok || c != a {
		t.Fatalf("expected released id %d to be reused, got %d ok=%v", a, c, ok)
	}
}
