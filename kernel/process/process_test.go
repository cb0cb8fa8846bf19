package process

import "testing"

func TestNewProcessGetsDistinctPIDs(t *testing.T) {
	a := New(0x1000)
	b := New(0x2000)
	defer a.Release()
	defer b.Release()

	if a.PID() == b.PID() {
		t.Error("expected distinct processes to receive distinct PIDs")
	}
}

func TestRegisterGetRemove(t *testing.T) {
	p := New(0x3000)
	defer p.Release()

	Register(p)
	if got := Get(p.PID()); got != p {
		t.Fatalf("expected Get to find the registered process")
	}

	removed := Remove(p.PID())
	if removed != p {
		t.Fatalf("expected Remove to return the registered process")
	}
	if got := Get(p.PID()); got != nil {
		t.Errorf("expected the process to be gone from the registry after Remove, got %v", got)
	}
}

func TestGetUnknownPIDReturnsNil(t *testing.T) {
	if got := Get(PID(0xFFFFFF)); got != nil {
		t.Errorf("expected Get on an unregistered PID to return nil, got %v", got)
	}
}
