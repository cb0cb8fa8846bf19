package main

import "testing"

func TestParseAddr(t *testing.T) {
	specs := []struct {
		in      string
		exp     uint64
		wantErr bool
	}{
		{"0x100000", 0x100000, false},
		{"1048576", 0x100000, false},
		{"0", 0, false},
		{"not an addr", 0, true},
	}

	for _, spec := range specs {
		got, err := parseAddr(spec.in)
		if spec.wantErr {
			if err == nil {
				t.Errorf("parseAddr(%q): expected an error", spec.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseAddr(%q): unexpected error: %v", spec.in, err)
			continue
		}
		if got != spec.exp {
			t.Errorf("parseAddr(%q) = %#x; want %#x", spec.in, got, spec.exp)
		}
	}
}
