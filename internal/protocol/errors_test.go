package protocol

import "testing"

func TestIsKnownCode(t *testing.T) {
	for code := range knownCodes {
		if !IsKnownCode(code) {
			t.Fatalf("known code %q rejected", code)
		}
	}
	if !IsKnownCode("") {
		t.Fatalf("empty code means success and must pass")
	}
	if IsKnownCode("E_MADE_UP") {
		t.Fatalf("unknown code accepted")
	}
}
