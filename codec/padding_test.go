package codec

import (
	"bytes"
	"testing"
)

func TestPadUnpad(t *testing.T) {
	for n := 0; n <= 33; n++ {
		in := bytes.Repeat([]byte{'x'}, n)
		padded := pad(in, 16)
		if len(padded)%16 != 0 || len(padded) <= n {
			t.Fatalf("len %d: bad padded length %d", n, len(padded))
		}
		out, err := unpad(padded, 16)
		if err != nil {
			t.Fatalf("len %d: unpad: %v", n, err)
		}
		if !bytes.Equal(out, in) {
			t.Fatalf("len %d: mismatch", n)
		}
	}
}

func TestUnpadRejectsInvalid(t *testing.T) {
	cases := map[string][]byte{
		"empty":       nil,
		"unaligned":   make([]byte, 15),
		"zero pad":    make([]byte, 16),
		"pad too big": append(bytes.Repeat([]byte{'x'}, 15), 17),
		"mixed pad":   append(bytes.Repeat([]byte{'x'}, 13), 2, 3, 3),
	}
	for name, in := range cases {
		if _, err := unpad(in, 16); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	if _, err := unpad(make([]byte, 16), 0); err == nil {
		t.Fatal("expected error for zero block size")
	}
}
