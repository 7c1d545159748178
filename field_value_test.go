/*
Copyright 2023 Alexander Bartolomey (github@alexanderbartolomey.de)

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package netflow

import "testing"

func TestDecodeFieldValueUnsignedWidths(t *testing.T) {
	cases := []struct {
		width int
		raw   []byte
		want  uint64
	}{
		{1, []byte{0xFF}, 0xFF},
		{2, []byte{0x01, 0x00}, 0x0100},
		{3, []byte{0x01, 0x02, 0x03}, 0x010203},
		{4, []byte{0x00, 0x00, 0x01, 0x00}, 0x0100},
		{8, []byte{0, 0, 0, 0, 0, 0, 0x01, 0x00}, 0x0100},
	}
	for _, c := range cases {
		fv := decodeFieldValue(TypeUnsigned, uint16(c.width), c.raw)
		if fv.Uint != c.want {
			t.Errorf("width %d: got %d, want %d", c.width, fv.Uint, c.want)
		}
	}
}

func TestDecodeFieldValueUnsupportedWidthFallsBackToRaw(t *testing.T) {
	fv := decodeFieldValue(TypeUnsigned, 5, []byte{1, 2, 3, 4, 5})
	if fv.Kind != TypeRaw {
		t.Fatalf("expected fallback to TypeRaw, got %v", fv.Kind)
	}
	if len(fv.Raw) != 5 {
		t.Fatalf("expected raw bytes preserved, got %d", len(fv.Raw))
	}
}

func TestDecodeFieldValueSignedSignExtends(t *testing.T) {
	fv := decodeFieldValue(TypeSigned, 1, []byte{0xFF})
	if fv.Int != -1 {
		t.Fatalf("expected -1, got %d", fv.Int)
	}
	fv2 := decodeFieldValue(TypeSigned, 2, []byte{0xFF, 0xFE})
	if fv2.Int != -2 {
		t.Fatalf("expected -2, got %d", fv2.Int)
	}
}

func TestFieldValueEncodeRoundTripsIntegers(t *testing.T) {
	fv := decodeFieldValue(TypeUnsigned, 4, []byte{0x00, 0x01, 0x02, 0x03})
	out, err := encodeFieldValueBytes(fv)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(out) != 4 || out[1] != 0x01 || out[2] != 0x02 || out[3] != 0x03 {
		t.Fatalf("round trip mismatch: %x", out)
	}
}

func TestFieldValueEncodeRoundTripsIPv4(t *testing.T) {
	raw := []byte{192, 168, 1, 1}
	fv := decodeFieldValue(TypeIPv4, 4, raw)
	out, err := encodeFieldValueBytes(fv)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(out) != 4 || out[0] != 192 || out[3] != 1 {
		t.Fatalf("round trip mismatch: %v", out)
	}
}

func TestSanitizeStringStripsControlAndLengthPrefix(t *testing.T) {
	raw := []byte{0x03, 'e', 't', 'h'}
	got := sanitizeString(raw)
	if got != "eth" {
		t.Fatalf("expected %q, got %q", "eth", got)
	}

	raw2 := []byte("eth0\x00\x00\x00")
	if got := sanitizeString(raw2); got != "eth0" {
		t.Fatalf("expected trailing NULs trimmed, got %q", got)
	}
}
