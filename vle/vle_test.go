/*************************************************************************
 * Copyright 2024 Yaks Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package vle

import (
	"bytes"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 127, 128, 129, 16383, 16384, 1 << 20, 1 << 40, ^uint64(0)}
	for _, v := range cases {
		enc := Encode(nil, v)
		got, n, err := Decode(enc)
		if err != nil {
			t.Fatalf("decode(%d): %v", v, err)
		}
		if got != v {
			t.Fatalf("decode(%d) = %d", v, got)
		}
		if n != len(enc) {
			t.Fatalf("decode(%d) consumed %d, want %d", v, n, len(enc))
		}
		if n != Size(v) {
			t.Fatalf("Size(%d) = %d, want %d", v, Size(v), n)
		}
	}
}

func TestMinimalEncoding(t *testing.T) {
	// 128 must take two bytes, not be padded with trailing zero continuations.
	enc := Encode(nil, 128)
	if len(enc) != 2 {
		t.Fatalf("expected 2-byte encoding for 128, got %d bytes", len(enc))
	}
	if enc[1]&0x80 != 0 {
		t.Fatalf("final byte must not have continuation bit set")
	}
}

func TestDecodeShortRead(t *testing.T) {
	// A byte with the continuation bit set but nothing following.
	if _, _, err := Decode([]byte{0x80}); err != ErrMalformed {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
	if _, _, err := Decode(nil); err != ErrMalformed {
		t.Fatalf("expected ErrMalformed on empty buffer, got %v", err)
	}
}

func TestReadFromWriteTo(t *testing.T) {
	var buf bytes.Buffer
	vals := []uint64{0, 300, 70000, ^uint64(0)}
	for _, v := range vals {
		if err := WriteTo(&buf, v); err != nil {
			t.Fatal(err)
		}
	}
	for _, want := range vals {
		got, err := ReadFrom(&buf)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Fatalf("got %d, want %d", got, want)
		}
	}
}
