/*************************************************************************
 * Copyright 2024 Yaks Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package value

import "testing"

func TestRoundTrip(t *testing.T) {
	cases := []Value{
		NewRaw("hello", "text/plain"),
		NewString("hello!"),
		NewJSON(`{"a":1}`),
		NewSQL([]string{"1", "bob"}, []string{"id", "name"}),
		New("default-encoding"),
	}
	for _, v := range cases {
		buf, err := Encode(nil, v)
		if err != nil {
			t.Fatalf("Encode(%v): %v", v.Encoding(), err)
		}
		got, n, err := Decode(buf)
		if err != nil {
			t.Fatalf("Decode(%v): %v", v.Encoding(), err)
		}
		if n != len(buf) {
			t.Fatalf("Decode consumed %d of %d bytes", n, len(buf))
		}
		if !got.Equal(v) {
			t.Fatalf("round trip mismatch: got %+v, want %+v", got, v)
		}
	}
}

func TestEncodeRejectsInvalidAndProtobuf(t *testing.T) {
	if _, err := Encode(nil, Value{encoding: INVALID}); err == nil {
		t.Fatal("expected error encoding INVALID value")
	}
	if _, err := Encode(nil, Value{encoding: PROTOBUF}); err == nil {
		t.Fatal("expected error encoding PROTOBUF value")
	}
}

func TestJSONLookup(t *testing.T) {
	v := NewJSON(`{"hello":"mondo"}`)
	got, _, err := v.JSONLookup("hello")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "mondo" {
		t.Fatalf("got %q", got)
	}
}
