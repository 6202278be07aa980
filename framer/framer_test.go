/*************************************************************************
 * Copyright 2024 Yaks Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package framer

import (
	"io"
	"net"
	"testing"
)

type pipeConn struct {
	net.Conn
}

func pipePair() (io.ReadWriteCloser, io.ReadWriteCloser) {
	a, b := net.Pipe()
	return pipeConn{a}, pipeConn{b}
}

func TestWriteReadFrame(t *testing.T) {
	a, b := pipePair()
	fa := New(a)
	fb := New(b)
	defer fa.Close()
	defer fb.Close()

	payloads := [][]byte{
		[]byte("hello"),
		{},
		make([]byte, 5000),
	}

	done := make(chan error, 1)
	go func() {
		for _, p := range payloads {
			if err := fa.WriteFrame(p); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	for _, want := range payloads {
		got, err := fb.ReadFrame()
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != len(want) {
			t.Fatalf("got len %d, want %d", len(got), len(want))
		}
	}
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}

func TestReadFrameEOF(t *testing.T) {
	a, b := pipePair()
	fb := New(b)
	a.Close()
	if _, err := fb.ReadFrame(); err == nil {
		t.Fatal("expected an error on closed connection")
	}
}
