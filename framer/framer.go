/*************************************************************************
 * Copyright 2024 Yaks Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package framer implements the outermost wire layer: a stream of
// VLE-length-prefixed frames, each carrying one message's encoded
// bytes (see the message package). A frame is:
//
//	frame := VLE(len) message_bytes
//
// Framer wraps a net.Conn (or any io.ReadWriteCloser) with buffered
// I/O, mirroring the ingest package's EntryReader/EntryWriter split in
// the gravwell client: one side owns read buffering, the other owns
// write buffering and both share the same underlying connection.
// Compression, when enabled, wraps the connection below the framer so
// VLE/message framing is unaware of it, exactly as EntryReader/Writer
// layer snappy below their own framing.
package framer

import (
	"bufio"
	"io"
	"sync"

	"github.com/klauspost/compress/snappy"

	"github.com/yaksio/yaks-go/vle"
	"github.com/yaksio/yaks-go/yerr"
)

const (
	defaultReadBufferSize  = 64 * 1024
	defaultWriteBufferSize = 64 * 1024

	// MaxFrameSize bounds a single frame's message_bytes length to
	// guard against a corrupt or hostile peer claiming an enormous
	// VLE(len) and stalling the reader on an allocation.
	MaxFrameSize = 64 * 1024 * 1024
)

// Framer reads and writes length-prefixed frames over a connection.
// Reads and writes may proceed concurrently from different goroutines;
// Write itself is safe for concurrent use by multiple writers (it
// internally serializes), matching the one-reader/many-writers shape
// the session package builds on top of it.
type Framer struct {
	closer io.Closer
	r      *bufio.Reader
	w      *bufio.Writer
	wmtx   sync.Mutex
}

// New wraps rwc in a Framer with default buffer sizes and no
// compression.
func New(rwc io.ReadWriteCloser) *Framer {
	return NewSize(rwc, defaultReadBufferSize, defaultWriteBufferSize)
}

// NewSize wraps rwc in a Framer with explicit buffer sizes.
func NewSize(rwc io.ReadWriteCloser, readBufSize, writeBufSize int) *Framer {
	return &Framer{
		closer: rwc,
		r:      bufio.NewReaderSize(rwc, readBufSize),
		w:      bufio.NewWriterSize(rwc, writeBufSize),
	}
}

// NewCompressed wraps rwc the same way New does, but layers snappy
// stream compression below the frame boundary. Both ends of a
// connection must agree to enable it.
func NewCompressed(rwc io.ReadWriteCloser) *Framer {
	return &Framer{
		closer: rwc,
		r:      bufio.NewReaderSize(snappy.NewReader(rwc), defaultReadBufferSize),
		w:      bufio.NewWriterSize(snappy.NewWriter(rwc), defaultWriteBufferSize),
	}
}

// ReadFrame blocks for the next frame's message_bytes. It returns
// io.EOF only when the peer closed the connection cleanly between
// frames; any other read failure, including a clean EOF mid-frame,
// becomes yerr.ErrConnectionLost or yerr.ErrMalformed.
func (f *Framer) ReadFrame() ([]byte, error) {
	n, err := vle.ReadFrom(f.r)
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		if err == vle.ErrMalformed {
			return nil, yerr.ErrMalformed
		}
		return nil, yerr.ErrConnectionLost
	}
	if n > MaxFrameSize {
		return nil, yerr.Invalid(yerr.ErrMalformed, "frame exceeds maximum size")
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(f.r, buf); err != nil {
		return nil, yerr.ErrConnectionLost
	}
	return buf, nil
}

// WriteFrame writes one VLE-length-prefixed frame and flushes it.
// Safe for concurrent use; the session package's write-guard mutex
// additionally serializes whole requests, but WriteFrame itself never
// interleaves two frames' bytes even if called directly.
func (f *Framer) WriteFrame(msgBytes []byte) error {
	f.wmtx.Lock()
	defer f.wmtx.Unlock()
	if err := vle.WriteTo(f.w, uint64(len(msgBytes))); err != nil {
		return yerr.ErrConnectionLost
	}
	if _, err := f.w.Write(msgBytes); err != nil {
		return yerr.ErrConnectionLost
	}
	if err := f.w.Flush(); err != nil {
		return yerr.ErrConnectionLost
	}
	return nil
}

// Close closes the underlying connection.
func (f *Framer) Close() error {
	return f.closer.Close()
}
