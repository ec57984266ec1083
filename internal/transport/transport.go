// transport.go — framed stdio transport (spec.md §4.2).
//
// Wire format: 4-byte little-endian length, then that many bytes of UTF-8
// JSON. Grounded on the teacher's internal/bridge/stdio.go, whose chunked
// Content-Length read loop we keep the shape of even though the framing
// itself differs (Content-Length header vs. our fixed 4-byte-LE prefix):
// read a bounded header, then read the declared body length in chunks
// capped well below the whole-message size so one oversized frame can't
// balloon the intermediate buffer.
package transport

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/corvid-labs/drivebridge/internal/errs"
	"github.com/corvid-labs/drivebridge/internal/util"
)

// readChunkSize bounds a single frame-body read per spec §4.2 step 2:
// frames larger than 32 KiB are read in 32 KiB chunks.
const readChunkSize = 32 * 1024

// Transport owns one child process's stdio pipes and translates between
// raw length-prefixed bytes and parsed Messages.
type Transport struct {
	writeMu sync.Mutex
	w       io.Writer
	r       *bufio.Reader

	inbound chan *Message
	done    chan struct{}
	closeMu sync.Mutex
	closed  bool
	onClose func(error)
}

// New wraps w (the child's stdin) and r (the child's stdout). onClose is
// invoked exactly once, with the error that ended the read loop (nil on a
// clean Close), when the transport stops reading.
func New(w io.Writer, r io.Reader, onClose func(error)) *Transport {
	return &Transport{
		w:       w,
		r:       bufio.NewReaderSize(r, readChunkSize),
		inbound: make(chan *Message, 256),
		done:    make(chan struct{}),
		onClose: onClose,
	}
}

// Inbound returns the channel the read loop publishes parsed Messages on.
// It is closed when the read loop exits (EOF, read error, or Close).
func (t *Transport) Inbound() <-chan *Message { return t.inbound }

// Start launches the dedicated read-loop task. Per spec §2/§5, exactly one
// task owns the read side for the transport's lifetime; callers must not
// call Start more than once.
func (t *Transport) Start() {
	util.SafeGo(t.readLoop)
}

func (t *Transport) readLoop() {
	var exitErr error
	defer func() {
		close(t.inbound)
		t.markClosed()
		if t.onClose != nil {
			t.onClose(exitErr)
		}
	}()

	for {
		var header [4]byte
		if _, err := io.ReadFull(t.r, header[:]); err != nil {
			if err != io.EOF && err != io.ErrUnexpectedEOF {
				exitErr = errs.Wrap(errs.KindTransportError, "read frame header", err)
			}
			return
		}
		length := binary.LittleEndian.Uint32(header[:])
		if length == 0 {
			exitErr = errs.New(errs.KindProtocolError, "frame of length 0")
			return
		}

		payload, err := t.readPayload(length)
		if err != nil {
			exitErr = errs.Wrap(errs.KindTransportError, "read frame payload", err)
			return
		}

		var msg Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			exitErr = errs.Wrap(errs.KindProtocolError, "parse frame JSON", err)
			return
		}

		select {
		case t.inbound <- &msg:
		case <-t.done:
			return
		}
	}
}

// readPayload reads exactly length bytes, in readChunkSize chunks once the
// frame exceeds that size, keeping the intermediate buffer bounded (§4.2).
func (t *Transport) readPayload(length uint32) ([]byte, error) {
	buf := make([]byte, length)
	var read uint32
	for read < length {
		want := length - read
		if want > readChunkSize {
			want = readChunkSize
		}
		n, err := io.ReadFull(t.r, buf[read:read+want])
		read += uint32(n)
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// Send serializes value to JSON, prepends its 4-byte-LE length, and writes
// the concatenation under the write mutex. The lock is released before this
// function returns — no suspension point is held across an await, since
// Send performs no further I/O once the write completes.
func (t *Transport) Send(value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return errs.Wrap(errs.KindProtocolError, "marshal request", err)
	}

	frame := make([]byte, 4+len(payload))
	binary.LittleEndian.PutUint32(frame[:4], uint32(len(payload)))
	copy(frame[4:], payload)

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	n, err := t.w.Write(frame)
	if err != nil {
		return errs.Wrap(errs.KindTransportError, "write frame", err)
	}
	if n != len(frame) {
		return errs.New(errs.KindTransportError, fmt.Sprintf("short write: wrote %d of %d bytes", n, len(frame)))
	}
	return nil
}

// Close stops the read loop's select on t.done; the next iteration (or a
// blocked send to t.inbound) observes it and returns.
func (t *Transport) Close() {
	t.closeMu.Lock()
	defer t.closeMu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	close(t.done)
}

func (t *Transport) markClosed() {
	t.closeMu.Lock()
	defer t.closeMu.Unlock()
	t.closed = true
}
