// Package shellpipe implements the in-process byte pipe that binds
// pipeline stages together. A pipe is either OS-file backed (needed when
// the other end is an external process) or in-memory backed (used when
// both ends are in-process); the in-memory form is promoted to an OS pipe
// lazily, the first time a reader must be handed to an OS child.
package shellpipe

import (
	"bufio"
	"io"
	"os"
	"sync"

	"github.com/opal-lang/shellexec/internal/invariant"
)

// HighWaterMark is the default back-pressure threshold for in-memory
// pipes: writes block once the buffered byte count exceeds this value.
const HighWaterMark = 64 * 1024

// Reader is the single-consumer read side of a pipe.
type Reader interface {
	io.Reader

	// ReadAll blocks until EOF and returns every byte written.
	ReadAll() ([]byte, error)

	// PipeTo streams every byte to w until EOF.
	PipeTo(w io.Writer) (int64, error)

	// OSFile returns an *os.File suitable for handing to an external
	// process's Stdin/Stdout/Stderr, promoting an in-memory pipe to a
	// real OS pipe (with a pump goroutine) on first use.
	OSFile() (*os.File, error)

	// Close releases reader-side resources.
	Close() error
}

// Writer is the (clonable) write side of a pipe. Multiple writers may
// exist; the reader EOFs once every clone has been closed.
type Writer interface {
	io.Writer

	// WriteLine writes s followed by a single newline. Matches the
	// teacher convention of UTF-8 line-oriented builtin output.
	WriteLine(s string) error

	// TryClone returns a new handle to the same underlying pipe; closing
	// it is independent of the original.
	TryClone() (Writer, error)

	// Close drops this writer's reference.
	Close() error
}

// New creates a connected in-memory Reader/Writer pair with the default
// high-water mark.
func New() (Reader, Writer) {
	return NewSize(HighWaterMark)
}

// NewSize creates a connected in-memory pair with a custom high-water mark.
func NewSize(highWater int) (Reader, Writer) {
	invariant.Precondition(highWater > 0, "highWater must be positive")
	p := &memPipe{highWater: highWater}
	p.cond = sync.NewCond(&p.mu)
	p.refcount = 1
	return &memReader{p: p}, &memWriter{p: p}
}

// memPipe is the shared buffer backing an InMemory reader/writer pair.
type memPipe struct {
	mu        sync.Mutex
	cond      *sync.Cond
	buf       []byte
	closed    bool // true once refcount hits zero (all writers closed)
	refcount  int
	highWater int

	// promotion state: once a reader is handed off as an OS file, further
	// writes are pumped through osW instead of buffered in buf.
	promoted bool
	osR      *os.File
	osW      *os.File
	pumpDone chan struct{}
}

type memReader struct {
	p        *memPipe
	consumed bool // OSFile()/ReadAll()/Read() are mutually exclusive-ish but we don't hard-enforce beyond a single consumer model
}

type memWriter struct {
	p      *memPipe
	closed bool
	mu     sync.Mutex
}

func (r *memReader) Read(b []byte) (int, error) {
	p := r.p
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.buf) == 0 && !p.closed {
		p.cond.Wait()
	}
	if len(p.buf) == 0 && p.closed {
		return 0, io.EOF
	}
	n := copy(b, p.buf)
	p.buf = p.buf[n:]
	p.cond.Broadcast() // wake blocked writers waiting on back-pressure
	return n, nil
}

func (r *memReader) ReadAll() ([]byte, error) {
	var out []byte
	buf := make([]byte, 32*1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			out = append(out, buf[:n]...)
		}
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
	}
}

func (r *memReader) PipeTo(w io.Writer) (int64, error) {
	buf := make([]byte, 32*1024)
	var total int64
	for {
		n, err := r.Read(buf)
		if n > 0 {
			wn, werr := w.Write(buf[:n])
			total += int64(wn)
			if werr != nil {
				return total, werr
			}
		}
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}

// OSFile promotes the pipe: an os.Pipe is created, and a pump goroutine
// copies every byte subsequently written through memWriter into the OS
// pipe's write end, closing it once the memPipe is fully closed.
func (r *memReader) OSFile() (*os.File, error) {
	p := r.p
	p.mu.Lock()
	if p.promoted {
		f := p.osR
		p.mu.Unlock()
		return f, nil
	}

	osR, osW, err := os.Pipe()
	if err != nil {
		p.mu.Unlock()
		return nil, err
	}
	p.osR = osR
	p.osW = osW
	p.promoted = true
	p.pumpDone = make(chan struct{})
	pending := p.buf
	p.buf = nil
	closedAlready := p.closed
	p.mu.Unlock()

	go func() {
		defer close(p.pumpDone)
		defer osW.Close()
		bw := bufio.NewWriter(osW)
		if len(pending) > 0 {
			_, _ = bw.Write(pending)
		}
		if !closedAlready {
			buf := make([]byte, 32*1024)
			for {
				n, err := (&memReader{p: p}).readRaw(buf)
				if n > 0 {
					_, _ = bw.Write(buf[:n])
					_ = bw.Flush()
				}
				if err != nil {
					break
				}
			}
		}
		_ = bw.Flush()
	}()

	return osR, nil
}

// readRaw reads directly from the memPipe buffer, used only by the
// internal pump goroutine so it doesn't recurse through OSFile logic.
func (r *memReader) readRaw(b []byte) (int, error) {
	p := r.p
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.buf) == 0 && !p.closed {
		p.cond.Wait()
	}
	if len(p.buf) == 0 && p.closed {
		return 0, io.EOF
	}
	n := copy(b, p.buf)
	p.buf = p.buf[n:]
	p.cond.Broadcast()
	return n, nil
}

func (r *memReader) Close() error {
	p := r.p
	p.mu.Lock()
	if p.osR != nil {
		f := p.osR
		p.mu.Unlock()
		return f.Close()
	}
	p.mu.Unlock()
	return nil
}

func (w *memWriter) Write(b []byte) (int, error) {
	p := w.p
	p.mu.Lock()
	if p.promoted {
		osW := p.osW
		p.mu.Unlock()
		if osW == nil {
			return 0, io.ErrClosedPipe
		}
		return osW.Write(b)
	}
	defer p.mu.Unlock()

	if p.closed {
		return 0, io.ErrClosedPipe
	}
	for len(p.buf) > p.highWater {
		p.cond.Wait()
		if p.closed {
			return 0, io.ErrClosedPipe
		}
	}
	// A single Write call's bytes are appended atomically under the lock,
	// so they are never interleaved with another writer's Write call.
	p.buf = append(p.buf, b...)
	p.cond.Broadcast()
	return len(b), nil
}

func (w *memWriter) WriteLine(s string) error {
	_, err := w.Write(append([]byte(s), '\n'))
	return err
}

func (w *memWriter) TryClone() (Writer, error) {
	p := w.p
	p.mu.Lock()
	p.refcount++
	p.mu.Unlock()
	return &memWriter{p: p}, nil
}

func (w *memWriter) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	p := w.p
	p.mu.Lock()
	p.refcount--
	last := p.refcount == 0
	if last {
		p.closed = true
	}
	promoted := p.promoted
	osW := p.osW
	p.mu.Unlock()

	if last {
		p.cond.Broadcast()
		if promoted && osW != nil {
			return osW.Close()
		}
	}
	return nil
}

// OSPipe wraps a real OS file descriptor pair (e.g. the stdio of an
// external process, or a file opened by a redirection).
type OSPipe struct {
	File *os.File
}

// NewOSPipe wraps an already-open *os.File as both Reader and Writer ends
// are rarely symmetric for files; callers typically construct one side.
func NewOSPipe(f *os.File) *OSPipe {
	invariant.NotNil(f, "file")
	return &OSPipe{File: f}
}

func (o *OSPipe) Read(b []byte) (int, error)  { return o.File.Read(b) }
func (o *OSPipe) Write(b []byte) (int, error) { return o.File.Write(b) }

func (o *OSPipe) ReadAll() ([]byte, error) { return io.ReadAll(o.File) }

func (o *OSPipe) PipeTo(w io.Writer) (int64, error) { return io.Copy(w, o.File) }

func (o *OSPipe) OSFile() (*os.File, error) { return o.File, nil }

func (o *OSPipe) WriteLine(s string) error {
	_, err := o.File.Write(append([]byte(s), '\n'))
	return err
}

func (o *OSPipe) TryClone() (Writer, error) {
	dup, err := dupFile(o.File)
	if err != nil {
		return nil, err
	}
	return &OSPipe{File: dup}, nil
}

func (o *OSPipe) Close() error { return o.File.Close() }
