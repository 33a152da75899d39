package storage

import (
	"context"
	"fmt"
	"io"
	"unicode/utf8"
)

// Mode controls what operations a File permits and whether text reads
// are validated as UTF-8.
type Mode uint8

const (
	ModeRead Mode = 1 << iota
	ModeWrite
	ModeBinary
)

func (m Mode) CanWrite() bool { return m&ModeWrite != 0 }
func (m Mode) Binary() bool   { return m&ModeBinary != 0 }

// ParseMode converts a mode string ("rb", "w", "rw", ...) into Mode
// flags. Unknown characters are rejected.
func ParseMode(s string) (Mode, error) {
	var mode Mode
	for _, c := range s {
		switch c {
		case 'r':
			mode |= ModeRead
		case 'w':
			mode |= ModeWrite
		case 'b':
			mode |= ModeBinary
		case '+':
			mode |= ModeRead | ModeWrite
		default:
			return 0, fmt.Errorf("invalid mode %q", s)
		}
	}
	if mode&(ModeRead|ModeWrite) == 0 {
		mode |= ModeRead
	}
	return mode, nil
}

// fileState tracks the handle lifecycle. A fresh handle is empty; the
// first read fetches the remote body (fetched); any write makes the
// buffer authoritative (modified); close is terminal.
type fileState uint8

const (
	stateEmpty fileState = iota
	stateFetched
	stateModified
	stateClosed
)

// File is a lazily buffered handle to one remote object. The remote
// body is fetched on first read, writes only touch the in-memory
// buffer, and Close pushes a modified buffer back to the store. A File
// is not safe for concurrent use.
type File struct {
	name  string
	mode  Mode
	store *Store
	ctx   context.Context

	buf   []byte
	pos   int64
	state fileState

	// Remote size memoized for the handle's lifetime while the buffer
	// is untouched. Goes stale if the object changes remotely.
	remoteSize int64
}

func newFile(ctx context.Context, store *Store, name string, mode Mode) *File {
	return &File{
		name:       name,
		mode:       mode,
		store:      store,
		ctx:        ctx,
		remoteSize: -1,
	}
}

func (f *File) Name() string { return f.name }
func (f *File) Mode() Mode   { return f.mode }

func (f *File) fetch() error {
	data, err := f.store.read(f.ctx, f.name)
	if err != nil {
		return err
	}
	f.buf = data
	f.pos = 0
	f.state = stateFetched
	return nil
}

// Read implements io.Reader with standard stream semantics: reading
// past the end returns the remaining bytes, then io.EOF.
func (f *File) Read(p []byte) (int, error) {
	if f.state == stateClosed {
		return 0, fmt.Errorf("read %q: %w", f.name, ErrClosed)
	}
	if f.state == stateEmpty {
		if err := f.fetch(); err != nil {
			return 0, err
		}
	}
	if f.pos >= int64(len(f.buf)) {
		return 0, io.EOF
	}
	n := copy(p, f.buf[f.pos:])
	f.pos += int64(n)
	return n, nil
}

// ReadAll returns everything from the cursor to the end of the buffer,
// fetching the remote body first if this handle has not read it yet.
func (f *File) ReadAll() ([]byte, error) {
	if f.state == stateClosed {
		return nil, fmt.Errorf("read %q: %w", f.name, ErrClosed)
	}
	if f.state == stateEmpty {
		if err := f.fetch(); err != nil {
			return nil, err
		}
	}
	rest := f.buf[f.pos:]
	out := make([]byte, len(rest))
	copy(out, rest)
	f.pos = int64(len(f.buf))
	return out, nil
}

// ReadString is ReadAll for text-mode handles. Unless the handle was
// opened in binary mode the bytes must be valid UTF-8.
func (f *File) ReadString() (string, error) {
	data, err := f.ReadAll()
	if err != nil {
		return "", err
	}
	if !f.mode.Binary() && !utf8.Valid(data) {
		return "", fmt.Errorf("read %q: %w", f.name, ErrInvalidText)
	}
	return string(data), nil
}

// Write overwrites the buffer at the current cursor, growing it as
// needed. The first write makes the buffer authoritative, so a later
// Size or Read on this handle never triggers a remote fetch.
func (f *File) Write(p []byte) (int, error) {
	if f.state == stateClosed {
		return 0, fmt.Errorf("write %q: %w", f.name, ErrClosed)
	}
	if !f.mode.CanWrite() {
		return 0, fmt.Errorf("write %q: %w", f.name, ErrReadOnly)
	}

	end := f.pos + int64(len(p))
	if end > int64(len(f.buf)) {
		grown := make([]byte, end)
		copy(grown, f.buf)
		f.buf = grown
	}
	copy(f.buf[f.pos:end], p)
	f.pos = end
	f.state = stateModified
	return len(p), nil
}

func (f *File) WriteString(s string) (int, error) {
	return f.Write([]byte(s))
}

// Seek implements io.Seeker over the in-memory buffer.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	if f.state == stateClosed {
		return 0, fmt.Errorf("seek %q: %w", f.name, ErrClosed)
	}
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = f.pos + offset
	case io.SeekEnd:
		abs = int64(len(f.buf)) + offset
	default:
		return 0, fmt.Errorf("seek %q: invalid whence %d", f.name, whence)
	}
	if abs < 0 {
		return 0, fmt.Errorf("seek %q: negative position", f.name)
	}
	f.pos = abs
	return abs, nil
}

// Size reports the live buffer length once the handle has been read or
// written. Before that it stats the remote object and memoizes the
// answer for this handle.
func (f *File) Size() (int64, error) {
	switch f.state {
	case stateClosed:
		return 0, fmt.Errorf("size %q: %w", f.name, ErrClosed)
	case stateFetched, stateModified:
		return int64(len(f.buf)), nil
	}
	if f.remoteSize >= 0 {
		return f.remoteSize, nil
	}
	size, err := f.store.Size(f.ctx, f.name)
	if err != nil {
		return 0, err
	}
	f.remoteSize = size
	return size, nil
}

// Close flushes a modified buffer to the store before releasing it.
// Closing an already closed handle is a no-op.
func (f *File) Close() error {
	switch f.state {
	case stateClosed:
		return nil
	case stateModified:
		if _, err := f.store.Save(f.ctx, f.name, f.buf); err != nil {
			return fmt.Errorf("flush %q: %w", f.name, err)
		}
	}
	f.buf = nil
	f.state = stateClosed
	return nil
}
