package mmap

import (
	"errors"
	"io"
	"os"
	"sync"
)

// ErrClosed is returned by reads on a closed File.
var ErrClosed = errors.New("mmap: file closed")

// File is a read-only mapped file. Empty files are not mapped.
type File struct {
	mu     sync.RWMutex
	data   []byte
	unmap  func() error
	closed bool
}

// Open maps the file at path. The mapping outlives the descriptor, which is
// closed before Open returns.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if fi.Size() == 0 {
		return &File{}, nil
	}
	if int64(int(fi.Size())) != fi.Size() {
		return nil, &os.PathError{Op: "mmap", Path: path, Err: errors.New("file too large")}
	}

	data, unmap, err := mapFile(f, int(fi.Size()))
	if err != nil {
		return nil, &os.PathError{Op: "mmap", Path: path, Err: err}
	}
	adviseSequential(data)

	return &File{data: data, unmap: unmap}, nil
}

// Len is the mapped length in bytes.
func (m *File) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Bytes returns the mapped contents, or nil after Close.
// The slice must not be used after Close.
func (m *File) Bytes() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data
}

// ReadAt copies mapped bytes starting at off.
func (m *File) ReadAt(p []byte, off int64) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return 0, ErrClosed
	}
	if off < 0 || off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Close unmaps the file. Later calls are no-ops.
func (m *File) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	m.data = nil
	if m.unmap == nil {
		return nil
	}
	return m.unmap()
}
