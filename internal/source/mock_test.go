package source

import (
	"bytes"
	"io"
	"sync"
)

// mockPort replays a fixed byte stream and records writes.
type mockPort struct {
	io.Reader
	mu      sync.Mutex
	written bytes.Buffer
	closed  bool
}

func newMockPort(data string) *mockPort {
	return &mockPort{Reader: bytes.NewBufferString(data)}
}

func (m *mockPort) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.written.Write(p)
}

func (m *mockPort) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// pipePort blocks reads until the test writes to it.
type pipePort struct {
	*io.PipeReader
	w *io.PipeWriter
}

func newPipePort() *pipePort {
	r, w := io.Pipe()
	return &pipePort{PipeReader: r, w: w}
}

func (p *pipePort) Write(b []byte) (int, error) { return len(b), nil }
