package serialmux

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"sync"
)

// ErrPortClosed is returned by TestableSerialPort after Close.
var ErrPortClosed = errors.New("serial port closed")

// TestableSerialPort implements SerialPorter with configurable behaviour for
// testing. Reads block until data is added or the port is closed, like a
// real device that is quiet.
type TestableSerialPort struct {
	mu sync.Mutex

	readBuffer  bytes.Buffer
	writeBuffer bytes.Buffer
	readCond    *sync.Cond

	// ReadError is returned by the next Read call if set.
	ReadError error
	// WriteError is returned by the next Write call if set.
	WriteError error
	// ShortWrite makes the next Write report one byte fewer than given.
	ShortWrite bool
	// CloseError is returned by Close if set.
	CloseError error

	closed bool
	eof    bool
}

// NewTestableSerialPort creates a new TestableSerialPort for testing.
func NewTestableSerialPort() *TestableSerialPort {
	p := &TestableSerialPort{}
	p.readCond = sync.NewCond(&p.mu)
	return p
}

// Read returns buffered input, blocking while the buffer is empty.
func (p *TestableSerialPort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for {
		if p.closed {
			return 0, ErrPortClosed
		}
		if p.ReadError != nil {
			err := p.ReadError
			p.ReadError = nil
			return 0, err
		}
		if p.readBuffer.Len() > 0 {
			return p.readBuffer.Read(b)
		}
		if p.eof {
			return 0, io.EOF
		}
		p.readCond.Wait()
	}
}

// Write captures data written to the port.
func (p *TestableSerialPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, ErrPortClosed
	}
	if p.WriteError != nil {
		err := p.WriteError
		p.WriteError = nil
		return 0, err
	}
	if p.ShortWrite && len(b) > 0 {
		p.ShortWrite = false
		return p.writeBuffer.Write(b[:len(b)-1])
	}
	return p.writeBuffer.Write(b)
}

// Close marks the port as closed and wakes blocked readers.
func (p *TestableSerialPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	p.readCond.Broadcast()
	return p.CloseError
}

// Closed reports whether Close was called.
func (p *TestableSerialPort) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// AddReadData queues data for subsequent Read calls.
func (p *TestableSerialPort) AddReadData(data string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.readBuffer.WriteString(data)
	p.readCond.Broadcast()
}

// SetReadError makes the next Read fail with err, waking a blocked reader.
func (p *TestableSerialPort) SetReadError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.ReadError = err
	p.readCond.Broadcast()
}

// EndInput makes Read return io.EOF once the buffer drains.
func (p *TestableSerialPort) EndInput() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.eof = true
	p.readCond.Broadcast()
}

// Written returns everything written to the port.
func (p *TestableSerialPort) Written() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writeBuffer.String()
}

// WrittenLines returns the written data split into lines without the
// trailing newline.
func (p *TestableSerialPort) WrittenLines() []string {
	s := strings.TrimSuffix(p.Written(), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
