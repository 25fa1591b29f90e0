package serialmux

import (
	"io"
)

// SerialPorter defines the minimal interface needed for a serial port.
// This abstraction enables unit testing without real serial hardware.
type SerialPorter interface {
	io.ReadWriter
	io.Closer
}

// StreamPort adapts a separate reader and writer, such as stdin and stdout,
// into a SerialPorter. Close closes whichever halves implement io.Closer.
type StreamPort struct {
	io.Reader
	io.Writer
}

func (p StreamPort) Close() error {
	var err error
	if c, ok := p.Reader.(io.Closer); ok {
		err = c.Close()
	}
	if c, ok := p.Writer.(io.Closer); ok {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
