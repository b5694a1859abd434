package source

import (
	"io"

	"go.bug.st/serial"
)

// SerialPorter is the part of a serial port the reader needs. Tests
// substitute an in-memory implementation.
type SerialPorter interface {
	io.ReadWriter
	io.Closer
}

// Opener opens the device at path. OpenPort is the real implementation.
type Opener func(path string, mode *serial.Mode) (SerialPorter, error)

// OpenPort opens a serial device with go.bug.st/serial.
func OpenPort(path string, mode *serial.Mode) (SerialPorter, error) {
	return serial.Open(path, mode)
}
