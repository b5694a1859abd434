package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"

	"github.com/banshee-data/srukf/internal/monitoring"
	"github.com/banshee-data/srukf/internal/ukf"
)

// Serial reads records from a device that streams one sample per line.
type Serial struct {
	port     SerialPorter
	nInputs  int
	nOutputs int
}

// NewSerial wraps an already open port.
func NewSerial(port SerialPorter, nInputs, nOutputs int) *Serial {
	return &Serial{port: port, nInputs: nInputs, nOutputs: nOutputs}
}

// OpenSerial opens the device at path with open (OpenPort when nil).
func OpenSerial(open Opener, path string, opts PortOptions, nInputs, nOutputs int) (*Serial, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}
	if open == nil {
		open = OpenPort
	}
	port, err := open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", path, err)
	}
	return NewSerial(port, nInputs, nOutputs), nil
}

// Close closes the port.
func (s *Serial) Close() error { return s.port.Close() }

// Monitor sends every line read from the port to lines until the port is
// exhausted or ctx is done. lines is closed on return.
func (s *Serial) Monitor(ctx context.Context, lines chan<- string) error {
	defer close(lines)

	scan := bufio.NewScanner(s.port)
	lineChan := make(chan string)
	scanErrChan := make(chan error, 1)

	// The blocking Scan runs on its own goroutine so cancellation is seen
	// while waiting for the device.
	go func() {
		defer close(lineChan)
		for scan.Scan() {
			select {
			case lineChan <- scan.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scan.Err(); err != nil {
			scanErrChan <- err
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-scanErrChan:
			return err
		case line, ok := <-lineChan:
			if !ok {
				select {
				case err := <-scanErrChan:
					return err
				default:
					return nil
				}
			}
			select {
			case lines <- line:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// Read collects n samples from the port (all of them when n <= 0).
func (s *Serial) Read(ctx context.Context, n int) (ukf.Series, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	monErr := make(chan error, 1)
	go func() { monErr <- s.Monitor(ctx, lines) }()

	series, err := Collect(ctx, lines, s.nInputs, s.nOutputs, n)
	cancel()
	if mErr := <-monErr; err == nil && mErr != nil && !errors.Is(mErr, context.Canceled) {
		err = fmt.Errorf("serial monitor: %w", mErr)
	}
	return series, err
}

// Collect parses lines into a series until n samples are gathered (n <= 0
// reads until lines is closed). Malformed lines and samples that do not move
// time forward are logged and dropped. On cancellation the samples gathered
// so far are returned with ctx.Err().
func Collect(ctx context.Context, lines <-chan string, nInputs, nOutputs, n int) (ukf.Series, error) {
	var b seriesBuilder
	b.init(nInputs)
	for n <= 0 || b.series.Len() < n {
		select {
		case <-ctx.Done():
			return b.series, ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return b.series, nil
			}
			s, err := ParseLine(line, nInputs, nOutputs)
			if errors.Is(err, ErrSkip) {
				continue
			}
			if err != nil {
				monitoring.Warnf("dropping line %q: %v", line, err)
				continue
			}
			if !b.after(s.Time) {
				monitoring.Warnf("dropping sample at t=%g: not after t=%g", s.Time, b.last)
				continue
			}
			b.add(s)
		}
	}
	return b.series, nil
}
