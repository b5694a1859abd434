package source

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

func TestPortOptions_Normalize(t *testing.T) {
	t.Parallel()

	got, err := PortOptions{}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, PortOptions{BaudRate: DefaultBaudRate, DataBits: 8, StopBits: 1, Parity: "N"}, got)

	got, err = PortOptions{BaudRate: 9600, DataBits: 7, StopBits: 2, Parity: " even "}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, PortOptions{BaudRate: 9600, DataBits: 7, StopBits: 2, Parity: "E"}, got)

	for _, bad := range []PortOptions{
		{DataBits: 9},
		{StopBits: 3},
		{Parity: "mark"},
	} {
		_, err := bad.Normalize()
		assert.Error(t, err, "%+v", bad)
	}
}

func TestPortOptions_SerialMode(t *testing.T) {
	t.Parallel()

	mode, err := PortOptions{StopBits: 2, Parity: "O"}.SerialMode()
	require.NoError(t, err)
	assert.Equal(t, &serial.Mode{
		BaudRate: DefaultBaudRate,
		DataBits: 8,
		Parity:   serial.OddParity,
		StopBits: serial.TwoStopBits,
	}, mode)

	_, err = PortOptions{Parity: "x"}.SerialMode()
	assert.Error(t, err)
}

func TestParseLine(t *testing.T) {
	t.Parallel()

	s, err := ParseLine(" 1.5, 2 ,3,4 ", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 1.5, s.Time)
	assert.Equal(t, []float64{2}, s.Input)
	assert.Equal(t, []float64{3, 4}, s.Measurement)
	assert.Equal(t, 2, s.MeasurementVec().Len())

	s, err = ParseLine("0.1,7", 0, 1)
	require.NoError(t, err)
	assert.Nil(t, s.InputVec())
	assert.Equal(t, 7.0, s.MeasurementVec().AtVec(0))

	s, err = ParseLine("0.1", 0, 0)
	require.NoError(t, err)
	assert.Nil(t, s.MeasurementVec())

	for _, skip := range []string{"", "   ", "# comment", "  #x,1"} {
		_, err := ParseLine(skip, 0, 1)
		assert.ErrorIs(t, err, ErrSkip, "%q", skip)
	}

	_, err = ParseLine("1,2", 1, 1)
	assert.ErrorContains(t, err, "expected 3 fields")
	_, err = ParseLine("1,abc", 0, 1)
	assert.ErrorContains(t, err, "field 2")
}

func TestReadCSV(t *testing.T) {
	t.Parallel()

	in := `t,u,z
# warm-up excluded
0.5,1,0.1

1.0,2,0.2
1.5,3,0.3
`
	series, err := ReadCSV(strings.NewReader(in), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 1.0, 1.5}, series.Times)
	require.Len(t, series.Inputs, 3)
	assert.Equal(t, 3.0, series.Inputs[2].AtVec(0))
	assert.Equal(t, 0.2, series.Measurements[1].AtVec(0))

	t.Run("no inputs leaves Inputs nil", func(t *testing.T) {
		series, err := ReadCSV(strings.NewReader("1,5\n2,6\n"), 0, 1)
		require.NoError(t, err)
		assert.Nil(t, series.Inputs)
		assert.Len(t, series.Measurements, 2)
	})

	t.Run("bad row reports its line", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader("1,5\n2,x\n"), 0, 1)
		assert.ErrorContains(t, err, "line 2")
	})

	t.Run("header only after first row is an error", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader("1,5\nt,z\n"), 0, 1)
		assert.Error(t, err)
	})
}

func TestCollect(t *testing.T) {
	t.Parallel()

	lines := make(chan string, 8)
	for _, l := range []string{"# start", "1,10", "garbage", "0.5,11", "2,12", "3,13"} {
		lines <- l
	}
	close(lines)

	series, err := Collect(context.Background(), lines, 0, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, series.Times, "malformed and out-of-order samples are dropped")

	t.Run("stops at n", func(t *testing.T) {
		lines := make(chan string, 3)
		lines <- "1,1"
		lines <- "2,2"
		lines <- "3,3"
		series, err := Collect(context.Background(), lines, 0, 1, 2)
		require.NoError(t, err)
		assert.Equal(t, 2, series.Len())
	})

	t.Run("cancellation returns partial series", func(t *testing.T) {
		lines := make(chan string, 1)
		lines <- "1,1"
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()
		series, err := Collect(ctx, lines, 0, 1, 5)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, series.Len())
	})
}

func TestSerial_Read(t *testing.T) {
	t.Parallel()

	port := newMockPort("0.1,1,5\n0.2,1,6\n0.3,2,7\n")
	opened := ""
	open := func(path string, mode *serial.Mode) (SerialPorter, error) {
		opened = path
		assert.Equal(t, 9600, mode.BaudRate)
		return port, nil
	}

	src, err := OpenSerial(open, "/dev/ttyUSB0", PortOptions{BaudRate: 9600}, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", opened)

	series, err := src.Read(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, series.Times)
	assert.Equal(t, 2.0, series.Inputs[2].AtVec(0))

	require.NoError(t, src.Close())
	assert.True(t, port.closed)
}

func TestSerial_ReadStopsAfterN(t *testing.T) {
	t.Parallel()

	port := newPipePort()
	src := NewSerial(port, 0, 1)
	go func() {
		port.w.Write([]byte("1,1\n2,2\n"))
		// The device keeps streaming; Read must not wait for more.
	}()

	series, err := src.Read(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, series.Len())
	port.w.Close()
}

func TestOpenSerial_Errors(t *testing.T) {
	t.Parallel()

	_, err := OpenSerial(nil, "/dev/null", PortOptions{DataBits: 4}, 0, 1)
	assert.ErrorContains(t, err, "data bits")

	boom := errors.New("busy")
	_, err = OpenSerial(func(string, *serial.Mode) (SerialPorter, error) { return nil, boom }, "/dev/x", PortOptions{}, 0, 1)
	assert.ErrorIs(t, err, boom)
}
