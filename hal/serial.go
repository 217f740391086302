package hal

import (
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/tarm/serial"
)

// Serial is the console a controller prints diagnostics to. Nothing is
// written until Begin is called, as on the target.
type Serial struct {
	lock    sync.Mutex
	out     io.Writer
	baud    int
	started bool
}

// NewSerial creates a console that writes to out.
func NewSerial(out io.Writer) *Serial {
	if out == nil {
		out = io.Discard
	}

	return &Serial{out: out}
}

// Begin opens the console at the given baud rate.
func (s *Serial) Begin(baud int) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.baud = baud
	s.started = true
}

// Baud returns the rate passed to Begin, or 0.
func (s *Serial) Baud() int {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.baud
}

// Print writes v without a line break.
func (s *Serial) Print(v any) {
	s.write(fmt.Sprint(v))
}

// Println writes v followed by a line break.
func (s *Serial) Println(v any) {
	s.write(fmt.Sprint(v) + "\n")
}

// PrintFloat writes f with the given number of decimal places.
func (s *Serial) PrintFloat(f float64, digits int) {
	if digits < 0 {
		digits = 0
	}

	s.write(strconv.FormatFloat(f, 'f', digits, 64))
}

func (s *Serial) write(text string) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if !s.started {
		return
	}

	_, _ = io.WriteString(s.out, text)
}

// OpenSerialPort opens a host serial device, so that controller output can be
// mirrored onto a physical or virtual port.
func OpenSerialPort(name string, baud int) (io.WriteCloser, error) {
	port, err := serial.OpenPort(&serial.Config{Name: name, Baud: baud})
	if err != nil {
		return nil, fmt.Errorf("hal: open serial port %s: %w", name, err)
	}

	return port, nil
}
