// Package hal provides the simulated microcontroller that a charger
// controller runs against: a small bounds-checked pin store, the
// Arduino-style I/O calls on top of it, a millisecond clock and a serial
// console.
package hal

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sarchlab/chargersim/sim"
)

// NumPins is the size of both the discrete and the analog address space.
const NumPins = 10

// Level is the value of a discrete pin.
type Level uint8

// Discrete pin levels.
const (
	Low  Level = 0
	High Level = 1
)

// Mode is a pin direction. The store accepts but does not enforce it.
type Mode uint8

// Pin modes, numbered as on the target.
const (
	Input       Mode = 0x0
	Output      Mode = 0x1
	InputPullup Mode = 0x2
)

// Kind tells a discrete pin from an analog one.
type Kind string

// Pin kinds.
const (
	Digital Kind = "digital"
	Analog  Kind = "analog"
)

// ErrOutOfRange is matched by every error raised for a pin address outside
// [0, NumPins).
var ErrOutOfRange = errors.New("hal: pin address out of range")

// OutOfRangeError is the panic value of an I/O call with a bad address.
type OutOfRangeError struct {
	Op   string
	Addr int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("hal: %s: pin address %d out of range [0, %d)",
		e.Op, e.Addr, NumPins)
}

// Unwrap returns ErrOutOfRange.
func (e *OutOfRangeError) Unwrap() error {
	return ErrOutOfRange
}

// PinReader is the read half of the I/O shim.
type PinReader interface {
	DigitalRead(addr int) Level
	AnalogRead(addr int) int
}

// IO is the pin-level hardware abstraction a controller programs against.
type IO interface {
	PinReader

	PinMode(addr int, mode Mode)
	DigitalWrite(addr int, v Level)
	AnalogWrite(addr int, v int)
}

// PinWrite is the hook item raised for every store write.
type PinWrite struct {
	Kind    Kind
	Addr    int
	Value   int
	Ignored bool
}

// HookPosDigitalWrite marks a DigitalWrite call.
var HookPosDigitalWrite = &sim.HookPos{Name: "DigitalWrite"}

// HookPosAnalogWrite marks an AnalogWrite call.
var HookPosAnalogWrite = &sim.HookPos{Name: "AnalogWrite"}

// Store holds the current value of every simulated pin. It is the only
// shared mutable state of a simulation.
type Store struct {
	*sim.HookableBase

	lock    sync.RWMutex
	digital [NumPins]Level
	analog  [NumPins]int
	latched bool
}

// Snapshot is a copy of the store content.
type Snapshot struct {
	Digital [NumPins]Level `json:"digital"`
	Analog  [NumPins]int   `json:"analog"`
}

func mustBeInRange(op string, addr int) {
	if addr < 0 || addr >= NumPins {
		panic(&OutOfRangeError{Op: op, Addr: addr})
	}
}

// PinMode checks the address and otherwise does nothing.
func (s *Store) PinMode(addr int, _ Mode) {
	mustBeInRange("pinMode", addr)
}

// DigitalRead returns the level stored at addr.
func (s *Store) DigitalRead(addr int) Level {
	mustBeInRange("digitalRead", addr)

	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.digital[addr]
}

// DigitalWrite stores v at addr, unless the discrete pins are latched.
func (s *Store) DigitalWrite(addr int, v Level) {
	mustBeInRange("digitalWrite", addr)

	if !s.latched {
		s.lock.Lock()
		s.digital[addr] = v
		s.lock.Unlock()
	}

	s.InvokeHook(sim.HookCtx{
		Domain: s,
		Pos:    HookPosDigitalWrite,
		Item: PinWrite{
			Kind:    Digital,
			Addr:    addr,
			Value:   int(v),
			Ignored: s.latched,
		},
	})
}

// AnalogRead returns the value stored at addr.
func (s *Store) AnalogRead(addr int) int {
	mustBeInRange("analogRead", addr)

	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.analog[addr]
}

// AnalogWrite stores v at addr.
func (s *Store) AnalogWrite(addr int, v int) {
	mustBeInRange("analogWrite", addr)

	s.lock.Lock()
	s.analog[addr] = v
	s.lock.Unlock()

	s.InvokeHook(sim.HookCtx{
		Domain: s,
		Pos:    HookPosAnalogWrite,
		Item:   PinWrite{Kind: Analog, Addr: addr, Value: v},
	})
}

// Latched tells if DigitalWrite is ignored.
func (s *Store) Latched() bool {
	return s.latched
}

// Snapshot copies the current pin values.
func (s *Store) Snapshot() Snapshot {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return Snapshot{Digital: s.digital, Analog: s.analog}
}
