package hal

// Board bundles everything a controller sees of the simulated
// microcontroller.
type Board struct {
	*Store
	Clock
	Serial *Serial
}

// NewBoard assembles a board. A nil serial console discards all output.
func NewBoard(store *Store, clock Clock, serial *Serial) *Board {
	if serial == nil {
		serial = NewSerial(nil)
	}

	return &Board{
		Store:  store,
		Clock:  clock,
		Serial: serial,
	}
}
