package sim

import (
	"log"
	"math"
)

// Freq is a tick rate in ticks per simulated second.
type Freq float64

// Hz is one tick per simulated second, the rate of the drive loop.
const Hz Freq = 1

func (f Freq) mustBeValid(now VTimeInSec) {
	if f <= 0 {
		log.Panic("frequency must be positive")
	}

	if math.IsNaN(float64(now)) {
		log.Panic("invalid time")
	}
}

// ThisTick returns the earliest tick time that is not before now. A time on a
// tick boundary is its own tick.
func (f Freq) ThisTick(now VTimeInSec) VTimeInSec {
	f.mustBeValid(now)

	count := math.Ceil(math.Round(float64(now)*10*float64(f)) / 10)

	return VTimeInSec(count / float64(f))
}

// NextTick returns the first tick time strictly after now.
func (f Freq) NextTick(now VTimeInSec) VTimeInSec {
	f.mustBeValid(now)

	count := math.Floor(math.Round(float64(now)*10*float64(f)) / 10)

	return VTimeInSec((count + 1) / float64(f))
}
