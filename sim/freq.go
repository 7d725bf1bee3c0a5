package sim

import log "github.com/sirupsen/logrus"

// VTimeInSec is a simulated time in seconds.
type VTimeInSec float64

// Freq is a clock frequency.
type Freq float64

// Units of frequency.
const (
	Hz  Freq = 1
	KHz Freq = 1e3
	MHz Freq = 1e6
	GHz Freq = 1e9
)

// Period returns the time between two rising edges.
func (f Freq) Period() VTimeInSec {
	if f == 0 {
		log.Panic("frequency cannot be 0")
	}

	return VTimeInSec(1.0 / f)
}

// Time returns the time of the rising edge that ends the given cycle.
func (f Freq) Time(cycle uint64) VTimeInSec {
	return VTimeInSec(float64(cycle+1) / float64(f))
}
