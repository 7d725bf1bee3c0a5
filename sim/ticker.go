package sim

// A Ticker advances its state by one clock cycle. Tick returns false once
// there is nothing left to do.
type Ticker interface {
	Tick() bool
}
