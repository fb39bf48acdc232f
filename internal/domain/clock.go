package domain

import "github.com/jonboulle/clockwork"

// clock is the package-level time source used when stamping live status
// records. Tests freeze it via SetClock for deterministic output.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
