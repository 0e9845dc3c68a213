package domain

import "github.com/jonboulle/clockwork"

// clock stamps assembled datasets. Tests freeze it via SetClock so dataset IDs
// and LoadedAt values are reproducible.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source used for dataset timestamps. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
