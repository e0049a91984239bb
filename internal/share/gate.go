package share

import (
	"errors"

	"golang.org/x/sync/semaphore"
)

// ErrInFlight is returned when a share is requested while another is still running.
var ErrInFlight = errors.New("share already in progress")

// Gate admits at most one share at a time and drops, rather than queues,
// anything arriving while it is held. The zero value is not usable; call NewGate.
type Gate struct {
	sem *semaphore.Weighted
}

func NewGate() *Gate {
	return &Gate{sem: semaphore.NewWeighted(1)}
}

// TryAcquire reports whether the caller now holds the gate.
func (g *Gate) TryAcquire() bool {
	return g.sem.TryAcquire(1)
}

// Release frees the gate. It must only be called after a successful TryAcquire.
func (g *Gate) Release() {
	g.sem.Release(1)
}
