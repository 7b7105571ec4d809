package coordinator

import (
	"sync"
	"time"
)

const (
	defaultBackoffInitial = 5 * time.Second
	defaultBackoffCeiling = 5 * time.Minute
)

// backoff produces bounded exponential delays between failed refresh or
// reconnect attempts. Delays are non-decreasing up to the ceiling and reset
// on the next success.
type backoff struct {
	initial time.Duration
	ceiling time.Duration

	mu   sync.Mutex
	next time.Duration
}

func newBackoff(initial, ceiling time.Duration) *backoff {
	if initial <= 0 {
		initial = defaultBackoffInitial
	}
	if ceiling < initial {
		ceiling = defaultBackoffCeiling
	}
	return &backoff{initial: initial, ceiling: ceiling}
}

// Next returns the delay to wait before the upcoming attempt and advances
// the sequence.
func (b *backoff) Next() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.next == 0 {
		b.next = b.initial
	}
	delay := b.next
	doubled := b.next * 2
	if doubled > b.ceiling {
		doubled = b.ceiling
	}
	b.next = doubled
	return delay
}

// Reset restarts the sequence after a success.
func (b *backoff) Reset() {
	b.mu.Lock()
	b.next = 0
	b.mu.Unlock()
}
