package search

import (
	"sync"
	"time"
)

// DefaultInterval окно троттлинга по умолчанию
const DefaultInterval = 1000 * time.Millisecond

// Throttler троттлинг по заднему фронту: вызовы внутри окна схлопываются
// в последний, который выполняется один раз по истечении окна
type Throttler struct {
	mu       sync.Mutex
	interval time.Duration
	timer    *time.Timer
	seq      uint64
	pending  func()
}

// NewThrottler создаёт троттлер с заданным окном
func NewThrottler(interval time.Duration) *Throttler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Throttler{interval: interval}
}

// Call планирует fn. Если окно уже открыто, fn заменяет ожидающий вызов.
func (t *Throttler) Call(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pending = fn
	if t.timer == nil {
		t.seq++
		seq := t.seq
		t.timer = time.AfterFunc(t.interval, func() { t.fire(seq) })
	}
}

// Cancel отбрасывает ожидающий вызов
func (t *Throttler) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.seq++
	t.pending = nil
}

// Pending есть ли ожидающий вызов
func (t *Throttler) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending != nil
}

// fire выполняет ожидающий вызов; таймер, переживший Cancel, игнорируется
func (t *Throttler) fire(seq uint64) {
	t.mu.Lock()
	if seq != t.seq {
		t.mu.Unlock()
		return
	}
	fn := t.pending
	t.pending = nil
	t.timer = nil
	t.mu.Unlock()

	if fn != nil {
		fn()
	}
}
