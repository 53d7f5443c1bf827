package feedview

import (
	"sync"
	"time"
)

// debouncer runs the most recently scheduled function once its delay has
// passed without another Schedule or Cancel
type debouncer struct {
	mu    sync.Mutex
	timer *time.Timer
}

func (d *debouncer) Schedule(delay time.Duration, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(delay, fn)
}

func (d *debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
