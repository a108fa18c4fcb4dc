package storage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jwebster45206/gatekeeper/pkg/gm"
)

// DebouncedSaver coalesces rapid settings changes into a single write.
// Each Request resets the timer; the latest snapshot wins.
type DebouncedSaver struct {
	storage Storage
	logger  *slog.Logger
	delay   time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending *gm.Settings
}

// NewDebouncedSaver creates a saver that writes at most once per delay window
func NewDebouncedSaver(storage Storage, delay time.Duration, logger *slog.Logger) *DebouncedSaver {
	return &DebouncedSaver{
		storage: storage,
		logger:  logger,
		delay:   delay,
	}
}

// Request schedules a save of the given settings snapshot. A snapshot
// requested before the previous one is written replaces it.
func (d *DebouncedSaver) Request(settings *gm.Settings) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = settings
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.flush)
}

// Flush writes any pending snapshot immediately. Safe to call during
// shutdown.
func (d *DebouncedSaver) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
	d.flush()
}

func (d *DebouncedSaver) flush() {
	d.mu.Lock()
	settings := d.pending
	d.pending = nil
	d.mu.Unlock()

	if settings == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := d.storage.SaveSettings(ctx, settings); err != nil {
		d.logger.Error("Debounced settings save failed", "error", err)
		return
	}

	d.logger.Debug("Settings saved")
}
