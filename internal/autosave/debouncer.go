package autosave

import (
	"context"
	"sync"
	"time"

	"github.com/yungbote/examprep-backend/internal/domain/content"
	"github.com/yungbote/examprep-backend/internal/platform/logger"
)

const DefaultWindow = 3 * time.Second

type Status string

const (
	StatusIdle      Status = "idle"
	StatusPending   Status = "pending"
	StatusSaving    Status = "saving"
	StatusCommitted Status = "committed"
	StatusFailed    Status = "failed"
)

// SaveFunc persists a coalesced patch.
type SaveFunc func(ctx context.Context, patch content.Patch) error

// Debouncer coalesces edits into one save per quiet window. Saves never
// overlap: an edit that arrives mid-save is held and written by the next one.
type Debouncer struct {
	log    *logger.Logger
	window time.Duration
	save   SaveFunc
	ctx    context.Context

	mu       sync.Mutex
	pending  *content.Patch
	timer    *time.Timer
	saving   bool
	status   Status
	lastErr  error
	onStatus func(Status, error)
	idle     chan struct{}
}

type Option func(*Debouncer)

func WithWindow(d time.Duration) Option {
	return func(db *Debouncer) {
		if d > 0 {
			db.window = d
		}
	}
}

// WithStatusHook is called outside the lock on every status change.
func WithStatusHook(fn func(Status, error)) Option {
	return func(db *Debouncer) { db.onStatus = fn }
}

func New(ctx context.Context, log *logger.Logger, save SaveFunc, opts ...Option) *Debouncer {
	d := &Debouncer{
		log:    log.With("component", "AutosaveDebouncer"),
		window: DefaultWindow,
		save:   save,
		ctx:    ctx,
		status: StatusIdle,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Push records an edit and restarts the quiet window.
func (d *Debouncer) Push(p content.Patch) {
	if p.Empty() {
		return
	}
	d.mu.Lock()
	if d.pending == nil {
		d.pending = &content.Patch{}
	}
	merged := Merge(*d.pending, p)
	d.pending = &merged
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.fire)
	d.mu.Unlock()
	d.setStatus(StatusPending, nil)
}

// Flush saves whatever is pending now and waits until nothing is left.
func (d *Debouncer) Flush() error {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
	for {
		d.fire()
		d.wait()
		d.mu.Lock()
		st, err, more := d.status, d.lastErr, d.pending != nil || d.saving
		d.mu.Unlock()
		if st == StatusFailed {
			return err
		}
		if !more {
			return nil
		}
	}
}

func (d *Debouncer) Status() (Status, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status, d.lastErr
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	if d.saving || d.pending == nil {
		d.mu.Unlock()
		return
	}
	patch := *d.pending
	d.pending = nil
	d.saving = true
	d.idle = make(chan struct{})
	d.mu.Unlock()

	d.setStatus(StatusSaving, nil)
	err := d.save(d.ctx, patch)

	d.mu.Lock()
	d.saving = false
	switch {
	case err != nil:
		// The failed edit stays pending so the next push or flush retries it.
		if d.pending == nil {
			d.pending = &patch
		} else {
			merged := Merge(patch, *d.pending)
			d.pending = &merged
		}
		d.status, d.lastErr = StatusFailed, err
	case d.pending != nil:
		d.status, d.lastErr = StatusPending, nil
		d.timer = time.AfterFunc(d.window, d.fire)
	default:
		d.status, d.lastErr = StatusCommitted, nil
	}
	st, hook := d.status, d.onStatus
	close(d.idle)
	d.mu.Unlock()

	if err != nil {
		d.log.Warn("autosave failed", "error", err)
	}
	if hook != nil {
		hook(st, err)
	}
}

func (d *Debouncer) wait() {
	d.mu.Lock()
	ch := d.idle
	saving := d.saving
	d.mu.Unlock()
	if saving && ch != nil {
		<-ch
		d.wait()
	}
}

func (d *Debouncer) setStatus(s Status, err error) {
	d.mu.Lock()
	d.status = s
	d.lastErr = err
	hook := d.onStatus
	d.mu.Unlock()
	if hook != nil {
		hook(s, err)
	}
}

// Merge overlays later on top of earlier field by field.
func Merge(earlier, later content.Patch) content.Patch {
	out := earlier
	if later.Title != nil {
		out.Title = later.Title
	}
	if later.Slug != nil {
		out.Slug = later.Slug
	}
	if len(later.Body) > 0 {
		out.Body = later.Body
	}
	if len(later.Meta) > 0 {
		out.Meta = later.Meta
	}
	if later.Tags != nil {
		out.Tags = later.Tags
	}
	if later.RelatedContent != nil {
		out.RelatedContent = later.RelatedContent
	}
	return out
}
