// Package autosave coalesces the edits of the open note into one save once typing pauses.
package autosave

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/notesphere/notes-gateway/internal/models"
)

const DefaultDelay time.Duration = 700 * time.Millisecond

// Saver persists the content of a note.
type Saver interface {
	SaveContent(ctx context.Context, id string, blocks []models.Block) error
}

// Debouncer saves only the latest content scheduled for the open note, after no new content
// was scheduled for the delay.
type Debouncer struct {
	saver       Saver
	delay       time.Duration
	saveTimeout time.Duration
	onSaved     func(noteID string, err error)

	lock       sync.Mutex
	noteID     string
	pending    []models.Block
	hasPending bool
	timer      *time.Timer
	// scheduled tells a timer that fired late that it was replaced
	scheduled uint64
	stopped   bool
	saves     sync.WaitGroup
}

type DebouncerOption func(*Debouncer) error

func WithDelay(delay time.Duration) DebouncerOption {
	return func(d *Debouncer) error {
		if delay <= 0 {
			return fmt.Errorf("the autosave delay has to be positive, got %s", delay)
		}
		d.delay = delay
		return nil
	}
}

// WithSaveTimeout bounds the saves started by the timer.
func WithSaveTimeout(timeout time.Duration) DebouncerOption {
	return func(d *Debouncer) error {
		d.saveTimeout = timeout
		return nil
	}
}

// WithSavedCallback is called after every save attempt.
func WithSavedCallback(callback func(noteID string, err error)) DebouncerOption {
	return func(d *Debouncer) error {
		d.onSaved = callback
		return nil
	}
}

func NewDebouncer(saver Saver, noteID string, options ...DebouncerOption) (*Debouncer, error) {
	if saver == nil {
		return &Debouncer{}, fmt.Errorf("the debouncer needs a saver")
	}
	d := &Debouncer{saver: saver, noteID: noteID, delay: DefaultDelay, saveTimeout: 30 * time.Second}
	for _, opt := range options {
		err := opt(d)
		if err != nil {
			return &Debouncer{}, err
		}
	}
	return d, nil
}

// Schedule replaces the pending content and restarts the timer.
func (d *Debouncer) Schedule(blocks []models.Block) {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.stopped || d.noteID == "" {
		return
	}
	d.pending = blocks
	d.hasPending = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.scheduled++
	scheduled := d.scheduled
	d.timer = time.AfterFunc(d.delay, func() { d.fire(scheduled) })
}

// SwitchNote drops the content pending for the previous note without saving it.
func (d *Debouncer) SwitchNote(noteID string) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.cancelLocked()
	d.noteID = noteID
}

// Flush saves the pending content right away. It does nothing when nothing is pending.
func (d *Debouncer) Flush(ctx context.Context) error {
	d.lock.Lock()
	noteID, blocks, ok := d.takeLocked()
	d.lock.Unlock()
	if !ok {
		return nil
	}
	return d.save(ctx, noteID, blocks)
}

// Stop drops the pending content and waits for a save started by the timer to finish.
// Content scheduled afterwards is ignored.
func (d *Debouncer) Stop() {
	d.lock.Lock()
	d.cancelLocked()
	d.stopped = true
	d.lock.Unlock()
	d.saves.Wait()
}

// NoteID returns the note the debouncer currently saves to.
func (d *Debouncer) NoteID() string {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.noteID
}

func (d *Debouncer) fire(scheduled uint64) {
	d.lock.Lock()
	if scheduled != d.scheduled {
		d.lock.Unlock()
		return
	}
	noteID, blocks, ok := d.takeLocked()
	if ok {
		d.saves.Add(1)
	}
	d.lock.Unlock()
	if !ok {
		return
	}
	defer d.saves.Done()
	ctx, cancel := context.WithTimeout(context.Background(), d.saveTimeout)
	defer cancel()
	_ = d.save(ctx, noteID, blocks)
}

func (d *Debouncer) takeLocked() (string, []models.Block, bool) {
	if !d.hasPending {
		return "", nil, false
	}
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	blocks := d.pending
	d.pending = nil
	d.hasPending = false
	return d.noteID, blocks, true
}

func (d *Debouncer) cancelLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = nil
	d.hasPending = false
}

func (d *Debouncer) save(ctx context.Context, noteID string, blocks []models.Block) error {
	err := d.saver.SaveContent(ctx, noteID, blocks)
	if err != nil {
		slog.Error("AUTOSAVE", "message", "saving the note failed", "noteID", noteID, "error", err)
	} else {
		slog.Debug("AUTOSAVE", "message", "note saved", "noteID", noteID, "blocks", len(blocks))
	}
	if d.onSaved != nil {
		d.onSaved(noteID, err)
	}
	return err
}
