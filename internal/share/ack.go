package share

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const DefaultAckWindow = 2 * time.Second

// Ack is the "copied" flag for the last copied link. It turns itself off
// after the window elapses, and it only ever answers for that link.
type Ack struct {
	window time.Duration

	mu     sync.Mutex
	copied bool
	link   string
	gen    uint64
	timer  *time.Timer
}

func NewAck(window time.Duration) *Ack {
	if window <= 0 {
		window = DefaultAckWindow
	}
	return &Ack{window: window}
}

// Mark sets the flag for link and restarts the window. A flag held for a
// different link is replaced.
func (a *Ack) Mark(link string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.timer != nil {
		a.timer.Stop()
	}
	a.copied = true
	a.link = link
	a.gen++
	gen := a.gen
	a.timer = time.AfterFunc(a.window, func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		// A later Mark owns the flag now.
		if a.gen == gen {
			a.copied = false
			a.link = ""
			a.timer = nil
		}
	})
}

// Copied reports whether link was copied within the window.
func (a *Ack) Copied(link string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.copied && a.link == link
}

// Stop clears the flag and cancels a pending reset.
func (a *Ack) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.gen++
	a.copied = false
	a.link = ""
}

// Clipboard receives copied text. In the browser this is the page script;
// the server side only sees whether the write succeeded.
type Clipboard interface {
	WriteText(ctx context.Context, text string) error
}

// CopyLink writes text to the clipboard and marks ack for it on success. On failure
// the flag is left untouched and the error is returned for logging.
func CopyLink(ctx context.Context, cb Clipboard, text string, ack *Ack) error {
	if err := cb.WriteText(ctx, text); err != nil {
		return fmt.Errorf("failed to copy link: %w", err)
	}
	ack.Mark(text)
	return nil
}

// CopyForInstagram copies the link and returns the hint telling the visitor
// to paste it, since Instagram has no share URL.
func CopyForInstagram(ctx context.Context, cb Clipboard, text string, ack *Ack) (string, error) {
	if err := CopyLink(ctx, cb, text, ack); err != nil {
		return "", err
	}
	return InstagramHint, nil
}
