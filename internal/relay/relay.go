// Package relay delivers formatted submission content to the chat backend,
// retrying transient failures and pacing photo batches so the external API's
// rate limits are not tripped.
package relay

import (
	"context"
	"fmt"
	"sync"
	"time"

	logx "formrelay/pkg/logx"
)

// Sender performs a single delivery attempt to the chat backend.
// Implemented by the telegram adapter; tests use in-memory fakes.
type Sender interface {
	SendText(ctx context.Context, text string) error
	SendPhoto(ctx context.Context, photo []byte, caption string) error
}

// Kind tags a Message variant.
type Kind string

const (
	KindText  Kind = "text"
	KindPhoto Kind = "photo"
)

// Message is one unit of relayed content. Text messages carry Text; photo
// messages carry Photo plus an optional Caption.
type Message struct {
	Kind    Kind
	Text    string
	Photo   []byte
	Caption string
}

// DeliveryError reports an exhausted retry budget. It wraps the last
// underlying send error.
type DeliveryError struct {
	Attempts int
	Err      error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// SleepFunc waits for d or until ctx is cancelled. Injected so tests run
// without real waits.
type SleepFunc func(ctx context.Context, d time.Duration) error

func realSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Config tunes the retry loop.
type Config struct {
	// Retries is the total attempt budget (default 3).
	Retries int
	// Base is the backoff unit: the wait after attempt n is Base*n,
	// so with the 1s default the waits run 1s, 2s, 3s... (no jitter).
	Base time.Duration
}

func (c Config) withDefaults() Config {
	if c.Retries <= 0 {
		c.Retries = 3
	}
	if c.Base <= 0 {
		c.Base = time.Second
	}
	return c
}

// Relay wraps a Sender with linear-backoff retries.
// It is safe for concurrent use; Apply may be called during config reload.
type Relay struct {
	sender Sender
	log    logx.Logger
	sleep  SleepFunc

	mu  sync.Mutex
	cfg Config
}

func New(sender Sender, cfg Config, log logx.Logger) *Relay {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Relay{sender: sender, log: log, sleep: realSleep, cfg: cfg.withDefaults()}
}

// SetSleep replaces the delay implementation (tests).
func (r *Relay) SetSleep(fn SleepFunc) {
	if fn != nil {
		r.sleep = fn
	}
}

// Apply swaps retry tuning at runtime.
func (r *Relay) Apply(cfg Config) {
	r.mu.Lock()
	r.cfg = cfg.withDefaults()
	r.mu.Unlock()
}

func (r *Relay) snapshot() Config {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cfg
}

// SendText relays a text message with retries.
func (r *Relay) SendText(ctx context.Context, text string) error {
	return r.Send(ctx, Message{Kind: KindText, Text: text})
}

// SendPhoto relays a photo with caption with retries.
func (r *Relay) SendPhoto(ctx context.Context, photo []byte, caption string) error {
	return r.Send(ctx, Message{Kind: KindPhoto, Photo: photo, Caption: caption})
}

// Send attempts delivery up to the configured attempt budget. Waits between
// attempts grow linearly (base, 2*base, ...). The final failure is returned
// as a *DeliveryError wrapping the last underlying error.
func (r *Relay) Send(ctx context.Context, m Message) error {
	cfg := r.snapshot()

	var lastErr error
	for attempt := 1; attempt <= cfg.Retries; attempt++ {
		err := r.deliver(ctx, m)
		if err == nil {
			if attempt > 1 {
				r.log.Info("relay send recovered", logx.String("kind", string(m.Kind)), logx.Int("attempt", attempt))
			}
			return nil
		}
		lastErr = err
		r.log.Debug("relay send failed",
			logx.String("kind", string(m.Kind)),
			logx.Int("attempt", attempt),
			logx.Int("max", cfg.Retries),
			logx.Err(err),
		)

		if attempt == cfg.Retries {
			break
		}
		if serr := r.sleep(ctx, cfg.Base*time.Duration(attempt)); serr != nil {
			return serr
		}
	}

	derr := &DeliveryError{Attempts: cfg.Retries, Err: lastErr}
	r.log.Error("relay delivery exhausted", logx.String("kind", string(m.Kind)), logx.Err(derr))
	return derr
}

func (r *Relay) deliver(ctx context.Context, m Message) error {
	switch m.Kind {
	case KindPhoto:
		return r.sender.SendPhoto(ctx, m.Photo, m.Caption)
	default:
		return r.sender.SendText(ctx, m.Text)
	}
}
