package relay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	logx "formrelay/pkg/logx"
)

const defaultThrottleGap = 800 * time.Millisecond

// Throttler sequences a batch of photos through the Relay with a fixed gap
// between consecutive sends so the chat API's rate limit is not tripped.
// Sends are strictly sequential: photo n+1 never starts before photo n's
// retry loop has fully resolved.
type Throttler struct {
	relay *Relay
	log   logx.Logger

	mu  sync.Mutex
	gap time.Duration
}

func NewThrottler(r *Relay, gap time.Duration, log logx.Logger) *Throttler {
	if gap <= 0 {
		gap = defaultThrottleGap
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Throttler{relay: r, gap: gap, log: log}
}

// Apply swaps the inter-send gap at runtime.
func (t *Throttler) Apply(gap time.Duration) {
	if gap <= 0 {
		gap = defaultThrottleGap
	}
	t.mu.Lock()
	t.gap = gap
	t.mu.Unlock()
}

// SendPhotos relays each photo in order, captioned "{label} Image i/N".
// The gap applies between consecutive sends only; there is no wait before the
// first photo or after the last. The first send whose retries are exhausted
// aborts the remaining batch and its error is returned.
func (t *Throttler) SendPhotos(ctx context.Context, label string, photos [][]byte) error {
	if len(photos) == 0 {
		return nil
	}
	t.mu.Lock()
	gap := t.gap
	t.mu.Unlock()

	// Limiter with burst 1: the first Wait consumes the initial token
	// immediately, every later Wait blocks for one gap.
	lim := rate.NewLimiter(rate.Every(gap), 1)

	total := len(photos)
	for i, photo := range photos {
		if err := lim.Wait(ctx); err != nil {
			return err
		}
		caption := fmt.Sprintf("%s Image %d/%d", label, i+1, total)
		if err := t.relay.SendPhoto(ctx, photo, caption); err != nil {
			t.log.Warn("photo batch aborted",
				logx.String("label", label),
				logx.Int("sent", i),
				logx.Int("total", total),
				logx.Err(err),
			)
			return err
		}
	}
	t.log.Debug("photo batch delivered", logx.String("label", label), logx.Int("total", total))
	return nil
}
