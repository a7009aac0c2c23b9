package relay

import (
	"context"
	"errors"
	"testing"
	"time"

	logx "formrelay/pkg/logx"
)

type fakeSender struct {
	failures int // fail this many calls before succeeding
	calls    int
	texts    []string
	captions []string
	err      error
}

func (f *fakeSender) send() error {
	f.calls++
	if f.calls <= f.failures {
		return f.err
	}
	return nil
}

func (f *fakeSender) SendText(_ context.Context, text string) error {
	f.texts = append(f.texts, text)
	return f.send()
}

func (f *fakeSender) SendPhoto(_ context.Context, _ []byte, caption string) error {
	f.captions = append(f.captions, caption)
	return f.send()
}

type fakeClock struct {
	slept []time.Duration
}

func (c *fakeClock) sleep(_ context.Context, d time.Duration) error {
	c.slept = append(c.slept, d)
	return nil
}

func TestSendRetriesThenSucceeds(t *testing.T) {
	errBoom := errors.New("boom")
	sender := &fakeSender{failures: 2, err: errBoom}
	clock := &fakeClock{}

	r := New(sender, Config{Retries: 3, Base: time.Second}, logx.Nop())
	r.SetSleep(clock.sleep)

	if err := r.SendText(context.Background(), "hello"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if sender.calls != 3 {
		t.Fatalf("calls = %d, want 3", sender.calls)
	}
	want := []time.Duration{time.Second, 2 * time.Second}
	if len(clock.slept) != len(want) {
		t.Fatalf("slept %v, want %v", clock.slept, want)
	}
	for i := range want {
		if clock.slept[i] != want[i] {
			t.Fatalf("slept[%d] = %v, want %v", i, clock.slept[i], want[i])
		}
	}
}

func TestSendExhaustsRetries(t *testing.T) {
	errBoom := errors.New("boom")
	sender := &fakeSender{failures: 99, err: errBoom}
	clock := &fakeClock{}

	r := New(sender, Config{Retries: 3, Base: time.Second}, logx.Nop())
	r.SetSleep(clock.sleep)

	err := r.SendText(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error")
	}
	var derr *DeliveryError
	if !errors.As(err, &derr) {
		t.Fatalf("error type %T, want *DeliveryError", err)
	}
	if derr.Attempts != 3 {
		t.Fatalf("attempts = %d, want 3", derr.Attempts)
	}
	if !errors.Is(err, errBoom) {
		t.Fatal("expected wrapped underlying error")
	}
	if sender.calls != 3 {
		t.Fatalf("calls = %d, want 3", sender.calls)
	}
	if len(clock.slept) != 2 {
		t.Fatalf("slept %d times, want 2 (no wait after final attempt)", len(clock.slept))
	}
}

func TestSendDefaults(t *testing.T) {
	r := New(&fakeSender{}, Config{}, logx.Nop())
	cfg := r.snapshot()
	if cfg.Retries != 3 || cfg.Base != time.Second {
		t.Fatalf("defaults = %+v, want retries 3 base 1s", cfg)
	}
}

func TestSendCancelledDuringBackoff(t *testing.T) {
	sender := &fakeSender{failures: 99, err: errors.New("down")}
	r := New(sender, Config{Retries: 3, Base: time.Hour}, logx.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.SendText(ctx, "hello")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if sender.calls != 1 {
		t.Fatalf("calls = %d, want 1", sender.calls)
	}
}

func TestSendPhotoVariant(t *testing.T) {
	sender := &fakeSender{}
	r := New(sender, Config{}, logx.Nop())
	if err := r.SendPhoto(context.Background(), []byte{1, 2}, "cap"); err != nil {
		t.Fatalf("SendPhoto: %v", err)
	}
	if len(sender.captions) != 1 || sender.captions[0] != "cap" {
		t.Fatalf("captions = %v", sender.captions)
	}
}
