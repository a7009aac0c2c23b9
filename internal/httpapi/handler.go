// Package httpapi exposes the submission endpoints and composes the decoder,
// relay, and throttler into the two form-processing flows.
package httpapi

import (
	"context"

	logx "formrelay/pkg/logx"
)

// TextSender delivers one text message to the destination chat.
// The retrying relay and the direct adapter path both satisfy it.
type TextSender interface {
	SendText(ctx context.Context, text string) error
}

// BatchSender paces a photo batch into the destination chat.
type BatchSender interface {
	SendPhotos(ctx context.Context, label string, photos [][]byte) error
}

// DirectSender posts one text message without the retry path.
type DirectSender interface {
	PostText(ctx context.Context, text string) error
}

// Pinger probes the chat backend host.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps wires the handler's collaborators. Everything is an interface so tests
// substitute in-memory fakes.
type Deps struct {
	Log      logx.Logger
	Relay    TextSender   // retrying text path
	Batch    BatchSender  // throttled photo batches (retrying)
	Direct   DirectSender // non-retrying text path
	Operator TextSender   // best-effort failure notifications
	Pinger   Pinger

	// MaxImages caps each camera side (default 4).
	MaxImages int

	// Per-path retry treatment, kept an explicit choice: the verification
	// path retries by default, the application path does not.
	VerifyRetryOnSend      bool
	ApplicationRetryOnSend bool
}

type Handler struct {
	log      logx.Logger
	relay    TextSender
	batch    BatchSender
	direct   DirectSender
	operator TextSender
	pinger   Pinger

	maxImages   int
	verifyRetry bool
	appRetry    bool
}

func NewHandler(d Deps) *Handler {
	if d.Log.IsZero() {
		d.Log = logx.Nop()
	}
	if d.MaxImages <= 0 {
		d.MaxImages = 4
	}
	return &Handler{
		log:         d.Log,
		relay:       d.Relay,
		batch:       d.Batch,
		direct:      d.Direct,
		operator:    d.Operator,
		pinger:      d.Pinger,
		maxImages:   d.MaxImages,
		verifyRetry: d.VerifyRetryOnSend,
		appRetry:    d.ApplicationRetryOnSend,
	}
}

// verifyText picks the text path for the verification flow.
func (h *Handler) verifyText(ctx context.Context, text string) error {
	if h.verifyRetry {
		return h.relay.SendText(ctx, text)
	}
	return h.direct.PostText(ctx, text)
}

// applicationText picks the text path for the application flow.
func (h *Handler) applicationText(ctx context.Context, text string) error {
	if h.appRetry {
		return h.relay.SendText(ctx, text)
	}
	return h.direct.PostText(ctx, text)
}
