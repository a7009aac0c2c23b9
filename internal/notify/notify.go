// Package notify wraps best-effort recovery actions so their own failures are
// recorded instead of propagated.
package notify

import (
	"context"

	logx "formrelay/pkg/logx"
)

// Result captures the outcome of a best-effort action.
type Result struct {
	Attempted bool
	Err       error
}

func (r Result) Failed() bool { return r.Attempted && r.Err != nil }

// BestEffort runs fn and swallows its error: the failure of a recovery action
// must never mask the failure that triggered it. The outcome is logged and
// returned for callers that want to inspect it.
func BestEffort(ctx context.Context, log logx.Logger, action string, fn func(context.Context) error) Result {
	if fn == nil {
		return Result{}
	}
	err := fn(ctx)
	if err != nil {
		log.Warn("best-effort action failed", logx.String("action", action), logx.Err(err))
	} else {
		log.Debug("best-effort action succeeded", logx.String("action", action))
	}
	return Result{Attempted: true, Err: err}
}
