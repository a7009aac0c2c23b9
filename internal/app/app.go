// Package app assembles the service: config, logging, the chat adapter, the
// retrying relay, and the HTTP server, plus hot-reload plumbing.
package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/sethvargo/go-retry"

	"formrelay/internal/config"
	"formrelay/internal/httpapi"
	"formrelay/internal/observability/pprof"
	"formrelay/internal/relay"
	"formrelay/internal/telegram"
	logx "formrelay/pkg/logx"
)

const (
	defaultTelegramTimeout = 10 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

type App struct {
	cfgm *config.Manager
	logs *logx.Service
	log  logx.Logger

	adapter  *telegram.Adapter
	relay    *relay.Relay
	throttle *relay.Throttler
	srv      *httpapi.Server
	prof     *pprof.Service

	shutdownTimeout time.Duration

	errCh  chan error
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := config.ValidateSecrets(cfg); err != nil {
		return nil, err
	}

	logs, log := logx.New(logConfigFrom(cfg))
	cfgm.SetLogger(log.With(logx.String("comp", "config")))
	cfgm.SetValidator(validateReload)

	tcfg, err := telegramConfigFrom(cfg)
	if err != nil {
		_ = logs.Close()
		return nil, err
	}
	adapter, err := telegram.New(tcfg, log.With(logx.String("comp", "telegram")))
	if err != nil {
		_ = logs.Close()
		return nil, err
	}

	rcfg, err := relayConfigFrom(cfg)
	if err != nil {
		_ = logs.Close()
		return nil, err
	}
	dest := adapter.To(adapter.DestinationChat())
	r := relay.New(dest, rcfg, log.With(logx.String("comp", "relay")))

	gap, err := config.ParseDurationOrDefault("relay.throttle_gap", cfg.Relay.ThrottleGap, 0)
	if err != nil {
		_ = logs.Close()
		return nil, err
	}
	th := relay.NewThrottler(r, gap, log.With(logx.String("comp", "throttle")))

	h := httpapi.NewHandler(httpapi.Deps{
		Log:                    log.With(logx.String("comp", "http")),
		Relay:                  r,
		Batch:                  th,
		Direct:                 dest,
		Operator:               adapter.To(adapter.OperatorChat()),
		Pinger:                 adapter,
		MaxImages:              cfg.Relay.MaxImages,
		VerifyRetryOnSend:      cfg.Relay.VerifyRetryOnSend == nil || *cfg.Relay.VerifyRetryOnSend,
		ApplicationRetryOnSend: cfg.Relay.ApplicationRetryOnSend,
	})
	srv := httpapi.NewServer(cfg.Server.Addr, h, log.With(logx.String("comp", "http")))

	prof := pprof.New(pprof.Config{Enabled: cfg.Pprof.Enabled, Addr: cfg.Pprof.Addr}, log.With(logx.String("comp", "pprof")))

	shutdown, err := config.ParseDurationOrDefault("server.shutdown_timeout", cfg.Server.ShutdownTimeout, defaultShutdownTimeout)
	if err != nil {
		_ = logs.Close()
		return nil, err
	}

	return &App{
		cfgm:            cfgm,
		logs:            logs,
		log:             log,
		adapter:         adapter,
		relay:           r,
		throttle:        th,
		srv:             srv,
		prof:            prof,
		shutdownTimeout: shutdown,
		errCh:           make(chan error, 1),
	}, nil
}

// Start launches the config watcher, probes the bot API, and begins serving.
// It does not block; fatal server errors surface on Err().
func (a *App) Start(ctx context.Context) error {
	watchCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.cfgm.Watch(watchCtx); err != nil && watchCtx.Err() == nil {
			a.log.Error("config watch stopped", logx.Err(err))
		}
	}()

	sub := a.cfgm.Subscribe(1)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		for {
			select {
			case <-watchCtx.Done():
				a.cfgm.Unsubscribe(sub)
				return
			case cfg, ok := <-sub:
				if !ok {
					return
				}
				a.applyReload(watchCtx, cfg)
			}
		}
	}()

	a.probe(ctx)
	a.prof.Reconfigure(ctx, pprof.Config{Enabled: a.cfgm.Get().Pprof.Enabled, Addr: a.cfgm.Get().Pprof.Addr})

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.srv.Start(); err != nil {
			a.errCh <- err
		}
	}()
	return nil
}

// Err reports a fatal serve error.
func (a *App) Err() <-chan error { return a.errCh }

func (a *App) Stop(ctx context.Context) error {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	if a.cancel != nil {
		a.cancel()
	}

	shCtx, cancel := context.WithTimeout(ctx, a.shutdownTimeout)
	defer cancel()

	err := a.srv.Shutdown(shCtx)
	a.prof.Stop(shCtx)
	a.wg.Wait()
	a.log.Info("shutdown complete")
	_ = a.logs.Close()
	return err
}

// probe verifies the bot token against the API with a short bounded retry.
// Failure is logged, not fatal: the API may be briefly unreachable at boot
// and the relay's own retries cover the request path.
func (a *App) probe(ctx context.Context) {
	b := retry.WithMaxRetries(3, retry.NewExponential(500*time.Millisecond))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := a.adapter.Check(cctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		a.log.Warn("bot api probe failed, continuing", logx.Err(err))
		return
	}
	a.log.Info("bot api reachable")
}

// applyReload pushes a committed config into the hot-swappable components.
// The listen address and telegram credentials stay fixed for the process
// lifetime; changing those requires a restart.
func (a *App) applyReload(ctx context.Context, cfg *config.Config) {
	a.logs.Apply(logConfigFrom(cfg))

	rcfg, err := relayConfigFrom(cfg)
	if err != nil {
		a.log.Error("reload: bad relay config", logx.Err(err))
		return
	}
	a.relay.Apply(rcfg)

	gap, err := config.ParseDurationOrDefault("relay.throttle_gap", cfg.Relay.ThrottleGap, 0)
	if err != nil {
		a.log.Error("reload: bad throttle gap", logx.Err(err))
		return
	}
	a.throttle.Apply(gap)

	a.prof.Reconfigure(ctx, pprof.Config{Enabled: cfg.Pprof.Enabled, Addr: cfg.Pprof.Addr})
	a.log.Info("config reloaded")
}

// validateReload rejects a reloaded file before it is committed.
func validateReload(_ context.Context, cfg *config.Config) error {
	if _, err := relayConfigFrom(cfg); err != nil {
		return err
	}
	if _, err := config.ParseDurationOrDefault("relay.throttle_gap", cfg.Relay.ThrottleGap, 0); err != nil {
		return err
	}
	if _, err := config.ParseDurationOrDefault("server.shutdown_timeout", cfg.Server.ShutdownTimeout, defaultShutdownTimeout); err != nil {
		return err
	}
	return nil
}

func logConfigFrom(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

func relayConfigFrom(cfg *config.Config) (relay.Config, error) {
	base, err := config.ParseDurationOrDefault("relay.retry_base", cfg.Relay.RetryBase, 0)
	if err != nil {
		return relay.Config{}, err
	}
	return relay.Config{Retries: cfg.Relay.Retries, Base: base}, nil
}

func telegramConfigFrom(cfg *config.Config) (telegram.Config, error) {
	chatID, err := parseChatID("telegram.chat_id", cfg.Telegram.ChatID)
	if err != nil {
		return telegram.Config{}, err
	}
	var opID int64
	if strings.TrimSpace(cfg.Telegram.OperatorChatID) != "" {
		opID, err = parseChatID("telegram.operator_chat_id", cfg.Telegram.OperatorChatID)
		if err != nil {
			return telegram.Config{}, err
		}
	}
	timeout, err := config.ParseDurationOrDefault("telegram.timeout", cfg.Telegram.Timeout, defaultTelegramTimeout)
	if err != nil {
		return telegram.Config{}, err
	}
	return telegram.Config{
		Token:          cfg.Telegram.Token,
		ChatID:         chatID,
		OperatorChatID: opID,
		Timeout:        timeout,
		APIBase:        cfg.Telegram.APIBase,
	}, nil
}

func parseChatID(path, raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid chat id %q: %w", path, raw, err)
	}
	return id, nil
}
