package config

// Config is the on-disk configuration. Secrets (bot token, chat ids) are
// normally injected through the environment (see env.go) so the file can be
// committed without credentials.
//
// All durations are Go duration strings (e.g. "800ms", "1s", "10s").
type Config struct {
	Server   ServerConfig   `json:"server"`
	Telegram TelegramConfig `json:"telegram"`
	Relay    RelayConfig    `json:"relay"`
	Logging  LoggingConfig  `json:"logging"`
	Pprof    PprofConfig    `json:"pprof,omitempty"`
}

type ServerConfig struct {
	Addr string `json:"addr"`
	// ShutdownTimeout bounds graceful shutdown of in-flight requests.
	ShutdownTimeout string `json:"shutdown_timeout,omitempty"`
}

type TelegramConfig struct {
	Token string `json:"token"`
	// ChatID is the destination chat for relayed submissions.
	ChatID string `json:"chat_id"`
	// OperatorChatID receives best-effort failure notifications.
	// Defaults to ChatID when empty.
	OperatorChatID string `json:"operator_chat_id,omitempty"`
	// Timeout bounds each outbound API call.
	Timeout string `json:"timeout,omitempty"`
	// APIBase overrides the bot API host (tests, self-hosted bot API).
	APIBase string `json:"api_base,omitempty"`
}

// RelayConfig tunes the send-with-retry path and the photo batch throttle.
//
// VerifyRetryOnSend / ApplicationRetryOnSend keep the two submission paths'
// differing retry treatment an explicit choice instead of a silent
// inconsistency: the verification path retries by default, the application
// path does not.
type RelayConfig struct {
	Retries     int    `json:"retries,omitempty"`      // default 3 (total attempts)
	RetryBase   string `json:"retry_base,omitempty"`   // default "1s"; waits are base*1, base*2, ...
	ThrottleGap string `json:"throttle_gap,omitempty"` // default "800ms" between photos
	MaxImages   int    `json:"max_images,omitempty"`   // default 4 per camera side

	VerifyRetryOnSend      *bool `json:"verify_retry_on_send,omitempty"`      // default true
	ApplicationRetryOnSend bool  `json:"application_retry_on_send,omitempty"` // default false
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// PprofConfig controls the optional debug profiling listener.
// Prefer binding to localhost.
type PprofConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"` // default: "127.0.0.1:6060"
}

// Default returns the configuration used when no config file is given.
func Default() *Config {
	return &Config{
		Server:  ServerConfig{Addr: ":8080"},
		Logging: LoggingConfig{Level: "info", Console: true},
	}
}
