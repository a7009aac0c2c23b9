package config

import (
	"errors"
	"os"
	"strings"
)

// Environment overrides. These win over anything in the config file so
// deployments can keep secrets out of it entirely.
const (
	EnvBotToken       = "FORMRELAY_BOT_TOKEN"
	EnvChatID         = "FORMRELAY_CHAT_ID"
	EnvOperatorChatID = "FORMRELAY_OPERATOR_CHAT_ID"
	EnvAddr           = "FORMRELAY_ADDR"
)

var (
	ErrMissingToken = errors.New("telegram bot token is not set (telegram.token or " + EnvBotToken + ")")
	ErrMissingChat  = errors.New("telegram chat id is not set (telegram.chat_id or " + EnvChatID + ")")
)

// ApplyEnv overlays environment variables onto cfg.
func ApplyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvBotToken)); v != "" {
		cfg.Telegram.Token = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvChatID)); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvOperatorChatID)); v != "" {
		cfg.Telegram.OperatorChatID = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAddr)); v != "" {
		cfg.Server.Addr = v
	}
}

// ValidateSecrets reports whether the config can meaningfully serve the
// submission paths. Absence of either secret at startup is fatal.
func ValidateSecrets(cfg *Config) error {
	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		return ErrMissingToken
	}
	if strings.TrimSpace(cfg.Telegram.ChatID) == "" {
		return ErrMissingChat
	}
	return nil
}
