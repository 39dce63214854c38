package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"mwork_chat/internal/validator"
	"mwork_chat/pkg/apperrors"
)

type Config struct {
	Server struct {
		APIBaseURL string `yaml:"api_base_url" validate:"required,url"`
		WSBaseURL  string `yaml:"ws_base_url" validate:"required,is-ws-url"`
		Token      string `yaml:"token"`
	} `yaml:"server"`

	Chat struct {
		ReconnectAttempts     int  `yaml:"reconnect_attempts" validate:"min=1"`
		ReconnectDelayMS      int  `yaml:"reconnect_delay_ms" validate:"min=1"`
		TypingDebounceMS      int  `yaml:"typing_debounce_ms" validate:"min=1"`
		RemoteTypingTimeoutMS int  `yaml:"remote_typing_timeout_ms" validate:"min=1"`
		ResyncOnReconnect     bool `yaml:"resync_on_reconnect"`
	} `yaml:"chat"`

	Upload struct {
		MaxSize      int64    `yaml:"max_size"`
		AllowedTypes []string `yaml:"allowed_types" validate:"dive,is-mime-type"`
	} `yaml:"upload"`
}

var validate = validator.New()

// Default returns the stock tuning: 5 attempts at 1s, 500ms typing
// debounce, 10s remote typing timeout, no automatic resync on reconnect.
func Default() *Config {
	var cfg Config
	cfg.Server.APIBaseURL = "http://localhost:4000"
	cfg.Server.WSBaseURL = "ws://localhost:4000/ws"
	cfg.Chat.ReconnectAttempts = 5
	cfg.Chat.ReconnectDelayMS = 1000
	cfg.Chat.TypingDebounceMS = 500
	cfg.Chat.RemoteTypingTimeoutMS = 10000
	cfg.Upload.MaxSize = 10 * 1024 * 1024 // 10MB
	cfg.Upload.AllowedTypes = []string{
		"image/jpeg", "image/png", "image/gif", "image/webp",
		"application/pdf",
	}
	return &cfg
}

// Load reads the yaml config at path (CONFIG_PATH or config/config.yaml if
// empty), applies env overrides and validates the result. A missing file
// is not an error: defaults plus env are enough for the client.
func Load(path string, log *zap.Logger) (*Config, error) {
	if log == nil {
		log = zap.NewNop()
	}
	// Best effort: a .env file is a dev convenience, not a requirement.
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "config/config.yaml"
	}

	cfg := Default()
	if f, err := os.Open(path); err == nil {
		decoder := yaml.NewDecoder(f)
		decodeErr := decoder.Decode(cfg)
		f.Close()
		if decodeErr != nil {
			return nil, apperrors.Wrap(decodeErr, apperrors.CodeValidationFailed, "config", "failed to parse "+path)
		}
		log.Info("config loaded", zap.String("path", path))
	} else {
		log.Info("config file not found, using defaults", zap.String("path", path))
	}

	applyEnv(cfg)

	if err := validate.Struct(cfg); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeValidationFailed, "config", "invalid configuration")
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("MWORK_API_URL"); v != "" {
		cfg.Server.APIBaseURL = v
	}
	if v := os.Getenv("MWORK_WS_URL"); v != "" {
		cfg.Server.WSBaseURL = v
	}
	if v := os.Getenv("MWORK_TOKEN"); v != "" {
		cfg.Server.Token = v
	}
	if v := os.Getenv("MWORK_RECONNECT_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Chat.ReconnectAttempts = n
		}
	}
	if v := os.Getenv("MWORK_RECONNECT_DELAY_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Chat.ReconnectDelayMS = n
		}
	}
}

func (c *Config) ReconnectDelay() time.Duration {
	return time.Duration(c.Chat.ReconnectDelayMS) * time.Millisecond
}

func (c *Config) TypingDebounce() time.Duration {
	return time.Duration(c.Chat.TypingDebounceMS) * time.Millisecond
}

func (c *Config) RemoteTypingTimeout() time.Duration {
	return time.Duration(c.Chat.RemoteTypingTimeoutMS) * time.Millisecond
}
