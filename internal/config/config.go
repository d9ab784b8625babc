package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"github.com/andres10976/homework-bot/internal/service/statusapi"
)

// ErrMissingCredentials is returned by Validate when a required variable is unset.
var ErrMissingCredentials = errors.New("missing required environment variables")

type Config struct {
	// Credentials are read from the environment only.
	PracticumToken string `toml:"-"` // PRACTICUM_TOKEN (required)
	TelegramToken  string `toml:"-"` // TELEGRAM_TOKEN (required)
	TelegramChatID string `toml:"-"` // TELEGRAM_CHAT_ID (required)

	Endpoint            string        `toml:"endpoint"`              // PRACTICUM_ENDPOINT
	PollInterval        time.Duration `toml:"poll_interval"`         // POLL_INTERVAL (default 600s)
	RequestTimeout      time.Duration `toml:"request_timeout"`       // REQUEST_TIMEOUT (default 30s)
	TelegramAPIEndpoint string        `toml:"telegram_api_endpoint"` // TELEGRAM_API_ENDPOINT
	NotifyAll           bool          `toml:"notify_all"`            // NOTIFY_ALL

	LogLevel  string `toml:"log_level"`  // LOG_LEVEL (default "info")
	LogFormat string `toml:"log_format"` // LOG_FORMAT (default "console")
	LogFile   string `toml:"log_file"`   // LOG_FILE (default "homework-bot.log")
	LogStdout bool   `toml:"log_stdout"` // LOG_STDOUT (default true)

	// OpsAddr enables the health/metrics listener when set, e.g. ":9100".
	OpsAddr string `toml:"ops_addr"` // OPS_ADDR

	// Warnings lists env values that were ignored as invalid. Load runs
	// before the logger exists, so the caller logs them.
	Warnings []string `toml:"-"`
}

// Options selects the optional files Load reads.
type Options struct {
	File    string // TOML file with non-secret settings
	EnvFile string // dotenv file; existing process variables win
}

func Default() *Config {
	return &Config{
		Endpoint:            statusapi.DefaultEndpoint,
		PollInterval:        600 * time.Second,
		RequestTimeout:      30 * time.Second,
		TelegramAPIEndpoint: tgbotapi.APIEndpoint,
		LogLevel:            "info",
		LogFormat:           "console",
		LogFile:             "homework-bot.log",
		LogStdout:           true,
	}
}

// Load layers defaults, the TOML file, the dotenv file and the process
// environment, in that order of increasing precedence.
func Load(opts Options) (*Config, error) {
	c := Default()

	if opts.File != "" {
		if _, err := toml.DecodeFile(opts.File, c); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", opts.File, err)
		}
	}

	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read env file %s: %w", opts.EnvFile, err)
		}
	}

	c.PracticumToken = os.Getenv("PRACTICUM_TOKEN")
	c.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	c.TelegramChatID = os.Getenv("TELEGRAM_CHAT_ID")

	c.Endpoint = getEnv("PRACTICUM_ENDPOINT", c.Endpoint)
	c.PollInterval = c.getDuration("POLL_INTERVAL", c.PollInterval)
	c.RequestTimeout = c.getDuration("REQUEST_TIMEOUT", c.RequestTimeout)
	c.TelegramAPIEndpoint = getEnv("TELEGRAM_API_ENDPOINT", c.TelegramAPIEndpoint)
	c.NotifyAll = c.getBool("NOTIFY_ALL", c.NotifyAll)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
	c.LogFile = getEnv("LOG_FILE", c.LogFile)
	c.LogStdout = c.getBool("LOG_STDOUT", c.LogStdout)
	c.OpsAddr = getEnv("OPS_ADDR", c.OpsAddr)

	if c.PollInterval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %v", c.PollInterval)
	}
	if strings.Count(c.TelegramAPIEndpoint, "%s") != 2 {
		return nil, fmt.Errorf("telegram API endpoint %q must contain two %%s verbs", c.TelegramAPIEndpoint)
	}
	return c, nil
}

// Validate reports the required credentials that are not set.
func (c *Config) Validate() error {
	var missing []string
	if c.PracticumToken == "" {
		missing = append(missing, "PRACTICUM_TOKEN")
	}
	if c.TelegramToken == "" {
		missing = append(missing, "TELEGRAM_TOKEN")
	}
	if c.TelegramChatID == "" {
		missing = append(missing, "TELEGRAM_CHAT_ID")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (c *Config) getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		c.Warnings = append(c.Warnings, fmt.Sprintf("invalid duration %s=%q, using %v", key, v, fallback))
		return fallback
	}
	return d
}

func (c *Config) getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		c.Warnings = append(c.Warnings, fmt.Sprintf("invalid boolean %s=%q, using %v", key, v, fallback))
		return fallback
	}
	return b
}
