package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvPrefix = "ASST"

	configName = "config"
	configType = "toml"
	configDir  = ".config/asst"
)

const (
	KeyBaseURL        = "base_url"
	KeyBusinessKey    = "business_key"
	KeyProfile        = "profile"
	KeyRequestTimeout = "request_timeout"
	KeyLogLevel       = "log.level"
	KeyLogFile        = "log.file"
	KeySessionsPath   = "sessions.path"
	KeySessionsStore  = "sessions.store"
	KeyStubListen     = "stub.listen"
	KeyStubOllamaURL  = "stub.ollama_url"
	KeyStubModel      = "stub.ollama_model"
	KeyStubTokenDelay = "stub.token_delay"
)

const (
	DefaultBaseURL     = "http://127.0.0.1:8848"
	DefaultProfile     = "default"
	DefaultStubListen  = "127.0.0.1:8848"
	SessionStoreFile   = "file"
	SessionStoreMemory = "memory"
	defaultTimeout     = 30 * time.Second
	defaultTokenDelay  = 40 * time.Millisecond
	defaultLogLevel    = "warn"
	defaultOllamaModel = "llama3.2"
)

type Config struct {
	BaseURL        string
	BusinessKey    string
	Profile        string
	RequestTimeout time.Duration
	Log            LogConfig
	SessionsPath   string
	SessionsStore  string
	Stub           StubConfig
}

type LogConfig struct {
	Level string
	File  string
}

type StubConfig struct {
	Listen      string
	OllamaURL   string
	OllamaModel string
	TokenDelay  time.Duration
}

// New returns a viper instance with defaults, the config file location under
// home and ASST_ environment overrides. A missing home leaves only defaults
// and the environment.
func New(home string) *viper.Viper {
	v := viper.New()

	v.SetConfigName(configName)
	v.SetConfigType(configType)
	if home != "" {
		v.AddConfigPath(filepath.Join(home, configDir))
		v.SetDefault(KeySessionsPath, filepath.Join(home, configDir, "sessions.toml"))
	}

	v.SetDefault(KeyBaseURL, DefaultBaseURL)
	v.SetDefault(KeyProfile, DefaultProfile)
	v.SetDefault(KeyRequestTimeout, defaultTimeout)
	v.SetDefault(KeyLogLevel, defaultLogLevel)
	v.SetDefault(KeySessionsStore, SessionStoreFile)
	v.SetDefault(KeyStubListen, DefaultStubListen)
	v.SetDefault(KeyStubModel, defaultOllamaModel)
	v.SetDefault(KeyStubTokenDelay, defaultTokenDelay)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// NewDefault is New rooted at the user's home directory.
func NewDefault() *viper.Viper {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return New(home)
}

// Load reads the config file, if any, and validates the result.
func Load(v *viper.Viper) (Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := Config{
		BaseURL:        strings.TrimRight(strings.TrimSpace(v.GetString(KeyBaseURL)), "/"),
		BusinessKey:    strings.TrimSpace(v.GetString(KeyBusinessKey)),
		Profile:        strings.TrimSpace(v.GetString(KeyProfile)),
		RequestTimeout: v.GetDuration(KeyRequestTimeout),
		Log: LogConfig{
			Level: v.GetString(KeyLogLevel),
			File:  v.GetString(KeyLogFile),
		},
		SessionsPath:  v.GetString(KeySessionsPath),
		SessionsStore: strings.ToLower(strings.TrimSpace(v.GetString(KeySessionsStore))),
		Stub: StubConfig{
			Listen:      v.GetString(KeyStubListen),
			OllamaURL:   v.GetString(KeyStubOllamaURL),
			OllamaModel: v.GetString(KeyStubModel),
			TokenDelay:  v.GetDuration(KeyStubTokenDelay),
		},
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	parsed, err := url.Parse(c.BaseURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("invalid %s %q: must be an http or https url", KeyBaseURL, c.BaseURL)
	}
	if c.Profile == "" {
		return fmt.Errorf("%s must not be empty", KeyProfile)
	}
	if c.SessionsStore != SessionStoreFile && c.SessionsStore != SessionStoreMemory {
		return fmt.Errorf("invalid %s %q: must be %q or %q", KeySessionsStore, c.SessionsStore, SessionStoreFile, SessionStoreMemory)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%s must be positive", KeyRequestTimeout)
	}
	if c.Stub.TokenDelay < 0 {
		return fmt.Errorf("%s must not be negative", KeyStubTokenDelay)
	}

	return nil
}
