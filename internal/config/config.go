// Package config loads umlsmith service configuration from a TOML file and
// environment variables, and resolves per-request LLM provider settings.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const envPrefix = "UMLSMITH"

// Config is the service configuration loaded from defaults, config.toml, and env vars.
type Config struct {
	// HomeDir is runtime-resolved from UMLSMITH_HOME and not read from config.
	HomeDir string `mapstructure:"-"`
	// Path is the config file that was read, if any.
	Path   string       `mapstructure:"-"`
	Server ServerConfig `mapstructure:"server"`
	LLM    LLMConfig    `mapstructure:"llm"`
	Render RenderConfig `mapstructure:"render"`
	Env    EnvConfig    `mapstructure:"env"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Listen            string        `mapstructure:"listen"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes      int64         `mapstructure:"max_body_bytes"`
}

// LLMConfig holds sampling parameters shared by every provider. Provider
// selection and credentials come from the environment, see ResolveFromEnvironment.
type LLMConfig struct {
	Temperature    float64       `mapstructure:"temperature"`
	MaxTokens      int           `mapstructure:"max_tokens"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// RenderConfig points at the remote PlantUML server.
type RenderConfig struct {
	ServerURL string        `mapstructure:"server_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// EnvConfig lists dotenv files merged under the process environment on every request.
type EnvConfig struct {
	Files []string `mapstructure:"files"`
}

var defaultConfig = Config{
	Server: ServerConfig{
		Listen:            ":3000",
		ReadHeaderTimeout: 10 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		MaxBodyBytes:      1 << 20,
	},
	LLM: LLMConfig{
		Temperature:    0.7,
		MaxTokens:      2000,
		RequestTimeout: 120 * time.Second,
	},
	Render: RenderConfig{
		ServerURL: "https://www.plantuml.com/plantuml",
		Timeout:   15 * time.Second,
	},
	Env: EnvConfig{
		Files: []string{".env", ".env.local"},
	},
}

// Default returns a copy of the built-in configuration.
func Default() *Config {
	cfg := defaultConfig
	cfg.Env.Files = append([]string(nil), defaultConfig.Env.Files...)
	return &cfg
}

// homeDir returns the umlsmith home directory.
// Uses UMLSMITH_HOME env var if set, otherwise defaults to ~/.umlsmith.
func homeDir() (string, error) {
	if dir := os.Getenv("UMLSMITH_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return defaultHomePath(home), nil
}

// Load merges hardcoded defaults, the config file, and UMLSMITH_* env vars in that order.
// An empty path means $UMLSMITH_HOME/config.toml. A missing file is not an error.
func Load(path string) (*Config, error) {
	v, home, used, err := newViper(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	decodeHook := mapstructure.ComposeDecodeHookFunc(
		expandEnvStringHook(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)

	if err := v.Unmarshal(&cfg, func(c *mapstructure.DecoderConfig) {
		c.DecodeHook = decodeHook
	}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.HomeDir = home
	cfg.Path = used

	return &cfg, nil
}

// Write writes the merged configuration (defaults overlaid by user
// config) to w in TOML format.
func Write(w io.Writer, path string) error {
	if w == nil {
		return errors.New("writer is required")
	}

	v, _, _, err := newViper(path)
	if err != nil {
		return err
	}

	// Keep duration fields human-readable in generated TOML.
	v.Set("server.read_header_timeout", v.GetDuration("server.read_header_timeout").String())
	v.Set("server.shutdown_timeout", v.GetDuration("server.shutdown_timeout").String())
	v.Set("llm.request_timeout", v.GetDuration("llm.request_timeout").String())
	v.Set("render.timeout", v.GetDuration("render.timeout").String())

	if err := v.WriteConfigTo(w); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// newViper returns the loaded viper instance, the home dir, and the config
// file actually read ("" when none was found).
func newViper(path string) (*viper.Viper, string, string, error) {
	home, err := homeDir()
	if err != nil {
		return nil, "", "", err
	}
	if path == "" {
		path = homeConfigPath(home)
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, "", "", fmt.Errorf("read config file: %w", err)
		}
		return v, home, "", nil
	}
	return v, home, v.ConfigFileUsed(), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen", defaultConfig.Server.Listen)
	v.SetDefault("server.read_header_timeout", defaultConfig.Server.ReadHeaderTimeout)
	v.SetDefault("server.shutdown_timeout", defaultConfig.Server.ShutdownTimeout)
	v.SetDefault("server.max_body_bytes", defaultConfig.Server.MaxBodyBytes)

	v.SetDefault("llm.temperature", defaultConfig.LLM.Temperature)
	v.SetDefault("llm.max_tokens", defaultConfig.LLM.MaxTokens)
	v.SetDefault("llm.request_timeout", defaultConfig.LLM.RequestTimeout)

	v.SetDefault("render.server_url", defaultConfig.Render.ServerURL)
	v.SetDefault("render.timeout", defaultConfig.Render.Timeout)

	v.SetDefault("env.files", defaultConfig.Env.Files)
}

func expandEnvStringHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to.Kind() != reflect.String {
			return data, nil
		}
		value, ok := data.(string)
		if !ok {
			return data, nil
		}
		return os.ExpandEnv(value), nil
	}
}
