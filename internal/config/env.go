package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Env is an immutable snapshot of environment variables.
type Env map[string]string

// Get returns the first non-empty value among keys.
func (e Env) Get(keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(e[key]); v != "" {
			return v
		}
	}
	return ""
}

// EnvFromOS snapshots the process environment.
func EnvFromOS() Env {
	env := Env{}
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		env[key] = value
	}
	return env
}

// LoadEnv merges dotenv files in order (later files win) and overlays the
// process environment on top. Missing files are skipped.
func LoadEnv(files ...string) (Env, error) {
	env := Env{}
	for _, path := range files {
		if strings.TrimSpace(path) == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read env file %s: %w", path, err)
		}
		parsed, err := godotenv.Unmarshal(string(data))
		if err != nil {
			return nil, fmt.Errorf("parse env file %s: %w", path, err)
		}
		for k, v := range parsed {
			env[k] = v
		}
	}
	for k, v := range EnvFromOS() {
		env[k] = v
	}
	return env, nil
}

// EnvSource returns a loader that re-reads files and the process environment on each call.
func (c *Config) EnvSource() func() (Env, error) {
	files := append([]string(nil), c.Env.Files...)
	return func() (Env, error) {
		return LoadEnv(files...)
	}
}
