package config

import "path/filepath"

const (
	// Layout under UMLSMITH_HOME.
	ConfigFilePath = "config.toml"
	HistoryFile    = "chat_history"
)

func homeConfigPath(home string) string {
	return filepath.Join(home, ConfigFilePath)
}

func defaultHomePath(home string) string {
	return filepath.Join(home, ".umlsmith")
}

// ConfigPath returns the default config file location under HomeDir.
func (c *Config) ConfigPath() string {
	return homeConfigPath(c.HomeDir)
}

// HistoryPath is where the chat REPL keeps its readline history.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.HomeDir, HistoryFile)
}
