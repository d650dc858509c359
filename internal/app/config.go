package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds runtime wiring options, loaded from journal.toml with flag
// overrides applied by the CLI.
type Config struct {
	Relays      []string `toml:"relays"`
	DataDir     string   `toml:"data_dir"`
	LogLevel    string   `toml:"log_level"`
	Permissions []string `toml:"permissions"`

	App      AppInfo  `toml:"app"`
	Timeouts Timeouts `toml:"timeouts"`
}

// AppInfo is the metadata shown to the key holder during approval.
type AppInfo struct {
	Name        string `toml:"name"`
	Description string `toml:"description"`
}

// Timeouts bounds the protocol's waiting states, in seconds.
type Timeouts struct {
	HandshakeSeconds int `toml:"handshake_seconds"`
	CallSeconds      int `toml:"call_seconds"`
	ResumeSeconds    int `toml:"resume_seconds"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return Config{
		Relays:      []string{"http://127.0.0.1:8080"},
		DataDir:     filepath.Join(home, ".journal"),
		LogLevel:    "info",
		Permissions: []string{"sign", "encrypt", "decrypt"},
		App: AppInfo{
			Name:        "journal",
			Description: "encrypted journal with remote signing",
		},
		Timeouts: Timeouts{
			HandshakeSeconds: 120,
			CallSeconds:      60,
			ResumeSeconds:    10,
		},
	}
}

// Load reads path over the defaults. A missing file is fine; a present but
// unreadable or invalid one is not.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

func (t Timeouts) Handshake() time.Duration {
	return time.Duration(t.HandshakeSeconds) * time.Second
}
func (t Timeouts) Call() time.Duration { return time.Duration(t.CallSeconds) * time.Second }
func (t Timeouts) Resume() time.Duration {
	return time.Duration(t.ResumeSeconds) * time.Second
}
