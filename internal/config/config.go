// Package config loads and caches the agent's on-disk configuration, with
// environment variables layered over the file the way cmux's worker CLI
// layers CMUX_* env vars over flag defaults via getenv(key, fallback).
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// Config holds everything that would otherwise be a CLI flag the user
// has to remember to pass every time.
type Config struct {
	APIKey       string `json:"api_key"`
	CDPAddr      string `json:"cdp_addr"`
	MaxSteps     int    `json:"max_steps"`
	MaxRetries   int    `json:"max_retries_per_step"`
	AutoComplete int    `json:"auto_complete_threshold"`
	ProgressAddr string `json:"progress_addr"`
	ConsoleAddr  string `json:"console_addr"`
	LogFile      string `json:"log_file"`
}

func defaults() Config {
	logPath := ""
	if d, err := dir(); err == nil {
		logPath = filepath.Join(d, "agent.log")
	}
	return Config{
		CDPAddr:      "localhost:9222",
		MaxSteps:     20,
		MaxRetries:   5,
		AutoComplete: 3,
		ProgressAddr: "127.0.0.1:7890",
		ConsoleAddr:  "127.0.0.1:2222",
		LogFile:      logPath,
	}
}

// store is a mutex-guarded read-through cache: Load reads the file once
// and env vars are applied on every call so a changed environment is
// picked up without restarting.
type store struct {
	mu  sync.Mutex
	cfg *Config
}

var global store

func dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "pc-automation-agent"), nil
}

func path() (string, error) {
	d, err := dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "config.json"), nil
}

// Load returns the cached config, reading config.json on first call and
// then re-applying environment overrides on every subsequent call.
func Load() (Config, error) {
	global.mu.Lock()
	defer global.mu.Unlock()

	if global.cfg == nil {
		cfg := defaults()
		if p, err := path(); err == nil {
			if raw, err := os.ReadFile(p); err == nil {
				_ = json.Unmarshal(raw, &cfg)
			}
		}
		global.cfg = &cfg
	}

	out := *global.cfg
	applyEnv(&out)
	return out, nil
}

func applyEnv(c *Config) {
	c.APIKey = getenv("PCAGENT_API_KEY", c.APIKey)
	c.CDPAddr = getenv("PCAGENT_CDP_ADDR", c.CDPAddr)
	c.ProgressAddr = getenv("PCAGENT_PROGRESS_ADDR", c.ProgressAddr)
	c.ConsoleAddr = getenv("PCAGENT_CONSOLE_ADDR", c.ConsoleAddr)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Save persists the API key (the only field the CLI lets the user set
// interactively) to config.json, creating the config directory if needed.
func Save(apiKey string) error {
	d, err := dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(d, 0o700); err != nil {
		return err
	}
	p, err := path()
	if err != nil {
		return err
	}

	global.mu.Lock()
	if global.cfg == nil {
		c := defaults()
		global.cfg = &c
	}
	global.cfg.APIKey = apiKey
	raw, err := json.Marshal(global.cfg)
	global.mu.Unlock()
	if err != nil {
		return err
	}
	return os.WriteFile(p, raw, 0o600)
}
