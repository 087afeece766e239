// Package config loads ensprefs settings from a TOML file overlaid with
// ENSPREFS_* environment variables. Command line flags are applied on top
// by the cmd package.
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	jarviscommon "github.com/tranvictor/ensprefs/common"
	"github.com/tranvictor/ensprefs/prefs"
)

const (
	EnvPrefix    = "ENSPREFS_"
	DirName      = ".ensprefs"
	FileName     = "config.toml"
	NetworksDir  = "networks"
	DefaultPort  = ":8080"
	DefaultLevel = "info"
)

var ErrInvalidConfig = errors.New("invalid config")

type Server struct {
	Listen            string        `toml:"Listen" env:"LISTEN"`
	CacheTTL          time.Duration `toml:"CacheTTL" env:"CACHE_TTL"`
	RequestsPerMinute float64       `toml:"RequestsPerMinute" env:"RATE_PER_MINUTE"`
	Burst             int           `toml:"Burst" env:"BURST"`
	LogRequests       bool          `toml:"LogRequests" env:"LOG_REQUESTS"`
	// TrustedProxies are the ips or CIDRs allowed to set X-Forwarded-For.
	TrustedProxies []string `toml:"TrustedProxies" env:"TRUSTED_PROXIES"`
}

type Log struct {
	Level      string `toml:"Level" env:"LEVEL"`
	Format     string `toml:"Format" env:"FORMAT"`
	File       string `toml:"File" env:"FILE"`
	MaxSizeMB  int    `toml:"MaxSizeMB" env:"MAX_SIZE_MB"`
	MaxBackups int    `toml:"MaxBackups" env:"MAX_BACKUPS"`
	MaxAgeDays int    `toml:"MaxAgeDays" env:"MAX_AGE_DAYS"`
}

type Confirm struct {
	PollInterval time.Duration `toml:"PollInterval" env:"POLL_INTERVAL"`
	LostAfter    time.Duration `toml:"LostAfter" env:"LOST_AFTER"`
}

// Signer secrets are only read from the environment, never from or to the
// config file.
type Signer struct {
	PrivateKey string `toml:"-" env:"PRIVATE_KEY"`
	Keystore   string `toml:"Keystore" env:"KEYSTORE"`
	Password   string `toml:"-" env:"KEYSTORE_PASSWORD"`
}

type Config struct {
	Network        string        `toml:"Network" env:"NETWORK"`
	Nodes          []string      `toml:"Nodes" env:"NODES"`
	Registry       string        `toml:"Registry" env:"REGISTRY"`
	Resolver       string        `toml:"Resolver" env:"RESOLVER"`
	RequestTimeout time.Duration `toml:"RequestTimeout" env:"REQUEST_TIMEOUT"`
	VerifyForward  bool          `toml:"VerifyForward" env:"VERIFY_FORWARD"`
	SavePolicy     string        `toml:"SavePolicy" env:"SAVE_POLICY"`

	Server  Server  `toml:"Server" envPrefix:"SERVER_"`
	Log     Log     `toml:"Log" envPrefix:"LOG_"`
	Confirm Confirm `toml:"Confirm" envPrefix:"CONFIRM_"`
	Signer  Signer  `toml:"Signer" envPrefix:"SIGNER_"`
}

func Default() *Config {
	return &Config{
		Network:        "mainnet",
		RequestTimeout: 10 * time.Second,
		VerifyForward:  true,
		SavePolicy:     prefs.SaveAll.String(),
		Server: Server{
			Listen:            DefaultPort,
			CacheTTL:          30 * time.Second,
			RequestsPerMinute: 120,
			Burst:             20,
			LogRequests:       true,
		},
		Log: Log{
			Level:      DefaultLevel,
			Format:     "text",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Confirm: Confirm{
			PollInterval: 5 * time.Second,
			LostAfter:    3 * time.Minute,
		},
	}
}

// Dir is ~/.ensprefs, or ./.ensprefs when the home directory is unknown.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DirName
	}
	return filepath.Join(home, DirName)
}

func DefaultPath() string {
	return filepath.Join(Dir(), FileName)
}

// Load reads path over the defaults, then applies the environment. A
// missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			meta, err := toml.DecodeFile(path, cfg)
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", path, err)
			}
			if undecoded := meta.Undecoded(); len(undecoded) > 0 {
				keys := make([]string, len(undecoded))
				for i, k := range undecoded {
					keys[i] = k.String()
				}
				return nil, fmt.Errorf("%w: %s has unknown keys: %s", ErrInvalidConfig, path, strings.Join(keys, ", "))
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}
	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func ParseEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Network) == "" {
		return fmt.Errorf("%w: network is empty", ErrInvalidConfig)
	}
	for name, addr := range map[string]string{"registry": c.Registry, "resolver": c.Resolver} {
		if addr != "" && !jarviscommon.IsAddress(addr) {
			return fmt.Errorf("%w: %s %q is not an address", ErrInvalidConfig, name, addr)
		}
	}
	if _, err := c.Policy(); err != nil {
		return err
	}
	if c.RequestTimeout < 0 || c.Confirm.PollInterval < 0 || c.Confirm.LostAfter < 0 {
		return fmt.Errorf("%w: durations must not be negative", ErrInvalidConfig)
	}
	for _, proxy := range c.Server.TrustedProxies {
		if _, err := netip.ParsePrefix(proxy); err == nil {
			continue
		}
		if _, err := netip.ParseAddr(proxy); err != nil {
			return fmt.Errorf("%w: trusted proxy %q is not an ip or CIDR", ErrInvalidConfig, proxy)
		}
	}
	if c.Server.CacheTTL < 0 {
		return fmt.Errorf("%w: cache ttl must not be negative", ErrInvalidConfig)
	}
	return nil
}

func (c *Config) Policy() (prefs.SavePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(c.SavePolicy)) {
	case "", prefs.SaveAll.String():
		return prefs.SaveAll, nil
	case prefs.SaveChanged.String():
		return prefs.SaveChanged, nil
	}
	return prefs.SaveAll, fmt.Errorf("%w: save policy %q, want %q or %q", ErrInvalidConfig, c.SavePolicy, prefs.SaveAll, prefs.SaveChanged)
}

// Save writes cfg to path, creating its directory.
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}
