// Package config loads the waypoint CLI and server configuration from a YAML
// or JSON file.
package config

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/urlpath"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Backend kinds.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// History modes.
const (
	ModeBrowser = "browser"
	ModeHash    = "hash"
)

// DefaultPath is the configuration file looked up when none is given.
const DefaultPath = "waypoint.yaml"

// Config is the root configuration document.
type Config struct {
	// Backend selects where session histories live: memory, file or redis.
	Backend string `mapstructure:"backend" json:"backend" yaml:"backend"`

	// Mode selects how locations are written: browser (durable URL) or hash.
	Mode string `mapstructure:"mode" json:"mode" yaml:"mode"`

	HashType string `mapstructure:"hash_type" json:"hash_type" yaml:"hash_type"`
	Base     string `mapstructure:"base" json:"base" yaml:"base"`

	// MaxEntries caps entries per session. Zero means unlimited.
	MaxEntries int `mapstructure:"max_entries" json:"max_entries" yaml:"max_entries"`

	LogLevel string `mapstructure:"log_level" json:"log_level" yaml:"log_level"`

	File  FileConfig  `mapstructure:"file" json:"file" yaml:"file"`
	Redis RedisConfig `mapstructure:"redis" json:"redis" yaml:"redis"`
	HTTP  HTTPConfig  `mapstructure:"http" json:"http" yaml:"http"`

	Security SecurityConfig `mapstructure:"security" json:"security" yaml:"security"`
}

// FileConfig configures the file backend.
type FileConfig struct {
	Path string `mapstructure:"path" json:"path" yaml:"path"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr" json:"addr" yaml:"addr"`
	Password string        `mapstructure:"password" json:"password" yaml:"password"`
	DB       int           `mapstructure:"db" json:"db" yaml:"db"`
	Prefix   string        `mapstructure:"prefix" json:"prefix" yaml:"prefix"`
	TTL      time.Duration `mapstructure:"ttl" json:"ttl" yaml:"ttl"`

	// Lock enables the distributed session lock.
	Lock bool `mapstructure:"lock" json:"lock" yaml:"lock"`
}

// HTTPConfig configures the serve command.
type HTTPConfig struct {
	Addr    string `mapstructure:"addr" json:"addr" yaml:"addr"`
	Metrics bool   `mapstructure:"metrics" json:"metrics" yaml:"metrics"`
}

// SecurityConfig configures how user state is written to storage.
type SecurityConfig struct {
	// EncryptionKey is a base64 encoded 32 byte AES key. Empty disables encryption.
	EncryptionKey string `mapstructure:"encryption_key" json:"encryption_key" yaml:"encryption_key"`

	// FallbackKeys are older base64 keys still accepted for decryption.
	FallbackKeys []string `mapstructure:"fallback_keys" json:"fallback_keys" yaml:"fallback_keys"`

	// MaskKeys are regular expressions; matching state keys are masked before storage.
	MaskKeys []string `mapstructure:"mask_keys" json:"mask_keys" yaml:"mask_keys"`
}

// Keys decodes the encryption keys. It returns a nil active key when
// encryption is disabled.
func (s SecurityConfig) Keys() (active []byte, fallback [][]byte, err error) {
	if s.EncryptionKey == "" {
		if len(s.FallbackKeys) > 0 {
			return nil, nil, fmt.Errorf("fallback_keys require an encryption_key")
		}
		return nil, nil, nil
	}
	active, err = decodeKey(s.EncryptionKey)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid encryption_key: %w", err)
	}
	for i, k := range s.FallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid fallback_keys[%d]: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key must be 32 bytes, got %d", len(key))
	}
	return key, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Backend:  BackendFile,
		Mode:     ModeBrowser,
		HashType: string(urlpath.HashSlash),
		LogLevel: "info",
		File: FileConfig{
			Path: filepath.Join(".waypoint", "sessions"),
		},
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "waypoint:history:",
		},
		HTTP: HTTPConfig{
			Addr:    ":8080",
			Metrics: true,
		},
	}
}

// Load reads path (YAML, or JSON by extension) over the defaults.
// A missing file at DefaultPath is not an error; any other missing file is.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	raw := map[string]interface{}{}
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	if err := Decode(raw, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode merges raw into cfg. Scalars are converted loosely ("3" for an int,
// "30s" for a duration) since YAML and JSON disagree on number types.
func Decode(raw map[string]interface{}, cfg *Config) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return fmt.Errorf("failed to create config decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Validate checks enumerations and ranges.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMemory, BackendFile, BackendRedis:
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownBackend, c.Backend)
	}
	switch c.Mode {
	case ModeBrowser, ModeHash:
	default:
		return fmt.Errorf("unknown mode %q (expected browser or hash)", c.Mode)
	}
	if _, err := urlpath.ParseHashType(c.HashType); err != nil {
		return err
	}
	if c.MaxEntries < 0 {
		return fmt.Errorf("max_entries must not be negative, got %d", c.MaxEntries)
	}
	if _, _, err := c.Security.Keys(); err != nil {
		return err
	}
	return nil
}
