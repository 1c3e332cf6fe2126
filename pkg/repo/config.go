package repo

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/odvcencio/twig/pkg/fsys"
	"github.com/odvcencio/twig/pkg/object"
)

// Config holds repository-local settings from .twig/config.toml.
type Config struct {
	User UserConfig `toml:"user"`
	Core CoreConfig `toml:"core"`
}

// UserConfig is the identity recorded in commits.
type UserConfig struct {
	Name  string `toml:"name"`
	Email string `toml:"email"`
}

// CoreConfig holds storage settings.
type CoreConfig struct {
	Compression bool `toml:"compression"` // zstd-compress new objects
}

// Environment variables that override the configured identity.
const (
	EnvAuthorName  = "TWIG_AUTHOR_NAME"
	EnvAuthorEmail = "TWIG_AUTHOR_EMAIL"
)

// DefaultConfig returns the settings used when config.toml is absent.
func DefaultConfig() *Config {
	return &Config{Core: CoreConfig{Compression: true}}
}

func configPath(dir string) string {
	return filepath.Join(dir, "config.toml")
}

// ReadConfig reads dir/config.toml on top of the defaults. A missing file
// returns the defaults; unknown keys are rejected.
func ReadConfig(fs fsys.FS, dir string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := fs.ReadFile(configPath(dir))
	if err != nil {
		if fsys.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("read config: unknown keys: %s", strings.Join(keys, ", "))
	}
	return cfg, nil
}

// WriteConfig atomically writes dir/config.toml.
func WriteConfig(fs fsys.FS, dir string, cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("write config: encode: %w", err)
	}
	if err := fs.WriteAtomic(configPath(dir), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Identity returns the commit identity at the given time. The environment
// overrides the configured name and email.
func (c *Config) Identity(when time.Time) (object.Identity, error) {
	name, email := c.User.Name, c.User.Email
	if v := strings.TrimSpace(os.Getenv(EnvAuthorName)); v != "" {
		name = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAuthorEmail)); v != "" {
		email = v
	}
	if name == "" || email == "" {
		return object.Identity{}, fmt.Errorf("%w: set user.name and user.email in config.toml or %s/%s",
			ErrIdentityMissing, EnvAuthorName, EnvAuthorEmail)
	}
	return object.Identity{
		Name:  name,
		Email: email,
		When:  when.Unix(),
		TZ:    when.Format("-0700"),
	}, nil
}
