package cleanblog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// SiteConfig holds all configuration for a cleanblog site.
type SiteConfig struct {
	Name        string `toml:"name"`        // Site name (default "Clean Blog")
	URL         string `toml:"url"`         // Canonical URL (default "http://localhost:5000")
	Description string `toml:"description"` // Site description for RSS and meta tags

	Addr         string `toml:"addr"`          // Listen address (default ":5000")
	DatabasePath string `toml:"database_path"` // SQLite path (default "data/posts.db")
	UploadDir    string `toml:"upload_dir"`    // Uploaded header images (default "data/uploads")
	LogLevel     string `toml:"log_level"`     // debug, info, warn, error (default "info")

	SessionSecret string `toml:"session_secret"` // Required: session encryption secret
	CookieSecure  bool   `toml:"cookie_secure"`  // Set true for HTTPS

	SubmitLimit  int           `toml:"submit_limit"`  // Form posts per IP per window (0 means 30, negative disables)
	SubmitWindow time.Duration `toml:"submit_window"` // Limiter window (default 1m)
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Clean Blog"
	}
	if c.URL == "" {
		c.URL = "http://localhost:5000"
	}
	c.URL = strings.TrimSuffix(c.URL, "/")
	if c.Addr == "" {
		c.Addr = ":5000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/posts.db"
	}
	if c.UploadDir == "" {
		c.UploadDir = "data/uploads"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.SubmitLimit == 0 {
		c.SubmitLimit = 30
	}
	if c.SubmitWindow == 0 {
		c.SubmitWindow = time.Minute
	}
}

// LoadConfig reads the TOML file at path, if it exists, and then applies
// CLEANBLOG_* environment overrides. An empty path skips the file.
func LoadConfig(path string) (SiteConfig, error) {
	var cfg SiteConfig
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return SiteConfig{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return SiteConfig{}, err
	}
	cfg.setDefaults()
	return cfg, nil
}

func (c *SiteConfig) applyEnv() error {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString("CLEANBLOG_SITE_NAME", &c.Name)
	setString("CLEANBLOG_SITE_URL", &c.URL)
	setString("CLEANBLOG_SITE_DESCRIPTION", &c.Description)
	setString("CLEANBLOG_ADDR", &c.Addr)
	setString("CLEANBLOG_DATABASE_PATH", &c.DatabasePath)
	setString("CLEANBLOG_UPLOAD_DIR", &c.UploadDir)
	setString("CLEANBLOG_LOG_LEVEL", &c.LogLevel)
	setString("CLEANBLOG_SESSION_SECRET", &c.SessionSecret)
	if v := os.Getenv("CLEANBLOG_COOKIE_SECURE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CLEANBLOG_COOKIE_SECURE: %w", err)
		}
		c.CookieSecure = b
	}
	if v := os.Getenv("CLEANBLOG_SUBMIT_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CLEANBLOG_SUBMIT_LIMIT: %w", err)
		}
		c.SubmitLimit = n
	}
	return nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithStore makes the App use an already opened store instead of opening
// DatabasePath on Start. The App still closes it.
func WithStore(s *Store) Option {
	return func(a *App) {
		a.Store = s
	}
}

// WithStoreOptions passes options to NewStore when Start opens the database.
func WithStoreOptions(opts ...StoreOption) Option {
	return func(a *App) {
		a.storeOpts = append(a.storeOpts, opts...)
	}
}
