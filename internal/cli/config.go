package cli

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

const (
	maxWalkDepth = 25
)

// Supported values for enumerated settings.
var (
	Drivers = []string{"pgx", "postgres"}
	Formats = []string{"text", "json", "yaml"}
)

// Config represents the sqlast configuration from sqlast.yaml.
type Config struct {
	Database DatabaseConfig `mapstructure:"database" json:"database"`
	Log      LogConfig      `mapstructure:"log" json:"log"`

	// Per-command configuration
	Render RenderConfig `mapstructure:"render" json:"render"`
	Exec   ExecConfig   `mapstructure:"exec" json:"exec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	URL            string `mapstructure:"url" json:"url,omitempty"`
	Driver         string `mapstructure:"driver" json:"driver"`
	Host           string `mapstructure:"host" json:"host,omitempty"`
	Port           int    `mapstructure:"port" json:"port"`
	Name           string `mapstructure:"name" json:"name,omitempty"`
	User           string `mapstructure:"user" json:"user,omitempty"`
	Password       string `mapstructure:"password" json:"-"`
	SSLMode        string `mapstructure:"sslmode" json:"sslmode"`
	MaxConcurrency int    `mapstructure:"max_concurrency" json:"max_concurrency"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level" json:"level"`
}

// RenderConfig holds render command settings.
type RenderConfig struct {
	Verify bool   `mapstructure:"verify" json:"verify"`
	Format string `mapstructure:"format" json:"format"`
}

// ExecConfig holds exec command settings.
type ExecConfig struct {
	Timeout time.Duration `mapstructure:"timeout" json:"timeout"`
}

// LoadConfig discovers and loads configuration with proper precedence:
// flags > env > config file > defaults.
//
// Returns the loaded config, the path to the config file (empty if none found),
// and any error encountered.
func LoadConfig(explicitConfigPath string) (*Config, string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, "", fmt.Errorf("getting cwd: %w", err)
	}
	home, _ := os.UserHomeDir()
	return loadConfig(afero.NewOsFs(), explicitConfigPath, cwd, home)
}

func loadConfig(fs afero.Fs, explicitConfigPath, cwd, home string) (*Config, string, error) {
	v := viper.New()
	v.SetFs(fs)

	// 1. Set defaults first (lowest precedence)
	setDefaults(v)

	// 2. Set up environment variable binding
	v.SetEnvPrefix("SQLAST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 3. Find and load config file
	configPath, err := findConfigFile(fs, explicitConfigPath, cwd, home)
	if err != nil {
		return nil, "", err
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, configPath, fmt.Errorf("reading config file: %w", err)
		}
	}

	// 4. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, configPath, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, configPath, err
	}

	return &cfg, configPath, nil
}

func setDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.url", "")
	v.SetDefault("database.driver", "pgx")
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.sslmode", "prefer")
	v.SetDefault("database.max_concurrency", 4)

	v.SetDefault("log.level", "info")

	// Render defaults
	v.SetDefault("render.verify", false)
	v.SetDefault("render.format", "text")

	// Exec defaults
	v.SetDefault("exec.timeout", 30*time.Second)
}

// findConfigFile finds the config file to use.
// If explicitPath is provided, it validates the file exists.
// Otherwise, it walks up from cwd looking for sqlast.yaml or sqlast.yml,
// stopping at a .git directory or after maxWalkDepth levels, and then
// tries $HOME/.config/sqlast.
func findConfigFile(fs afero.Fs, explicitPath, cwd, home string) (string, error) {
	if explicitPath != "" {
		if _, err := fs.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	// Auto-discovery: walk up to .git or maxWalkDepth
	dir := cwd
	for range maxWalkDepth {
		if path := configIn(fs, dir); path != "" {
			return path, nil
		}

		// Check for repo boundary (.git file or directory)
		if _, err := fs.Stat(filepath.Join(dir, ".git")); err == nil {
			break // Stop at repo root
		}

		// Move up
		parent := filepath.Dir(dir)
		if parent == dir {
			break // Reached filesystem root
		}
		dir = parent
	}

	if home != "" {
		return configIn(fs, filepath.Join(home, ".config", "sqlast")), nil
	}
	return "", nil // No config found, use defaults
}

// configIn returns sqlast.yaml or sqlast.yml in dir, preferring .yaml.
func configIn(fs afero.Fs, dir string) string {
	for _, name := range []string{"sqlast.yaml", "sqlast.yml"} {
		path := filepath.Join(dir, name)
		if _, err := fs.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	if !slices.Contains(Drivers, c.Database.Driver) {
		return fmt.Errorf("database.driver must be one of %s, got %q", strings.Join(Drivers, ", "), c.Database.Driver)
	}
	if !slices.Contains(Formats, c.Render.Format) {
		return fmt.Errorf("render.format must be one of %s, got %q", strings.Join(Formats, ", "), c.Render.Format)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	if c.Database.MaxConcurrency < 1 {
		return fmt.Errorf("database.max_concurrency must be positive, got %d", c.Database.MaxConcurrency)
	}
	if c.Exec.Timeout <= 0 {
		return fmt.Errorf("exec.timeout must be positive, got %s", c.Exec.Timeout)
	}
	return nil
}

// LogLevel parses log.level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// DSN returns the database connection string.
// If database.url is set, it's returned directly.
// Otherwise, builds a DSN from discrete fields.
func (c *Config) DSN() (string, error) {
	db := c.Database

	if db.URL != "" {
		return db.URL, nil
	}

	// Build DSN from discrete fields
	if db.Host == "" {
		return "", fmt.Errorf("database.host is required when database.url is not set")
	}
	if db.Name == "" {
		return "", fmt.Errorf("database.name is required when database.url is not set")
	}
	if db.User == "" {
		return "", fmt.Errorf("database.user is required when database.url is not set")
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   "/" + db.Name,
	}

	if db.Password != "" {
		u.User = url.UserPassword(db.User, db.Password)
	} else {
		u.User = url.User(db.User)
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}
