package config

import (
	"errors"
	"fmt"
	"os"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/satishbabariya/pgquery/runtime/client"
)

var AppFs = afero.NewOsFs()

var (
	ErrMissingDatabaseURL = errors.New("database URL is not set (use --database-url, DATABASE_URL or .pgquery.yaml)")
	ErrInvalidOutput      = errors.New("invalid output format")
)

// Keys understood by the config file, PGQUERY_* env vars and bound flags
const (
	KeyDatabaseURL  = "database_url"
	KeyProvider     = "provider"
	KeyOutput       = "output"
	KeyVerbose      = "verbose"
	KeyLogFormat    = "log_format"
	KeyPreviewLimit = "preview_limit"
)

const (
	OutputTable = "table"
	OutputJSON  = "json"
)

// Config holds the application configuration
type Config struct {
	DatabaseURL  string
	Provider     string
	Output       string
	Verbose      bool
	LogFormat    string
	PreviewLimit int
	// ConfigFile is the config file that was read, if any
	ConfigFile string
}

// Load loads configuration from .env files, the config file and the
// environment into v. Flags bound to v before Load take precedence.
func Load(v *viper.Viper) (*Config, error) {
	// .env.local is applied last and wins over .env; neither overrides the
	// real environment
	env, err := readDotenv(".env", ".env.local")
	if err != nil {
		return nil, err
	}
	for key, value := range env {
		if _, ok := os.LookupEnv(key); !ok {
			_ = os.Setenv(key, value)
		}
	}

	v.SetFs(AppFs)
	v.SetConfigName(".pgquery")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := homedir.Dir(); err == nil {
		v.AddConfigPath(home)
		v.AddConfigPath(filepath.Join(home, ".config", "pgquery"))
	}

	v.SetEnvPrefix("PGQUERY")
	v.AutomaticEnv()
	if err := v.BindEnv(KeyDatabaseURL, "PGQUERY_DATABASE_URL", "DATABASE_URL"); err != nil {
		return nil, err
	}

	v.SetDefault(KeyOutput, OutputTable)
	v.SetDefault(KeyVerbose, false)
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyPreviewLimit, 10)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		DatabaseURL:  v.GetString(KeyDatabaseURL),
		Provider:     v.GetString(KeyProvider),
		Output:       strings.ToLower(v.GetString(KeyOutput)),
		Verbose:      v.GetBool(KeyVerbose),
		LogFormat:    v.GetString(KeyLogFormat),
		PreviewLimit: v.GetInt(KeyPreviewLimit),
		ConfigFile:   v.ConfigFileUsed(),
	}
	if cfg.Provider == "" {
		cfg.Provider = DetectProvider(cfg.DatabaseURL)
	}

	return cfg, nil
}

// readDotenv parses the named files in order; later files override
// earlier ones. Missing files are skipped.
func readDotenv(names ...string) (map[string]string, error) {
	merged := make(map[string]string)
	for _, name := range names {
		if _, err := AppFs.Stat(name); err != nil {
			continue
		}

		f, err := AppFs.Open(name)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", name, err)
		}
		values, err := godotenv.Parse(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}

		for key, value := range values {
			merged[key] = value
		}
	}
	return merged, nil
}

// Validate checks the settings every database command needs
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return ErrMissingDatabaseURL
	}
	if client.DriverName(c.Provider) == "" {
		return fmt.Errorf("%w: %s", client.ErrUnsupportedProvider, c.Provider)
	}
	switch c.Output {
	case OutputTable, OutputJSON:
	default:
		return fmt.Errorf("%w: %q (want %s or %s)", ErrInvalidOutput, c.Output, OutputTable, OutputJSON)
	}
	return nil
}

// DetectProvider guesses the provider from a connection string
func DetectProvider(connStr string) string {
	lower := strings.ToLower(connStr)
	switch {
	case strings.HasPrefix(lower, "mysql://"), strings.Contains(lower, "@tcp("):
		return "mysql"
	case strings.HasPrefix(lower, "file:"), strings.HasPrefix(lower, "sqlite"),
		strings.HasSuffix(lower, ".db"), strings.HasSuffix(lower, ".sqlite"), lower == ":memory:":
		return "sqlite"
	default:
		return "postgresql"
	}
}

const redacted = "xxxxx"

// keyword/value DSNs quote values containing spaces with single quotes
var passwordKeyword = regexp.MustCompile(`(?i)\b(password\s*=\s*)('(?:[^'\\]|\\.)*'|\S+)`)

// Redact hides passwords in a connection string for display. It handles URLs
// (userinfo and the password query parameter), MySQL DSNs and libpq
// keyword/value strings.
func Redact(connStr string) string {
	if strings.Contains(connStr, "://") {
		if u, err := url.Parse(connStr); err == nil {
			return redactURL(u)
		}
	} else if DetectProvider(connStr) == "mysql" {
		if cfg, err := mysql.ParseDSN(connStr); err == nil {
			if cfg.Passwd != "" {
				cfg.Passwd = redacted
			}
			return cfg.FormatDSN()
		}
	}
	return passwordKeyword.ReplaceAllString(connStr, "${1}"+redacted)
}

func redactURL(u *url.URL) string {
	if u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), redacted)
		}
	}
	q := u.Query()
	for key := range q {
		if strings.EqualFold(key, "password") {
			q.Set(key, redacted)
			u.RawQuery = q.Encode()
		}
	}
	return u.String()
}
