package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Setting keys.
const (
	KeyAPIKey    = "api_key"
	KeyProjectID = "project_id"
	KeyProfile   = "profile"
	KeyConfig    = "config"
	KeyBaseURL   = "base_url"
	KeyTimeout   = "timeout"
	KeyLogLevel  = "log_level"
	KeyLogFormat = "log_format"
	KeyNoColor   = "no_color"
)

// DefaultPath is where the config file is looked up when --config is unset.
const DefaultPath = "~/.config/rcctl/config.hcl"

var (
	ErrMissingAPIKey    = errors.New("missing API key: set --api-key or REVENUECAT_API_KEY")
	ErrMissingProjectID = errors.New("missing project ID: set --project-id or REVENUECAT_PROJECT_ID")
	ErrUnknownProfile   = errors.New("unknown profile")
	ErrInvalidSetting   = errors.New("invalid setting")
)

// binding ties a setting key to its flag and environment variable.
type binding struct {
	key  string
	flag string
	env  string
}

var bindings = []binding{
	{key: KeyAPIKey, flag: "api-key", env: "REVENUECAT_API_KEY"},
	{key: KeyProjectID, flag: "project-id", env: "REVENUECAT_PROJECT_ID"},
	{key: KeyProfile, flag: "profile", env: "RCCTL_PROFILE"},
	{key: KeyConfig, flag: "config", env: "RCCTL_CONFIG"},
	{key: KeyBaseURL, flag: "base-url", env: "RCCTL_BASE_URL"},
	{key: KeyTimeout, flag: "timeout", env: "RCCTL_TIMEOUT"},
	{key: KeyLogLevel, flag: "log-level", env: "RCCTL_LOG_LEVEL"},
	{key: KeyLogFormat, flag: "log-format", env: "RCCTL_LOG_FORMAT"},
	{key: KeyNoColor, flag: "no-color"},
}

// Settings is the fully resolved configuration of one invocation.
type Settings struct {
	APIKey    string
	ProjectID string
	BaseURL   string
	Timeout   time.Duration
	Profile   string
	LogLevel  string
	LogFormat string
	NoColor   bool
}

// DefaultTimeout bounds each HTTP request when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// RegisterFlags defines the global flags on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP("api-key", "k", "", "RevenueCat API key (env REVENUECAT_API_KEY)")
	fs.StringP("project-id", "p", "", "RevenueCat project ID (env REVENUECAT_PROJECT_ID)")
	fs.String("profile", "", "profile to use from the config file (env RCCTL_PROFILE)")
	fs.String("config", "", "path to the HCL config file (default "+DefaultPath+")")
	fs.String("base-url", "", "override the API base URL (env RCCTL_BASE_URL)")
	fs.Duration("timeout", DefaultTimeout, "per-request timeout (env RCCTL_TIMEOUT)")
	fs.String("log-level", "warn", "log level: 'debug', 'info', 'warn', or 'error'")
	fs.String("log-format", "text", "log format: 'text' or 'json'")
	fs.Bool("no-color", false, "disable colored output (env NO_COLOR)")
}

// Bind registers every setting with v, wiring it to the flag of the same
// name in flags (when defined) and to its environment variable.
func Bind(v *viper.Viper, flags *pflag.FlagSet) error {
	for _, b := range bindings {
		if f := flags.Lookup(b.flag); f != nil {
			if err := v.BindPFlag(b.key, f); err != nil {
				return fmt.Errorf("bind flag %s: %w", b.flag, err)
			}
		}
		if b.env == "" {
			continue
		}
		if err := v.BindEnv(b.key, b.env); err != nil {
			return fmt.Errorf("bind env %s: %w", b.env, err)
		}
	}
	return nil
}

// Load resolves Settings from v. A .env file at dotEnvPath is loaded first
// when it exists; variables already in the environment win over it.
func Load(v *viper.Viper, dotEnvPath string) (*Settings, error) {
	if dotEnvPath != "" {
		if err := godotenv.Load(dotEnvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", dotEnvPath, err)
		}
	}

	if err := applyProfile(v); err != nil {
		return nil, err
	}

	s := &Settings{
		APIKey:    strings.TrimSpace(v.GetString(KeyAPIKey)),
		ProjectID: strings.TrimSpace(v.GetString(KeyProjectID)),
		BaseURL:   strings.TrimSpace(v.GetString(KeyBaseURL)),
		Profile:   v.GetString(KeyProfile),
		LogLevel:  strings.ToLower(strings.TrimSpace(v.GetString(KeyLogLevel))),
		LogFormat: strings.ToLower(strings.TrimSpace(v.GetString(KeyLogFormat))),
		// Any non-empty NO_COLOR disables color, whatever its value.
		NoColor: v.GetBool(KeyNoColor) || os.Getenv("NO_COLOR") != "",
	}

	if raw := strings.TrimSpace(v.GetString(KeyTimeout)); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("%w: timeout %q", ErrInvalidSetting, raw)
		}
		s.Timeout = d
	}

	switch s.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("%w: log-level must be 'debug', 'info', 'warn', or 'error'", ErrInvalidSetting)
	}
	switch s.LogFormat {
	case "", "text", "json":
	default:
		return nil, fmt.Errorf("%w: log-format must be 'text' or 'json'", ErrInvalidSetting)
	}

	return s, nil
}

// RequireCredentials reports a missing API key or project ID.
func (s *Settings) RequireCredentials() error {
	if s.APIKey == "" {
		return ErrMissingAPIKey
	}
	if s.ProjectID == "" {
		return ErrMissingProjectID
	}
	return nil
}

// applyProfile reads the config file and installs the selected profile's
// values as defaults, beneath flags and environment variables.
func applyProfile(v *viper.Viper) error {
	path := v.GetString(KeyConfig)
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return fmt.Errorf("expand config path %s: %w", path, err)
	}

	if explicit {
		if _, err := os.Stat(expanded); err != nil {
			return fmt.Errorf("error accessing config file %s: %w", expanded, err)
		}
	}
	file, err := LoadFile(expanded)
	if err != nil {
		return err
	}

	name := v.GetString(KeyProfile)
	if name == "" {
		name = file.DefaultProfile
	}
	if name == "" {
		return nil
	}
	profile := file.Profile(name)
	if profile == nil {
		return fmt.Errorf("%w %q in %s", ErrUnknownProfile, name, path)
	}

	v.SetDefault(KeyProfile, name)
	for key, value := range map[string]string{
		KeyAPIKey:    profile.APIKey,
		KeyProjectID: profile.ProjectID,
		KeyBaseURL:   profile.BaseURL,
		KeyTimeout:   profile.Timeout,
	} {
		if value != "" {
			v.SetDefault(key, value)
		}
	}
	return nil
}
