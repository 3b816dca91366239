package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Iron-Ham/tun2proxyctl/internal/binary"
	"github.com/Iron-Ham/tun2proxyctl/internal/privilege"
)

// AppName names the config directory, state directory and env prefix.
const AppName = "tun2proxyctl"

// EnvPrefix is the prefix for environment overrides, e.g.
// TUN2PROXYCTL_PROXY_HOST.
const EnvPrefix = "TUN2PROXYCTL"

// envKeyReplacer maps nested keys to env names: proxy.host -> PROXY_HOST.
var envKeyReplacer = strings.NewReplacer(".", "_")

// Config represents the complete tun2proxyctl configuration
type Config struct {
	Binary     BinaryConfig     `mapstructure:"binary" yaml:"binary"`
	Proxy      ProxyConfig      `mapstructure:"proxy" yaml:"proxy"`
	Supervisor SupervisorConfig `mapstructure:"supervisor" yaml:"supervisor"`
	TUI        TUIConfig        `mapstructure:"tui" yaml:"tui"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics" yaml:"metrics"`
}

// BinaryConfig locates the tun2proxy executable
type BinaryConfig struct {
	// Path is the executable to run. Empty means auto-detect.
	Path string `mapstructure:"path" yaml:"path"`
	// AutoDetect searches well-known locations and $PATH when Path is empty
	AutoDetect bool `mapstructure:"auto_detect" yaml:"auto_detect"`
	// Candidates are the install locations checked first by auto-detection
	Candidates []string `mapstructure:"candidates" yaml:"candidates"`
}

// ProxyConfig describes the upstream proxy tun2proxy tunnels through.
// URL, when set, is used verbatim and the other fields are ignored.
type ProxyConfig struct {
	URL      string `mapstructure:"url" yaml:"url"`
	Type     string `mapstructure:"type" yaml:"type"`
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
}

// SupervisorConfig controls process supervision and elevation
type SupervisorConfig struct {
	// Elevation selects the privilege channel: auto, osascript, pkexec, sudo, direct
	Elevation string `mapstructure:"elevation" yaml:"elevation"`
	// DNSMode is passed to tun2proxy as --dns
	DNSMode string `mapstructure:"dns_mode" yaml:"dns_mode"`
	// PermissionSignature is the stderr text that triggers the elevated retry
	PermissionSignature string `mapstructure:"permission_signature" yaml:"permission_signature"`
	// VerifyDaemon checks with pgrep that the daemon exists after an elevated start
	VerifyDaemon bool `mapstructure:"verify_daemon" yaml:"verify_daemon"`
	// VerifyDelayMs is how long to wait before that check
	VerifyDelayMs int `mapstructure:"verify_delay_ms" yaml:"verify_delay_ms"`
	// ShutdownTimeoutMs is how long a quit waits after SIGTERM before SIGKILL
	ShutdownTimeoutMs int `mapstructure:"shutdown_timeout_ms" yaml:"shutdown_timeout_ms"`
	// DrainTimeoutMs bounds output reading after the process exits
	DrainTimeoutMs int `mapstructure:"drain_timeout_ms" yaml:"drain_timeout_ms"`
	// StderrTailKB is the size of the rolling stderr buffer
	StderrTailKB int `mapstructure:"stderr_tail_kb" yaml:"stderr_tail_kb"`
}

// TUIConfig controls the terminal UI behavior
type TUIConfig struct {
	// MaxLogLines limits how many log lines the viewport keeps
	MaxLogLines int `mapstructure:"max_log_lines" yaml:"max_log_lines"`
	// ShowTimestamps prefixes each log line with its time
	ShowTimestamps bool `mapstructure:"show_timestamps" yaml:"show_timestamps"`
	// AutoStart starts tun2proxy as soon as the TUI opens
	AutoStart bool `mapstructure:"auto_start" yaml:"auto_start"`
}

// LoggingConfig controls the diagnostic log file
type LoggingConfig struct {
	// Enabled writes a JSON log to the state directory
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Level is the minimum level: debug, info, warn, error
	Level string `mapstructure:"level" yaml:"level"`
	// MaxSizeMB is the size at which the log file rotates
	MaxSizeMB int `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	// MaxBackups is how many rotated files to keep
	MaxBackups int `mapstructure:"max_backups" yaml:"max_backups"`
	// Compress gzips rotated files
	Compress bool `mapstructure:"compress" yaml:"compress"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	// Listen is the address for /metrics, e.g. "127.0.0.1:9464". Empty disables it.
	Listen string `mapstructure:"listen" yaml:"listen"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Binary: BinaryConfig{
			Path:       "",
			AutoDetect: true,
			Candidates: append([]string(nil), binary.DefaultCandidates...),
		},
		Proxy: ProxyConfig{
			Type: "socks5",
			Host: "127.0.0.1",
			Port: 1080,
		},
		Supervisor: SupervisorConfig{
			Elevation:           privilege.MethodAuto,
			DNSMode:             "virtual",
			PermissionSignature: "Operation not permitted",
			VerifyDaemon:        true,
			VerifyDelayMs:       2000,
			ShutdownTimeoutMs:   3000,
			DrainTimeoutMs:      2000,
			StderrTailKB:        64,
		},
		TUI: TUIConfig{
			MaxLogLines:    5000,
			ShowTimestamps: true,
			AutoStart:      false,
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			MaxSizeMB:  5,
			MaxBackups: 3,
			Compress:   false,
		},
		Metrics: MetricsConfig{
			Listen: "",
		},
	}
}

// VerifyDelay returns the daemon verification delay as a time.Duration
func (c *SupervisorConfig) VerifyDelay() time.Duration {
	return time.Duration(c.VerifyDelayMs) * time.Millisecond
}

// ShutdownTimeout returns the shutdown timeout as a time.Duration
func (c *SupervisorConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutMs) * time.Millisecond
}

// DrainTimeout returns the output drain timeout as a time.Duration
func (c *SupervisorConfig) DrainTimeout() time.Duration {
	return time.Duration(c.DrainTimeoutMs) * time.Millisecond
}

// StderrTailBytes returns the stderr buffer size in bytes
func (c *SupervisorConfig) StderrTailBytes() int {
	return c.StderrTailKB * 1024
}

// SetDefaults registers default values with the global viper instance
func SetDefaults() {
	SetDefaultsOn(viper.GetViper())
}

// SetDefaultsOn registers default values with v
func SetDefaultsOn(v *viper.Viper) {
	defaults := Default()

	// Binary defaults
	v.SetDefault("binary.path", defaults.Binary.Path)
	v.SetDefault("binary.auto_detect", defaults.Binary.AutoDetect)
	v.SetDefault("binary.candidates", defaults.Binary.Candidates)

	// Proxy defaults
	v.SetDefault("proxy.url", defaults.Proxy.URL)
	v.SetDefault("proxy.type", defaults.Proxy.Type)
	v.SetDefault("proxy.host", defaults.Proxy.Host)
	v.SetDefault("proxy.port", defaults.Proxy.Port)
	v.SetDefault("proxy.username", defaults.Proxy.Username)
	v.SetDefault("proxy.password", defaults.Proxy.Password)

	// Supervisor defaults
	v.SetDefault("supervisor.elevation", defaults.Supervisor.Elevation)
	v.SetDefault("supervisor.dns_mode", defaults.Supervisor.DNSMode)
	v.SetDefault("supervisor.permission_signature", defaults.Supervisor.PermissionSignature)
	v.SetDefault("supervisor.verify_daemon", defaults.Supervisor.VerifyDaemon)
	v.SetDefault("supervisor.verify_delay_ms", defaults.Supervisor.VerifyDelayMs)
	v.SetDefault("supervisor.shutdown_timeout_ms", defaults.Supervisor.ShutdownTimeoutMs)
	v.SetDefault("supervisor.drain_timeout_ms", defaults.Supervisor.DrainTimeoutMs)
	v.SetDefault("supervisor.stderr_tail_kb", defaults.Supervisor.StderrTailKB)

	// TUI defaults
	v.SetDefault("tui.max_log_lines", defaults.TUI.MaxLogLines)
	v.SetDefault("tui.show_timestamps", defaults.TUI.ShowTimestamps)
	v.SetDefault("tui.auto_start", defaults.TUI.AutoStart)

	// Logging defaults
	v.SetDefault("logging.enabled", defaults.Logging.Enabled)
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
	v.SetDefault("logging.compress", defaults.Logging.Compress)

	// Metrics defaults
	v.SetDefault("metrics.listen", defaults.Metrics.Listen)
}

// BindEnv enables TUN2PROXYCTL_* environment overrides on v
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()
}

// Load reads the configuration from the global viper into a Config struct
// and validates it
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads and validates the configuration held by v
func LoadFrom(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "." + AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// StateDir returns the directory for the diagnostic log
func StateDir() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "." + AppName
	}
	return filepath.Join(home, ".local", "state", AppName)
}
