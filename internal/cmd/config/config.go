// Package config provides CLI commands for managing tun2proxyctl configuration.
package config

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	appconfig "github.com/Iron-Ham/tun2proxyctl/internal/config"
	"github.com/Iron-Ham/tun2proxyctl/internal/privilege"
)

// Wrapper functions for exec to allow testing
var execLookPath = exec.LookPath
var execCommand = exec.Command

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify tun2proxyctl configuration",
	Long: `View or modify tun2proxyctl configuration.

Without arguments, displays the effective configuration.
Use subcommands to modify settings or create a config file.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration as YAML",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the user's config file.

Keys use dot notation, e.g.:
  tun2proxyctl config set proxy.port 9050
  tun2proxyctl config set supervisor.elevation sudo
  tun2proxyctl config set binary.path /usr/local/bin/tun2proxy-bin

Valid keys:
  binary.path                     - tun2proxy executable (empty = auto-detect)
  binary.auto_detect              - Search common locations and $PATH (true/false)
  proxy.url                       - Full proxy URL; overrides the fields below
  proxy.type                      - socks5, socks5h, socks4, socks4a, http, https
  proxy.host                      - Proxy host
  proxy.port                      - Proxy port
  proxy.username                  - Proxy user
  proxy.password                  - Proxy password
  supervisor.elevation            - auto, osascript, pkexec, sudo, direct
  supervisor.dns_mode             - virtual, over-tcp, direct
  supervisor.permission_signature - stderr text that triggers the elevated retry
  supervisor.verify_daemon        - Check the daemon with pgrep after elevation (true/false)
  supervisor.verify_delay_ms      - Delay before that check
  supervisor.shutdown_timeout_ms  - SIGTERM grace period on quit
  supervisor.drain_timeout_ms     - Output drain bound after exit
  supervisor.stderr_tail_kb       - Rolling stderr buffer size
  tui.max_log_lines               - Log lines kept in the TUI
  tui.show_timestamps             - Prefix log lines with time (true/false)
  tui.auto_start                  - Start tun2proxy when the TUI opens (true/false)
  logging.enabled                 - Write the diagnostic log (true/false)
  logging.level                   - debug, info, warn, error
  metrics.listen                  - Prometheus listen address (empty = off)`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/tun2proxyctl/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open config file in your editor",
	Long: `Open the config file in your preferred editor.

Uses $EDITOR environment variable, or falls back to common editors (vim, nano, vi).
If no config file exists, creates one with default values first.`,
	RunE: runConfigEdit,
}

var configResetCmd = &cobra.Command{
	Use:   "reset [key]",
	Short: "Reset configuration to defaults",
	Long: `Reset configuration values to their defaults.

Without arguments, resets all configuration to defaults.
With a key argument, resets only that specific key.

Examples:
  tun2proxyctl config reset                 # Reset all to defaults
  tun2proxyctl config reset proxy.port      # Reset only proxy.port`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigReset,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configResetCmd)
}

// Register adds all config-related commands to the given parent command.
func Register(parent *cobra.Command) {
	parent.AddCommand(configCmd)
}

// keyTypes maps each settable key to how its value is parsed.
var keyTypes = map[string]string{
	"binary.path":                     "string",
	"binary.auto_detect":              "bool",
	"proxy.url":                       "string",
	"proxy.type":                      "proxy_type",
	"proxy.host":                      "string",
	"proxy.port":                      "int",
	"proxy.username":                  "string",
	"proxy.password":                  "string",
	"supervisor.elevation":            "elevation",
	"supervisor.dns_mode":             "dns_mode",
	"supervisor.permission_signature": "string",
	"supervisor.verify_daemon":        "bool",
	"supervisor.verify_delay_ms":      "int",
	"supervisor.shutdown_timeout_ms":  "int",
	"supervisor.drain_timeout_ms":     "int",
	"supervisor.stderr_tail_kb":       "int",
	"tui.max_log_lines":               "int",
	"tui.show_timestamps":             "bool",
	"tui.auto_start":                  "bool",
	"logging.enabled":                 "bool",
	"logging.level":                   "log_level",
	"logging.max_size_mb":             "int",
	"logging.max_backups":             "int",
	"logging.compress":                "bool",
	"metrics.listen":                  "string",
}

// parseValue converts value according to the key's type.
func parseValue(key, value string) (any, error) {
	keyType, ok := keyTypes[key]
	if !ok {
		return nil, fmt.Errorf("unknown configuration key: %s\nRun 'tun2proxyctl config set --help' to see valid keys", key)
	}

	oneOf := func(valid []string) (any, error) {
		if !slices.Contains(valid, value) {
			return nil, fmt.Errorf("invalid value for %s: %s\nValid options: %s",
				key, value, strings.Join(valid, ", "))
		}
		return value, nil
	}

	switch keyType {
	case "proxy_type":
		return oneOf(appconfig.ValidProxyTypes())
	case "elevation":
		return oneOf(privilege.ValidMethods())
	case "dns_mode":
		return oneOf(appconfig.ValidDNSModes())
	case "log_level":
		return oneOf(appconfig.ValidLogLevels())
	case "bool":
		if value != "true" && value != "false" {
			return nil, fmt.Errorf("invalid value for %s: expected true or false", key)
		}
		return value == "true", nil
	case "int":
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: expected integer", key)
		}
		if intVal < 0 {
			return nil, fmt.Errorf("invalid value for %s: must be non-negative", key)
		}
		return intVal, nil
	default:
		return value, nil
	}
}

// redacted returns a copy of cfg that is safe to print.
func redacted(cfg *appconfig.Config) appconfig.Config {
	out := *cfg
	if out.Proxy.Password != "" {
		out.Proxy.Password = "********"
	}
	return out
}

// writeYAML renders cfg the way the config file is laid out.
func writeYAML(w io.Writer, cfg appconfig.Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	cfg := appconfig.Get()

	// Show where config is being read from
	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "# Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "# Config file: (none - using defaults)\n")
	}

	return writeYAML(out, redacted(cfg))
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]

	typedValue, err := parseValue(key, args[1])
	if err != nil {
		return err
	}

	// Set the value in viper and check the result before saving it
	previous := viper.Get(key)
	viper.Set(key, typedValue)
	if _, err := appconfig.Load(); err != nil {
		viper.Set(key, previous)
		return err
	}

	// Ensure config directory exists
	configDir := appconfig.ConfigDir()
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configFile := appconfig.ConfigFile()
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Set %s = %v\n", key, typedValue)
	fmt.Fprintf(out, "Config saved to %s\n", configFile)

	return nil
}

// defaultConfigContent is the commented file written by `config init`.
const defaultConfigContent = `# tun2proxyctl configuration

# The tun2proxy executable
binary:
  # Leave empty to auto-detect
  path: ""
  # Search the candidates below and then $PATH when path is empty
  auto_detect: true
  candidates:
    - /opt/homebrew/bin/tun2proxy-bin
    - /usr/local/bin/tun2proxy-bin
    - /opt/homebrew/bin/tun2proxy
    - /usr/local/bin/tun2proxy

# Upstream proxy. Set url to override the individual fields.
proxy:
  url: ""
  # socks5, socks5h, socks4, socks4a, http, https
  type: socks5
  host: 127.0.0.1
  port: 1080
  username: ""
  password: ""

# Process supervision
supervisor:
  # Privilege prompt: auto, osascript, pkexec, sudo, direct
  elevation: auto
  # Passed to tun2proxy as --dns: virtual, over-tcp, direct
  dns_mode: virtual
  # stderr text that triggers a single retry with administrator privileges
  permission_signature: Operation not permitted
  # Confirm with pgrep that the elevated daemon is running
  verify_daemon: true
  verify_delay_ms: 2000
  # How long quitting waits after SIGTERM before SIGKILL
  shutdown_timeout_ms: 3000
  # How long output is drained after the process exits
  drain_timeout_ms: 2000
  stderr_tail_kb: 64

# Terminal UI
tui:
  max_log_lines: 5000
  show_timestamps: true
  auto_start: false

# Diagnostic log in ~/.local/state/tun2proxyctl
logging:
  enabled: true
  # debug, info, warn, error
  level: info
  max_size_mb: 5
  max_backups: 3
  compress: false

# Prometheus endpoint, e.g. 127.0.0.1:9464. Empty disables it.
metrics:
  listen: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir := appconfig.ConfigDir()
	configFile := appconfig.ConfigFile()

	// Check if config file already exists
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s\nUse 'tun2proxyctl config set' to modify values", configFile)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configFile, []byte(defaultConfigContent), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created config file at %s\n", configFile)
	fmt.Fprintln(out, "Edit this file to customize tun2proxyctl's behavior.")

	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	configFile := appconfig.ConfigFile()

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Default path: %s (not created)\n", configFile)
	}

	fmt.Fprintln(out, "\nSearch paths:")
	fmt.Fprintf(out, "  1. %s\n", filepath.Join(appconfig.ConfigDir(), "config.yaml"))
	fmt.Fprintf(out, "  2. $HOME/.config/tun2proxyctl/config.yaml\n")
	fmt.Fprintf(out, "  3. ./config.yaml (current directory)\n")
	fmt.Fprintf(out, "\nEnvironment variables: %s_* (e.g., %s_PROXY_PORT)\n", appconfig.EnvPrefix, appconfig.EnvPrefix)

	return nil
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	configFile := appconfig.ConfigFile()

	// Check if config file exists, if not create it
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		fmt.Fprintf(cmd.OutOrStdout(), "Config file doesn't exist, creating with defaults...\n")
		if err := runConfigInit(cmd, args); err != nil {
			return err
		}
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		for _, e := range []string{"vim", "nano", "vi"} {
			if _, err := execLookPath(e); err == nil {
				editor = e
				break
			}
		}
	}
	if editor == "" {
		return fmt.Errorf("no editor found. Set $EDITOR environment variable")
	}

	editorCmd := execCommand(editor, configFile)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor exited with error: %w", err)
	}

	if _, err := appconfig.LoadFile(configFile); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: saved config is invalid: %v\n", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Config file saved: %s\n", configFile)
	return nil
}

// defaultValues flattens Default() into dotted keys.
func defaultValues() map[string]any {
	v := viper.New()
	appconfig.SetDefaultsOn(v)
	values := make(map[string]any, len(keyTypes))
	for key := range keyTypes {
		values[key] = v.Get(key)
	}
	return values
}

func runConfigReset(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	defaults := defaultValues()

	if len(args) == 0 {
		for key, value := range defaults {
			viper.Set(key, value)
		}
		fmt.Fprintln(out, "Reset all configuration to defaults.")
	} else {
		key := args[0]
		value, ok := defaults[key]
		if !ok {
			return fmt.Errorf("unknown configuration key: %s\nRun 'tun2proxyctl config set --help' to see valid keys", key)
		}
		viper.Set(key, value)
		fmt.Fprintf(out, "Reset %s to default: %v\n", key, value)
	}

	configDir := appconfig.ConfigDir()
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configFile := appconfig.ConfigFile()
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(out, "Config saved to %s\n", configFile)
	return nil
}
