package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Iron-Ham/tun2proxyctl/internal/privilege"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "supervisor.dns_mode")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidDNSModes returns the DNS strategies tun2proxy understands
func ValidDNSModes() []string {
	return []string{"virtual", "over-tcp", "direct"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateBinary()...)
	errors = append(errors, c.Proxy.validate()...)
	errors = append(errors, c.validateSupervisor()...)
	errors = append(errors, c.validateTUI()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

// validateBinary validates the BinaryConfig
func (c *Config) validateBinary() []ValidationError {
	var errors []ValidationError

	if strings.ContainsRune(c.Binary.Path, '\x00') {
		errors = append(errors, ValidationError{
			Field:   "binary.path",
			Value:   c.Binary.Path,
			Message: "path contains invalid null character",
		})
	}
	if c.Binary.Path == "" && !c.Binary.AutoDetect {
		errors = append(errors, ValidationError{
			Field:   "binary.path",
			Value:   c.Binary.Path,
			Message: "must be set when binary.auto_detect is false",
		})
	}
	for i, p := range c.Binary.Candidates {
		if !strings.HasPrefix(p, "/") {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("binary.candidates[%d]", i),
				Value:   p,
				Message: "must be an absolute path",
			})
		}
	}

	return errors
}

// validateSupervisor validates the SupervisorConfig
func (c *Config) validateSupervisor() []ValidationError {
	var errors []ValidationError
	s := c.Supervisor

	if !slices.Contains(privilege.ValidMethods(), s.Elevation) {
		errors = append(errors, ValidationError{
			Field:   "supervisor.elevation",
			Value:   s.Elevation,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(privilege.ValidMethods(), ", ")),
		})
	}
	if !slices.Contains(ValidDNSModes(), s.DNSMode) {
		errors = append(errors, ValidationError{
			Field:   "supervisor.dns_mode",
			Value:   s.DNSMode,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidDNSModes(), ", ")),
		})
	}
	if strings.TrimSpace(s.PermissionSignature) == "" {
		errors = append(errors, ValidationError{
			Field:   "supervisor.permission_signature",
			Value:   s.PermissionSignature,
			Message: "must not be empty",
		})
	}

	if s.VerifyDelayMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "supervisor.verify_delay_ms",
			Value:   s.VerifyDelayMs,
			Message: "must be non-negative",
		})
	}

	// Reasonable bounds for timeouts (100ms to 1 minute)
	const minTimeoutMs, maxTimeoutMs = 100, 60000
	for _, f := range []struct {
		name  string
		value int
	}{
		{"supervisor.shutdown_timeout_ms", s.ShutdownTimeoutMs},
		{"supervisor.drain_timeout_ms", s.DrainTimeoutMs},
	} {
		if f.value < minTimeoutMs || f.value > maxTimeoutMs {
			errors = append(errors, ValidationError{
				Field:   f.name,
				Value:   f.value,
				Message: fmt.Sprintf("must be between %d and %d", minTimeoutMs, maxTimeoutMs),
			})
		}
	}

	const maxTailKB = 16 * 1024
	if s.StderrTailKB < 1 || s.StderrTailKB > maxTailKB {
		errors = append(errors, ValidationError{
			Field:   "supervisor.stderr_tail_kb",
			Value:   s.StderrTailKB,
			Message: fmt.Sprintf("must be between 1 and %d", maxTailKB),
		})
	}

	return errors
}

// validateTUI validates the TUIConfig
func (c *Config) validateTUI() []ValidationError {
	var errors []ValidationError

	if c.TUI.MaxLogLines < 100 {
		errors = append(errors, ValidationError{
			Field:   "tui.max_log_lines",
			Value:   c.TUI.MaxLogLines,
			Message: "must be at least 100",
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	// Validate log level
	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	// Max size must be positive
	if c.Logging.MaxSizeMB <= 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be positive",
		})
	}

	const maxLogSizeMB = 1000 // 1GB
	if c.Logging.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}

	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}
