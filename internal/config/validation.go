// validation.go - Startup validation of the loaded configuration.
//
// All problems are collected and reported together so a bad deployment fails
// once with the full list.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// FieldError is a single configuration problem.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("config validation failed for %s: %s", e.Field, e.Message)
}

// ValidationError aggregates every FieldError found.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "configuration validation failed with %d error(s):", len(e.Fields))
	for i, f := range e.Fields {
		fmt.Fprintf(&sb, "\n  %d. %s", i+1, f.Error())
	}
	return sb.String()
}

// Validator collects configuration errors.
type Validator struct {
	errors []FieldError
}

// AddError adds a validation error.
func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, FieldError{Field: field, Message: message})
}

// HasErrors returns true if there are validation errors.
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Err returns a *ValidationError, or nil when nothing was reported.
func (v *Validator) Err() error {
	if !v.HasErrors() {
		return nil
	}
	return &ValidationError{Fields: v.errors}
}

// ValidateAddr checks a host:port listen address.
func (v *Validator) ValidateAddr(key, value string) {
	if value == "" {
		v.AddError(key, "must not be empty")
		return
	}

	_, portStr, err := net.SplitHostPort(value)
	if err != nil {
		v.AddError(key, fmt.Sprintf("must be host:port (%v)", err))
		return
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		v.AddError(key, "port must be a number")
		return
	}

	// 0 lets the kernel pick a port.
	if port < 0 || port > 65535 {
		v.AddError(key, "port must be between 0 and 65535")
	}
}

// ValidateEnum validates that a value is one of allowed options.
func (v *Validator) ValidateEnum(key, value string, allowed []string) {
	for _, opt := range allowed {
		if value == opt {
			return
		}
	}

	v.AddError(key, fmt.Sprintf("must be one of: %s (got: %q)", strings.Join(allowed, ", "), value))
}

// ValidateDir checks that value names an existing directory.
func (v *Validator) ValidateDir(key, value string) {
	if value == "" {
		v.AddError(key, "must not be empty")
		return
	}

	info, err := os.Stat(value)
	if err != nil {
		v.AddError(key, fmt.Sprintf("cannot access directory: %v", err))
		return
	}
	if !info.IsDir() {
		v.AddError(key, "must be a directory")
	}
}

// ValidatePositiveDuration rejects zero and negative durations.
func (v *Validator) ValidatePositiveDuration(key string, d time.Duration) {
	if d <= 0 {
		v.AddError(key, fmt.Sprintf("must be a positive duration (got %s)", d))
	}
}

// ValidateNonNegativeInt rejects negative values.
func (v *Validator) ValidateNonNegativeInt(key string, n int) {
	if n < 0 {
		v.AddError(key, fmt.Sprintf("must not be negative (got %d)", n))
	}
}

// Validate checks every field of cfg.
func Validate(cfg Config) error {
	var v Validator

	v.ValidateAddr(OptionNameAddr, cfg.Addr)
	v.ValidateDir(OptionNameDataDir, cfg.DataDir)
	v.ValidateEnum(OptionNameLogLevel, cfg.LogLevel, []string{"debug", "info", "warn", "error"})
	v.ValidateEnum(OptionNameLogFormat, cfg.LogFormat, []string{"text", "json"})
	v.ValidatePositiveDuration(OptionNameShutdownTimeout, cfg.ShutdownTimeout)
	v.ValidateNonNegativeInt(OptionNameRateLimit, cfg.RateLimit)
	if cfg.RateLimit > 0 {
		v.ValidatePositiveDuration(OptionNameRateWindow, cfg.RateWindow)
	}

	return v.Err()
}
